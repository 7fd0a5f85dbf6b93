package uniswap

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/liquidity-bot/internal/apperror"
)

// ERC20 adapts one deployed token contract to the FungibleAsset port.
type ERC20 struct {
	hub  *Hub
	addr common.Address
}

// Address returns the token contract address.
func (t *ERC20) Address() common.Address {
	return t.addr
}

// viewCall packs, executes and unpacks a read-only token call.
func (t *ERC20) viewCall(ctx context.Context, method string, args ...any) ([]any, error) {
	data, err := t.hub.erc20ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", method, err)
	}

	result, err := t.hub.call(ctx, t.addr, data)
	if err != nil {
		return nil, err
	}

	outputs, err := t.hub.erc20ABI.Unpack(method, result)
	if err != nil {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("decode %s result from %s", method, t.addr.Hex())))
	}
	return outputs, nil
}

// Decimals queries the token's declared precision.
func (t *ERC20) Decimals(ctx context.Context) (uint8, error) {
	outputs, err := t.viewCall(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	decimals, ok := outputs[0].(uint8)
	if !ok {
		return 0, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithContext(fmt.Sprintf("unexpected decimals type from %s", t.addr.Hex())))
	}
	return decimals, nil
}

// Symbol queries the token's symbol.
func (t *ERC20) Symbol(ctx context.Context) (string, error) {
	outputs, err := t.viewCall(ctx, "symbol")
	if err != nil {
		return "", err
	}
	symbol, ok := outputs[0].(string)
	if !ok {
		return "", apperror.New(apperror.CodeContractCallFailed,
			apperror.WithContext(fmt.Sprintf("unexpected symbol type from %s", t.addr.Hex())))
	}
	return symbol, nil
}

// BalanceOf queries an address's token balance.
func (t *ERC20) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	outputs, err := t.viewCall(ctx, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	return toBigInt(outputs[0], t.addr, "balanceOf")
}

// Allowance queries the amount a spender may draw from an owner.
func (t *ERC20) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	outputs, err := t.viewCall(ctx, "allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	return toBigInt(outputs[0], t.addr, "allowance")
}

// Approve submits an approval transaction and returns its hash.
func (t *ERC20) Approve(ctx context.Context, spender common.Address, amount *big.Int) (common.Hash, error) {
	data, err := t.hub.erc20ABI.Pack("approve", spender, amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode approve: %w", err)
	}
	return t.hub.txn.Submit(ctx, t.addr, nil, data)
}

// Transfer submits a transfer transaction and returns its hash.
func (t *ERC20) Transfer(ctx context.Context, to common.Address, amount *big.Int) (common.Hash, error) {
	data, err := t.hub.erc20ABI.Pack("transfer", to, amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode transfer: %w", err)
	}
	return t.hub.txn.Submit(ctx, t.addr, nil, data)
}

func toBigInt(v any, addr common.Address, method string) (*big.Int, error) {
	n, ok := v.(*big.Int)
	if !ok {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithContext(fmt.Sprintf("unexpected %s type from %s", method, addr.Hex())))
	}
	return n, nil
}
