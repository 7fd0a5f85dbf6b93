package uniswap

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/liquidity-bot/internal/apperror"
)

// Pair adapts a V2 pool contract to the LiquidityPair port. Its liquidity
// token surface comes from the embedded ERC20 adapter.
type Pair struct {
	ERC20
}

func (p *Pair) pairCall(ctx context.Context, method string) ([]any, error) {
	data, err := p.hub.pairABI.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", method, err)
	}

	result, err := p.hub.call(ctx, p.addr, data)
	if err != nil {
		return nil, err
	}

	outputs, err := p.hub.pairABI.Unpack(method, result)
	if err != nil {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("decode %s result from %s", method, p.addr.Hex())))
	}
	return outputs, nil
}

func (p *Pair) tokenAt(ctx context.Context, method string) (common.Address, error) {
	outputs, err := p.pairCall(ctx, method)
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := outputs[0].(common.Address)
	if !ok {
		return common.Address{}, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithContext(fmt.Sprintf("unexpected %s type from %s", method, p.addr.Hex())))
	}
	return addr, nil
}

// Token0 returns the pool's first asset.
func (p *Pair) Token0(ctx context.Context) (common.Address, error) {
	return p.tokenAt(ctx, "token0")
}

// Token1 returns the pool's second asset.
func (p *Pair) Token1(ctx context.Context) (common.Address, error) {
	return p.tokenAt(ctx, "token1")
}

// Reserves returns the pool's current reserves in token0/token1 order.
func (p *Pair) Reserves(ctx context.Context) (*big.Int, *big.Int, error) {
	outputs, err := p.pairCall(ctx, "getReserves")
	if err != nil {
		return nil, nil, err
	}

	reserve0, err := toBigInt(outputs[0], p.addr, "getReserves")
	if err != nil {
		return nil, nil, err
	}
	reserve1, err := toBigInt(outputs[1], p.addr, "getReserves")
	if err != nil {
		return nil, nil, err
	}

	return reserve0, reserve1, nil
}

// TotalSupply returns the liquidity token supply.
func (p *Pair) TotalSupply(ctx context.Context) (*big.Int, error) {
	outputs, err := p.pairCall(ctx, "totalSupply")
	if err != nil {
		return nil, err
	}
	return toBigInt(outputs[0], p.addr, "totalSupply")
}

// Burn submits a burn transaction redeeming the liquidity tokens previously
// transferred to the pool, paying out to the given address.
func (p *Pair) Burn(ctx context.Context, to common.Address) (common.Hash, error) {
	data, err := p.hub.pairABI.Pack("burn", to)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode burn: %w", err)
	}
	return p.hub.txn.Submit(ctx, p.addr, nil, data)
}
