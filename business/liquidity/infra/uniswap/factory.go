package uniswap

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/liquidity-bot/internal/apperror"
)

// Factory adapts the V2 factory contract to the PairFactory port.
type Factory struct {
	hub  *Hub
	addr common.Address
}

// Address returns the factory contract address.
func (f *Factory) Address() common.Address {
	return f.addr
}

// GetPair queries the factory for an existing pair. The zero address means
// no pair exists.
func (f *Factory) GetPair(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error) {
	data, err := f.hub.factoryABI.Pack("getPair", tokenA, tokenB)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to encode getPair: %w", err)
	}

	result, err := f.hub.call(ctx, f.addr, data)
	if err != nil {
		return common.Address{}, err
	}

	outputs, err := f.hub.factoryABI.Unpack("getPair", result)
	if err != nil {
		return common.Address{}, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext("decode getPair result"))
	}

	pair, ok := outputs[0].(common.Address)
	if !ok {
		return common.Address{}, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithContext("unexpected getPair type"))
	}
	return pair, nil
}

// CreatePair submits a pair creation transaction and returns its hash. The
// resulting address is obtained by a later GetPair, not from this call.
func (f *Factory) CreatePair(ctx context.Context, tokenA, tokenB common.Address) (common.Hash, error) {
	data, err := f.hub.factoryABI.Pack("createPair", tokenA, tokenB)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode createPair: %w", err)
	}
	return f.hub.txn.Submit(ctx, f.addr, nil, data)
}
