package uniswap

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/liquidity-bot/internal/apperror"
)

// Router adapts the V2 router contract to the LiquidityRouter port.
type Router struct {
	hub  *Hub
	addr common.Address
}

// Address returns the router contract address.
func (r *Router) Address() common.Address {
	return r.addr
}

func (r *Router) deploymentAddr(ctx context.Context, method string) (common.Address, error) {
	data, err := r.hub.routerABI.Pack(method)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to encode %s: %w", method, err)
	}

	result, err := r.hub.call(ctx, r.addr, data)
	if err != nil {
		return common.Address{}, err
	}

	outputs, err := r.hub.routerABI.Unpack(method, result)
	if err != nil {
		return common.Address{}, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("decode %s result", method)))
	}

	addr, ok := outputs[0].(common.Address)
	if !ok {
		return common.Address{}, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithContext(fmt.Sprintf("unexpected %s type", method)))
	}
	return addr, nil
}

// Factory returns the factory address the router was deployed against.
func (r *Router) Factory(ctx context.Context) (common.Address, error) {
	return r.deploymentAddr(ctx, "factory")
}

// WETH returns the wrapped-native address the router was deployed against.
func (r *Router) WETH(ctx context.Context) (common.Address, error) {
	return r.deploymentAddr(ctx, "WETH")
}

// AddLiquidityETH submits an add-liquidity transaction pairing the token
// with the native coin carried as the call value.
func (r *Router) AddLiquidityETH(ctx context.Context, token common.Address, amountTokenDesired, amountTokenMin, amountETHMin, ethValue *big.Int, to common.Address, deadline *big.Int) (common.Hash, error) {
	data, err := r.hub.routerABI.Pack("addLiquidityETH",
		token, amountTokenDesired, amountTokenMin, amountETHMin, to, deadline)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode addLiquidityETH: %w", err)
	}
	return r.hub.txn.Submit(ctx, r.addr, ethValue, data)
}

// RemoveLiquidityETH submits a removal transaction redeeming liquidity
// tokens for the underlying token and native coin.
func (r *Router) RemoveLiquidityETH(ctx context.Context, token common.Address, liquidity, amountTokenMin, amountETHMin *big.Int, to common.Address, deadline *big.Int) (common.Hash, error) {
	data, err := r.hub.routerABI.Pack("removeLiquidityETH",
		token, liquidity, amountTokenMin, amountETHMin, to, deadline)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode removeLiquidityETH: %w", err)
	}
	return r.hub.txn.Submit(ctx, r.addr, nil, data)
}
