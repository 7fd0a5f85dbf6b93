// Package app contains application services and port definitions for the liquidity context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	chainDomain "github.com/fd1az/liquidity-bot/business/chain/domain"
	"github.com/fd1az/liquidity-bot/business/liquidity/domain"
)

// ChainClient is what the liquidity context needs from the chain context:
// the signing identity, balance and gas reads, and the transaction lifecycle.
type ChainClient interface {
	SignerAddress() common.Address
	NativeBalance(ctx context.Context) (*big.Int, error)
	GetGasPrice(ctx context.Context) (*chainDomain.GasPrice, error)
	Submit(ctx context.Context, to common.Address, value *big.Int, data []byte) (common.Hash, error)
	WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	Receipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// FungibleAsset is the capability surface of an ERC-20 style token.
type FungibleAsset interface {
	Address() common.Address
	Decimals(ctx context.Context) (uint8, error)
	Symbol(ctx context.Context) (string, error)
	BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error)
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)

	// Approve submits an approval transaction and returns its hash without
	// waiting for inclusion.
	Approve(ctx context.Context, spender common.Address, amount *big.Int) (common.Hash, error)

	// Transfer submits a transfer transaction and returns its hash.
	Transfer(ctx context.Context, to common.Address, amount *big.Int) (common.Hash, error)
}

// WrappedNative is the wrapped form of the chain's native coin. Its token
// side behaves like any fungible asset; Withdraw unwraps back to native.
type WrappedNative interface {
	FungibleAsset
	Withdraw(ctx context.Context, amount *big.Int) (common.Hash, error)
}

// PairFactory creates and looks up liquidity pairs.
type PairFactory interface {
	Address() common.Address

	// GetPair returns the pair address for two assets, or the zero address
	// when no pair exists.
	GetPair(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error)

	// CreatePair submits a pair creation transaction and returns its hash.
	CreatePair(ctx context.Context, tokenA, tokenB common.Address) (common.Hash, error)
}

// LiquidityPair is a pool holding reserves of two assets. Its liquidity
// position token is itself fungible.
type LiquidityPair interface {
	FungibleAsset
	Token0(ctx context.Context) (common.Address, error)
	Token1(ctx context.Context) (common.Address, error)
	Reserves(ctx context.Context) (reserve0, reserve1 *big.Int, err error)
	TotalSupply(ctx context.Context) (*big.Int, error)

	// Burn redeems the liquidity tokens previously transferred to the pair,
	// sending the underlying assets to the given address.
	Burn(ctx context.Context, to common.Address) (common.Hash, error)
}

// LiquidityRouter is the router entry point for adding and removing
// liquidity against the wrapped-native side of a pair. Factory and WETH
// report the deployment the router was built against.
type LiquidityRouter interface {
	Address() common.Address
	Factory(ctx context.Context) (common.Address, error)
	WETH(ctx context.Context) (common.Address, error)
	AddLiquidityETH(ctx context.Context, token common.Address, amountTokenDesired, amountTokenMin, amountETHMin, ethValue *big.Int, to common.Address, deadline *big.Int) (common.Hash, error)
	RemoveLiquidityETH(ctx context.Context, token common.Address, liquidity, amountTokenMin, amountETHMin *big.Int, to common.Address, deadline *big.Int) (common.Hash, error)
}

// Contracts hands out adapters for the on-chain collaborators. Token and
// pair adapters are constructed per address since batch operations touch a
// caller-supplied set of assets.
type Contracts interface {
	Fungible(addr common.Address) FungibleAsset
	Pair(addr common.Address) LiquidityPair
	Factory() PairFactory
	Router() LiquidityRouter
	Wrapped() WrappedNative
}

// SnapshotStore persists balance snapshots as audit artifacts.
type SnapshotStore interface {
	Save(ctx context.Context, snap domain.BalanceSnapshot) error
}
