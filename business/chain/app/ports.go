// Package app contains application services and port definitions for the chain context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/fd1az/liquidity-bot/business/chain/domain"
)

// NodeProvider defines read access to the connected Ethereum node.
type NodeProvider interface {
	// NativeBalance retrieves the native coin balance of an address.
	NativeBalance(ctx context.Context, addr common.Address) (*big.Int, error)

	// Syncing reports whether the node is still catching up to the chain head.
	Syncing(ctx context.Context) (bool, error)

	// ChainID returns the chain ID reported by the node.
	ChainID(ctx context.Context) (uint64, error)
}

// TxWaiter polls for transaction receipts until inclusion or timeout.
type TxWaiter interface {
	// WaitMined polls for the receipt of hash. It returns the receipt once
	// the transaction is included, or an error on revert or timeout. A
	// timeout does not mean the transaction failed; it may still be mined.
	WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error)

	// Receipt performs a single receipt lookup. A nil receipt with nil
	// error means the transaction is not yet included.
	Receipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// TxSender builds, signs and submits transactions.
type TxSender interface {
	// Send submits a contract call or transfer and returns the tx hash.
	Send(ctx context.Context, signer *domain.Signer, to common.Address, value *big.Int, data []byte) (common.Hash, error)
}

// GasOracle defines the interface for gas price information.
type GasOracle interface {
	// GetGasPrice retrieves the current gas price.
	GetGasPrice(ctx context.Context) (*domain.GasPrice, error)

	// EstimateGas estimates the gas needed for a transaction.
	EstimateGas(ctx context.Context, from common.Address, to common.Address, value *big.Int, data []byte) (uint64, error)
}
