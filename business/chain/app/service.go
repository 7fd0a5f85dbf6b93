// Package app contains application services and port definitions for the chain context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/fd1az/liquidity-bot/business/chain/domain"
	"github.com/fd1az/liquidity-bot/internal/apperror"
)

// ChainService coordinates node access, gas pricing and transaction lifecycle.
type ChainService struct {
	provider NodeProvider
	waiter   TxWaiter
	sender   TxSender
	oracle   GasOracle
	signer   *domain.Signer
}

// NewChainService creates a new ChainService.
func NewChainService(provider NodeProvider, waiter TxWaiter, sender TxSender, oracle GasOracle, signer *domain.Signer) *ChainService {
	return &ChainService{
		provider: provider,
		waiter:   waiter,
		sender:   sender,
		oracle:   oracle,
		signer:   signer,
	}
}

// Signer returns the configured transaction signer.
func (s *ChainService) Signer() *domain.Signer {
	return s.signer
}

// SignerAddress returns the address transactions are sent from.
func (s *ChainService) SignerAddress() common.Address {
	return s.signer.Address()
}

// EnsureReady verifies the node is reachable, on the expected chain and
// fully synced. Called once at startup before any transaction is sent.
func (s *ChainService) EnsureReady(ctx context.Context, wantChainID uint64) error {
	gotChainID, err := s.provider.ChainID(ctx)
	if err != nil {
		return err
	}
	if gotChainID != wantChainID {
		return apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithContext("node chain ID mismatch"))
	}

	syncing, err := s.provider.Syncing(ctx)
	if err != nil {
		return err
	}
	if syncing {
		return apperror.New(apperror.CodeNodeSyncing,
			apperror.WithContext("node is still syncing"))
	}

	return nil
}

// NativeBalance retrieves the signer's native coin balance.
func (s *ChainService) NativeBalance(ctx context.Context) (*big.Int, error) {
	return s.provider.NativeBalance(ctx, s.signer.Address())
}

// GetGasPrice retrieves the current gas price.
func (s *ChainService) GetGasPrice(ctx context.Context) (*domain.GasPrice, error) {
	return s.oracle.GetGasPrice(ctx)
}

// Submit sends a transaction and returns its hash without waiting.
func (s *ChainService) Submit(ctx context.Context, to common.Address, value *big.Int, data []byte) (common.Hash, error) {
	return s.sender.Send(ctx, s.signer, to, value, data)
}

// SubmitAndWait sends a transaction and blocks until it is mined or the
// confirmation window elapses.
func (s *ChainService) SubmitAndWait(ctx context.Context, to common.Address, value *big.Int, data []byte) (*types.Receipt, error) {
	hash, err := s.sender.Send(ctx, s.signer, to, value, data)
	if err != nil {
		return nil, err
	}
	return s.waiter.WaitMined(ctx, hash)
}

// WaitMined blocks until the transaction is mined or the confirmation
// window elapses.
func (s *ChainService) WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	return s.waiter.WaitMined(ctx, hash)
}

// Receipt performs a single receipt lookup for an already mined transaction.
func (s *ChainService) Receipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	return s.waiter.Receipt(ctx, hash)
}
