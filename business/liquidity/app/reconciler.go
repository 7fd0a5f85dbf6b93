package app

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/liquidity-bot/business/liquidity/domain"
	"github.com/fd1az/liquidity-bot/internal/apperror"
	"github.com/fd1az/liquidity-bot/internal/asset"
	"github.com/fd1az/liquidity-bot/internal/logger"
)

// assetResolver resolves token addresses and the native coin to registered
// assets.
type assetResolver interface {
	ResolveAsset(ctx context.Context, addr common.Address) (*asset.Asset, error)
	NativeAsset() *asset.Asset
}

// ReconcilerService rebuilds before/after balance snapshots around a
// confirmed transaction from its emitted transfer events, and persists both
// as audit artifacts.
type ReconcilerService struct {
	chain     ChainClient
	contracts Contracts
	resolver  assetResolver
	store     SnapshotStore
	logger    logger.LoggerInterface
	tracer    trace.Tracer
}

// NewReconcilerService creates a reconciler.
func NewReconcilerService(chain ChainClient, contracts Contracts, resolver assetResolver, store SnapshotStore, log logger.LoggerInterface) *ReconcilerService {
	return &ReconcilerService{
		chain:     chain,
		contracts: contracts,
		resolver:  resolver,
		store:     store,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
	}
}

// Snapshot reads the current balances of the tracked assets for owner.
func (r *ReconcilerService) Snapshot(ctx context.Context, label string, txHash common.Hash, owner common.Address, assetAddrs []common.Address) (domain.BalanceSnapshot, error) {
	amounts := make([]asset.Amount, 0, len(assetAddrs))

	for _, addr := range assetAddrs {
		a, err := r.resolver.ResolveAsset(ctx, addr)
		if err != nil {
			return domain.BalanceSnapshot{}, err
		}

		raw, err := r.contracts.Fungible(addr).BalanceOf(ctx, owner)
		if err != nil {
			return domain.BalanceSnapshot{}, err
		}

		amounts = append(amounts, asset.NewAmount(a, raw))
	}

	// The native balance is part of the audit picture too. It can only be
	// read for the signer, and transfer logs never attribute native moves,
	// so reconstruction carries it over unchanged.
	if owner == r.chain.SignerAddress() {
		raw, err := r.chain.NativeBalance(ctx)
		if err != nil {
			return domain.BalanceSnapshot{}, err
		}
		amounts = append(amounts, asset.NewAmount(r.resolver.NativeAsset(), raw))
	}

	return domain.NewSnapshot(label, txHash, amounts), nil
}

// Reconstruct derives the pre-transaction snapshot for a confirmed removal:
// current balances are observed as "after", the receipt's transfer events
// attribute what arrived, and "before" falls out as the difference. Both
// snapshots are persisted.
func (r *ReconcilerService) Reconstruct(ctx context.Context, txHash common.Hash, owner common.Address, assetAddrs []common.Address) (before, after domain.BalanceSnapshot, err error) {
	ctx, span := r.tracer.Start(ctx, "liquidity.reconstruct",
		trace.WithAttributes(
			attribute.String("tx_hash", txHash.Hex()),
			attribute.Int("assets", len(assetAddrs)),
		),
	)
	defer span.End()

	receipt, err := r.chain.Receipt(ctx, txHash)
	if err != nil {
		span.RecordError(err)
		return before, after, err
	}
	if receipt == nil {
		err = apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithContext(fmt.Sprintf("no receipt for %s, transaction not yet mined", txHash.Hex())))
		span.RecordError(err)
		span.SetStatus(codes.Error, "receipt missing")
		return before, after, err
	}

	after, err = r.Snapshot(ctx, "after", txHash, owner, assetAddrs)
	if err != nil {
		span.RecordError(err)
		return before, after, err
	}

	before, err = domain.ReconstructBefore(after, receipt, owner)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reconstruction failed")
		return before, after, err
	}

	if err = r.store.Save(ctx, before); err != nil {
		err = apperror.Wrap(err, apperror.CodeSnapshotPersistFailed, "persist before snapshot")
		span.RecordError(err)
		return before, after, err
	}
	if err = r.store.Save(ctx, after); err != nil {
		err = apperror.Wrap(err, apperror.CodeSnapshotPersistFailed, "persist after snapshot")
		span.RecordError(err)
		return before, after, err
	}

	span.SetStatus(codes.Ok, "reconstructed")
	r.logger.Info(ctx, "balance snapshots reconciled",
		"tx_hash", txHash.Hex(),
		"assets", len(assetAddrs),
	)

	return before, after, nil
}
