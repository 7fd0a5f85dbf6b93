package app

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/liquidity-bot/internal/apperror"
	"github.com/fd1az/liquidity-bot/internal/logger"
)

// PairResolver looks up the liquidity pair for a two-asset key and creates
// it when absent. Resolution is idempotent: once a pair exists every
// subsequent call observes the same address without submitting anything.
type PairResolver struct {
	factory PairFactory
	chain   ChainClient
	logger  logger.LoggerInterface
	tracer  trace.Tracer
}

// NewPairResolver creates a pair resolver.
func NewPairResolver(factory PairFactory, chain ChainClient, log logger.LoggerInterface) *PairResolver {
	return &PairResolver{
		factory: factory,
		chain:   chain,
		logger:  log,
		tracer:  otel.Tracer(tracerName),
	}
}

// Resolve returns the pair address for the two assets, creating the pair if
// it does not exist yet. It reports whether a creation transaction was
// submitted. The address returned after creation comes from a fresh factory
// lookup, not from the creation call itself.
func (r *PairResolver) Resolve(ctx context.Context, tokenA, tokenB common.Address) (common.Address, bool, error) {
	ctx, span := r.tracer.Start(ctx, "liquidity.resolve_pair",
		trace.WithAttributes(
			attribute.String("token_a", tokenA.Hex()),
			attribute.String("token_b", tokenB.Hex()),
		),
	)
	defer span.End()

	pair, err := r.factory.GetPair(ctx, tokenA, tokenB)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "factory lookup failed")
		return common.Address{}, false, err
	}

	if pair != (common.Address{}) {
		span.SetAttributes(attribute.String("pair", pair.Hex()))
		span.SetStatus(codes.Ok, "existing")
		return pair, false, nil
	}

	hash, err := r.factory.CreatePair(ctx, tokenA, tokenB)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create submit failed")
		return common.Address{}, false, apperror.Wrap(err, apperror.CodePairCreationFailed,
			fmt.Sprintf("create pair %s/%s", tokenA.Hex(), tokenB.Hex()))
	}

	r.logger.Info(ctx, "pair creation submitted",
		"token_a", tokenA.Hex(),
		"token_b", tokenB.Hex(),
		"tx_hash", hash.Hex(),
	)

	if _, err := r.chain.WaitMined(ctx, hash); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create not confirmed")
		return common.Address{}, true, apperror.Wrap(err, apperror.CodePairCreationFailed,
			fmt.Sprintf("pair creation tx %s did not confirm", hash.Hex()))
	}

	// Re-query for the authoritative address.
	pair, err = r.factory.GetPair(ctx, tokenA, tokenB)
	if err != nil {
		span.RecordError(err)
		return common.Address{}, true, err
	}
	if pair == (common.Address{}) {
		span.SetStatus(codes.Error, "pair absent after creation")
		return common.Address{}, true, apperror.New(apperror.CodePairCreationFailed,
			apperror.WithContext("factory reports no pair after confirmed creation"))
	}

	span.SetAttributes(attribute.String("pair", pair.Hex()))
	span.SetStatus(codes.Ok, "created")
	r.logger.Info(ctx, "pair created", "pair", pair.Hex())

	return pair, true, nil
}

// ResolveExisting returns the pair address for the two assets, failing with
// a distinct pair-not-found condition when it does not exist. A missing pair
// is never treated as zero liquidity.
func (r *PairResolver) ResolveExisting(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error) {
	pair, err := r.factory.GetPair(ctx, tokenA, tokenB)
	if err != nil {
		return common.Address{}, err
	}
	if pair == (common.Address{}) {
		return common.Address{}, apperror.New(apperror.CodePairNotFound,
			apperror.WithContext(fmt.Sprintf("no pair for %s/%s", tokenA.Hex(), tokenB.Hex())))
	}
	return pair, nil
}
