package ethereum

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/liquidity-bot/internal/apperror"
	"github.com/fd1az/liquidity-bot/internal/logger"
	"github.com/fd1az/liquidity-bot/internal/ratelimit"
)

// Provider exposes read access to the connected Ethereum node.
type Provider struct {
	client  *ethclient.Client
	limiter *ratelimit.Limiter
	logger  logger.LoggerInterface
	tracer  trace.Tracer
}

// NewProvider creates a node provider around an established client.
func NewProvider(client *ethclient.Client, limiter *ratelimit.Limiter, log logger.LoggerInterface) *Provider {
	return &Provider{
		client:  client,
		limiter: limiter,
		logger:  log,
		tracer:  otel.Tracer(tracerName),
	}
}

func (p *Provider) wait(ctx context.Context) error {
	if p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}

// NativeBalance retrieves the native coin balance of an address.
func (p *Provider) NativeBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	ctx, span := p.tracer.Start(ctx, "chain.native_balance",
		trace.WithAttributes(attribute.String("address", addr.Hex())),
	)
	defer span.End()

	if err := p.wait(ctx); err != nil {
		return nil, err
	}

	balance, err := p.client.BalanceAt(ctx, addr, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "balance lookup failed")
		return nil, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithCause(err),
			apperror.WithContext("native balance lookup"))
	}

	span.SetStatus(codes.Ok, "fetched")
	return balance, nil
}

// Syncing reports whether the node is still catching up to the chain head.
func (p *Provider) Syncing(ctx context.Context) (bool, error) {
	ctx, span := p.tracer.Start(ctx, "chain.syncing")
	defer span.End()

	if err := p.wait(ctx); err != nil {
		return false, err
	}

	progress, err := p.client.SyncProgress(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sync probe failed")
		return false, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithCause(err),
			apperror.WithContext("sync progress probe"))
	}

	span.SetAttributes(attribute.Bool("syncing", progress != nil))
	span.SetStatus(codes.Ok, "probed")
	return progress != nil, nil
}

// ChainID returns the chain ID reported by the node.
func (p *Provider) ChainID(ctx context.Context) (uint64, error) {
	if err := p.wait(ctx); err != nil {
		return 0, err
	}

	id, err := p.client.ChainID(ctx)
	if err != nil {
		return 0, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithCause(err),
			apperror.WithContext("chain ID lookup"))
	}
	return id.Uint64(), nil
}
