package app

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/liquidity-bot/internal/apperror"
	"github.com/fd1az/liquidity-bot/internal/logger"
)

// ApprovalGate ensures a spender holds sufficient allowance on an asset
// before a transfer-dependent operation proceeds. The allowance is read
// fresh on every call; external actors may have changed it.
type ApprovalGate struct {
	chain  ChainClient
	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewApprovalGate creates an approval gate.
func NewApprovalGate(chain ChainClient, log logger.LoggerInterface) *ApprovalGate {
	return &ApprovalGate{
		chain:  chain,
		logger: log,
		tracer: otel.Tracer(tracerName),
	}
}

// EnsureAllowance checks the spender's allowance on token and, when it falls
// short of required, submits an approval for exactly the required amount and
// blocks until it confirms. It reports whether a transaction was submitted.
// Calling it again with the same requirement is a no-op.
func (g *ApprovalGate) EnsureAllowance(ctx context.Context, token FungibleAsset, owner, spender common.Address, required *big.Int) (bool, error) {
	ctx, span := g.tracer.Start(ctx, "liquidity.ensure_allowance",
		trace.WithAttributes(
			attribute.String("token", token.Address().Hex()),
			attribute.String("spender", spender.Hex()),
			attribute.String("required", required.String()),
		),
	)
	defer span.End()

	current, err := token.Allowance(ctx, owner, spender)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "allowance read failed")
		return false, apperror.Wrap(err, apperror.CodeApprovalFailed,
			fmt.Sprintf("allowance read for %s", token.Address().Hex()))
	}

	if current.Cmp(required) >= 0 {
		span.AddEvent("allowance_sufficient",
			trace.WithAttributes(attribute.String("current", current.String())))
		span.SetStatus(codes.Ok, "no-op")
		g.logger.Debug(ctx, "allowance already sufficient",
			"token", token.Address().Hex(),
			"current", current.String(),
			"required", required.String(),
		)
		return false, nil
	}

	hash, err := token.Approve(ctx, spender, required)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "approve submit failed")
		return false, apperror.Wrap(err, apperror.CodeApprovalFailed,
			fmt.Sprintf("approve %s for %s", required, spender.Hex()))
	}

	g.logger.Info(ctx, "approval submitted",
		"token", token.Address().Hex(),
		"spender", spender.Hex(),
		"amount", required.String(),
		"tx_hash", hash.Hex(),
	)

	if _, err := g.chain.WaitMined(ctx, hash); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "approve not confirmed")
		return true, apperror.Wrap(err, apperror.CodeApprovalFailed,
			fmt.Sprintf("approval tx %s did not confirm", hash.Hex()))
	}

	span.SetStatus(codes.Ok, "approved")
	return true, nil
}
