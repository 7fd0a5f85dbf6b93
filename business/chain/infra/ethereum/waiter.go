// Package ethereum provides go-ethereum backed adapters for the chain context.
package ethereum

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/liquidity-bot/internal/apperror"
	"github.com/fd1az/liquidity-bot/internal/logger"
	"github.com/fd1az/liquidity-bot/internal/ratelimit"
)

const (
	tracerName = "liquidity-bot/chain"
	meterName  = "liquidity-bot/chain"
)

// ReceiptReader is the subset of the Ethereum client the waiter needs.
type ReceiptReader interface {
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// WaiterConfig holds polling configuration for transaction confirmation.
type WaiterConfig struct {
	PollInterval time.Duration // time between receipt lookups
	Timeout      time.Duration // total confirmation window
}

// DefaultWaiterConfig returns the standard confirmation window.
func DefaultWaiterConfig() WaiterConfig {
	return WaiterConfig{
		PollInterval: 3 * time.Second,
		Timeout:      2 * time.Minute,
	}
}

// waiterMetrics holds OTEL metric instruments.
type waiterMetrics struct {
	polls      metric.Int64Counter
	confirmed  metric.Int64Counter
	reverted   metric.Int64Counter
	timeouts   metric.Int64Counter
	waitedSecs metric.Float64Histogram
}

// Waiter polls for transaction receipts until inclusion or timeout.
type Waiter struct {
	config  WaiterConfig
	client  ReceiptReader
	limiter *ratelimit.Limiter
	logger  logger.LoggerInterface

	tracer  trace.Tracer
	metrics *waiterMetrics
}

// NewWaiter creates a transaction confirmation waiter.
func NewWaiter(cfg WaiterConfig, client ReceiptReader, limiter *ratelimit.Limiter, log logger.LoggerInterface) (*Waiter, error) {
	w := &Waiter{
		config:  cfg,
		client:  client,
		limiter: limiter,
		logger:  log,
		tracer:  otel.Tracer(tracerName),
	}

	if err := w.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return w, nil
}

func (w *Waiter) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	w.metrics = &waiterMetrics{}

	w.metrics.polls, err = meter.Int64Counter(
		"tx_receipt_polls_total",
		metric.WithDescription("Total receipt poll attempts"),
		metric.WithUnit("{poll}"),
	)
	if err != nil {
		return err
	}

	w.metrics.confirmed, err = meter.Int64Counter(
		"tx_confirmed_total",
		metric.WithDescription("Transactions confirmed"),
		metric.WithUnit("{tx}"),
	)
	if err != nil {
		return err
	}

	w.metrics.reverted, err = meter.Int64Counter(
		"tx_reverted_total",
		metric.WithDescription("Transactions reverted on chain"),
		metric.WithUnit("{tx}"),
	)
	if err != nil {
		return err
	}

	w.metrics.timeouts, err = meter.Int64Counter(
		"tx_confirm_timeouts_total",
		metric.WithDescription("Confirmation windows that elapsed without inclusion"),
		metric.WithUnit("{tx}"),
	)
	if err != nil {
		return err
	}

	w.metrics.waitedSecs, err = meter.Float64Histogram(
		"tx_confirm_wait_seconds",
		metric.WithDescription("Time spent waiting for confirmation"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Receipt performs a single receipt lookup. A nil receipt with nil error
// means the transaction is not yet included in a block.
func (w *Waiter) Receipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	w.metrics.polls.Add(ctx, 1)

	receipt, err := w.client.TransactionReceipt(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, nil
		}
		return nil, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("receipt lookup for %s", hash.Hex())))
	}

	return receipt, nil
}

// WaitMined polls at the configured interval until the transaction is
// included or the confirmation window elapses. The first lookup happens
// immediately; polling stops once the next attempt would land past the
// deadline. A timeout is reported as CodeTxTimeout and does not imply the
// transaction failed, it may still be mined later.
func (w *Waiter) WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, span := w.tracer.Start(ctx, "chain.wait_mined",
		trace.WithAttributes(
			attribute.String("tx_hash", hash.Hex()),
			attribute.Float64("timeout_s", w.config.Timeout.Seconds()),
		),
	)
	defer span.End()

	start := time.Now()
	attempts := 0

	for {
		receipt, err := w.Receipt(ctx, hash)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "poll failed")
			return nil, err
		}
		attempts++

		if receipt != nil {
			w.metrics.waitedSecs.Record(ctx, time.Since(start).Seconds())
			span.SetAttributes(
				attribute.Int("attempts", attempts),
				attribute.Int64("block", receipt.BlockNumber.Int64()),
			)

			if receipt.Status == types.ReceiptStatusFailed {
				w.metrics.reverted.Add(ctx, 1)
				span.SetStatus(codes.Error, "reverted")
				return receipt, apperror.New(apperror.CodeTxReverted,
					apperror.WithContext(fmt.Sprintf("tx %s reverted in block %d", hash.Hex(), receipt.BlockNumber.Uint64())))
			}

			w.metrics.confirmed.Add(ctx, 1)
			span.SetStatus(codes.Ok, "confirmed")
			w.logger.Info(ctx, "transaction confirmed",
				"tx_hash", hash.Hex(),
				"block", receipt.BlockNumber.Uint64(),
				"attempts", attempts,
			)
			return receipt, nil
		}

		if time.Since(start)+w.config.PollInterval >= w.config.Timeout {
			w.metrics.timeouts.Add(ctx, 1)
			span.SetAttributes(attribute.Int("attempts", attempts))
			span.SetStatus(codes.Error, "timeout")
			w.logger.Warn(ctx, "confirmation window elapsed, tx may still be mined",
				"tx_hash", hash.Hex(),
				"attempts", attempts,
			)
			return nil, apperror.New(apperror.CodeTxTimeout,
				apperror.WithContext(fmt.Sprintf("tx %s not mined within %s", hash.Hex(), w.config.Timeout)))
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(w.config.PollInterval):
		}
	}
}
