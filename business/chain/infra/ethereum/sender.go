package ethereum

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/liquidity-bot/business/chain/domain"
	"github.com/fd1az/liquidity-bot/internal/apperror"
	"github.com/fd1az/liquidity-bot/internal/logger"
	"github.com/fd1az/liquidity-bot/internal/ratelimit"
)

// SenderConfig holds transaction submission settings.
type SenderConfig struct {
	MaxFeeWei *big.Int // refuse to submit above this fee cap, nil disables the guard
	GasMargin uint64   // percent added to the gas estimate
}

// DefaultSenderConfig returns the standard submission settings.
func DefaultSenderConfig() SenderConfig {
	maxFee := new(big.Int)
	maxFee.SetString("500000000000", 10) // 500 gwei
	return SenderConfig{
		MaxFeeWei: maxFee,
		GasMargin: 20,
	}
}

// Sender builds, signs and submits EIP-1559 transactions.
type Sender struct {
	config  SenderConfig
	client  *ethclient.Client
	limiter *ratelimit.Limiter
	logger  logger.LoggerInterface
	tracer  trace.Tracer
}

// NewSender creates a transaction sender around an established client.
func NewSender(cfg SenderConfig, client *ethclient.Client, limiter *ratelimit.Limiter, log logger.LoggerInterface) *Sender {
	return &Sender{
		config:  cfg,
		client:  client,
		limiter: limiter,
		logger:  log,
		tracer:  otel.Tracer(tracerName),
	}
}

// Send builds a dynamic-fee transaction for the call, signs it and submits
// it to the node. It returns the transaction hash without waiting for
// inclusion.
func (s *Sender) Send(ctx context.Context, signer *domain.Signer, to common.Address, value *big.Int, data []byte) (common.Hash, error) {
	ctx, span := s.tracer.Start(ctx, "chain.send_tx",
		trace.WithAttributes(
			attribute.String("to", to.Hex()),
			attribute.Int("data_len", len(data)),
		),
	)
	defer span.End()

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return common.Hash{}, err
		}
	}

	from := signer.Address()

	nonce, err := s.client.PendingNonceAt(ctx, from)
	if err != nil {
		span.RecordError(err)
		return common.Hash{}, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithCause(err),
			apperror.WithContext("pending nonce lookup"))
	}

	tipCap, err := s.client.SuggestGasTipCap(ctx)
	if err != nil {
		span.RecordError(err)
		return common.Hash{}, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithCause(err),
			apperror.WithContext("gas tip cap suggestion"))
	}

	head, err := s.client.HeaderByNumber(ctx, nil)
	if err != nil {
		span.RecordError(err)
		return common.Hash{}, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithCause(err),
			apperror.WithContext("head block lookup"))
	}

	// maxFee = 2*baseFee + tip, enough to survive a few full blocks
	feeCap := new(big.Int).Mul(head.BaseFee, big.NewInt(2))
	feeCap.Add(feeCap, tipCap)

	if s.config.MaxFeeWei != nil && feeCap.Cmp(s.config.MaxFeeWei) > 0 {
		span.SetStatus(codes.Error, "fee cap exceeded")
		return common.Hash{}, apperror.New(apperror.CodeGasPriceTooHigh,
			apperror.WithContext(fmt.Sprintf("fee cap %s wei exceeds limit %s wei", feeCap, s.config.MaxFeeWei)))
	}

	gasLimit, err := s.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  from,
		To:    &to,
		Value: value,
		Data:  data,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "estimate failed")
		return common.Hash{}, apperror.New(apperror.CodeGasEstimationFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("gas estimate for call to %s", to.Hex())))
	}
	gasLimit += gasLimit * s.config.GasMargin / 100

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   signer.ChainID(),
		Nonce:     nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       gasLimit,
		To:        &to,
		Value:     value,
		Data:      data,
	})

	signed, err := signer.SignTx(tx)
	if err != nil {
		span.RecordError(err)
		return common.Hash{}, apperror.New(apperror.CodeTxSubmitFailed,
			apperror.WithCause(err),
			apperror.WithContext("transaction signing"))
	}

	if err := s.client.SendTransaction(ctx, signed); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit failed")
		return common.Hash{}, apperror.New(apperror.CodeTxSubmitFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("submit tx to %s", to.Hex())))
	}

	hash := signed.Hash()
	span.SetAttributes(attribute.String("tx_hash", hash.Hex()))
	span.SetStatus(codes.Ok, "submitted")
	s.logger.Info(ctx, "transaction submitted",
		"tx_hash", hash.Hex(),
		"to", to.Hex(),
		"nonce", nonce,
		"gas_limit", gasLimit,
	)

	return hash, nil
}
