package app

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	chainDomain "github.com/fd1az/liquidity-bot/business/chain/domain"
	"github.com/fd1az/liquidity-bot/business/liquidity/domain"
	"github.com/fd1az/liquidity-bot/internal/apperror"
	"github.com/fd1az/liquidity-bot/internal/asset"
	"github.com/fd1az/liquidity-bot/internal/logger"
)

const (
	tracerName = "liquidity-bot/liquidity"
	meterName  = "liquidity-bot/liquidity"
)

// AddResult is the outcome of a single add-liquidity operation.
type AddResult struct {
	Token       common.Address
	PairAddress common.Address
	PairCreated bool
	Sizing      domain.Sizing
	Receipt     *types.Receipt
}

// SkippedItem records a batch entry that failed and was passed over.
type SkippedItem struct {
	Token common.Address
	Err   error
}

// BatchResult is the outcome of a batch add: independent per-item results
// plus the items that were skipped after a failure.
type BatchResult struct {
	Added   []AddResult
	Skipped []SkippedItem
}

// RemoveResult is the outcome of a removal operation.
type RemoveResult struct {
	PairAddress common.Address
	Liquidity   *big.Int
	Receipt     *types.Receipt
	TokenOut    *big.Int // underlying token returned
	WrappedOut  *big.Int // wrapped-native returned
	Unwrapped   bool     // wrapped side withdrawn to native
}

// RouterInfo reports the router's own view of its deployment next to the
// configured addresses, plus the current gas price.
type RouterInfo struct {
	Router            common.Address
	ReportedFactory   common.Address
	ConfiguredFactory common.Address
	ReportedWrapped   common.Address
	ConfiguredWrapped common.Address
	GasPrice          *chainDomain.GasPrice
}

// Consistent reports whether the router agrees with the configured factory
// and wrapped-native addresses.
func (i *RouterInfo) Consistent() bool {
	return i.ReportedFactory == i.ConfiguredFactory && i.ReportedWrapped == i.ConfiguredWrapped
}

// Position describes an owner's stake in a pair.
type Position struct {
	PairAddress    common.Address
	LPBalance      *big.Int
	TotalSupply    *big.Int
	TokenReserve   *big.Int
	WrappedReserve *big.Int
	TokenShare     *big.Int
	WrappedShare   *big.Int
}

// executorMetrics holds OTEL metric instruments.
type executorMetrics struct {
	addsTotal    metric.Int64Counter
	removesTotal metric.Int64Counter
	batchSkips   metric.Int64Counter
	opLatency    metric.Float64Histogram
}

// LiquidityService orchestrates liquidity provisioning: sizing, approval
// gating, pair resolution, submission and confirmation, one asset pair at a
// time. On-chain mutations within one invocation are strictly sequential.
type LiquidityService struct {
	chain     ChainClient
	contracts Contracts
	gate      *ApprovalGate
	resolver  *PairResolver
	registry  *asset.Registry
	chainID   uint64
	logger    logger.LoggerInterface

	tracer  trace.Tracer
	metrics *executorMetrics
}

// NewLiquidityService creates the liquidity orchestrator.
func NewLiquidityService(chain ChainClient, contracts Contracts, gate *ApprovalGate, resolver *PairResolver, registry *asset.Registry, chainID uint64, log logger.LoggerInterface) (*LiquidityService, error) {
	s := &LiquidityService{
		chain:     chain,
		contracts: contracts,
		gate:      gate,
		resolver:  resolver,
		registry:  registry,
		chainID:   chainID,
		logger:    log,
		tracer:    otel.Tracer(tracerName),
	}

	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return s, nil
}

func (s *LiquidityService) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &executorMetrics{}

	s.metrics.addsTotal, err = meter.Int64Counter(
		"liquidity_adds_total",
		metric.WithDescription("Total add-liquidity operations"),
		metric.WithUnit("{op}"),
	)
	if err != nil {
		return err
	}

	s.metrics.removesTotal, err = meter.Int64Counter(
		"liquidity_removes_total",
		metric.WithDescription("Total remove-liquidity operations"),
		metric.WithUnit("{op}"),
	)
	if err != nil {
		return err
	}

	s.metrics.batchSkips, err = meter.Int64Counter(
		"liquidity_batch_skips_total",
		metric.WithDescription("Batch items skipped after a failure"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return err
	}

	s.metrics.opLatency, err = meter.Float64Histogram(
		"liquidity_op_seconds",
		metric.WithDescription("End-to-end operation latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	return nil
}

// ResolveAsset returns the registered asset for a token address, querying
// on-chain metadata on first sight. A decimals lookup failure propagates;
// precision is never silently defaulted.
func (s *LiquidityService) ResolveAsset(ctx context.Context, addr common.Address) (*asset.Asset, error) {
	if a, ok := s.registry.GetToken(s.chainID, addr); ok {
		return a, nil
	}

	token := s.contracts.Fungible(addr)

	decimals, err := token.Decimals(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeDecimalsLookupFailed,
			fmt.Sprintf("decimals lookup for %s", addr.Hex()))
	}

	symbol, err := token.Symbol(ctx)
	if err != nil || symbol == "" {
		s.logger.Warn(ctx, "symbol unavailable, using address", "token", addr.Hex())
		symbol = addr.Hex()
	}

	a := asset.MustNewToken(s.chainID, addr, symbol, symbol, decimals)
	return s.registry.Ensure(a), nil
}

// NativeAsset returns the chain's native coin, registering it on first use
// for chains the default registry does not know.
func (s *LiquidityService) NativeAsset() *asset.Asset {
	if a, ok := s.registry.GetNative(s.chainID); ok {
		return a
	}
	return s.registry.Ensure(asset.MustNewNative(s.chainID, "ETH", "Ether", 18))
}

// wrappedAsset returns the registered asset for the wrapped-native token.
func (s *LiquidityService) wrappedAsset(ctx context.Context) (*asset.Asset, error) {
	return s.ResolveAsset(ctx, s.contracts.Wrapped().Address())
}

func deadlineFrom(offset time.Duration) *big.Int {
	return big.NewInt(time.Now().Add(offset).Unix())
}

// checkBalances verifies the signer can fund both sides before anything is
// submitted. Shortfalls fail fast with the missing amount stated.
func (s *LiquidityService) checkBalances(ctx context.Context, token FungibleAsset, sizing domain.Sizing) error {
	owner := s.chain.SignerAddress()

	tokenBal, err := token.BalanceOf(ctx, owner)
	if err != nil {
		return err
	}
	if tokenBal.Cmp(sizing.Base.Raw()) < 0 {
		short := new(big.Int).Sub(sizing.Base.Raw(), tokenBal)
		return apperror.New(apperror.CodeInsufficientBalance,
			apperror.WithContext(fmt.Sprintf("token %s balance short by %s (have %s, need %s)",
				token.Address().Hex(), short, tokenBal, sizing.Base.Raw())))
	}

	nativeBal, err := s.chain.NativeBalance(ctx)
	if err != nil {
		return err
	}
	if nativeBal.Cmp(sizing.Quote.Raw()) < 0 {
		short := new(big.Int).Sub(sizing.Quote.Raw(), nativeBal)
		return apperror.New(apperror.CodeInsufficientBalance,
			apperror.WithContext(fmt.Sprintf("native balance short by %s wei (have %s, need %s)",
				short, nativeBal, sizing.Quote.Raw())))
	}

	return nil
}

// AddLiquidity sizes, authorizes and submits a single add-liquidity
// operation, then blocks until confirmation. Each step's failure is terminal
// for the invocation; nothing is retried.
func (s *LiquidityService) AddLiquidity(ctx context.Context, tokenAddr common.Address, spec domain.RatioSpec, recipient common.Address, deadlineOffset time.Duration, minToken, minETH *big.Int) (*AddResult, error) {
	ctx, span := s.tracer.Start(ctx, "liquidity.add",
		trace.WithAttributes(attribute.String("token", tokenAddr.Hex())),
	)
	defer span.End()

	start := time.Now()
	s.metrics.addsTotal.Add(ctx, 1)
	defer func() {
		s.metrics.opLatency.Record(ctx, time.Since(start).Seconds())
	}()

	baseAsset, err := s.ResolveAsset(ctx, tokenAddr)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	quoteAsset, err := s.wrappedAsset(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	sizing, err := domain.SizeLiquidity(spec, baseAsset, quoteAsset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sizing failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.String("base", sizing.Base.String()),
		attribute.String("quote", sizing.Quote.String()),
		attribute.Bool("capped", sizing.Capped),
	)
	if sizing.Capped {
		s.logger.Info(ctx, "quote cap reached, amounts recomputed on-ratio",
			"base", sizing.Base.String(),
			"quote", sizing.Quote.String(),
		)
	}

	token := s.contracts.Fungible(tokenAddr)

	if err := s.checkBalances(ctx, token, sizing); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insufficient funds")
		return nil, err
	}

	gasPrice, err := s.chain.GetGasPrice(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gas price unavailable")
		return nil, err
	}
	s.logger.Debug(ctx, "gas price observed", "gwei", gasPrice.Gwei())

	pair, created, err := s.resolver.Resolve(ctx, tokenAddr, s.contracts.Wrapped().Address())
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	owner := s.chain.SignerAddress()
	router := s.contracts.Router()

	if _, err := s.gate.EnsureAllowance(ctx, token, owner, router.Address(), sizing.Base.Raw()); err != nil {
		span.RecordError(err)
		return nil, err
	}

	hash, err := router.AddLiquidityETH(ctx,
		tokenAddr,
		sizing.Base.Raw(),
		minToken,
		minETH,
		sizing.Quote.Raw(),
		recipient,
		deadlineFrom(deadlineOffset),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit failed")
		return nil, err
	}

	s.logger.Info(ctx, "add liquidity submitted",
		"token", tokenAddr.Hex(),
		"pair", pair.Hex(),
		"base", sizing.Base.String(),
		"quote", sizing.Quote.String(),
		"tx_hash", hash.Hex(),
	)

	receipt, err := s.chain.WaitMined(ctx, hash)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "not confirmed")
		return nil, err
	}

	span.SetStatus(codes.Ok, "added")
	return &AddResult{
		Token:       tokenAddr,
		PairAddress: pair,
		PairCreated: created,
		Sizing:      sizing,
		Receipt:     receipt,
	}, nil
}

// AddLiquidityBatch runs AddLiquidity for each token in caller order, one at
// a time. The token minimum is a human-readable amount, scaled to each
// token's own decimals before use. A failing item is logged and skipped;
// later items still run.
func (s *LiquidityService) AddLiquidityBatch(ctx context.Context, tokens []common.Address, spec domain.RatioSpec, recipient common.Address, deadlineOffset time.Duration, minToken decimal.Decimal, minETH *big.Int) (*BatchResult, error) {
	ctx, span := s.tracer.Start(ctx, "liquidity.add_batch",
		trace.WithAttributes(attribute.Int("tokens", len(tokens))),
	)
	defer span.End()

	result := &BatchResult{}

	for _, tokenAddr := range tokens {
		added, err := s.addBatchItem(ctx, tokenAddr, spec, recipient, deadlineOffset, minToken, minETH)
		if err != nil {
			s.metrics.batchSkips.Add(ctx, 1)
			s.logger.Error(ctx, "batch item failed, skipping",
				"token", tokenAddr.Hex(),
				"error", err,
			)
			result.Skipped = append(result.Skipped, SkippedItem{Token: tokenAddr, Err: err})
			continue
		}
		result.Added = append(result.Added, *added)
	}

	span.SetAttributes(
		attribute.Int("added", len(result.Added)),
		attribute.Int("skipped", len(result.Skipped)),
	)
	span.SetStatus(codes.Ok, "batch done")

	return result, nil
}

func (s *LiquidityService) addBatchItem(ctx context.Context, tokenAddr common.Address, spec domain.RatioSpec, recipient common.Address, deadlineOffset time.Duration, minToken decimal.Decimal, minETH *big.Int) (*AddResult, error) {
	minTokenRaw := new(big.Int)
	if minToken.IsPositive() {
		a, err := s.ResolveAsset(ctx, tokenAddr)
		if err != nil {
			return nil, err
		}
		minTokenRaw = minToken.Shift(int32(a.Decimals())).BigInt()
	}
	return s.AddLiquidity(ctx, tokenAddr, spec, recipient, deadlineOffset, minTokenRaw, minETH)
}

// lpBalance fetches the owner's liquidity token balance, failing with a
// distinct condition when no position is held.
func (s *LiquidityService) lpBalance(ctx context.Context, pair LiquidityPair, owner common.Address) (*big.Int, error) {
	balance, err := pair.BalanceOf(ctx, owner)
	if err != nil {
		return nil, err
	}
	if balance.Sign() == 0 {
		return nil, apperror.New(apperror.CodeNoLiquidityPosition,
			apperror.WithContext(fmt.Sprintf("no liquidity tokens held in pair %s", pair.Address().Hex())))
	}
	return balance, nil
}

// RemoveLiquidity withdraws a position through the router. A nil liquidity
// amount removes the full balance.
func (s *LiquidityService) RemoveLiquidity(ctx context.Context, tokenAddr common.Address, liquidity *big.Int, recipient common.Address, deadlineOffset time.Duration, minToken, minETH *big.Int) (*RemoveResult, error) {
	ctx, span := s.tracer.Start(ctx, "liquidity.remove",
		trace.WithAttributes(attribute.String("token", tokenAddr.Hex())),
	)
	defer span.End()

	start := time.Now()
	s.metrics.removesTotal.Add(ctx, 1)
	defer func() {
		s.metrics.opLatency.Record(ctx, time.Since(start).Seconds())
	}()

	pairAddr, err := s.resolver.ResolveExisting(ctx, tokenAddr, s.contracts.Wrapped().Address())
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	pair := s.contracts.Pair(pairAddr)
	owner := s.chain.SignerAddress()

	balance, err := s.lpBalance(ctx, pair, owner)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if liquidity == nil {
		liquidity = balance
	} else if liquidity.Cmp(balance) > 0 {
		short := new(big.Int).Sub(liquidity, balance)
		return nil, apperror.New(apperror.CodeInsufficientBalance,
			apperror.WithContext(fmt.Sprintf("liquidity balance short by %s (have %s, want %s)",
				short, balance, liquidity)))
	}

	router := s.contracts.Router()
	if _, err := s.gate.EnsureAllowance(ctx, pair, owner, router.Address(), liquidity); err != nil {
		span.RecordError(err)
		return nil, err
	}

	hash, err := router.RemoveLiquidityETH(ctx,
		tokenAddr,
		liquidity,
		minToken,
		minETH,
		recipient,
		deadlineFrom(deadlineOffset),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submit failed")
		return nil, err
	}

	s.logger.Info(ctx, "remove liquidity submitted",
		"pair", pairAddr.Hex(),
		"liquidity", liquidity.String(),
		"tx_hash", hash.Hex(),
	)

	receipt, err := s.chain.WaitMined(ctx, hash)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "not confirmed")
		return nil, err
	}

	tokenOut := domain.ExtractInbound(receipt, tokenAddr, recipient)

	span.SetStatus(codes.Ok, "removed")
	return &RemoveResult{
		PairAddress: pairAddr,
		Liquidity:   liquidity,
		Receipt:     receipt,
		TokenOut:    tokenOut,
		WrappedOut:  new(big.Int),
	}, nil
}

// RemoveLiquidityDirect withdraws the full position by the pair-burn path:
// the liquidity tokens are transferred to the pair itself, the pair's burn
// is invoked, and the returned wrapped-native is optionally unwrapped. Used
// when a router removal entry point is unavailable.
func (s *LiquidityService) RemoveLiquidityDirect(ctx context.Context, tokenAddr common.Address, recipient common.Address, unwrap bool) (*RemoveResult, error) {
	ctx, span := s.tracer.Start(ctx, "liquidity.remove_direct",
		trace.WithAttributes(
			attribute.String("token", tokenAddr.Hex()),
			attribute.Bool("unwrap", unwrap),
		),
	)
	defer span.End()

	start := time.Now()
	s.metrics.removesTotal.Add(ctx, 1)
	defer func() {
		s.metrics.opLatency.Record(ctx, time.Since(start).Seconds())
	}()

	wrapped := s.contracts.Wrapped()

	pairAddr, err := s.resolver.ResolveExisting(ctx, tokenAddr, wrapped.Address())
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	pair := s.contracts.Pair(pairAddr)
	owner := s.chain.SignerAddress()

	liquidity, err := s.lpBalance(ctx, pair, owner)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	// Move the liquidity tokens into the pair so burn can redeem them.
	hash, err := pair.Transfer(ctx, pairAddr, liquidity)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lp transfer failed")
		return nil, err
	}
	if _, err := s.chain.WaitMined(ctx, hash); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lp transfer not confirmed")
		return nil, err
	}

	burnHash, err := pair.Burn(ctx, recipient)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "burn submit failed")
		return nil, err
	}

	s.logger.Info(ctx, "pair burn submitted",
		"pair", pairAddr.Hex(),
		"liquidity", liquidity.String(),
		"tx_hash", burnHash.Hex(),
	)

	receipt, err := s.chain.WaitMined(ctx, burnHash)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "burn not confirmed")
		return nil, err
	}

	tokenOut := domain.ExtractInbound(receipt, tokenAddr, recipient)
	wrappedOut := domain.ExtractInbound(receipt, wrapped.Address(), recipient)

	result := &RemoveResult{
		PairAddress: pairAddr,
		Liquidity:   liquidity,
		Receipt:     receipt,
		TokenOut:    tokenOut,
		WrappedOut:  wrappedOut,
	}

	if unwrap && wrappedOut.Sign() > 0 && recipient == owner {
		withdrawHash, err := wrapped.Withdraw(ctx, wrappedOut)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "unwrap submit failed")
			return result, err
		}
		if _, err := s.chain.WaitMined(ctx, withdrawHash); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "unwrap not confirmed")
			return result, err
		}
		result.Unwrapped = true
		s.logger.Info(ctx, "wrapped native unwrapped",
			"amount", wrappedOut.String(),
			"tx_hash", withdrawHash.Hex(),
		)
	}

	span.SetStatus(codes.Ok, "removed")
	return result, nil
}

// RouterInfo cross-checks the configured factory and wrapped-native
// addresses against what the router itself reports. A disagreement means the
// configuration points at mismatched deployments; it is reported, not fatal.
func (s *LiquidityService) RouterInfo(ctx context.Context) (*RouterInfo, error) {
	ctx, span := s.tracer.Start(ctx, "liquidity.router_info")
	defer span.End()

	router := s.contracts.Router()

	reportedFactory, err := router.Factory(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	reportedWrapped, err := router.WETH(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	gasPrice, err := s.chain.GetGasPrice(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	info := &RouterInfo{
		Router:            router.Address(),
		ReportedFactory:   reportedFactory,
		ConfiguredFactory: s.contracts.Factory().Address(),
		ReportedWrapped:   reportedWrapped,
		ConfiguredWrapped: s.contracts.Wrapped().Address(),
		GasPrice:          gasPrice,
	}

	if !info.Consistent() {
		s.logger.Warn(ctx, "router deployment disagrees with configuration",
			"reported_factory", info.ReportedFactory.Hex(),
			"configured_factory", info.ConfiguredFactory.Hex(),
			"reported_weth", info.ReportedWrapped.Hex(),
			"configured_weth", info.ConfiguredWrapped.Hex(),
		)
	}

	span.SetStatus(codes.Ok, "inspected")
	return info, nil
}

// VerifyPosition reports the owner's stake in the pair for a token. A
// missing pair surfaces as pair-not-found, never as an empty position.
func (s *LiquidityService) VerifyPosition(ctx context.Context, tokenAddr common.Address, owner common.Address) (*Position, error) {
	ctx, span := s.tracer.Start(ctx, "liquidity.verify",
		trace.WithAttributes(attribute.String("token", tokenAddr.Hex())),
	)
	defer span.End()

	wrappedAddr := s.contracts.Wrapped().Address()

	pairAddr, err := s.resolver.ResolveExisting(ctx, tokenAddr, wrappedAddr)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	pair := s.contracts.Pair(pairAddr)

	lpBalance, err := pair.BalanceOf(ctx, owner)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	totalSupply, err := pair.TotalSupply(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	reserve0, reserve1, err := pair.Reserves(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	token0, err := pair.Token0(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	tokenReserve, wrappedReserve := reserve0, reserve1
	if token0 != tokenAddr {
		tokenReserve, wrappedReserve = reserve1, reserve0
	}

	pos := &Position{
		PairAddress:    pairAddr,
		LPBalance:      lpBalance,
		TotalSupply:    totalSupply,
		TokenReserve:   tokenReserve,
		WrappedReserve: wrappedReserve,
		TokenShare:     new(big.Int),
		WrappedShare:   new(big.Int),
	}

	if totalSupply.Sign() > 0 {
		pos.TokenShare.Div(new(big.Int).Mul(lpBalance, tokenReserve), totalSupply)
		pos.WrappedShare.Div(new(big.Int).Mul(lpBalance, wrappedReserve), totalSupply)
	}

	span.SetAttributes(
		attribute.String("pair", pairAddr.Hex()),
		attribute.String("lp_balance", lpBalance.String()),
	)
	span.SetStatus(codes.Ok, "verified")

	return pos, nil
}
