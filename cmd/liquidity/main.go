// Package main is the entry point for the Uniswap V2 liquidity bot.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/fd1az/liquidity-bot/business/chain"
	chainDI "github.com/fd1az/liquidity-bot/business/chain/di"
	"github.com/fd1az/liquidity-bot/business/liquidity"
	liquidityApp "github.com/fd1az/liquidity-bot/business/liquidity/app"
	liquidityDI "github.com/fd1az/liquidity-bot/business/liquidity/di"
	"github.com/fd1az/liquidity-bot/business/liquidity/domain"
	"github.com/fd1az/liquidity-bot/internal/apm"
	"github.com/fd1az/liquidity-bot/internal/config"
	"github.com/fd1az/liquidity-bot/internal/health"
	"github.com/fd1az/liquidity-bot/internal/logger"
	"github.com/fd1az/liquidity-bot/internal/metrics"
	"github.com/fd1az/liquidity-bot/internal/monolith"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Parse flags
	configPath := flag.String("config", "", "Path to configuration file")
	op := flag.String("op", "add", "Operation: add, add-batch, remove, remove-direct, reconstruct, verify, info")
	txHash := flag.String("tx", "", "Transaction hash for the reconstruct operation")
	lpAmount := flag.String("liquidity", "", "LP token amount to remove (default: full balance)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("liquidity-bot %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		cancel()
	}()

	// Run application
	if err := run(ctx, *configPath, *op, *txHash, *lpAmount); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, op, txHash, lpAmount string) error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	logLevel := logger.LevelInfo
	switch cfg.App.LogLevel {
	case "debug":
		logLevel = logger.LevelDebug
	case "warn":
		logLevel = logger.LevelWarn
	case "error":
		logLevel = logger.LevelError
	}

	log := logger.New(os.Stderr, logLevel, cfg.App.Name, nil)
	log.Info(ctx, "starting liquidity bot",
		"version", version,
		"environment", cfg.App.Environment,
		"operation", op,
	)

	// Initialize observability if enabled
	var traceProvider apm.TraceProvider
	if cfg.Telemetry.Enabled {
		// Set service name env var for OTEL
		if cfg.Telemetry.ServiceName != "" {
			os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
		}
		if cfg.Telemetry.OTLPEndpoint != "" {
			os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
		}

		traceProvider = apm.NewTraceProvider(log, apm.WithProvider(apm.ZipkinProvider, log))
		log.Info(ctx, "tracing initialized", "provider", "zipkin", "endpoint", cfg.Telemetry.OTLPEndpoint)

		metrics.NewMetricProvider(
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.ProviderCfg{
				Provider: metrics.PrometheusProvider,
			}),
		)

		port := cfg.Telemetry.PrometheusPort
		if port == 0 {
			port = 9090
		}
		go metrics.ServePrometheusMetrics(metrics.WithPort(strconv.Itoa(port)))
		log.Info(ctx, "prometheus metrics server started", "port", port)
	}
	defer func() {
		if traceProvider != nil {
			traceProvider.Stop()
		}
	}()

	// Create monolith (application container)
	mono, err := monolith.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create monolith: %w", err)
	}
	defer mono.Close()

	// Define modules in dependency order
	modules := []monolith.Module{
		&chain.Module{},     // Must be first - provides node access and signing
		&liquidity.Module{}, // Depends on chain for the transaction lifecycle
	}

	// Register all module services
	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}

	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	chainSvc := chainDI.GetChainService(mono.Services())

	// Health server reports node readiness alongside liveness
	healthPort := cfg.Telemetry.HealthPort
	if healthPort == 0 {
		healthPort = 8081
	}
	healthServer := health.NewServer(healthPort, version)
	healthServer.RegisterCheck("node", func(ctx context.Context) (bool, string) {
		if err := chainSvc.EnsureReady(ctx, cfg.Ethereum.ChainID); err != nil {
			return false, err.Error()
		}
		return true, "ready"
	})
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", healthPort)
	}
	defer healthServer.Stop(ctx)

	return dispatch(ctx, mono, cfg, log, op, txHash, lpAmount)
}

func dispatch(ctx context.Context, mono monolith.Monolith, cfg *config.Config, log *logger.Logger, op, txHashFlag, lpAmount string) error {
	svc := liquidityDI.GetLiquidityService(mono.Services())
	reconciler := liquidityDI.GetReconcilerService(mono.Services())
	recipient := chainDI.GetChainService(mono.Services()).SignerAddress()

	switch op {
	case "add":
		spec, err := ratioFromConfig(&cfg.Liquidity)
		if err != nil {
			return err
		}
		minToken, minETH, err := minAmounts(ctx, svc, &cfg.Liquidity)
		if err != nil {
			return err
		}
		res, err := svc.AddLiquidity(ctx, cfg.Liquidity.TokenAddressHex(), spec, recipient, cfg.Liquidity.DeadlineOffset, minToken, minETH)
		if err != nil {
			return err
		}
		log.Info(ctx, "liquidity added",
			"token", res.Token.Hex(),
			"pair", res.PairAddress.Hex(),
			"pair_created", res.PairCreated,
			"base", res.Sizing.Base.String(),
			"quote", res.Sizing.Quote.String(),
			"capped", res.Sizing.Capped,
			"tx", res.Receipt.TxHash.Hex(),
		)
		return nil

	case "add-batch":
		spec, err := ratioFromConfig(&cfg.Liquidity)
		if err != nil {
			return err
		}
		tokens := cfg.Liquidity.TokenAddressesHex()
		if len(tokens) == 0 {
			return fmt.Errorf("liquidity.token_addresses is empty")
		}
		minETHDec, err := decimal.NewFromString(cfg.Liquidity.AmountETHMin)
		if err != nil {
			return fmt.Errorf("invalid liquidity.amount_eth_min: %w", err)
		}
		minTokenDec, err := decimal.NewFromString(cfg.Liquidity.AmountTokenMin)
		if err != nil {
			return fmt.Errorf("invalid liquidity.amount_token_min: %w", err)
		}
		res, err := svc.AddLiquidityBatch(ctx, tokens, spec, recipient, cfg.Liquidity.DeadlineOffset, minTokenDec, minETHDec.Shift(18).BigInt())
		if err != nil {
			return err
		}
		for _, added := range res.Added {
			log.Info(ctx, "liquidity added",
				"token", added.Token.Hex(),
				"pair", added.PairAddress.Hex(),
				"tx", added.Receipt.TxHash.Hex(),
			)
		}
		for _, skipped := range res.Skipped {
			log.Warn(ctx, "token skipped", "token", skipped.Token.Hex(), "error", skipped.Err)
		}
		if len(res.Added) == 0 {
			return fmt.Errorf("batch add failed for all %d tokens", len(res.Skipped))
		}
		return nil

	case "remove":
		minToken, minETH, err := minAmounts(ctx, svc, &cfg.Liquidity)
		if err != nil {
			return err
		}
		var lp *big.Int
		if lpAmount != "" {
			lpDec, err := decimal.NewFromString(lpAmount)
			if err != nil {
				return fmt.Errorf("invalid -liquidity amount: %w", err)
			}
			lp = lpDec.Shift(18).BigInt()
		}
		res, err := svc.RemoveLiquidity(ctx, cfg.Liquidity.TokenAddressHex(), lp, recipient, cfg.Liquidity.DeadlineOffset, minToken, minETH)
		if err != nil {
			return err
		}
		log.Info(ctx, "liquidity removed",
			"pair", res.PairAddress.Hex(),
			"liquidity", res.Liquidity.String(),
			"token_out", res.TokenOut.String(),
			"tx", res.Receipt.TxHash.Hex(),
		)
		return nil

	case "remove-direct":
		res, err := svc.RemoveLiquidityDirect(ctx, cfg.Liquidity.TokenAddressHex(), recipient, cfg.Liquidity.UnwrapWETH)
		if err != nil {
			return err
		}
		log.Info(ctx, "liquidity removed via burn",
			"pair", res.PairAddress.Hex(),
			"liquidity", res.Liquidity.String(),
			"token_out", res.TokenOut.String(),
			"weth_out", res.WrappedOut.String(),
			"unwrapped", res.Unwrapped,
		)
		return nil

	case "reconstruct":
		hash := txHashFlag
		if hash == "" {
			hash = cfg.Liquidity.RemovalTxHash
		}
		if hash == "" {
			return fmt.Errorf("reconstruct requires -tx or liquidity.removal_tx_hash")
		}
		assets := []common.Address{
			cfg.Liquidity.TokenAddressHex(),
			cfg.Uniswap.WETHAddressHex(),
		}
		before, after, err := reconciler.Reconstruct(ctx, common.HexToHash(hash), recipient, assets)
		if err != nil {
			return err
		}
		logSnapshot(ctx, log, before)
		logSnapshot(ctx, log, after)
		return nil

	case "info":
		info, err := svc.RouterInfo(ctx)
		if err != nil {
			return err
		}
		log.Info(ctx, "router info",
			"router", info.Router.Hex(),
			"factory", info.ReportedFactory.Hex(),
			"weth", info.ReportedWrapped.Hex(),
			"matches_config", info.Consistent(),
			"gas_price_gwei", info.GasPrice.Gwei(),
		)
		if !info.Consistent() {
			return fmt.Errorf("router deployment does not match configured factory/WETH addresses")
		}
		return nil

	case "verify":
		pos, err := svc.VerifyPosition(ctx, cfg.Liquidity.TokenAddressHex(), recipient)
		if err != nil {
			return err
		}
		log.Info(ctx, "position",
			"pair", pos.PairAddress.Hex(),
			"lp_balance", pos.LPBalance.String(),
			"total_supply", pos.TotalSupply.String(),
			"token_reserve", pos.TokenReserve.String(),
			"weth_reserve", pos.WrappedReserve.String(),
			"token_share", pos.TokenShare.String(),
			"weth_share", pos.WrappedShare.String(),
		)
		return nil

	default:
		return fmt.Errorf("unknown operation %q", op)
	}
}

// ratioFromConfig builds the sizing spec from configuration.
func ratioFromConfig(cfg *config.LiquidityConfig) (domain.RatioSpec, error) {
	base, err := cfg.TokenAmountDecimal()
	if err != nil {
		return domain.RatioSpec{}, fmt.Errorf("invalid liquidity.token_amount: %w", err)
	}
	ratio, err := cfg.QuotePerTokenDecimal()
	if err != nil {
		return domain.RatioSpec{}, fmt.Errorf("invalid liquidity.quote_per_token: %w", err)
	}
	cap, err := cfg.QuoteCapDecimal()
	if err != nil {
		return domain.RatioSpec{}, fmt.Errorf("invalid liquidity.quote_cap: %w", err)
	}
	spec := domain.RatioSpec{BaseAmount: base, QuoteRatio: ratio, QuoteCap: cap}
	return spec, spec.Validate()
}

// minAmounts converts the configured human-unit minimums into raw amounts.
// The token minimum needs the token's on-chain decimals.
func minAmounts(ctx context.Context, svc *liquidityApp.LiquidityService, cfg *config.LiquidityConfig) (minToken, minETH *big.Int, err error) {
	tokenDec, err := decimal.NewFromString(cfg.AmountTokenMin)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid liquidity.amount_token_min: %w", err)
	}
	ethDec, err := decimal.NewFromString(cfg.AmountETHMin)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid liquidity.amount_eth_min: %w", err)
	}

	minToken = big.NewInt(0)
	if tokenDec.IsPositive() {
		token, err := svc.ResolveAsset(ctx, cfg.TokenAddressHex())
		if err != nil {
			return nil, nil, err
		}
		minToken = tokenDec.Shift(int32(token.Decimals())).BigInt()
	}
	return minToken, ethDec.Shift(18).BigInt(), nil
}

func logSnapshot(ctx context.Context, log *logger.Logger, snap domain.BalanceSnapshot) {
	args := []any{"label", snap.Label}
	for _, amt := range snap.Amounts {
		args = append(args, amt.Asset().Symbol(), amt.ToDecimal().String())
	}
	log.Info(ctx, "balance snapshot", args...)
}
