// Package chain implements the chain bounded context for Ethereum node access.
package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/fd1az/liquidity-bot/business/chain/app"
	chainDI "github.com/fd1az/liquidity-bot/business/chain/di"
	"github.com/fd1az/liquidity-bot/business/chain/domain"
	"github.com/fd1az/liquidity-bot/business/chain/infra/ethereum"
	"github.com/fd1az/liquidity-bot/internal/config"
	"github.com/fd1az/liquidity-bot/internal/di"
	"github.com/fd1az/liquidity-bot/internal/logger"
	"github.com/fd1az/liquidity-bot/internal/monolith"
	"github.com/fd1az/liquidity-bot/internal/ratelimit"
)

// Module implements the chain bounded context.
type Module struct{}

// gweiToWei converts a gwei amount expressed as float64 to wei.
func gweiToWei(gwei float64) *big.Int {
	wei, _ := new(big.Float).Mul(big.NewFloat(gwei), big.NewFloat(1e9)).Int(nil)
	return wei
}

// RegisterServices registers all chain services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Shared RPC rate limiter (private - internal dependency)
	c.RegisterFactory("chain:rpcLimiter", func(sr di.ServiceRegistry) any {
		cfg := sr.Get("config").(*config.Config)
		rps := cfg.Ethereum.RPCRatePerSec
		if rps <= 0 {
			rps = 10
		}
		return ratelimit.NewWithBurst(rps, int(rps))
	})

	// Register NodeProvider (private - internal dependency)
	di.RegisterToken(c, chainDI.NodeProvider, func(sr di.ServiceRegistry) app.NodeProvider {
		client := sr.Get("ethClient").(*ethclient.Client)
		log := sr.Get("logger").(logger.LoggerInterface)
		limiter := sr.Get("chain:rpcLimiter").(*ratelimit.Limiter)

		return ethereum.NewProvider(client, limiter, log)
	})

	// Register TxWaiter (private - internal dependency)
	di.RegisterToken(c, chainDI.TxWaiter, func(sr di.ServiceRegistry) app.TxWaiter {
		cfg := sr.Get("config").(*config.Config)
		client := sr.Get("ethClient").(*ethclient.Client)
		log := sr.Get("logger").(logger.LoggerInterface)
		limiter := sr.Get("chain:rpcLimiter").(*ratelimit.Limiter)

		waiterCfg := ethereum.DefaultWaiterConfig()
		if cfg.Ethereum.PollInterval > 0 {
			waiterCfg.PollInterval = cfg.Ethereum.PollInterval
		}
		if cfg.Ethereum.ConfirmTimeout > 0 {
			waiterCfg.Timeout = cfg.Ethereum.ConfirmTimeout
		}

		waiter, err := ethereum.NewWaiter(waiterCfg, client, limiter, log)
		if err != nil {
			panic("failed to create tx waiter: " + err.Error())
		}
		return waiter
	})

	// Register TxSender (private - internal dependency)
	di.RegisterToken(c, chainDI.TxSender, func(sr di.ServiceRegistry) app.TxSender {
		cfg := sr.Get("config").(*config.Config)
		client := sr.Get("ethClient").(*ethclient.Client)
		log := sr.Get("logger").(logger.LoggerInterface)
		limiter := sr.Get("chain:rpcLimiter").(*ratelimit.Limiter)

		senderCfg := ethereum.DefaultSenderConfig()
		if cfg.Ethereum.MaxGasPriceGwei > 0 {
			senderCfg.MaxFeeWei = gweiToWei(cfg.Ethereum.MaxGasPriceGwei)
		}

		return ethereum.NewSender(senderCfg, client, limiter, log)
	})

	// Register GasOracle (private - internal dependency)
	di.RegisterToken(c, chainDI.GasOracle, func(sr di.ServiceRegistry) app.GasOracle {
		cfg := sr.Get("config").(*config.Config)
		client := sr.Get("ethClient").(*ethclient.Client)
		log := sr.Get("logger").(logger.LoggerInterface)

		oracleCfg := ethereum.DefaultGasOracleConfig()
		if cfg.Ethereum.MaxGasPriceGwei > 0 {
			oracleCfg.MaxGasPrice = gweiToWei(cfg.Ethereum.MaxGasPriceGwei)
		}

		oracle, err := ethereum.NewGasOracle(oracleCfg, client, log)
		if err != nil {
			panic("failed to create gas oracle: " + err.Error())
		}
		return oracle
	})

	// Register ChainService (public - exposed to other modules)
	di.RegisterToken(c, chainDI.ChainService, func(sr di.ServiceRegistry) *app.ChainService {
		cfg := sr.Get("config").(*config.Config)

		signer, err := domain.NewSignerFromHex(cfg.Ethereum.PrivateKey, cfg.Ethereum.ChainID)
		if err != nil {
			panic("failed to load signer: " + err.Error())
		}

		return app.NewChainService(
			chainDI.GetNodeProvider(sr),
			chainDI.GetTxWaiter(sr),
			chainDI.GetTxSender(sr),
			chainDI.GetGasOracle(sr),
			signer,
		)
	})

	return nil
}

// Startup verifies the node is usable before any transaction work begins.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()

	svc := chainDI.GetChainService(mono.Services())
	if err := svc.EnsureReady(ctx, cfg.Ethereum.ChainID); err != nil {
		return err
	}

	log.Info(ctx, "chain module started",
		"chain_id", cfg.Ethereum.ChainID,
		"signer", svc.SignerAddress().Hex(),
	)
	return nil
}
