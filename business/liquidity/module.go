// Package liquidity implements the liquidity bounded context for Uniswap V2 positions.
package liquidity

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"

	chainDI "github.com/fd1az/liquidity-bot/business/chain/di"
	"github.com/fd1az/liquidity-bot/business/liquidity/app"
	liqDI "github.com/fd1az/liquidity-bot/business/liquidity/di"
	"github.com/fd1az/liquidity-bot/business/liquidity/infra/store"
	"github.com/fd1az/liquidity-bot/business/liquidity/infra/uniswap"
	"github.com/fd1az/liquidity-bot/internal/asset"
	"github.com/fd1az/liquidity-bot/internal/config"
	"github.com/fd1az/liquidity-bot/internal/di"
	"github.com/fd1az/liquidity-bot/internal/logger"
	"github.com/fd1az/liquidity-bot/internal/monolith"
)

// Module implements the liquidity bounded context.
type Module struct{}

// RegisterServices registers all liquidity services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register Contracts hub (private - internal dependency)
	di.RegisterToken(c, liqDI.Contracts, func(sr di.ServiceRegistry) app.Contracts {
		cfg := sr.Get("config").(*config.Config)
		client := sr.Get("ethClient").(*ethclient.Client)
		log := sr.Get("logger").(logger.LoggerInterface)
		chainSvc := chainDI.GetChainService(sr)

		hub, err := uniswap.NewHub(client, chainSvc, cfg.Uniswap, log)
		if err != nil {
			panic("failed to create contracts hub: " + err.Error())
		}
		return hub
	})

	// Register ApprovalGate (private - internal dependency)
	di.RegisterToken(c, liqDI.ApprovalGate, func(sr di.ServiceRegistry) *app.ApprovalGate {
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewApprovalGate(chainDI.GetChainService(sr), log)
	})

	// Register PairResolver (private - internal dependency)
	di.RegisterToken(c, liqDI.PairResolver, func(sr di.ServiceRegistry) *app.PairResolver {
		log := sr.Get("logger").(logger.LoggerInterface)
		contracts := liqDI.GetContracts(sr)
		return app.NewPairResolver(contracts.Factory(), chainDI.GetChainService(sr), log)
	})

	// Register SnapshotStore (private - internal dependency)
	di.RegisterToken(c, liqDI.SnapshotStore, func(sr di.ServiceRegistry) app.SnapshotStore {
		cfg := sr.Get("config").(*config.Config)

		if cfg.Snapshots.Backend == "wal" {
			st, err := store.NewWALStore(cfg.Snapshots.Dir)
			if err != nil {
				panic("failed to open snapshot WAL: " + err.Error())
			}
			return st
		}
		st, err := store.NewFileStore(cfg.Snapshots.Dir)
		if err != nil {
			panic("failed to open snapshot store: " + err.Error())
		}
		return st
	})

	// Register LiquidityService (public - exposed to other modules)
	di.RegisterToken(c, liqDI.LiquidityService, func(sr di.ServiceRegistry) *app.LiquidityService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		svc, err := app.NewLiquidityService(
			chainDI.GetChainService(sr),
			liqDI.GetContracts(sr),
			liqDI.GetApprovalGate(sr),
			liqDI.GetPairResolver(sr),
			registry,
			cfg.Ethereum.ChainID,
			log,
		)
		if err != nil {
			panic("failed to create liquidity service: " + err.Error())
		}
		return svc
	})

	// Register ReconcilerService (public - exposed to other modules)
	di.RegisterToken(c, liqDI.ReconcilerService, func(sr di.ServiceRegistry) *app.ReconcilerService {
		log := sr.Get("logger").(logger.LoggerInterface)

		return app.NewReconcilerService(
			chainDI.GetChainService(sr),
			liqDI.GetContracts(sr),
			liqDI.GetLiquidityService(sr),
			liqDI.GetSnapshotStore(sr),
			log,
		)
	})

	return nil
}

// Startup instantiates the services so wiring errors surface before any operation runs.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()

	liqDI.GetLiquidityService(mono.Services())
	liqDI.GetReconcilerService(mono.Services())

	log.Info(ctx, "liquidity module started",
		"router", cfg.Uniswap.RouterAddress,
		"factory", cfg.Uniswap.FactoryAddress,
		"snapshot_backend", cfg.Snapshots.Backend,
	)
	return nil
}
