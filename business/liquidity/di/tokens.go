// Package di contains dependency injection tokens for the liquidity context.
package di

import (
	"github.com/fd1az/liquidity-bot/business/liquidity/app"
	"github.com/fd1az/liquidity-bot/internal/di"
)

// Public service tokens - exposed to other modules
var (
	LiquidityService  = di.NewToken[*app.LiquidityService]("liquidity.LiquidityService")
	ReconcilerService = di.NewToken[*app.ReconcilerService]("liquidity.ReconcilerService")
)

// Private dependency tokens - internal to liquidity module
var (
	Contracts     = di.NewToken[app.Contracts]("liquidity:contracts")
	ApprovalGate  = di.NewToken[*app.ApprovalGate]("liquidity:approvalGate")
	PairResolver  = di.NewToken[*app.PairResolver]("liquidity:pairResolver")
	SnapshotStore = di.NewToken[app.SnapshotStore]("liquidity:snapshotStore")
)

// Helper functions for type-safe access
func GetLiquidityService(c di.ServiceRegistry) *app.LiquidityService {
	return di.GetToken(c, LiquidityService)
}

func GetReconcilerService(c di.ServiceRegistry) *app.ReconcilerService {
	return di.GetToken(c, ReconcilerService)
}

func GetContracts(c di.ServiceRegistry) app.Contracts {
	return di.GetToken(c, Contracts)
}

func GetApprovalGate(c di.ServiceRegistry) *app.ApprovalGate {
	return di.GetToken(c, ApprovalGate)
}

func GetPairResolver(c di.ServiceRegistry) *app.PairResolver {
	return di.GetToken(c, PairResolver)
}

func GetSnapshotStore(c di.ServiceRegistry) app.SnapshotStore {
	return di.GetToken(c, SnapshotStore)
}
