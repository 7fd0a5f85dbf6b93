// Package di contains dependency injection tokens for the chain context.
package di

import (
	"github.com/fd1az/liquidity-bot/business/chain/app"
	"github.com/fd1az/liquidity-bot/internal/di"
)

// Public service tokens - exposed to other modules
var (
	ChainService = di.NewToken[*app.ChainService]("chain.ChainService")
)

// Private dependency tokens - internal to chain module
var (
	NodeProvider = di.NewToken[app.NodeProvider]("chain:nodeProvider")
	TxWaiter     = di.NewToken[app.TxWaiter]("chain:txWaiter")
	TxSender     = di.NewToken[app.TxSender]("chain:txSender")
	GasOracle    = di.NewToken[app.GasOracle]("chain:gasOracle")
)

// Helper functions for type-safe access
func GetChainService(c di.ServiceRegistry) *app.ChainService {
	return di.GetToken(c, ChainService)
}

func GetNodeProvider(c di.ServiceRegistry) app.NodeProvider {
	return di.GetToken(c, NodeProvider)
}

func GetTxWaiter(c di.ServiceRegistry) app.TxWaiter {
	return di.GetToken(c, TxWaiter)
}

func GetTxSender(c di.ServiceRegistry) app.TxSender {
	return di.GetToken(c, TxSender)
}

func GetGasOracle(c di.ServiceRegistry) app.GasOracle {
	return di.GetToken(c, GasOracle)
}
