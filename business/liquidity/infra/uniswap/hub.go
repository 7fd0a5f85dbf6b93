package uniswap

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/liquidity-bot/business/liquidity/app"
	"github.com/fd1az/liquidity-bot/internal/apperror"
	"github.com/fd1az/liquidity-bot/internal/circuitbreaker"
	"github.com/fd1az/liquidity-bot/internal/config"
	"github.com/fd1az/liquidity-bot/internal/logger"
)

const tracerName = "liquidity-bot/uniswap"

// Ensure Hub implements Contracts.
var _ app.Contracts = (*Hub)(nil)

// CallClient executes read-only contract calls.
type CallClient interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Submitter signs and submits state-changing transactions.
type Submitter interface {
	Submit(ctx context.Context, to common.Address, value *big.Int, data []byte) (common.Hash, error)
}

// Hub hands out contract adapters sharing one call path, circuit breaker
// and parsed ABI set.
type Hub struct {
	caller CallClient
	txn    Submitter
	logger logger.LoggerInterface

	erc20ABI   abi.ABI
	wethABI    abi.ABI
	factoryABI abi.ABI
	routerABI  abi.ABI
	pairABI    abi.ABI

	factoryAddr common.Address
	routerAddr  common.Address
	wethAddr    common.Address

	cb     *circuitbreaker.CircuitBreaker[[]byte]
	tracer trace.Tracer
}

// NewHub creates the contract adapter hub for one deployment.
func NewHub(caller CallClient, txn Submitter, cfg config.UniswapConfig, log logger.LoggerInterface) (*Hub, error) {
	h := &Hub{
		caller:      caller,
		txn:         txn,
		logger:      log,
		factoryAddr: cfg.FactoryAddressHex(),
		routerAddr:  cfg.RouterAddressHex(),
		wethAddr:    cfg.WETHAddressHex(),
		tracer:      otel.Tracer(tracerName),
	}

	for _, def := range []struct {
		name string
		raw  string
		dst  *abi.ABI
	}{
		{"erc20", ERC20ABI, &h.erc20ABI},
		{"weth", WETHABI, &h.wethABI},
		{"factory", FactoryABI, &h.factoryABI},
		{"router", RouterABI, &h.routerABI},
		{"pair", PairABI, &h.pairABI},
	} {
		parsed, err := abi.JSON(strings.NewReader(def.raw))
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s ABI: %w", def.name, err)
		}
		*def.dst = parsed
	}

	h.cb = circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig("uniswap-calls"))

	return h, nil
}

// call executes a read-only contract call through the circuit breaker.
func (h *Hub) call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	result, err := h.cb.Execute(func() ([]byte, error) {
		return h.caller.CallContract(ctx, ethereum.CallMsg{
			To:   &to,
			Data: data,
		}, nil)
	})
	if err != nil {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("call to %s failed", to.Hex())))
	}
	return result, nil
}

// Fungible returns the token adapter for an address.
func (h *Hub) Fungible(addr common.Address) app.FungibleAsset {
	return &ERC20{hub: h, addr: addr}
}

// Pair returns the pool adapter for a pair address.
func (h *Hub) Pair(addr common.Address) app.LiquidityPair {
	return &Pair{ERC20: ERC20{hub: h, addr: addr}}
}

// Factory returns the pair factory adapter.
func (h *Hub) Factory() app.PairFactory {
	return &Factory{hub: h, addr: h.factoryAddr}
}

// Router returns the liquidity router adapter.
func (h *Hub) Router() app.LiquidityRouter {
	return &Router{hub: h, addr: h.routerAddr}
}

// Wrapped returns the wrapped-native adapter.
func (h *Hub) Wrapped() app.WrappedNative {
	return &WETH{ERC20: ERC20{hub: h, addr: h.wethAddr}}
}
