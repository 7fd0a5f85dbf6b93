package app

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	chainDomain "github.com/fd1az/liquidity-bot/business/chain/domain"
	"github.com/fd1az/liquidity-bot/business/liquidity/domain"
	"github.com/fd1az/liquidity-bot/internal/asset"
	"github.com/fd1az/liquidity-bot/internal/logger"
)

var (
	signerAddr = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	routerAddr = common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
	wethAddr   = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	tknAddr    = common.HexToAddress("0x1111111111111111111111111111111111111111")
	pairAddr1  = common.HexToAddress("0x4444444444444444444444444444444444444444")
)

func testLogger() logger.LoggerInterface {
	return logger.NewStdLogger(io.Discard, logger.LevelError)
}

// fakeChain implements ChainClient. Every submitted hash confirms
// immediately unless listed in failHashes.
type fakeChain struct {
	nativeBalance *big.Int
	submitted     []common.Hash
	receipts      map[common.Hash]*types.Receipt
	failWait      map[common.Hash]error
	nextNonce     int
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		nativeBalance: new(big.Int).Mul(big.NewInt(100), big.NewInt(1e18)),
		receipts:      make(map[common.Hash]*types.Receipt),
		failWait:      make(map[common.Hash]error),
	}
}

func (c *fakeChain) SignerAddress() common.Address { return signerAddr }

func (c *fakeChain) NativeBalance(_ context.Context) (*big.Int, error) {
	return c.nativeBalance, nil
}

func (c *fakeChain) GetGasPrice(_ context.Context) (*chainDomain.GasPrice, error) {
	return chainDomain.NewGasPrice(big.NewInt(20_000_000_000)), nil
}

func (c *fakeChain) newHash() common.Hash {
	c.nextNonce++
	return common.BytesToHash(big.NewInt(int64(c.nextNonce)).Bytes())
}

// peekNextHash returns the hash the next submission will get.
func (c *fakeChain) peekNextHash() common.Hash {
	return common.BytesToHash(big.NewInt(int64(c.nextNonce + 1)).Bytes())
}

func (c *fakeChain) Submit(_ context.Context, _ common.Address, _ *big.Int, _ []byte) (common.Hash, error) {
	h := c.newHash()
	c.submitted = append(c.submitted, h)
	return h, nil
}

func (c *fakeChain) WaitMined(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	if err, ok := c.failWait[hash]; ok {
		return nil, err
	}
	if r, ok := c.receipts[hash]; ok {
		return r, nil
	}
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(1)}, nil
}

func (c *fakeChain) Receipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	return c.receipts[hash], nil
}

// fakeToken implements FungibleAsset. Approvals and transfers apply
// immediately, standing in for a confirmed transaction.
type fakeToken struct {
	chain      *fakeChain
	addr       common.Address
	symbol     string
	decimals   uint8
	balances   map[common.Address]*big.Int
	allowances map[string]*big.Int

	approveCalls  int
	transferCalls int
	decimalsErr   error
}

func newFakeToken(chain *fakeChain, addr common.Address, symbol string, decimals uint8) *fakeToken {
	return &fakeToken{
		chain:      chain,
		addr:       addr,
		symbol:     symbol,
		decimals:   decimals,
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[string]*big.Int),
	}
}

func allowanceKey(owner, spender common.Address) string {
	return owner.Hex() + ":" + spender.Hex()
}

func (t *fakeToken) setBalance(owner common.Address, amount *big.Int) {
	t.balances[owner] = amount
}

func (t *fakeToken) Address() common.Address { return t.addr }

func (t *fakeToken) Decimals(_ context.Context) (uint8, error) {
	if t.decimalsErr != nil {
		return 0, t.decimalsErr
	}
	return t.decimals, nil
}

func (t *fakeToken) Symbol(_ context.Context) (string, error) { return t.symbol, nil }

func (t *fakeToken) BalanceOf(_ context.Context, owner common.Address) (*big.Int, error) {
	if b, ok := t.balances[owner]; ok {
		return b, nil
	}
	return new(big.Int), nil
}

func (t *fakeToken) Allowance(_ context.Context, owner, spender common.Address) (*big.Int, error) {
	if a, ok := t.allowances[allowanceKey(owner, spender)]; ok {
		return a, nil
	}
	return new(big.Int), nil
}

func (t *fakeToken) Approve(ctx context.Context, spender common.Address, amount *big.Int) (common.Hash, error) {
	t.approveCalls++
	t.allowances[allowanceKey(signerAddr, spender)] = new(big.Int).Set(amount)
	return t.chain.Submit(ctx, t.addr, nil, nil)
}

func (t *fakeToken) Transfer(ctx context.Context, to common.Address, amount *big.Int) (common.Hash, error) {
	t.transferCalls++
	return t.chain.Submit(ctx, t.addr, nil, nil)
}

// fakeWrapped adds Withdraw on top of fakeToken.
type fakeWrapped struct {
	*fakeToken
	withdrawCalls int
}

func (w *fakeWrapped) Withdraw(ctx context.Context, _ *big.Int) (common.Hash, error) {
	w.withdrawCalls++
	return w.chain.Submit(ctx, w.addr, nil, nil)
}

// fakeFactory implements PairFactory. Pairs become visible after
// creationDelay lookups following CreatePair, defaulting to immediately.
type fakeFactory struct {
	chain       *fakeChain
	pairs       map[string]common.Address
	pending     map[string]common.Address
	createCalls int
	getCalls    int
}

func newFakeFactory(chain *fakeChain) *fakeFactory {
	return &fakeFactory{
		chain:   chain,
		pairs:   make(map[string]common.Address),
		pending: make(map[string]common.Address),
	}
}

func pairKey(a, b common.Address) string {
	return a.Hex() + "/" + b.Hex()
}

func (f *fakeFactory) setPair(a, b, pair common.Address) {
	f.pairs[pairKey(a, b)] = pair
}

func (f *fakeFactory) willCreate(a, b, pair common.Address) {
	f.pending[pairKey(a, b)] = pair
}

func (f *fakeFactory) Address() common.Address {
	return common.HexToAddress("0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f")
}

func (f *fakeFactory) GetPair(_ context.Context, a, b common.Address) (common.Address, error) {
	f.getCalls++
	return f.pairs[pairKey(a, b)], nil
}

func (f *fakeFactory) CreatePair(ctx context.Context, a, b common.Address) (common.Hash, error) {
	f.createCalls++
	if pair, ok := f.pending[pairKey(a, b)]; ok {
		f.pairs[pairKey(a, b)] = pair
	}
	return f.chain.Submit(ctx, common.Address{}, nil, nil)
}

// fakePair implements LiquidityPair on top of fakeToken.
type fakePair struct {
	*fakeToken
	token0      common.Address
	token1      common.Address
	reserve0    *big.Int
	reserve1    *big.Int
	totalSupply *big.Int
	burnCalls   int
	burnReceipt *types.Receipt
}

func (p *fakePair) Token0(_ context.Context) (common.Address, error) { return p.token0, nil }
func (p *fakePair) Token1(_ context.Context) (common.Address, error) { return p.token1, nil }

func (p *fakePair) Reserves(_ context.Context) (*big.Int, *big.Int, error) {
	return p.reserve0, p.reserve1, nil
}

func (p *fakePair) TotalSupply(_ context.Context) (*big.Int, error) {
	return p.totalSupply, nil
}

func (p *fakePair) Burn(ctx context.Context, _ common.Address) (common.Hash, error) {
	p.burnCalls++
	hash, err := p.chain.Submit(ctx, p.addr, nil, nil)
	if err != nil {
		return common.Hash{}, err
	}
	if p.burnReceipt != nil {
		p.chain.receipts[hash] = p.burnReceipt
	}
	return hash, nil
}

// fakeRouter implements LiquidityRouter and records call arguments. Its
// reported deployment defaults to the configured one; tests override the
// fields to simulate a mismatch.
type fakeRouter struct {
	chain       *fakeChain
	addCalls    []routerAddCall
	removeCalls int
	addErr      error

	reportedFactory common.Address
	reportedWETH    common.Address
}

type routerAddCall struct {
	token     common.Address
	amount    *big.Int
	minToken  *big.Int
	minETH    *big.Int
	ethValue  *big.Int
	recipient common.Address
}

func (r *fakeRouter) Address() common.Address { return routerAddr }

func (r *fakeRouter) Factory(_ context.Context) (common.Address, error) {
	return r.reportedFactory, nil
}

func (r *fakeRouter) WETH(_ context.Context) (common.Address, error) {
	return r.reportedWETH, nil
}

func (r *fakeRouter) AddLiquidityETH(ctx context.Context, token common.Address, amountTokenDesired, amountTokenMin, amountETHMin, ethValue *big.Int, to common.Address, _ *big.Int) (common.Hash, error) {
	if r.addErr != nil {
		return common.Hash{}, r.addErr
	}
	r.addCalls = append(r.addCalls, routerAddCall{
		token:     token,
		amount:    amountTokenDesired,
		minToken:  amountTokenMin,
		minETH:    amountETHMin,
		ethValue:  ethValue,
		recipient: to,
	})
	return r.chain.Submit(ctx, routerAddr, ethValue, nil)
}

func (r *fakeRouter) RemoveLiquidityETH(ctx context.Context, _ common.Address, _, _, _ *big.Int, _ common.Address, _ *big.Int) (common.Hash, error) {
	r.removeCalls++
	return r.chain.Submit(ctx, routerAddr, nil, nil)
}

// fakeContracts wires the fakes together as the Contracts hub.
type fakeContracts struct {
	tokens  map[common.Address]*fakeToken
	pairs   map[common.Address]*fakePair
	factory *fakeFactory
	router  *fakeRouter
	wrapped *fakeWrapped
}

func (c *fakeContracts) Fungible(addr common.Address) FungibleAsset {
	if t, ok := c.tokens[addr]; ok {
		return t
	}
	if addr == c.wrapped.addr {
		return c.wrapped
	}
	panic(fmt.Sprintf("no fake token at %s", addr.Hex()))
}

func (c *fakeContracts) Pair(addr common.Address) LiquidityPair {
	if p, ok := c.pairs[addr]; ok {
		return p
	}
	panic(fmt.Sprintf("no fake pair at %s", addr.Hex()))
}

func (c *fakeContracts) Factory() PairFactory    { return c.factory }
func (c *fakeContracts) Router() LiquidityRouter { return c.router }
func (c *fakeContracts) Wrapped() WrappedNative  { return c.wrapped }

// fakeStore implements SnapshotStore.
type fakeStore struct {
	saved []domain.BalanceSnapshot
}

func (s *fakeStore) Save(_ context.Context, snap domain.BalanceSnapshot) error {
	s.saved = append(s.saved, snap)
	return nil
}

// world bundles a fully wired fake environment.
type world struct {
	chain     *fakeChain
	contracts *fakeContracts
	gate      *ApprovalGate
	resolver  *PairResolver
	svc       *LiquidityService
	token     *fakeToken
	pair      *fakePair
	registry  *asset.Registry
}

func newWorld(t *testing.T) *world {
	t.Helper()

	chain := newFakeChain()
	log := testLogger()

	token := newFakeToken(chain, tknAddr, "TKN", 18)
	weth := &fakeWrapped{fakeToken: newFakeToken(chain, wethAddr, "WETH", 18)}

	pair := &fakePair{
		fakeToken:   newFakeToken(chain, pairAddr1, "UNI-V2", 18),
		token0:      tknAddr,
		token1:      wethAddr,
		reserve0:    new(big.Int),
		reserve1:    new(big.Int),
		totalSupply: new(big.Int),
	}

	factory := newFakeFactory(chain)
	router := &fakeRouter{
		chain:           chain,
		reportedFactory: factory.Address(),
		reportedWETH:    wethAddr,
	}

	contracts := &fakeContracts{
		tokens:  map[common.Address]*fakeToken{tknAddr: token},
		pairs:   map[common.Address]*fakePair{pairAddr1: pair},
		factory: factory,
		router:  router,
		wrapped: weth,
	}

	registry := asset.NewRegistry()
	gate := NewApprovalGate(chain, log)
	resolver := NewPairResolver(factory, chain, log)

	svc, err := NewLiquidityService(chain, contracts, gate, resolver, registry, 1, log)
	if err != nil {
		t.Fatalf("NewLiquidityService: %v", err)
	}

	return &world{
		chain:     chain,
		contracts: contracts,
		gate:      gate,
		resolver:  resolver,
		svc:       svc,
		token:     token,
		pair:      pair,
		registry:  registry,
	}
}
