package app

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"

	"github.com/fd1az/liquidity-bot/business/liquidity/domain"
	"github.com/fd1az/liquidity-bot/internal/apperror"
)

// wei converts a human token amount (18 decimals) to smallest units.
func wei(s string) *big.Int {
	return decimal.RequireFromString(s).Shift(18).BigInt()
}

func ratioSpec(base, ratio, cap string) domain.RatioSpec {
	return domain.RatioSpec{
		BaseAmount: decimal.RequireFromString(base),
		QuoteRatio: decimal.RequireFromString(ratio),
		QuoteCap:   decimal.RequireFromString(cap),
	}
}

func addrTopic(a common.Address) common.Hash {
	return common.BytesToHash(a.Bytes())
}

func transferLog(token, from, to common.Address, amount *big.Int) *types.Log {
	return &types.Log{
		Address: token,
		Topics:  []common.Hash{domain.TransferTopic, addrTopic(from), addrTopic(to)},
		Data:    common.LeftPadBytes(amount.Bytes(), 32),
	}
}

func TestAddLiquidity_Uncapped(t *testing.T) {
	w := newWorld(t)
	w.token.setBalance(signerAddr, wei("10000"))
	w.contracts.factory.setPair(tknAddr, wethAddr, pairAddr1)

	result, err := w.svc.AddLiquidity(context.Background(), tknAddr,
		ratioSpec("10000", "0.0001", "1.0"), signerAddr, 10*time.Minute, new(big.Int), new(big.Int))
	if err != nil {
		t.Fatalf("AddLiquidity: %v", err)
	}

	if result.Sizing.Capped {
		t.Error("quote exactly at the cap must not count as capped")
	}
	if result.PairAddress != pairAddr1 {
		t.Errorf("pair = %s, want %s", result.PairAddress.Hex(), pairAddr1.Hex())
	}

	if len(w.contracts.router.addCalls) != 1 {
		t.Fatalf("router add calls = %d, want 1", len(w.contracts.router.addCalls))
	}
	call := w.contracts.router.addCalls[0]
	if call.amount.Cmp(wei("10000")) != 0 {
		t.Errorf("token amount = %s, want %s", call.amount, wei("10000"))
	}
	if call.ethValue.Cmp(wei("1")) != 0 {
		t.Errorf("eth value = %s, want %s", call.ethValue, wei("1"))
	}

	// router spend was gated through an approval of exactly the base amount
	if w.token.approveCalls != 1 {
		t.Errorf("approveCalls = %d, want 1", w.token.approveCalls)
	}
}

func TestAddLiquidity_CappedRecomputesBase(t *testing.T) {
	w := newWorld(t)
	w.token.setBalance(signerAddr, wei("20000"))
	w.contracts.factory.setPair(tknAddr, wethAddr, pairAddr1)

	result, err := w.svc.AddLiquidity(context.Background(), tknAddr,
		ratioSpec("20000", "0.0001", "1.0"), signerAddr, 10*time.Minute, new(big.Int), new(big.Int))
	if err != nil {
		t.Fatalf("AddLiquidity: %v", err)
	}

	if !result.Sizing.Capped {
		t.Error("expected capping")
	}

	call := w.contracts.router.addCalls[0]
	if call.amount.Cmp(wei("10000")) != 0 {
		t.Errorf("token amount = %s, want recomputed %s", call.amount, wei("10000"))
	}
	if call.ethValue.Cmp(wei("1")) != 0 {
		t.Errorf("eth value = %s, want clamped %s", call.ethValue, wei("1"))
	}
}

func TestAddLiquidity_InsufficientTokenBalance(t *testing.T) {
	w := newWorld(t)
	w.token.setBalance(signerAddr, wei("1"))
	w.contracts.factory.setPair(tknAddr, wethAddr, pairAddr1)

	_, err := w.svc.AddLiquidity(context.Background(), tknAddr,
		ratioSpec("10000", "0.0001", "1.0"), signerAddr, 10*time.Minute, new(big.Int), new(big.Int))
	if !apperror.IsCode(err, apperror.CodeInsufficientBalance) {
		t.Fatalf("err = %v, want CodeInsufficientBalance", err)
	}

	// fail fast: nothing reached the chain
	if len(w.chain.submitted) != 0 {
		t.Errorf("submitted %d transactions, want 0", len(w.chain.submitted))
	}
}

func TestAddLiquidity_CreatesPairWhenAbsent(t *testing.T) {
	w := newWorld(t)
	w.token.setBalance(signerAddr, wei("10000"))
	w.contracts.factory.willCreate(tknAddr, wethAddr, pairAddr1)

	result, err := w.svc.AddLiquidity(context.Background(), tknAddr,
		ratioSpec("100", "0.0001", "1.0"), signerAddr, 10*time.Minute, new(big.Int), new(big.Int))
	if err != nil {
		t.Fatalf("AddLiquidity: %v", err)
	}
	if !result.PairCreated {
		t.Error("expected pair creation")
	}
	if w.contracts.factory.createCalls != 1 {
		t.Errorf("createCalls = %d, want 1", w.contracts.factory.createCalls)
	}
}

func TestAddLiquidityBatch_PartialFailure(t *testing.T) {
	w := newWorld(t)

	// second token is funded, first is not
	broke := newFakeToken(w.chain, common.HexToAddress("0x2222222222222222222222222222222222222222"), "BRK", 18)
	w.contracts.tokens[broke.addr] = broke
	w.token.setBalance(signerAddr, wei("10000"))

	w.contracts.factory.setPair(broke.addr, wethAddr, common.HexToAddress("0x5555555555555555555555555555555555555555"))
	w.contracts.factory.setPair(tknAddr, wethAddr, pairAddr1)

	result, err := w.svc.AddLiquidityBatch(context.Background(),
		[]common.Address{broke.addr, tknAddr},
		ratioSpec("100", "0.0001", "1.0"), signerAddr, 10*time.Minute, decimal.Zero, new(big.Int))
	if err != nil {
		t.Fatalf("AddLiquidityBatch: %v", err)
	}

	if len(result.Skipped) != 1 {
		t.Fatalf("skipped = %d, want 1", len(result.Skipped))
	}
	if result.Skipped[0].Token != broke.addr {
		t.Errorf("skipped token = %s, want %s", result.Skipped[0].Token.Hex(), broke.addr.Hex())
	}
	if !apperror.IsCode(result.Skipped[0].Err, apperror.CodeInsufficientBalance) {
		t.Errorf("skip reason = %v, want CodeInsufficientBalance", result.Skipped[0].Err)
	}

	// the failure did not abort the batch
	if len(result.Added) != 1 {
		t.Fatalf("added = %d, want 1", len(result.Added))
	}
	if result.Added[0].Token != tknAddr {
		t.Errorf("added token = %s, want %s", result.Added[0].Token.Hex(), tknAddr.Hex())
	}
}

func TestAddLiquidityBatch_ScalesTokenMinimum(t *testing.T) {
	w := newWorld(t)

	micro := newFakeToken(w.chain, common.HexToAddress("0x3333333333333333333333333333333333333333"), "MIC", 6)
	micro.setBalance(signerAddr, decimal.RequireFromString("10000").Shift(6).BigInt())
	w.contracts.tokens[micro.addr] = micro
	w.token.setBalance(signerAddr, wei("10000"))

	w.contracts.factory.setPair(tknAddr, wethAddr, pairAddr1)
	w.contracts.factory.setPair(micro.addr, wethAddr, common.HexToAddress("0x6666666666666666666666666666666666666666"))

	res, err := w.svc.AddLiquidityBatch(context.Background(),
		[]common.Address{tknAddr, micro.addr},
		ratioSpec("100", "0.0001", "1.0"), signerAddr, 10*time.Minute,
		decimal.RequireFromString("5"), new(big.Int))
	if err != nil {
		t.Fatalf("AddLiquidityBatch: %v", err)
	}
	if len(res.Skipped) != 0 {
		t.Fatalf("skipped = %d, want 0", len(res.Skipped))
	}

	calls := w.contracts.router.addCalls
	if len(calls) != 2 {
		t.Fatalf("router calls = %d, want 2", len(calls))
	}
	if got, want := calls[0].minToken, wei("5"); got.Cmp(want) != 0 {
		t.Errorf("18-decimal minimum = %s, want %s", got, want)
	}
	if got, want := calls[1].minToken, big.NewInt(5_000_000); got.Cmp(want) != 0 {
		t.Errorf("6-decimal minimum = %s, want %s", got, want)
	}
}

func TestResolveAsset_EmptySymbol(t *testing.T) {
	w := newWorld(t)

	addr := common.HexToAddress("0x7777777777777777777777777777777777777777")
	w.contracts.tokens[addr] = newFakeToken(w.chain, addr, "", 18)

	a, err := w.svc.ResolveAsset(context.Background(), addr)
	if err != nil {
		t.Fatalf("ResolveAsset: %v", err)
	}
	if a.Symbol() != addr.Hex() {
		t.Errorf("symbol = %q, want the address %q", a.Symbol(), addr.Hex())
	}
	if a.Decimals() != 18 {
		t.Errorf("decimals = %d, want 18", a.Decimals())
	}
}

func TestRemoveLiquidity_NoPosition(t *testing.T) {
	w := newWorld(t)
	w.contracts.factory.setPair(tknAddr, wethAddr, pairAddr1)

	_, err := w.svc.RemoveLiquidity(context.Background(), tknAddr, nil, signerAddr, 10*time.Minute, new(big.Int), new(big.Int))
	if !apperror.IsCode(err, apperror.CodeNoLiquidityPosition) {
		t.Fatalf("err = %v, want CodeNoLiquidityPosition", err)
	}
}

func TestRemoveLiquidity_PairNotFound(t *testing.T) {
	w := newWorld(t)

	_, err := w.svc.RemoveLiquidity(context.Background(), tknAddr, nil, signerAddr, 10*time.Minute, new(big.Int), new(big.Int))
	if !apperror.IsCode(err, apperror.CodePairNotFound) {
		t.Fatalf("err = %v, want CodePairNotFound", err)
	}
}

func TestRemoveLiquidity_FullBalance(t *testing.T) {
	w := newWorld(t)
	w.contracts.factory.setPair(tknAddr, wethAddr, pairAddr1)
	w.pair.setBalance(signerAddr, big.NewInt(5000))

	result, err := w.svc.RemoveLiquidity(context.Background(), tknAddr, nil, signerAddr, 10*time.Minute, new(big.Int), new(big.Int))
	if err != nil {
		t.Fatalf("RemoveLiquidity: %v", err)
	}
	if result.Liquidity.Cmp(big.NewInt(5000)) != 0 {
		t.Errorf("liquidity = %s, want full balance 5000", result.Liquidity)
	}
	if w.contracts.router.removeCalls != 1 {
		t.Errorf("removeCalls = %d, want 1", w.contracts.router.removeCalls)
	}
	// LP spend gated through an approval on the pair token
	if w.pair.approveCalls != 1 {
		t.Errorf("pair approveCalls = %d, want 1", w.pair.approveCalls)
	}
}

func TestRemoveLiquidityDirect(t *testing.T) {
	w := newWorld(t)
	w.contracts.factory.setPair(tknAddr, wethAddr, pairAddr1)
	w.pair.setBalance(signerAddr, big.NewInt(5000))

	tokenOut := wei("400")
	wethOut := wei("0.04")
	w.pair.burnReceipt = &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		BlockNumber: big.NewInt(9),
		Logs: []*types.Log{
			transferLog(tknAddr, pairAddr1, signerAddr, tokenOut),
			transferLog(wethAddr, pairAddr1, signerAddr, wethOut),
		},
	}

	result, err := w.svc.RemoveLiquidityDirect(context.Background(), tknAddr, signerAddr, true)
	if err != nil {
		t.Fatalf("RemoveLiquidityDirect: %v", err)
	}

	if w.pair.transferCalls != 1 {
		t.Errorf("LP transferCalls = %d, want 1", w.pair.transferCalls)
	}
	if w.pair.burnCalls != 1 {
		t.Errorf("burnCalls = %d, want 1", w.pair.burnCalls)
	}
	if result.TokenOut.Cmp(tokenOut) != 0 {
		t.Errorf("TokenOut = %s, want %s", result.TokenOut, tokenOut)
	}
	if result.WrappedOut.Cmp(wethOut) != 0 {
		t.Errorf("WrappedOut = %s, want %s", result.WrappedOut, wethOut)
	}
	if !result.Unwrapped {
		t.Error("expected the wrapped side to be unwrapped")
	}
	if w.contracts.wrapped.withdrawCalls != 1 {
		t.Errorf("withdrawCalls = %d, want 1", w.contracts.wrapped.withdrawCalls)
	}
}

func TestRemoveLiquidityDirect_NoUnwrap(t *testing.T) {
	w := newWorld(t)
	w.contracts.factory.setPair(tknAddr, wethAddr, pairAddr1)
	w.pair.setBalance(signerAddr, big.NewInt(5000))
	w.pair.burnReceipt = &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		BlockNumber: big.NewInt(9),
		Logs: []*types.Log{
			transferLog(wethAddr, pairAddr1, signerAddr, wei("0.04")),
		},
	}

	result, err := w.svc.RemoveLiquidityDirect(context.Background(), tknAddr, signerAddr, false)
	if err != nil {
		t.Fatalf("RemoveLiquidityDirect: %v", err)
	}
	if result.Unwrapped {
		t.Error("unwrap disabled, nothing should be withdrawn")
	}
	if w.contracts.wrapped.withdrawCalls != 0 {
		t.Errorf("withdrawCalls = %d, want 0", w.contracts.wrapped.withdrawCalls)
	}
}

func TestVerifyPosition(t *testing.T) {
	w := newWorld(t)
	w.contracts.factory.setPair(tknAddr, wethAddr, pairAddr1)

	// token is token1 in this pool, reserves must swap accordingly
	w.pair.token0 = wethAddr
	w.pair.token1 = tknAddr
	w.pair.reserve0 = wei("10")
	w.pair.reserve1 = wei("100000")
	w.pair.totalSupply = big.NewInt(1000)
	w.pair.setBalance(signerAddr, big.NewInt(250))

	pos, err := w.svc.VerifyPosition(context.Background(), tknAddr, signerAddr)
	if err != nil {
		t.Fatalf("VerifyPosition: %v", err)
	}

	if pos.TokenReserve.Cmp(wei("100000")) != 0 {
		t.Errorf("TokenReserve = %s, want %s", pos.TokenReserve, wei("100000"))
	}
	if pos.WrappedReserve.Cmp(wei("10")) != 0 {
		t.Errorf("WrappedReserve = %s, want %s", pos.WrappedReserve, wei("10"))
	}
	if pos.TokenShare.Cmp(wei("25000")) != 0 {
		t.Errorf("TokenShare = %s, want %s", pos.TokenShare, wei("25000"))
	}
	if pos.WrappedShare.Cmp(wei("2.5")) != 0 {
		t.Errorf("WrappedShare = %s, want %s", pos.WrappedShare, wei("2.5"))
	}
}

func TestVerifyPosition_PairNotFound(t *testing.T) {
	w := newWorld(t)

	_, err := w.svc.VerifyPosition(context.Background(), tknAddr, signerAddr)
	if !apperror.IsCode(err, apperror.CodePairNotFound) {
		t.Fatalf("err = %v, want CodePairNotFound", err)
	}
}

func TestRouterInfo_Consistent(t *testing.T) {
	w := newWorld(t)

	info, err := w.svc.RouterInfo(context.Background())
	if err != nil {
		t.Fatalf("RouterInfo: %v", err)
	}

	if !info.Consistent() {
		t.Errorf("Consistent() = false, want true")
	}
	if info.Router != routerAddr {
		t.Errorf("Router = %s, want %s", info.Router.Hex(), routerAddr.Hex())
	}
	if info.GasPrice == nil {
		t.Error("GasPrice = nil, want observed price")
	}
}

func TestRouterInfo_DeploymentMismatch(t *testing.T) {
	w := newWorld(t)
	w.contracts.router.reportedWETH = common.HexToAddress("0x9999999999999999999999999999999999999999")

	info, err := w.svc.RouterInfo(context.Background())
	if err != nil {
		t.Fatalf("RouterInfo: %v", err)
	}

	if info.Consistent() {
		t.Error("Consistent() = true, want false on WETH mismatch")
	}
	if info.ConfiguredWrapped != wethAddr {
		t.Errorf("ConfiguredWrapped = %s, want %s", info.ConfiguredWrapped.Hex(), wethAddr.Hex())
	}
}
