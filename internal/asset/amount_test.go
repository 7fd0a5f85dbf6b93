package asset_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/fd1az/liquidity-bot/internal/asset"
)

func TestAmount_Basic(t *testing.T) {
	// 1 ETH = 1e18 wei
	oneETH := asset.NewAmount(asset.ETH, big.NewInt(1e18))

	if oneETH.IsZero() {
		t.Error("expected non-zero amount")
	}

	// ToDecimal should return 1.0
	d := oneETH.ToDecimal()
	if !d.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected 1, got %s", d.String())
	}

	// String should be "1 ETH"
	if oneETH.String() != "1 ETH" {
		t.Errorf("expected '1 ETH', got '%s'", oneETH.String())
	}
}

func TestAmount_Add(t *testing.T) {
	oneETH := asset.NewAmount(asset.ETH, big.NewInt(1e18))
	twoETH := asset.NewAmount(asset.ETH, big.NewInt(2e18))

	sum, err := oneETH.Add(twoETH)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := decimal.NewFromInt(3)
	if !sum.ToDecimal().Equal(expected) {
		t.Errorf("expected 3, got %s", sum.ToDecimal().String())
	}
}

func TestAmount_CannotAddDifferentAssets(t *testing.T) {
	oneETH := asset.NewAmount(asset.ETH, big.NewInt(1e18))
	oneWETH := asset.NewAmount(asset.WETH, big.NewInt(1e18))

	_, err := oneETH.Add(oneWETH)
	if err == nil {
		t.Error("expected error when adding different assets")
	}
}

func TestAmount_Sub(t *testing.T) {
	threeETH := asset.NewAmount(asset.ETH, big.NewInt(3e18))
	oneETH := asset.NewAmount(asset.ETH, big.NewInt(1e18))

	diff, err := threeETH.Sub(oneETH)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := decimal.NewFromInt(2)
	if !diff.ToDecimal().Equal(expected) {
		t.Errorf("expected 2, got %s", diff.ToDecimal().String())
	}
}

func TestAmount_SubNegativeError(t *testing.T) {
	oneETH := asset.NewAmount(asset.ETH, big.NewInt(1e18))
	twoETH := asset.NewAmount(asset.ETH, big.NewInt(2e18))

	_, err := oneETH.Sub(twoETH)
	if err == nil {
		t.Error("expected error for negative result")
	}
}

func TestAmount_Shortfall(t *testing.T) {
	oneETH := asset.NewAmount(asset.ETH, big.NewInt(1e18))
	twoETH := asset.NewAmount(asset.ETH, big.NewInt(2e18))

	short, err := oneETH.Shortfall(twoETH)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !short.ToDecimal().Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected shortfall of 1, got %s", short.ToDecimal().String())
	}

	covered, err := twoETH.Shortfall(oneETH)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !covered.IsZero() {
		t.Errorf("expected zero shortfall, got %s", covered.String())
	}
}

func TestParseDecimal(t *testing.T) {
	// Parse "1.5" ETH
	d := decimal.NewFromFloat(1.5)
	amount, err := asset.ParseDecimal(asset.ETH, d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Should be 1.5e18 wei
	expected := big.NewInt(0)
	expected.SetString("1500000000000000000", 10)

	if amount.Raw().Cmp(expected) != 0 {
		t.Errorf("expected %s, got %s", expected.String(), amount.Raw().String())
	}
}

func TestParseDecimal_TooManyDecimals(t *testing.T) {
	// A 6-decimal token cannot represent 1.1234567 (7 decimals)
	sixDec := asset.MustNewToken(asset.ChainIDHoodi, common.HexToAddress("0x01"), "SIX", "Six Decimals", 6)
	d := decimal.NewFromFloat(1.1234567)
	_, err := asset.ParseDecimal(sixDec, d)
	if err == nil {
		t.Error("expected error for too many decimals")
	}
}

func TestAssetID_Identity(t *testing.T) {
	wethEth := asset.NewTokenAssetID(1, asset.AddrWETHEthereum)
	wethEth2 := asset.NewTokenAssetID(1, asset.AddrWETHEthereum)

	if !wethEth.Equals(wethEth2) {
		t.Error("same asset should have equal IDs")
	}

	// Same address on another chain is a different asset
	wethHoodi := asset.NewTokenAssetID(asset.ChainIDHoodi, asset.AddrWETHEthereum)

	if wethEth.Equals(wethHoodi) {
		t.Error("different chains should have different IDs")
	}
}

func TestRegistry(t *testing.T) {
	r := asset.DefaultRegistry()

	// Should find ETH
	eth, ok := r.GetNative(asset.ChainIDEthereum)
	if !ok {
		t.Error("ETH not found in registry")
	}
	if eth.Symbol() != "ETH" {
		t.Errorf("expected ETH, got %s", eth.Symbol())
	}
}

func TestRegistry_Ensure(t *testing.T) {
	r := asset.NewRegistry()
	addr := common.HexToAddress("0x341aac04059a1e81e6390177c4e4d1992b422d84")

	first := asset.MustNewToken(asset.ChainIDHoodi, addr, "HOODI", "Hoodi Token", 18)
	got := r.Ensure(first)
	if got != first {
		t.Error("first Ensure should register and return the asset")
	}

	// A second Ensure with different metadata must not replace the original.
	second := asset.MustNewToken(asset.ChainIDHoodi, addr, "HOODI2", "Other", 6)
	got = r.Ensure(second)
	if got != first {
		t.Error("Ensure must keep the already-registered asset")
	}
}
