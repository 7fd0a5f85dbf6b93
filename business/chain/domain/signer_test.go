package domain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// well-known development key, never funded on a live network
const testKeyHex = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func TestNewSignerFromHex(t *testing.T) {
	want := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

	for _, key := range []string{testKeyHex, "0x" + testKeyHex, "  " + testKeyHex + "\n"} {
		s, err := NewSignerFromHex(key, 1)
		if err != nil {
			t.Fatalf("NewSignerFromHex(%q): %v", key, err)
		}
		if s.Address() != want {
			t.Errorf("address = %s, want %s", s.Address().Hex(), want.Hex())
		}
	}
}

func TestNewSignerFromHex_InvalidKey(t *testing.T) {
	if _, err := NewSignerFromHex("not-a-key", 1); err == nil {
		t.Fatal("expected error for malformed key")
	}
}

func TestSignTx_RecoversSigningAddress(t *testing.T) {
	s, err := NewSignerFromHex(testKeyHex, 5)
	if err != nil {
		t.Fatalf("NewSignerFromHex: %v", err)
	}

	to := common.HexToAddress("0x1111111111111111111111111111111111111111")
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   s.ChainID(),
		Nonce:     1,
		GasTipCap: big.NewInt(1_000_000_000),
		GasFeeCap: big.NewInt(30_000_000_000),
		Gas:       21_000,
		To:        &to,
		Value:     big.NewInt(1),
	})

	signed, err := s.SignTx(tx)
	if err != nil {
		t.Fatalf("SignTx: %v", err)
	}

	from, err := types.Sender(types.LatestSignerForChainID(s.ChainID()), signed)
	if err != nil {
		t.Fatalf("Sender: %v", err)
	}
	if from != s.Address() {
		t.Errorf("recovered sender = %s, want %s", from.Hex(), s.Address().Hex())
	}
}

func TestChainID_ReturnsCopy(t *testing.T) {
	s, err := NewSignerFromHex(testKeyHex, 42)
	if err != nil {
		t.Fatalf("NewSignerFromHex: %v", err)
	}

	id := s.ChainID()
	id.SetUint64(7)

	if got := s.ChainID().Uint64(); got != 42 {
		t.Errorf("chain id mutated to %d, want 42", got)
	}
}
