package domain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/fd1az/liquidity-bot/internal/asset"
)

var (
	tokenAddr = common.HexToAddress("0x1111111111111111111111111111111111111111")
	otherAddr = common.HexToAddress("0x3333333333333333333333333333333333333333")
	alice     = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	bob       = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

func addrTopic(a common.Address) common.Hash {
	return common.BytesToHash(a.Bytes())
}

func transferLog(token, from, to common.Address, amount *big.Int) *types.Log {
	return &types.Log{
		Address: token,
		Topics:  []common.Hash{TransferTopic, addrTopic(from), addrTopic(to)},
		Data:    common.LeftPadBytes(amount.Bytes(), 32),
	}
}

func TestParseTransfers(t *testing.T) {
	logs := []*types.Log{
		transferLog(tokenAddr, alice, bob, big.NewInt(100)),
		// wrong topic count, skipped
		{Address: tokenAddr, Topics: []common.Hash{TransferTopic}, Data: make([]byte, 32)},
		// unrelated event signature, skipped
		{Address: tokenAddr, Topics: []common.Hash{common.HexToHash("0x01"), addrTopic(alice), addrTopic(bob)}, Data: make([]byte, 32)},
		// truncated data, skipped
		{Address: tokenAddr, Topics: []common.Hash{TransferTopic, addrTopic(alice), addrTopic(bob)}, Data: make([]byte, 16)},
		transferLog(otherAddr, bob, alice, big.NewInt(7)),
	}

	events := ParseTransfers(logs)
	if len(events) != 2 {
		t.Fatalf("parsed %d events, want 2", len(events))
	}

	if events[0].Asset != tokenAddr || events[0].From != alice || events[0].To != bob {
		t.Errorf("unexpected first event: %+v", events[0])
	}
	if events[0].Amount.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("amount = %s, want 100", events[0].Amount)
	}
	if events[1].Asset != otherAddr {
		t.Errorf("second event asset = %s, want %s", events[1].Asset, otherAddr)
	}
}

func TestExtractInbound(t *testing.T) {
	receipt := &types.Receipt{
		Logs: []*types.Log{
			transferLog(tokenAddr, bob, alice, big.NewInt(50)),
			transferLog(tokenAddr, otherAddr, alice, big.NewInt(25)),
			// outbound from the subject, ignored
			transferLog(tokenAddr, alice, bob, big.NewInt(999)),
			// different asset, ignored
			transferLog(otherAddr, bob, alice, big.NewInt(40)),
			// different recipient, ignored
			transferLog(tokenAddr, bob, bob, big.NewInt(12)),
		},
	}

	got := ExtractInbound(receipt, tokenAddr, alice)
	if got.Cmp(big.NewInt(75)) != 0 {
		t.Errorf("inbound = %s, want 75", got)
	}
}

func TestExtractInbound_NoMatches(t *testing.T) {
	receipt := &types.Receipt{
		Logs: []*types.Log{
			transferLog(otherAddr, bob, bob, big.NewInt(10)),
		},
	}

	got := ExtractInbound(receipt, tokenAddr, alice)
	if got.Sign() != 0 {
		t.Errorf("inbound = %s, want 0", got)
	}
}

func TestReconstructBefore(t *testing.T) {
	tkn := asset.MustNewToken(1, tokenAddr, "TKN", "Test Token", 18)
	oth := asset.MustNewToken(1, otherAddr, "OTH", "Other Token", 18)

	after := NewSnapshot("after", common.HexToHash("0xdeadbeef"), []asset.Amount{
		asset.NewAmount(tkn, big.NewInt(1000)),
		asset.NewAmount(oth, big.NewInt(500)),
	})

	receipt := &types.Receipt{
		Logs: []*types.Log{
			transferLog(tokenAddr, bob, alice, big.NewInt(300)),
			// addressed to someone else, must not affect the subject
			transferLog(tokenAddr, bob, bob, big.NewInt(999)),
		},
	}

	before, err := ReconstructBefore(after, receipt, alice)
	if err != nil {
		t.Fatalf("ReconstructBefore: %v", err)
	}

	gotTkn, ok := before.Amount(tkn)
	if !ok {
		t.Fatal("token missing from reconstructed snapshot")
	}
	if gotTkn.Raw().Cmp(big.NewInt(700)) != 0 {
		t.Errorf("before TKN = %s, want 700", gotTkn.Raw())
	}

	// asset absent from the receipt carries over unchanged
	gotOth, ok := before.Amount(oth)
	if !ok {
		t.Fatal("other asset missing from reconstructed snapshot")
	}
	if gotOth.Raw().Cmp(big.NewInt(500)) != 0 {
		t.Errorf("before OTH = %s, want 500", gotOth.Raw())
	}
}

func TestReconstructBefore_InboundExceedsAfter(t *testing.T) {
	tkn := asset.MustNewToken(1, tokenAddr, "TKN", "Test Token", 18)

	after := NewSnapshot("after", common.Hash{}, []asset.Amount{
		asset.NewAmount(tkn, big.NewInt(100)),
	})

	receipt := &types.Receipt{
		Logs: []*types.Log{
			transferLog(tokenAddr, bob, alice, big.NewInt(200)),
		},
	}

	if _, err := ReconstructBefore(after, receipt, alice); err == nil {
		t.Fatal("expected error when inbound exceeds the after balance")
	}
}
