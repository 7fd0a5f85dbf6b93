package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/fd1az/liquidity-bot/internal/asset"
)

// BalanceSnapshot records the balances of a set of tracked assets at a point
// in time. Snapshots are audit artifacts: written out after a removal so the
// operator can see what the position returned.
type BalanceSnapshot struct {
	Label   string
	TakenAt time.Time
	TxHash  common.Hash
	Amounts []asset.Amount
}

// NewSnapshot creates a labelled snapshot of the given amounts.
func NewSnapshot(label string, txHash common.Hash, amounts []asset.Amount) BalanceSnapshot {
	return BalanceSnapshot{
		Label:   label,
		TakenAt: time.Now(),
		TxHash:  txHash,
		Amounts: amounts,
	}
}

// Amount returns the snapshot entry for an asset.
func (s BalanceSnapshot) Amount(a *asset.Asset) (asset.Amount, bool) {
	for _, amt := range s.Amounts {
		if amt.Asset().Equals(a) {
			return amt, true
		}
	}
	return asset.Amount{}, false
}

// ReconstructBefore derives the pre-transaction snapshot from an observed
// "after" snapshot and the receipt of the transaction between them. For each
// tracked asset the inbound transfers to recipient are summed and subtracted;
// assets the receipt never touched carry over unchanged.
func ReconstructBefore(after BalanceSnapshot, receipt *types.Receipt, recipient common.Address) (BalanceSnapshot, error) {
	before := BalanceSnapshot{
		Label:   "before",
		TakenAt: after.TakenAt,
		TxHash:  after.TxHash,
		Amounts: make([]asset.Amount, 0, len(after.Amounts)),
	}

	for _, amt := range after.Amounts {
		a := amt.Asset()
		inbound := new(big.Int)
		if a.IsToken() {
			inbound = ExtractInbound(receipt, a.Address(), recipient)
		}

		prior, err := amt.Sub(asset.NewAmount(a, inbound))
		if err != nil {
			return BalanceSnapshot{}, err
		}
		before.Amounts = append(before.Amounts, prior)
	}

	return before, nil
}
