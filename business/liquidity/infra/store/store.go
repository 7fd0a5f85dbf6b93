// Package store persists balance snapshots as operator audit artifacts.
package store

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/liquidity-bot/business/liquidity/domain"
)

// snapshotRecord is the serialized form of a snapshot: symbol to
// human-denominated amount, plus provenance.
type snapshotRecord struct {
	Label    string            `json:"label"`
	TakenAt  time.Time         `json:"taken_at"`
	TxHash   string            `json:"tx_hash,omitempty"`
	Balances map[string]string `json:"balances"`
}

func encodeSnapshot(snap domain.BalanceSnapshot) snapshotRecord {
	rec := snapshotRecord{
		Label:    snap.Label,
		TakenAt:  snap.TakenAt,
		Balances: make(map[string]string, len(snap.Amounts)),
	}
	if snap.TxHash != (common.Hash{}) {
		rec.TxHash = snap.TxHash.Hex()
	}
	for _, amt := range snap.Amounts {
		rec.Balances[amt.Asset().Symbol()] = amt.ToDecimal().String()
	}
	return rec
}
