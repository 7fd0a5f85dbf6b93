package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// TransferTopic is keccak256("Transfer(address,address,uint256)"), the first
// topic of every standard fungible-token transfer log.
var TransferTopic = common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")

// TransferEvent is a decoded fungible-token transfer from a receipt log.
type TransferEvent struct {
	Asset  common.Address
	From   common.Address
	To     common.Address
	Amount *big.Int
}

// ParseTransfers decodes all transfer events from a receipt's logs.
// Logs that do not match the transfer signature, or are malformed, are
// skipped rather than treated as errors: receipts routinely carry logs from
// unrelated contracts.
func ParseTransfers(logs []*types.Log) []TransferEvent {
	var events []TransferEvent
	for _, l := range logs {
		if len(l.Topics) != 3 || l.Topics[0] != TransferTopic {
			continue
		}
		if len(l.Data) < 32 {
			continue
		}
		events = append(events, TransferEvent{
			Asset:  l.Address,
			From:   common.BytesToAddress(l.Topics[1].Bytes()),
			To:     common.BytesToAddress(l.Topics[2].Bytes()),
			Amount: new(big.Int).SetBytes(l.Data[:32]),
		})
	}
	return events
}

// ExtractInbound sums the amounts of an asset transferred to recipient
// within a single receipt. Transfers of other assets, or addressed to other
// recipients, do not contribute.
func ExtractInbound(receipt *types.Receipt, assetAddr, recipient common.Address) *big.Int {
	total := new(big.Int)
	for _, ev := range ParseTransfers(receipt.Logs) {
		if ev.Asset != assetAddr || ev.To != recipient {
			continue
		}
		total.Add(total, ev.Amount)
	}
	return total
}
