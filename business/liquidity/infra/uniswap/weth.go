package uniswap

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// WETH adapts the wrapped-native contract to the WrappedNative port. Token
// behavior comes from the embedded ERC20 adapter.
type WETH struct {
	ERC20
}

// Withdraw submits an unwrap transaction converting wrapped balance back to
// the native coin.
func (w *WETH) Withdraw(ctx context.Context, amount *big.Int) (common.Hash, error) {
	data, err := w.hub.wethABI.Pack("withdraw", amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode withdraw: %w", err)
	}
	return w.hub.txn.Submit(ctx, w.addr, nil, data)
}
