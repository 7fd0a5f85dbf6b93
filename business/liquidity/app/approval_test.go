package app

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/fd1az/liquidity-bot/internal/apperror"
)

func TestEnsureAllowance_SufficientIsNoOp(t *testing.T) {
	w := newWorld(t)
	w.token.allowances[allowanceKey(signerAddr, routerAddr)] = big.NewInt(1000)

	submitted, err := w.gate.EnsureAllowance(context.Background(), w.token, signerAddr, routerAddr, big.NewInt(500))
	if err != nil {
		t.Fatalf("EnsureAllowance: %v", err)
	}
	if submitted {
		t.Error("no transaction should be submitted when allowance covers the requirement")
	}
	if w.token.approveCalls != 0 {
		t.Errorf("approveCalls = %d, want 0", w.token.approveCalls)
	}
}

func TestEnsureAllowance_InsufficientApproves(t *testing.T) {
	w := newWorld(t)

	submitted, err := w.gate.EnsureAllowance(context.Background(), w.token, signerAddr, routerAddr, big.NewInt(500))
	if err != nil {
		t.Fatalf("EnsureAllowance: %v", err)
	}
	if !submitted {
		t.Error("expected an approval submission")
	}
	if w.token.approveCalls != 1 {
		t.Errorf("approveCalls = %d, want 1", w.token.approveCalls)
	}

	got := w.token.allowances[allowanceKey(signerAddr, routerAddr)]
	if got.Cmp(big.NewInt(500)) != 0 {
		t.Errorf("approved %s, want exactly the required 500", got)
	}
}

// Calling the gate twice with the same requirement issues at most one
// transaction total.
func TestEnsureAllowance_Idempotent(t *testing.T) {
	w := newWorld(t)
	required := big.NewInt(500)

	for i := 0; i < 2; i++ {
		if _, err := w.gate.EnsureAllowance(context.Background(), w.token, signerAddr, routerAddr, required); err != nil {
			t.Fatalf("call %d: %v", i+1, err)
		}
	}

	if w.token.approveCalls != 1 {
		t.Errorf("approveCalls = %d, want 1", w.token.approveCalls)
	}
}

func TestEnsureAllowance_ConfirmationFailure(t *testing.T) {
	w := newWorld(t)

	// the approval's hash will be the first submission
	w.chain.failWait[w.chain.peekNextHash()] = errors.New("reverted")

	_, err := w.gate.EnsureAllowance(context.Background(), w.token, signerAddr, routerAddr, big.NewInt(500))
	if !apperror.IsCode(err, apperror.CodeApprovalFailed) {
		t.Fatalf("err = %v, want CodeApprovalFailed", err)
	}
}
