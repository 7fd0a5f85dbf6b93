package app

import (
	"context"
	"testing"

	"github.com/fd1az/liquidity-bot/internal/apperror"
)

func TestResolve_ExistingPair(t *testing.T) {
	w := newWorld(t)
	w.contracts.factory.setPair(tknAddr, wethAddr, pairAddr1)

	pair, created, err := w.resolver.Resolve(context.Background(), tknAddr, wethAddr)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if created {
		t.Error("existing pair should not trigger creation")
	}
	if pair != pairAddr1 {
		t.Errorf("pair = %s, want %s", pair.Hex(), pairAddr1.Hex())
	}
	if w.contracts.factory.createCalls != 0 {
		t.Errorf("createCalls = %d, want 0", w.contracts.factory.createCalls)
	}
}

func TestResolve_CreatesAbsentPair(t *testing.T) {
	w := newWorld(t)
	w.contracts.factory.willCreate(tknAddr, wethAddr, pairAddr1)

	pair, created, err := w.resolver.Resolve(context.Background(), tknAddr, wethAddr)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !created {
		t.Error("expected a creation transaction")
	}
	if pair != pairAddr1 {
		t.Errorf("pair = %s, want %s", pair.Hex(), pairAddr1.Hex())
	}

	// the address must come from the post-creation lookup: one initial
	// probe plus one authoritative re-query
	if w.contracts.factory.getCalls != 2 {
		t.Errorf("getCalls = %d, want 2", w.contracts.factory.getCalls)
	}
}

// Two resolutions of the same pair issue at most one creation and observe
// the same address.
func TestResolve_Idempotent(t *testing.T) {
	w := newWorld(t)
	w.contracts.factory.willCreate(tknAddr, wethAddr, pairAddr1)

	first, _, err := w.resolver.Resolve(context.Background(), tknAddr, wethAddr)
	if err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	second, created, err := w.resolver.Resolve(context.Background(), tknAddr, wethAddr)
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}

	if created {
		t.Error("second resolution must not create again")
	}
	if first != second {
		t.Errorf("addresses differ: %s vs %s", first.Hex(), second.Hex())
	}
	if w.contracts.factory.createCalls != 1 {
		t.Errorf("createCalls = %d, want 1", w.contracts.factory.createCalls)
	}
}

func TestResolve_AbsentAfterCreation(t *testing.T) {
	w := newWorld(t)
	// creation confirms but the factory never reports the pair

	_, _, err := w.resolver.Resolve(context.Background(), tknAddr, wethAddr)
	if !apperror.IsCode(err, apperror.CodePairCreationFailed) {
		t.Fatalf("err = %v, want CodePairCreationFailed", err)
	}
}

func TestResolveExisting_NotFound(t *testing.T) {
	w := newWorld(t)

	_, err := w.resolver.ResolveExisting(context.Background(), tknAddr, wethAddr)
	if !apperror.IsCode(err, apperror.CodePairNotFound) {
		t.Fatalf("err = %v, want CodePairNotFound", err)
	}
}

func TestResolveExisting_Found(t *testing.T) {
	w := newWorld(t)
	w.contracts.factory.setPair(tknAddr, wethAddr, pairAddr1)

	pair, err := w.resolver.ResolveExisting(context.Background(), tknAddr, wethAddr)
	if err != nil {
		t.Fatalf("ResolveExisting: %v", err)
	}
	if pair != pairAddr1 {
		t.Errorf("pair = %s, want %s", pair.Hex(), pairAddr1.Hex())
	}
}
