package db

import (
	"context"
	"testing"
)

func TestAfterCommit_NoTransaction(t *testing.T) {
	called := false
	if AfterCommit(context.Background(), func(context.Context) { called = true }) {
		t.Error("expected callback not to be queued outside a transaction")
	}
	if called {
		t.Error("expected callback not to run")
	}
}

func TestAfterCommit_RunsAfterCommitInOrder(t *testing.T) {
	ctx, run := WithCommitHooks(context.Background())

	var calls []string
	if !AfterCommit(ctx, func(context.Context) { calls = append(calls, "first") }) {
		t.Fatal("expected callback to be queued")
	}
	AfterCommit(ctx, func(context.Context) { calls = append(calls, "second") })
	if len(calls) != 0 {
		t.Fatalf("expected no callbacks before commit, got %v", calls)
	}

	run(context.Background())
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Errorf("expected callbacks in registration order, got %v", calls)
	}

	run(context.Background())
	if len(calls) != 2 {
		t.Errorf("expected callbacks to run once, got %v", calls)
	}
}

func TestTxFromContext_Empty(t *testing.T) {
	if TxFromContext(context.Background()) != nil {
		t.Error("expected no transaction in a bare context")
	}
}
