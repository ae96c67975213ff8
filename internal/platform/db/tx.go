package db

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const (
	DBTxKey          contextKey = "db_tx"
	DBCommitHooksKey contextKey = "db_commit_hooks"
)

// TxFromContext retrieves the transaction started by WithTx, if any.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(DBTxKey).(pgx.Tx)
	return tx
}

type commitHooks struct {
	mu  sync.Mutex
	fns []func(ctx context.Context)
}

// WithCommitHooks returns a context that collects AfterCommit callbacks and a
// function that runs them in registration order. Call run only after the
// surrounding unit of work has committed; on rollback drop it.
func WithCommitHooks(ctx context.Context) (context.Context, func(ctx context.Context)) {
	h := &commitHooks{}
	run := func(ctx context.Context) {
		h.mu.Lock()
		fns := h.fns
		h.fns = nil
		h.mu.Unlock()
		for _, fn := range fns {
			fn(ctx)
		}
	}
	return context.WithValue(ctx, DBCommitHooksKey, h), run
}

// AfterCommit queues fn to run once the transaction carried by ctx commits and
// reports whether it was queued. Without a pending transaction it returns
// false and fn is not called.
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) bool {
	h, _ := ctx.Value(DBCommitHooksKey).(*commitHooks)
	if h == nil {
		return false
	}
	h.mu.Lock()
	h.fns = append(h.fns, fn)
	h.mu.Unlock()
	return true
}

// WithTx runs fn inside a transaction. Repositories called with the derived
// context join the transaction. The transaction commits when fn returns nil
// and rolls back otherwise. AfterCommit callbacks run after a successful
// commit of the outermost transaction.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	if TxFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	txCtx, runHooks := WithCommitHooks(context.WithValue(ctx, DBTxKey, tx))
	if err := fn(txCtx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	runHooks(ctx)
	return nil
}
