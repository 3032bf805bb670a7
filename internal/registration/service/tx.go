package service

import (
	"context"
	"time"

	"examreg/internal/registration/store"
	dErrors "examreg/pkg/domain-errors"
)

// RegistrationStoreTx provides the atomic boundary for ledger and ticket
// writes. Implementations wrap a database transaction or, in memory, a
// staged store transaction.
type RegistrationStoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}

// defaultRegistrationTxTimeout bounds a unit of work when the caller set no deadline.
const defaultRegistrationTxTimeout = 5 * time.Second

// InMemoryRegistrationTx runs units of work against an InMemoryStore.
type InMemoryRegistrationTx struct {
	store   *store.InMemoryStore
	timeout time.Duration
}

func NewInMemoryTx(s *store.InMemoryStore, timeout time.Duration) *InMemoryRegistrationTx {
	return &InMemoryRegistrationTx{store: s, timeout: timeout}
}

func (t *InMemoryRegistrationTx) RunInTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultRegistrationTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx := t.store.Begin()
	defer tx.Rollback()

	if err := fn(ctx, tx); err != nil {
		return AbortErr(ctx, err)
	}

	// A unit of work that outlived its deadline is rolled back even if every
	// write succeeded.
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: deadline exceeded")
	}
	return tx.Commit()
}

// AbortErr reports a failed unit of work as a timeout when its deadline
// expired, unless the failure already carries a domain code.
func AbortErr(ctx context.Context, err error) error {
	if _, coded := dErrors.As(err); coded {
		return err
	}
	if ctx.Err() != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: deadline exceeded")
	}
	return err
}
