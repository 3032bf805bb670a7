package main

import (
	"context"
	"database/sql"
	"time"

	registrationservice "examreg/internal/registration/service"
	registrationstore "examreg/internal/registration/store"
	dErrors "examreg/pkg/domain-errors"
)

const defaultRegistrationTxTimeout = 5 * time.Second

type registrationPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newRegistrationPostgresTx(db *sql.DB, timeout time.Duration) *registrationPostgresTx {
	return &registrationPostgresTx{db: db, timeout: timeout}
}

func (t *registrationPostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context, store registrationservice.Store) error) error {
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

	tx, err := t.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return registrationservice.AbortErr(ctx, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(ctx, registrationstore.NewPostgresTx(tx)); err != nil {
		return registrationservice.AbortErr(ctx, err)
	}

	if err := tx.Commit(); err != nil {
		return registrationservice.AbortErr(ctx, err)
	}
	return nil
}
