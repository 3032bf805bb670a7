package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"examreg/internal/platform/config"
	"examreg/internal/platform/postgres"
	redisclient "examreg/internal/platform/redis"
	regmetrics "examreg/internal/registration/metrics"
	registrationservice "examreg/internal/registration/service"
	registrationstore "examreg/internal/registration/store"
	httptransport "examreg/internal/transport/http"
	"examreg/pkg/platform/audit"
	auditmemory "examreg/pkg/platform/audit/store/memory"
	auditpostgres "examreg/pkg/platform/audit/store/postgres"
)

// readStore is what the read endpoints need from the registration store.
type readStore interface {
	registrationstore.Catalog
	registrationservice.LedgerReader
	registrationservice.StudentDirectory
	Ping(ctx context.Context) error
}

// backend bundles the storage-side collaborators chosen at startup.
type backend struct {
	tx      registrationservice.RegistrationStoreTx
	catalog registrationstore.Catalog
	reads   readStore

	auditStore audit.Store
	outbox     *auditpostgres.Store

	db     *sql.DB
	redis  *redisclient.Client
	checks []httptransport.HealthCheck

	// closers release opened connections, last opened first.
	closers []func() error
}

// newBackend selects Postgres when DATABASE_URL is set and the seeded
// in-memory store otherwise. Redis, when configured, fronts the exam catalog.
func newBackend(ctx context.Context, cfg config.Server, m *regmetrics.Metrics, logger *slog.Logger) (*backend, error) {
	b := &backend{}

	if cfg.Database.URL != "" {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if cfg.Database.MigrateOnStart {
			if err := postgres.Migrate(ctx, db); err != nil {
				return nil, errors.Join(err, db.Close())
			}
		}
		pg := registrationstore.NewPostgres(db)
		b.db = db
		b.closers = append(b.closers, db.Close)
		b.tx = newRegistrationPostgresTx(db, cfg.Registration.TxTimeout)
		b.reads = pg
		b.outbox = auditpostgres.New(db)
		b.auditStore = b.outbox
		b.checks = append(b.checks, httptransport.HealthCheck{Name: "postgres", Check: pg.Ping})
		logger.InfoContext(ctx, "using postgres registration store")
	} else {
		mem := registrationstore.NewInMemoryStore()
		registrationstore.SeedDemoCatalog(mem, time.Now())
		b.tx = registrationservice.NewInMemoryTx(mem, cfg.Registration.TxTimeout)
		b.reads = mem
		b.auditStore = auditmemory.NewInMemoryStore()
		b.checks = append(b.checks, httptransport.HealthCheck{Name: "store", Check: mem.Ping})
		logger.WarnContext(ctx, "DATABASE_URL not set, using seeded in-memory store")
	}
	b.catalog = b.reads

	rc, err := redisclient.New(cfg.Redis)
	if err != nil {
		return nil, b.abandon(fmt.Errorf("connect redis: %w", err))
	}
	if rc != nil {
		b.redis = rc
		b.closers = append(b.closers, rc.Close)
		cached := registrationstore.NewCachedCatalog(b.reads, rc.Client, cfg.Redis.ExamCacheTTL,
			registrationstore.WithCacheMetrics(m),
			registrationstore.WithCacheLogger(logger),
		)
		// entries from an earlier process may describe a different catalog
		if err := cached.Invalidate(ctx); err != nil {
			logger.WarnContext(ctx, "exam cache not cleared at startup", "error", err)
		}
		b.catalog = cached
		b.checks = append(b.checks, httptransport.HealthCheck{Name: "redis", Check: rc.Health})
	}
	return b, nil
}

func (b *backend) close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	return errors.Join(errs...)
}

// abandon closes a partially built backend and reports both failures.
func (b *backend) abandon(err error) error {
	return errors.Join(err, b.close())
}
