package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	jwttoken "examreg/internal/jwt_token"
	"examreg/internal/notification"
	"examreg/internal/platform/config"
	"examreg/internal/platform/httpserver"
	"examreg/internal/platform/kafka"
	"examreg/internal/platform/logger"
	"examreg/internal/platform/metrics"
	"examreg/internal/registration/handler"
	regmetrics "examreg/internal/registration/metrics"
	registrationservice "examreg/internal/registration/service"
	registrationstore "examreg/internal/registration/store"
	httptransport "examreg/internal/transport/http"
	"examreg/pkg/platform/audit/publisher"
	"examreg/pkg/platform/audit/relay"
	"examreg/pkg/platform/circuit"
)

const (
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
	auditBuffer     = 1024
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	regMetrics := regmetrics.New()
	httpMetrics := metrics.New()

	b, err := newBackend(ctx, cfg, regMetrics, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.close(); err != nil {
			log.Error("closing storage failed", "error", err)
		}
	}()

	auditPublisher := publisher.NewPublisher(b.auditStore,
		publisher.WithAsyncBuffer(auditBuffer),
		publisher.WithLogger(log),
	)

	var background sync.WaitGroup
	relayCtx, stopRelay := context.WithCancel(context.Background())
	defer stopRelay()
	kafkaClient, err := startAuditRelay(ctx, relayCtx, cfg, b, log, &background)
	if err != nil {
		return err
	}

	registration := registrationservice.New(b.tx, b.catalog, b.reads, b.reads,
		registrationservice.WithLogger(log),
		registrationservice.WithAuditPublisher(auditPublisher),
		registrationservice.WithMetrics(regMetrics),
		registrationservice.WithNotifier(newNotifier(cfg, log)),
		registrationservice.WithNotifyTimeout(cfg.Registration.NotifyTimeout),
		registrationservice.WithInstitution(cfg.Registration.InstitutionName),
	)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	router := httptransport.NewRouter(httptransport.Config{
		Logger:         log,
		Metrics:        httpMetrics,
		RequestTimeout: requestTimeout,
		HealthChecks:   b.checks,
		Routes: []httptransport.RouteRegistrar{
			handler.New(registration, log, jwttoken.NewValidator(jwtService)),
		},
	})

	if b.db == nil && !cfg.IsProduction() {
		logDevToken(log, jwtService)
	}

	srv := httpserver.New(cfg.Addr, router)
	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting examreg", "addr", cfg.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	if err := registration.Close(shutdownTimeout); err != nil {
		log.Warn("confirmation emails dropped at shutdown", "error", err)
	}
	auditPublisher.Close()

	stopRelay()
	background.Wait()
	if kafkaClient != nil {
		kafkaClient.Close()
	}
	log.Info("examreg stopped")
	return nil
}

// startAuditRelay forwards outbox rows to Kafka when both Postgres and
// brokers are configured.
func startAuditRelay(ctx, relayCtx context.Context, cfg config.Server, b *backend, log *slog.Logger, wg *sync.WaitGroup) (*kgo.Client, error) {
	if b.outbox == nil || len(cfg.Kafka.Brokers) == 0 {
		log.Info("audit relay disabled")
		return nil, nil
	}
	client, err := kafka.NewClient(ctx, cfg.Kafka)
	if err != nil {
		return nil, err
	}
	if err := kafka.EnsureTopic(ctx, client, cfg.Kafka.AuditTopic, 3, 1); err != nil {
		client.Close()
		return nil, err
	}

	r := relay.New(b.db, b.outbox, client, cfg.Kafka.AuditTopic,
		relay.WithInterval(cfg.Kafka.RelayInterval),
		relay.WithBatchSize(cfg.Kafka.RelayBatchSize),
		relay.WithLogger(log),
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.Run(relayCtx)
	}()
	log.Info("audit relay started", "topic", cfg.Kafka.AuditTopic)
	return client, nil
}

func newNotifier(cfg config.Server, log *slog.Logger) registrationservice.Notifier {
	var next notification.Dispatcher
	if cfg.SMTP.Host == "" {
		log.Warn("SMTP_HOST not set, confirmation emails are logged only")
		next = notification.NewLogDispatcher(log)
	} else {
		next = notification.NewSMTPDispatcher(cfg.SMTP)
	}
	breaker := circuit.New("smtp",
		circuit.WithFailureThreshold(5),
		circuit.WithCooldown(30*time.Second),
	)
	return notification.NewBreakerDispatcher(next, breaker, log)
}

func logDevToken(log *slog.Logger, jwtService *jwttoken.JWTService) {
	token, err := jwtService.GenerateAccessToken(registrationstore.DemoStudentID, jwttoken.RoleStudent, 24*time.Hour)
	if err != nil {
		log.Warn("failed to mint development token", "error", err)
		return
	}
	log.Info("development token for the seeded student",
		"student_id", registrationstore.DemoStudentID.String(),
		"token", token,
	)
}
