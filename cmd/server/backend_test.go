package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"examreg/internal/platform/config"
)

type BackendSuite struct {
	suite.Suite
	logger *slog.Logger
}

func TestBackendSuite(t *testing.T) {
	suite.Run(t, new(BackendSuite))
}

func (s *BackendSuite) SetupTest() {
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *BackendSuite) TestRedisConnectFailureIsReported() {
	cfg := config.Server{
		Registration: config.RegistrationConfig{TxTimeout: time.Second},
		Redis:        config.RedisConfig{URL: "not-a-redis-url", DialTimeout: time.Second},
	}

	b, err := newBackend(context.Background(), cfg, nil, s.logger)
	s.Nil(b)
	s.Require().Error(err)
	s.Contains(err.Error(), "connect redis")
}

func (s *BackendSuite) TestAbandonJoinsCloseFailures() {
	errConnect := errors.New("connect redis: refused")
	errDB := errors.New("close db: broken pipe")
	var order []string
	b := &backend{closers: []func() error{
		func() error { order = append(order, "db"); return errDB },
		func() error { order = append(order, "redis"); return nil },
	}}

	err := b.abandon(errConnect)
	s.ErrorIs(err, errConnect)
	s.ErrorIs(err, errDB)
	s.Equal([]string{"redis", "db"}, order)
}

func (s *BackendSuite) TestAbandonWithNothingOpen() {
	errConnect := errors.New("connect redis: refused")
	err := (&backend{}).abandon(errConnect)
	s.Equal(errConnect.Error(), err.Error())
	s.ErrorIs(err, errConnect)
}
