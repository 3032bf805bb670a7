package httptransport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"examreg/internal/platform/metrics"
	"examreg/pkg/platform/middleware/request"
	"examreg/pkg/testutil"
)

type pingRoutes struct{}

func (pingRoutes) Register(r chi.Router) {
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(request.HeaderRequestID, request.GetRequestID(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/boom", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
}

func newTestRouter(checks ...HealthCheck) http.Handler {
	reg := prometheus.NewRegistry()
	return NewRouter(Config{
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:      metrics.NewWithRegisterer(reg, reg),
		HealthChecks: checks,
		Routes:       []RouteRegistrar{pingRoutes{}},
	})
}

func TestRouter(t *testing.T) {
	t.Run("domain routes get a request id", func(t *testing.T) {
		rr := testutil.DoRequest(newTestRouter(), testutil.NewRequest(t, http.MethodGet, "/ping"))
		testutil.AssertStatus(t, rr, http.StatusNoContent)
		assert.NotEmpty(t, rr.Header().Get(request.HeaderRequestID))
	})

	t.Run("panics become an internal error envelope", func(t *testing.T) {
		rr := testutil.DoRequest(newTestRouter(), testutil.NewRequest(t, http.MethodGet, "/boom"))
		testutil.AssertStatusAndError(t, rr, http.StatusInternalServerError, "INTERNAL_ERROR")
	})

	t.Run("metrics are exposed", func(t *testing.T) {
		router := newTestRouter()
		testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/ping"))
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
		testutil.AssertStatusOK(t, rr)
		assert.Contains(t, rr.Body.String(), `examreg_http_requests_total{method="GET",route="/ping",status="204"}`)
	})
}

func TestHealthz(t *testing.T) {
	up := HealthCheck{Name: "postgres", Check: func(context.Context) error { return nil }}
	down := HealthCheck{Name: "redis", Check: func(context.Context) error { return errors.New("refused") }}

	t.Run("all dependencies up", func(t *testing.T) {
		rr := testutil.DoRequest(newTestRouter(up), testutil.NewRequest(t, http.MethodGet, "/healthz"))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "status", "ok")
	})

	t.Run("one dependency down", func(t *testing.T) {
		rr := testutil.DoRequest(newTestRouter(up, down), testutil.NewRequest(t, http.MethodGet, "/healthz"))
		require.Equal(t, http.StatusServiceUnavailable, rr.Code)
		body := testutil.UnmarshalResponse[healthResponse](t, rr)
		assert.Equal(t, "down", body.Checks["redis"])
		assert.Equal(t, "up", body.Checks["postgres"])
	})
}
