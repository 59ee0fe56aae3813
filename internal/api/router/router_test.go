package router

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oakhealth/medrag/internal/diagnosis"
	"github.com/oakhealth/medrag/internal/enrich"
	"github.com/oakhealth/medrag/internal/http/handlers"
	"github.com/oakhealth/medrag/internal/observability/metrics"
	"github.com/oakhealth/medrag/pkg/logging"
)

type staticDiagnoser struct{}

func (staticDiagnoser) Diagnose(context.Context, diagnosis.DiagnoseRequest) (*diagnosis.Assessment, error) {
	return &diagnosis.Assessment{}, nil
}

type staticProber struct{}

func (staticProber) Health(context.Context) string { return "connected" }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := logging.Default()
	engine := enrich.NewEngine(enrich.NewMemory(logger), logger)
	reg := prometheus.NewRegistry()
	m := metrics.NewEnrichmentMetrics(reg, nil)

	cfg := &Config{
		Logger:          logger,
		Chat:            handlers.NewChatHandler(engine, staticDiagnoser{}, m, logger, 200, 0.7),
		Sessions:        handlers.NewSessionsHandler(engine, logger, time.Now()),
		Health:          handlers.NewHealthHandler(engine.Memory(), staticProber{}),
		MetricsHandler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		AdminAuthSecret: "test-secret",
	}
	return New(cfg)
}

func get(router http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestRouterPublicEndpoints(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/", "/health", "/conversation-history/abc", "/metrics"} {
		if rr := get(router, path, nil); rr.Code != http.StatusOK {
			t.Fatalf("GET %s: expected status %d, got %d", path, http.StatusOK, rr.Code)
		}
	}
}

func TestRouterChatEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/enhanced-chat", bytes.NewBufferString(`{"message": "hi"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestRouterUnknownRoute(t *testing.T) {
	router := newTestRouter(t)

	if rr := get(router, "/nope", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestRouterAdminRequiresToken(t *testing.T) {
	router := newTestRouter(t)

	if rr := get(router, "/session-stats", nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
	if rr := get(router, "/debug/session/abc", nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
}

func TestRouterAdminWithToken(t *testing.T) {
	router := newTestRouter(t)

	claims := jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(5 * time.Minute)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	headers := map[string]string{"Authorization": "Bearer " + token}

	if rr := get(router, "/session-stats", headers); rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if rr := get(router, "/debug/session/abc", headers); rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d for unknown session, got %d", http.StatusNotFound, rr.Code)
	}
}
