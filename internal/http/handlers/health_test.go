package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakhealth/medrag/internal/enrich"
)

type stubProber struct{ status string }

func (s stubProber) Health(context.Context) string { return s.status }

func TestHealth(t *testing.T) {
	memory := enrich.NewMemory(nil)
	h := NewHealthHandler(memory, stubProber{status: "connected"})

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "operational", resp.RAGEngineStatus)
	assert.Equal(t, "connected", resp.DiagnosisBackend)
	assert.Equal(t, 0, resp.ActiveSessions)
	assert.NotEmpty(t, resp.Timestamp)
}

func TestHealthBackendDown(t *testing.T) {
	h := NewHealthHandler(enrich.NewMemory(nil), stubProber{status: "disconnected"})

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "disconnected", resp.DiagnosisBackend)
}

func TestRoot(t *testing.T) {
	h := NewHealthHandler(enrich.NewMemory(nil), stubProber{status: "connected"})

	rec := httptest.NewRecorder()
	h.Root(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Medical RAG Enhancement Server", resp["message"])
	assert.Equal(t, "operational", resp["status"])

	endpoints, ok := resp["endpoints"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "/enhanced-chat", endpoints["enhanced_chat"])
}
