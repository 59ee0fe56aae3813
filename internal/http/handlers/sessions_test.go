package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakhealth/medrag/internal/enrich"
)

func newSessionsFixture(t *testing.T) (*SessionsHandler, *enrich.Engine, http.Handler) {
	t.Helper()
	engine := enrich.NewEngine(enrich.NewMemory(nil), nil)
	h := NewSessionsHandler(engine, nil, time.Now().Add(-time.Minute))

	r := chi.NewRouter()
	r.Get("/conversation-history/{sessionID}", h.History)
	r.Delete("/reset-conversation/{sessionID}", h.Reset)
	r.Get("/debug/session/{sessionID}", h.Debug)
	r.Get("/session-stats", h.Stats)
	return h, engine, r
}

func commitTurn(t *testing.T, engine *enrich.Engine, sessionID, text string) {
	t.Helper()
	ctx := context.Background()
	res := engine.Process(ctx, text, sessionID)
	engine.Commit(ctx, sessionID, text, res, "noted", nil, nil)
}

func TestHistoryKnownSession(t *testing.T) {
	_, engine, r := newSessionsFixture(t)
	commitTurn(t, engine, "s1", "I have a headache")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conversation-history/s1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "s1", resp.SessionID)
	assert.Equal(t, 1, resp.TotalInteractions)
	assert.Equal(t, enrich.StateSymptomGathering, resp.ConversationContext.State)
	assert.NotEmpty(t, resp.SessionStartTime)
}

func TestHistoryUnknownSession(t *testing.T) {
	_, engine, r := newSessionsFixture(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conversation-history/ghost", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.TotalInteractions)
	assert.Equal(t, "New conversation started", resp.ConversationContext.Summary)
	// Peeking must not create the session.
	assert.Equal(t, 0, engine.Memory().Count())
}

func TestResetSession(t *testing.T) {
	_, engine, r := newSessionsFixture(t)
	commitTurn(t, engine, "s1", "I have a headache")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/reset-conversation/s1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, engine.Memory().Count())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/reset-conversation/s1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDebugSession(t *testing.T) {
	_, engine, r := newSessionsFixture(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/session/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	commitTurn(t, engine, "s1", "I have a headache")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/session/s1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		SessionID string              `json:"session_id"`
		DebugInfo enrich.SessionDebug `json:"debug_info"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "s1", resp.SessionID)
	assert.Equal(t, 1, resp.DebugInfo.HistoryLength)
	assert.Equal(t, []string{"Headache"}, resp.DebugInfo.AccumulatedSymptoms)
}

func TestStats(t *testing.T) {
	_, engine, r := newSessionsFixture(t)
	commitTurn(t, engine, "a", "I have a headache")
	commitTurn(t, engine, "b", "I have chest pain")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/session-stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Greater(t, resp.ServerStats.UptimeSeconds, 0.0)
	assert.Equal(t, 2, resp.ServerStats.TotalInteractionsProcessed)
	assert.Equal(t, 2, resp.MemoryUsage.ActiveSessions)
	assert.Equal(t, 2, resp.MemoryUsage.TotalInteractionsStored)
	assert.Equal(t, 5, resp.EngineStats.SymptomPatterns)
	assert.Equal(t, 5, resp.EngineStats.EntityPatterns)
	assert.ElementsMatch(t, []string{"symptom_gathering", "emergency"}, resp.EngineStats.ActiveConversationStates)
}
