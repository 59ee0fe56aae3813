package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/oakhealth/medrag/internal/enrich"
)

const serviceVersion = "1.0.0"

// backendProber reports connectivity to the diagnosis backend.
type backendProber interface {
	Health(ctx context.Context) string
}

// HealthHandler serves liveness and service information endpoints.
type HealthHandler struct {
	memory  *enrich.Memory
	backend backendProber
	now     func() time.Time
}

// NewHealthHandler creates the health handler.
func NewHealthHandler(memory *enrich.Memory, backend backendProber) *HealthHandler {
	return &HealthHandler{memory: memory, backend: backend, now: time.Now}
}

// HealthResponse is the health check payload.
type HealthResponse struct {
	Status           string `json:"status"`
	Timestamp        string `json:"timestamp"`
	Version          string `json:"version"`
	RAGEngineStatus  string `json:"rag_engine_status"`
	DiagnosisBackend string `json:"original_llm_status"`
	ActiveSessions   int    `json:"active_sessions"`
}

// Health serves GET /health. The backend probe runs with its own short
// deadline, so a hung backend marks itself disconnected instead of stalling
// the check.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:           "healthy",
		Timestamp:        h.now().UTC().Format(time.RFC3339),
		Version:          serviceVersion,
		RAGEngineStatus:  "operational",
		DiagnosisBackend: h.backend.Health(r.Context()),
		ActiveSessions:   h.memory.Count(),
	})
}

// Root serves GET / with service information.
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Medical RAG Enhancement Server",
		"status":      "operational",
		"version":     serviceVersion,
		"description": "Enhanced medical conversation AI with context awareness",
		"endpoints": map[string]string{
			"enhanced_chat":        "/enhanced-chat",
			"health":               "/health",
			"conversation_history": "/conversation-history/{session_id}",
			"reset_conversation":   "/reset-conversation/{session_id}",
			"session_stats":        "/session-stats",
		},
	})
}
