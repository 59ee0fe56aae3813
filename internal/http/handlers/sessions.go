package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/oakhealth/medrag/internal/enrich"
	"github.com/oakhealth/medrag/pkg/logging"
)

// SessionsHandler serves session inspection and lifecycle endpoints.
type SessionsHandler struct {
	engine  *enrich.Engine
	logger  *logging.Logger
	started time.Time
	now     func() time.Time
}

// NewSessionsHandler creates the sessions handler. started anchors the uptime
// figures in the stats endpoint.
func NewSessionsHandler(engine *enrich.Engine, logger *logging.Logger, started time.Time) *SessionsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &SessionsHandler{
		engine:  engine,
		logger:  logger.Component("sessions-handler"),
		started: started,
		now:     time.Now,
	}
}

// HistoryResponse wraps a session snapshot for the history endpoint.
type HistoryResponse struct {
	SessionID           string                 `json:"session_id"`
	ConversationContext enrich.ContextSnapshot `json:"conversation_context"`
	TotalInteractions   int                    `json:"total_interactions"`
	SessionStartTime    string                 `json:"session_start_time"`
}

// History serves GET /conversation-history/{sessionID}. Unknown sessions get
// a pristine snapshot; inspecting a session never creates one.
func (h *SessionsHandler) History(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	snap := h.engine.Memory().Context(r.Context(), sessionID)

	writeJSON(w, http.StatusOK, HistoryResponse{
		SessionID:           sessionID,
		ConversationContext: snap,
		TotalInteractions:   snap.TotalInteractions,
		SessionStartTime:    snap.StartedAt,
	})
}

// Reset serves DELETE /reset-conversation/{sessionID}.
func (h *SessionsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.engine.Memory().Reset(sessionID); err != nil {
		if errors.Is(err, enrich.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		h.logger.Error("reset failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "error resetting conversation")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":   fmt.Sprintf("Conversation %s reset successfully", sessionID),
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// Debug serves GET /debug/session/{sessionID} (admin only).
func (h *SessionsHandler) Debug(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	dbg, err := h.engine.Memory().Debug(sessionID)
	if err != nil {
		if errors.Is(err, enrich.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "error inspecting session")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"debug_info": dbg,
	})
}

// StatsResponse aggregates server, memory, and engine statistics.
type StatsResponse struct {
	ServerStats struct {
		UptimeSeconds              float64 `json:"uptime_seconds"`
		ServerStartTime            string  `json:"server_start_time"`
		TotalInteractionsProcessed int     `json:"total_interactions_processed"`
	} `json:"server_stats"`
	MemoryUsage struct {
		ActiveSessions           int `json:"active_sessions"`
		TotalConversationsStored int `json:"total_conversations_in_memory"`
		TotalInteractionsStored  int `json:"total_interactions_stored"`
	} `json:"memory_usage"`
	EngineStats struct {
		SymptomPatterns          int      `json:"symptom_patterns"`
		EntityPatterns           int      `json:"entity_patterns"`
		ActiveConversationStates []string `json:"active_conversation_states"`
	} `json:"rag_engine_stats"`
}

// Stats serves GET /session-stats (admin only).
func (h *SessionsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats := h.engine.Memory().Stats()

	var resp StatsResponse
	resp.ServerStats.UptimeSeconds = h.now().Sub(h.started).Seconds()
	resp.ServerStats.ServerStartTime = h.started.UTC().Format(time.RFC3339)
	resp.ServerStats.TotalInteractionsProcessed = stats.TotalCommits
	resp.MemoryUsage.ActiveSessions = stats.Sessions
	resp.MemoryUsage.TotalConversationsStored = stats.Sessions
	resp.MemoryUsage.TotalInteractionsStored = stats.InteractionsStored
	resp.EngineStats.SymptomPatterns = h.engine.CatalogSize()
	resp.EngineStats.EntityPatterns = h.engine.EntityCategories()
	resp.EngineStats.ActiveConversationStates = stats.ActiveStates

	writeJSON(w, http.StatusOK, resp)
}
