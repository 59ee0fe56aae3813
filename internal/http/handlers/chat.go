package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/oakhealth/medrag/internal/diagnosis"
	"github.com/oakhealth/medrag/internal/enrich"
	"github.com/oakhealth/medrag/internal/observability/metrics"
	"github.com/oakhealth/medrag/pkg/logging"
)

const (
	minMaxTokens = 50
	maxMaxTokens = 1000
	maxTemp      = 2.0
)

// diagnoser is the slice of the diagnosis client the chat flow needs.
type diagnoser interface {
	Diagnose(ctx context.Context, req diagnosis.DiagnoseRequest) (*diagnosis.Assessment, error)
}

// ChatHandler serves the enhanced chat endpoint: enrichment pipeline, backend
// diagnosis call, reply formatting, then the memory commit. A backend failure
// aborts before the commit, so failed turns never pollute the session.
type ChatHandler struct {
	engine             *enrich.Engine
	backend            diagnoser
	metrics            *metrics.EnrichmentMetrics
	logger             *logging.Logger
	defaultMaxTokens   int
	defaultTemperature float64
	now                func() time.Time
}

// NewChatHandler creates the enhanced chat handler.
func NewChatHandler(engine *enrich.Engine, backend diagnoser, m *metrics.EnrichmentMetrics, logger *logging.Logger, defaultMaxTokens int, defaultTemperature float64) *ChatHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ChatHandler{
		engine:             engine,
		backend:            backend,
		metrics:            m,
		logger:             logger.Component("chat-handler"),
		defaultMaxTokens:   defaultMaxTokens,
		defaultTemperature: defaultTemperature,
		now:                time.Now,
	}
}

// ChatRequest is the enhanced chat payload. SessionID is optional; a fresh
// one is minted when absent and echoed back so the client can continue the
// conversation.
type ChatRequest struct {
	Message     string   `json:"message"`
	SessionID   string   `json:"session_id"`
	MaxTokens   *int     `json:"max_tokens"`
	Temperature *float64 `json:"temperature"`
}

// ChatResponse mirrors the full enrichment result alongside the backend's
// formatted reply.
type ChatResponse struct {
	Response            string                    `json:"response"`
	ConversationContext enrich.ContextSnapshot    `json:"conversation_context"`
	ExtractedEntities   enrich.EntityBag          `json:"extracted_entities"`
	SymptomsDetected    []enrich.ExtractedSymptom `json:"symptoms_detected"`
	ConfidenceScore     float64                   `json:"confidence_score"`
	SessionID           string                    `json:"session_id"`
	Timestamp           string                    `json:"timestamp"`
	ProcessingTime      float64                   `json:"processing_time"`
	RAGMetadata         RAGMetadata               `json:"rag_metadata"`
}

// RAGMetadata summarizes the enrichment work behind a reply.
type RAGMetadata struct {
	SymptomsCount     int                `json:"symptoms_count"`
	EntitiesCount     int                `json:"entities_count"`
	ConversationState enrich.State       `json:"conversation_state"`
	UrgencyLevel      string             `json:"urgency_level"`
	PromptLength      int                `json:"prompt_length"`
	ContextQuality    float64            `json:"context_quality"`
	MedicalAnalysis   BackendAnalysisRef `json:"llm_medical_analysis"`
}

// BackendAnalysisRef echoes the structured names the diagnosis backend
// contributed to this turn.
type BackendAnalysisRef struct {
	SymptomsIdentified []string `json:"symptoms_identified"`
	IllnessesSuggested []string `json:"illnesses_suggested"`
	SymptomsCount      int      `json:"symptoms_count"`
	IllnessesCount     int      `json:"illnesses_count"`
}

// Handle serves POST /enhanced-chat.
func (h *ChatHandler) Handle(w http.ResponseWriter, r *http.Request) {
	start := h.now()

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	maxTokens := clampInt(valueOr(req.MaxTokens, h.defaultMaxTokens), minMaxTokens, maxMaxTokens)
	temperature := clampFloat(valueOr(req.Temperature, h.defaultTemperature), 0, maxTemp)

	ctx := r.Context()

	pipelineStart := h.now()
	result := h.engine.Process(ctx, req.Message, sessionID)
	h.metrics.ObservePipelineLatency(h.now().Sub(pipelineStart).Seconds())

	backendStart := h.now()
	assessment, err := h.backend.Diagnose(ctx, diagnosis.DiagnoseRequest{
		Description: req.Message,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	h.metrics.ObserveBackendLatency(h.now().Sub(backendStart).Seconds())
	if err != nil {
		h.logger.Error("diagnosis backend call failed", "session_id", sessionID, "error", err)
		if errors.Is(err, diagnosis.ErrTimeout) {
			h.metrics.ObserveChat("backend_timeout")
			writeError(w, http.StatusGatewayTimeout, "diagnosis backend timeout; please check that the medical AI server is running and responsive")
			return
		}
		h.metrics.ObserveChat("backend_error")
		writeError(w, http.StatusBadGateway, "cannot reach the diagnosis backend; please ensure the medical AI server is running")
		return
	}

	reply := diagnosis.FormatReply(assessment)
	h.engine.Commit(ctx, sessionID, req.Message, result, reply, assessment.SymptomNames(), assessment.ConditionNames())

	committed := h.engine.Memory().Context(ctx, sessionID)
	h.metrics.ObserveChat("ok")
	h.metrics.ObserveTurn(string(committed.State), committed.UrgencyLevel)

	writeJSON(w, http.StatusOK, ChatResponse{
		Response:            reply,
		ConversationContext: result.Conversation,
		ExtractedEntities:   result.Entities,
		SymptomsDetected:    result.Symptoms,
		ConfidenceScore:     result.Confidence,
		SessionID:           sessionID,
		Timestamp:           h.now().UTC().Format(time.RFC3339),
		ProcessingTime:      h.now().Sub(start).Seconds(),
		RAGMetadata: RAGMetadata{
			SymptomsCount:     len(result.Symptoms),
			EntitiesCount:     result.Entities.ItemCount(),
			ConversationState: result.Conversation.State,
			UrgencyLevel:      result.Conversation.UrgencyLevel,
			PromptLength:      len(result.EnrichedPrompt),
			ContextQuality:    enrich.ContextQuality(result),
			MedicalAnalysis: BackendAnalysisRef{
				SymptomsIdentified: assessment.SymptomNames(),
				IllnessesSuggested: assessment.ConditionNames(),
				SymptomsCount:      len(assessment.SymptomNames()),
				IllnessesCount:     len(assessment.ConditionNames()),
			},
		},
	})
}

func valueOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
