package enrich

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/oakhealth/medrag/pkg/logging"
)

const (
	// DefaultHistoryLimit caps the per-session interaction history.
	DefaultHistoryLimit = 10
	// DefaultContextWindow is how many recent interactions a snapshot carries.
	DefaultContextWindow = 5
	// DefaultTurnConfidence is used when the caller has no better estimate.
	DefaultTurnConfidence = 0.8
)

// ErrSessionNotFound indicates the requested session id does not exist.
var ErrSessionNotFound = errors.New("enrich: session not found")

// Interaction is one immutable committed turn.
type Interaction struct {
	Timestamp  string             `json:"timestamp"`
	UserText   string             `json:"user_input"`
	Symptoms   []ExtractedSymptom `json:"extracted_symptoms"`
	Entities   EntityBag          `json:"extracted_entities"`
	Assistant  string             `json:"ai_response"`
	Turn       int                `json:"conversation_turn"`
	Confidence float64            `json:"confidence_score"`
}

// ExtractionBundle is everything a commit feeds into accumulation: the
// current-turn extraction output plus symptom/illness names parsed from the
// diagnosis backend's reply.
type ExtractionBundle struct {
	Entities        EntityBag
	Symptoms        []ExtractedSymptom
	ExtraSymptoms   []string
	ExtraConditions []string
}

// ContextSnapshot is the read view of a session handed to the context builder
// and returned over HTTP. Collections are copies; mutating them never touches
// the store.
type ContextSnapshot struct {
	History                []Interaction `json:"conversation_history"`
	AccumulatedSymptoms    []string      `json:"accumulated_symptoms"`
	AccumulatedConditions  []string      `json:"accumulated_conditions"`
	AccumulatedMedications []string      `json:"accumulated_medications"`
	State                  State         `json:"conversation_state"`
	Summary                string        `json:"conversation_summary"`
	UrgencyLevel           string        `json:"urgency_level"`
	LastTopic              string        `json:"last_topic"`
	StartedAt              string        `json:"session_start_time"`
	TotalInteractions      int           `json:"total_interactions"`
}

// SessionDebug exposes raw session internals for the admin debug endpoint.
type SessionDebug struct {
	HistoryLength          int          `json:"conversation_history_length"`
	AccumulatedSymptoms    []string     `json:"accumulated_symptoms"`
	AccumulatedConditions  []string     `json:"accumulated_conditions"`
	AccumulatedMedications []string     `json:"accumulated_medications"`
	State                  State        `json:"conversation_state"`
	UrgencyLevel           string       `json:"urgency_level"`
	TotalInteractions      int          `json:"total_interactions"`
	LastInteraction        *Interaction `json:"last_interaction,omitempty"`
}

// StoreStats summarizes the whole store for the stats endpoint.
type StoreStats struct {
	Sessions           int      `json:"total_conversations_in_memory"`
	InteractionsStored int      `json:"total_interactions_stored"`
	TotalCommits       int      `json:"total_interactions_processed"`
	ActiveStates       []string `json:"active_conversation_states"`
}

type session struct {
	history     []Interaction
	totalTurns  int
	symptoms    *orderedSet
	conditions  *orderedSet
	medications *orderedSet
	state       State
	urgency     string
	lastTopic   string // reserved: stored and surfaced, read by nothing
	startedAt   time.Time
}

// Memory owns all per-session conversation state. The session map is the only
// shared mutable state in the core; every read-modify-write in AddInteraction
// runs under the store lock, so overlapping commits for one session id cannot
// lose updates or duplicate turn indices.
type Memory struct {
	mu            sync.RWMutex
	sessions      map[string]*session
	historyLimit  int
	contextWindow int
	totalCommits  int
	now           func() time.Time
	logger        *logging.Logger
	tracer        trace.Tracer
}

// MemoryOption configures a Memory.
type MemoryOption func(*Memory)

// WithHistoryLimit overrides the per-session history cap.
func WithHistoryLimit(n int) MemoryOption {
	return func(m *Memory) {
		if n > 0 {
			m.historyLimit = n
		}
	}
}

// WithContextWindow overrides how many recent turns a snapshot carries.
func WithContextWindow(n int) MemoryOption {
	return func(m *Memory) {
		if n > 0 {
			m.contextWindow = n
		}
	}
}

// WithClock overrides the time source. Tests pin it.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemory creates an empty session store. Sessions live for the process
// lifetime unless explicitly reset; there is no TTL or idle eviction.
func NewMemory(logger *logging.Logger, opts ...MemoryOption) *Memory {
	if logger == nil {
		logger = logging.Default()
	}
	m := &Memory{
		sessions:      make(map[string]*session),
		historyLimit:  DefaultHistoryLimit,
		contextWindow: DefaultContextWindow,
		now:           time.Now,
		logger:        logger.Component("conversation-memory"),
		tracer:        otel.Tracer("medrag/conversation-memory"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddInteraction commits one turn: create the session if absent, append the
// interaction, truncate history to the cap, union the extracted facts into the
// accumulation sets, then run the state update. The turn index counts commits,
// not the truncated window, so it keeps increasing past the cap.
func (m *Memory) AddInteraction(ctx context.Context, sessionID, userText string, bundle ExtractionBundle, assistantText string, confidence float64) {
	_, span := m.tracer.Start(ctx, "memory.add_interaction")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		s = m.newSession()
		m.sessions[sessionID] = s
	}

	s.totalTurns++
	m.totalCommits++

	s.history = append(s.history, Interaction{
		Timestamp:  m.now().UTC().Format(time.RFC3339),
		UserText:   userText,
		Symptoms:   bundle.Symptoms,
		Entities:   bundle.Entities,
		Assistant:  assistantText,
		Turn:       s.totalTurns,
		Confidence: confidence,
	})
	if len(s.history) > m.historyLimit {
		s.history = s.history[len(s.history)-m.historyLimit:]
	}

	for _, sym := range bundle.Symptoms {
		s.symptoms.Add(sym.Name)
	}
	s.symptoms.AddAll(bundle.ExtraSymptoms)
	s.conditions.AddAll(bundle.Entities.Conditions)
	s.conditions.AddAll(bundle.ExtraConditions)
	s.medications.AddAll(bundle.Entities.Medications)

	signals := turnSignals{
		emergencyTrigger:   emergencyTriggered(bundle),
		symptomsThisTurn:   len(bundle.Symptoms) > 0,
		accumulatedCount:   s.symptoms.Len(),
		medicationThisTurn: len(bundle.Entities.Medications) > 0,
		highestTier:        highestTier(bundle.Symptoms),
	}
	prev := s.state
	s.state = nextState(s.state, signals)
	s.urgency = turnUrgency(signals)

	span.SetAttributes(
		attribute.Int("session.turn", s.totalTurns),
		attribute.String("session.state", string(s.state)),
		attribute.String("session.urgency", s.urgency),
	)
	if s.state != prev {
		m.logger.Info("conversation state changed",
			"session_id", sessionID,
			"from", prev,
			"to", s.state,
			"urgency", s.urgency,
		)
	}
}

// Context returns the session snapshot. An unknown id yields a zero-value
// snapshot without creating a session: reads never mutate the store.
func (m *Memory) Context(ctx context.Context, sessionID string) ContextSnapshot {
	_, span := m.tracer.Start(ctx, "memory.context")
	defer span.End()

	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return ContextSnapshot{
			History:                []Interaction{},
			AccumulatedSymptoms:    []string{},
			AccumulatedConditions:  []string{},
			AccumulatedMedications: []string{},
			State:                  StateInitial,
			Summary:                "New conversation started",
			UrgencyLevel:           UrgencyLow,
		}
	}

	start := 0
	if len(s.history) > m.contextWindow {
		start = len(s.history) - m.contextWindow
	}
	recent := make([]Interaction, len(s.history)-start)
	copy(recent, s.history[start:])

	return ContextSnapshot{
		History:                recent,
		AccumulatedSymptoms:    s.symptoms.Values(),
		AccumulatedConditions:  s.conditions.Values(),
		AccumulatedMedications: s.medications.Values(),
		State:                  s.state,
		Summary:                s.summary(),
		UrgencyLevel:           s.urgency,
		LastTopic:              s.lastTopic,
		StartedAt:              s.startedAt.UTC().Format(time.RFC3339),
		TotalInteractions:      s.totalTurns,
	}
}

// Reset removes a session from the store. Resetting an unknown id is the one
// invalid session operation the core surfaces.
func (m *Memory) Reset(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	delete(m.sessions, sessionID)
	m.logger.Info("session reset", "session_id", sessionID)
	return nil
}

// Debug returns the raw internals of a session for the admin debug endpoint.
func (m *Memory) Debug(sessionID string) (*SessionDebug, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	dbg := &SessionDebug{
		HistoryLength:          len(s.history),
		AccumulatedSymptoms:    s.symptoms.Values(),
		AccumulatedConditions:  s.conditions.Values(),
		AccumulatedMedications: s.medications.Values(),
		State:                  s.state,
		UrgencyLevel:           s.urgency,
		TotalInteractions:      s.totalTurns,
	}
	if len(s.history) > 0 {
		last := s.history[len(s.history)-1]
		dbg.LastInteraction = &last
	}
	return dbg, nil
}

// Stats summarizes the store for the stats endpoint.
func (m *Memory) Stats() StoreStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	states := newOrderedSet()
	stored := 0
	for _, s := range m.sessions {
		stored += len(s.history)
		states.Add(string(s.state))
	}
	return StoreStats{
		Sessions:           len(m.sessions),
		InteractionsStored: stored,
		TotalCommits:       m.totalCommits,
		ActiveStates:       states.Values(),
	}
}

// Count returns the number of live sessions.
func (m *Memory) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Memory) newSession() *session {
	return &session{
		symptoms:    newOrderedSet(),
		conditions:  newOrderedSet(),
		medications: newOrderedSet(),
		state:       StateInitial,
		urgency:     UrgencyLow,
		startedAt:   m.now(),
	}
}

// summary renders the human-readable conversation summary. Callers hold at
// least the read lock.
func (s *session) summary() string {
	if s.totalTurns == 0 {
		return "New conversation - no previous interactions"
	}

	parts := []string{fmt.Sprintf("Conversation with %d interactions", s.totalTurns)}
	if n := s.symptoms.Len(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d symptoms discussed", n))
	} else {
		parts = append(parts, "No symptoms mentioned yet")
	}
	if n := s.conditions.Len(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d conditions mentioned", n))
	} else {
		parts = append(parts, "No specific conditions discussed")
	}
	if s.urgency != UrgencyLow {
		parts = append(parts, fmt.Sprintf("Urgency level: %s", s.urgency))
	}

	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ". "
		}
		out += p
	}
	return out + "."
}

// emergencyTriggered is the pre-table guard: any urgency indicator in the
// entity bag, or any current-turn symptom with a critical tier.
func emergencyTriggered(bundle ExtractionBundle) bool {
	if len(bundle.Entities.UrgencyIndicators) > 0 {
		return true
	}
	for _, sym := range bundle.Symptoms {
		if sym.Urgency == TierCritical {
			return true
		}
	}
	return false
}

// highestTier returns the most severe tier among current-turn symptoms.
func highestTier(symptoms []ExtractedSymptom) UrgencyTier {
	var best UrgencyTier
	for _, sym := range symptoms {
		switch sym.Urgency {
		case TierCritical:
			return TierCritical
		case TierHigh:
			best = TierHigh
		case TierModerate:
			if best != TierHigh {
				best = TierModerate
			}
		}
	}
	return best
}
