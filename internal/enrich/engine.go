package enrich

import (
	"context"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/oakhealth/medrag/pkg/logging"
)

// Result is everything Process derives from one user message: nothing in it
// has been committed to memory yet.
type Result struct {
	EnrichedPrompt string             `json:"enriched_prompt"`
	Context        ContextPacket      `json:"context"`
	Entities       EntityBag          `json:"entities"`
	Symptoms       []ExtractedSymptom `json:"symptoms"`
	Conversation   ContextSnapshot    `json:"conversation_context"`
	Confidence     float64            `json:"confidence_score"`
}

// Engine coordinates extraction, memory reads, context building, and prompt
// rendering. Process is read-only; Commit is the single mutation point, so a
// failed downstream call leaves the session untouched.
type Engine struct {
	recognizer *EntityRecognizer
	symptoms   *SymptomExtractor
	memory     *Memory
	builder    *ContextBuilder
	prompts    *PromptRenderer
	logger     *logging.Logger
	tracer     trace.Tracer
}

// NewEngine wires the enrichment pipeline around the given session store.
func NewEngine(memory *Memory, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		recognizer: NewEntityRecognizer(),
		symptoms:   NewSymptomExtractor(),
		memory:     memory,
		builder:    NewContextBuilder(),
		prompts:    NewPromptRenderer(),
		logger:     logger.Component("enrichment-engine"),
		tracer:     otel.Tracer("medrag/enrichment-engine"),
	}
}

// Memory exposes the engine's session store for the HTTP surface.
func (e *Engine) Memory() *Memory {
	return e.memory
}

// CatalogSize reports how many symptom catalog entries are loaded.
func (e *Engine) CatalogSize() int {
	return e.symptoms.CatalogSize()
}

// EntityCategories reports how many entity pattern tables are loaded.
func (e *Engine) EntityCategories() int {
	return e.recognizer.CategoryCount()
}

// Process runs the enrichment pipeline for one user message: extract entities
// and symptoms, snapshot the session, build the context packet, render the
// prompt, and score confidence. Calling it twice for the same input yields
// identical results.
func (e *Engine) Process(ctx context.Context, userText, sessionID string) *Result {
	ctx, span := e.tracer.Start(ctx, "engine.process")
	defer span.End()

	entities := e.recognizer.ExtractEntities(userText)
	symptoms := e.symptoms.ExtractSymptoms(userText)
	snap := e.memory.Context(ctx, sessionID)
	packet := e.builder.Build(userText, entities, symptoms, snap)
	prompt := e.prompts.Render(packet)
	confidence := confidenceScore(entities, symptoms, snap)

	span.SetAttributes(
		attribute.Int("enrich.symptom_count", len(symptoms)),
		attribute.Int("enrich.entity_count", entities.ItemCount()),
		attribute.String("enrich.medical_urgency", packet.MedicalUrgency),
		attribute.Float64("enrich.confidence", confidence),
	)
	e.logger.Debug("processed user input",
		"session_id", sessionID,
		"symptoms", len(symptoms),
		"entities", entities.ItemCount(),
		"urgency", packet.MedicalUrgency,
	)

	return &Result{
		EnrichedPrompt: prompt,
		Context:        packet,
		Entities:       entities,
		Symptoms:       symptoms,
		Conversation:   snap,
		Confidence:     confidence,
	}
}

// Commit records the completed turn. Extra symptom and condition names come
// from the diagnosis backend's structured reply and join accumulation
// alongside the locally extracted facts.
func (e *Engine) Commit(ctx context.Context, sessionID, userText string, result *Result, assistantText string, extraSymptoms, extraConditions []string) {
	bundle := ExtractionBundle{
		Entities:        result.Entities,
		Symptoms:        result.Symptoms,
		ExtraSymptoms:   extraSymptoms,
		ExtraConditions: extraConditions,
	}
	e.memory.AddInteraction(ctx, sessionID, userText, bundle, assistantText, result.Confidence)
}

// confidenceScore blends entity yield, mean symptom confidence, and session
// depth into a 0..1 score rounded to two decimals.
func confidenceScore(entities EntityBag, symptoms []ExtractedSymptom, snap ContextSnapshot) float64 {
	entityScore := min(1.0, float64(entities.ItemCount())*0.1)

	symptomScore := 0.0
	if len(symptoms) > 0 {
		total := 0.0
		for _, s := range symptoms {
			total += s.Confidence
		}
		symptomScore = total / float64(len(symptoms))
	}

	contextScore := min(1.0, float64(snap.TotalInteractions)*0.1)

	score := entityScore*0.3 + symptomScore*0.5 + contextScore*0.2
	return round2(min(1.0, score))
}

// ContextQuality rates how much usable context backed a result. Same inputs
// as the confidence score with more weight on session depth.
func ContextQuality(result *Result) float64 {
	score := 0.0
	if len(result.Symptoms) > 0 {
		total := 0.0
		for _, s := range result.Symptoms {
			total += s.Confidence
		}
		score += total / float64(len(result.Symptoms)) * 0.4
	}
	score += min(1.0, float64(result.Entities.ItemCount())*0.1) * 0.3
	score += min(1.0, float64(result.Conversation.TotalInteractions)*0.1) * 0.3
	return round2(min(1.0, score))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
