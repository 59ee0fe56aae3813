package enrich

import "strings"

// Conversation progression phases, derived from interaction count and how many
// symptoms have accumulated.
const (
	ProgressionStart       = "conversation_start"
	ProgressionInfoGather  = "information_gathering"
	ProgressionExploration = "symptom_exploration"
	ProgressionGuidance    = "analysis_and_guidance"
)

// FlowAnalysis describes where the conversation stands and what the assistant
// should do next.
type FlowAnalysis struct {
	State       State    `json:"state"`
	Progression string   `json:"progression"`
	Gaps        []string `json:"gaps"`
	NextSteps   []string `json:"next_logical_steps"`
}

// ContextPacket is the full enrichment context for one turn: the raw input,
// everything extracted from it, the session snapshot, and the derived
// assessments the prompt renderer consumes.
type ContextPacket struct {
	CurrentInput        string             `json:"current_input"`
	Entities            EntityBag          `json:"current_entities"`
	Symptoms            []ExtractedSymptom `json:"current_symptoms"`
	Conversation        ContextSnapshot    `json:"conversation_context"`
	MedicalUrgency      string             `json:"medical_urgency"`
	Flow                FlowAnalysis       `json:"conversation_flow"`
	FollowUpSuggestions []string           `json:"follow_up_suggestions"`
}

type followUpRule struct {
	match     string
	questions []string
}

// ContextBuilder assembles ContextPackets. It is stateless and safe for
// concurrent use.
type ContextBuilder struct {
	followUps []followUpRule
}

// NewContextBuilder creates a builder with the built-in follow-up question
// rules.
func NewContextBuilder() *ContextBuilder {
	return &ContextBuilder{
		followUps: []followUpRule{
			{
				match: "chest pain",
				questions: []string{
					"When did the chest pain start?",
					"Is the pain radiating to your arm, jaw, or back?",
					"Are you experiencing shortness of breath?",
				},
			},
			{
				match: "headache",
				questions: []string{
					"Is this headache different from your usual headaches?",
					"Do you have sensitivity to light or sound?",
					"Any nausea or vomiting with the headache?",
				},
			},
		},
	}
}

// Build assembles the enrichment context for the current turn. It only reads
// its inputs.
func (b *ContextBuilder) Build(input string, entities EntityBag, symptoms []ExtractedSymptom, snap ContextSnapshot) ContextPacket {
	return ContextPacket{
		CurrentInput:   input,
		Entities:       entities,
		Symptoms:       symptoms,
		Conversation:   snap,
		MedicalUrgency: assessUrgency(symptoms, entities),
		Flow: FlowAnalysis{
			State:       snap.State,
			Progression: progression(snap),
			Gaps:        informationGaps(snap),
			NextSteps:   nextSteps(snap),
		},
		FollowUpSuggestions: b.followUpSuggestions(symptoms),
	}
}

// assessUrgency rates the current turn in isolation: urgency indicators force
// critical, otherwise the highest symptom tier wins.
func assessUrgency(symptoms []ExtractedSymptom, entities EntityBag) string {
	if len(entities.UrgencyIndicators) > 0 {
		return UrgencyCritical
	}
	switch highestTier(symptoms) {
	case TierCritical:
		return UrgencyCritical
	case TierHigh:
		return UrgencyHigh
	case TierModerate:
		return UrgencyModerate
	default:
		return UrgencyLow
	}
}

func progression(snap ContextSnapshot) string {
	interactions := snap.TotalInteractions
	symptoms := len(snap.AccumulatedSymptoms)

	switch {
	case interactions == 0:
		return ProgressionStart
	case interactions < 3 && symptoms == 0:
		return ProgressionInfoGather
	case symptoms > 0 && interactions < 5:
		return ProgressionExploration
	default:
		return ProgressionGuidance
	}
}

// informationGaps flags the standard anamnesis dimensions not yet covered by
// any accumulated symptom string. No symptoms means nothing to probe yet.
func informationGaps(snap ContextSnapshot) []string {
	if len(snap.AccumulatedSymptoms) == 0 {
		return nil
	}

	var gaps []string
	for _, dim := range []string{"duration", "severity", "location"} {
		found := false
		for _, s := range snap.AccumulatedSymptoms {
			if strings.Contains(strings.ToLower(s), dim) {
				found = true
				break
			}
		}
		if !found {
			gaps = append(gaps, "symptom_"+dim)
		}
	}
	return gaps
}

func nextSteps(snap ContextSnapshot) []string {
	if snap.UrgencyLevel == UrgencyCritical {
		return []string{"emergency_guidance", "immediate_action_required"}
	}
	switch snap.State {
	case StateInitial:
		return []string{"gather_chief_complaint", "build_rapport"}
	case StateSymptomGathering:
		return []string{"clarify_symptoms", "assess_severity", "gather_timeline"}
	case StateSymptomAnalysis:
		return []string{"provide_analysis", "suggest_next_steps", "offer_reassurance"}
	default:
		return []string{"continue_support", "monitor_progress"}
	}
}

// followUpSuggestions collects questions for the top two current-turn
// symptoms, deduplicated in insertion order.
func (b *ContextBuilder) followUpSuggestions(symptoms []ExtractedSymptom) []string {
	out := newOrderedSet()
	limit := len(symptoms)
	if limit > 2 {
		limit = 2
	}
	for _, sym := range symptoms[:limit] {
		name := strings.ToLower(sym.Name)
		for _, rule := range b.followUps {
			if strings.Contains(name, rule.match) {
				out.AddAll(rule.questions)
			}
		}
	}
	if out.Len() == 0 {
		return nil
	}
	return out.Values()
}
