// Package enrich implements the conversation enrichment core: rule-based
// medical entity recognition, symptom extraction against a fixed catalog,
// per-session conversation memory, and context/prompt construction.
package enrich

// Severity labels resolved from the priority-ordered severity pattern groups.
const (
	SeveritySevere   = "severe"
	SeverityModerate = "moderate"
	SeverityMild     = "mild"
)

// Duration labels resolved from the priority-ordered duration pattern groups.
const (
	DurationAcute    = "acute"
	DurationSubacute = "subacute"
	DurationChronic  = "chronic"
)

// Unspecified is returned when no severity or duration pattern matches.
const Unspecified = "unspecified"

// UrgencyTier is the symptom-intrinsic severity classification from the catalog.
type UrgencyTier string

const (
	TierCritical UrgencyTier = "critical"
	TierHigh     UrgencyTier = "high"
	TierModerate UrgencyTier = "moderate"
)

// Session-wide urgency levels, recomputed on every committed turn.
const (
	UrgencyLow      = "low"
	UrgencyModerate = "moderate"
	UrgencyHigh     = "high"
	UrgencyCritical = "critical"
)

// EntityBag is the per-turn entity extraction result. Category slices preserve
// first-occurrence order and contain no duplicates.
type EntityBag struct {
	Symptoms          []string `json:"symptoms"`
	BodyParts         []string `json:"body_parts"`
	Conditions        []string `json:"conditions"`
	Medications       []string `json:"medications"`
	Temporal          []string `json:"temporal"`
	Severity          string   `json:"severity"`
	Duration          string   `json:"duration"`
	UrgencyIndicators []string `json:"urgency_indicators"`
}

// ItemCount returns the total number of matched terms across all categories,
// urgency indicators included. Severity and duration are scalars and do not
// contribute.
func (b EntityBag) ItemCount() int {
	return len(b.Symptoms) + len(b.BodyParts) + len(b.Conditions) +
		len(b.Medications) + len(b.Temporal) + len(b.UrgencyIndicators)
}

// ExtractedSymptom is a confidence-scored match against the symptom catalog.
// Produced fresh every turn and never mutated afterwards.
type ExtractedSymptom struct {
	Name           string      `json:"symptom"`
	Confidence     float64     `json:"confidence"`
	MatchedAliases []string    `json:"matched_text"`
	RelatedContext []string    `json:"related_context"`
	Urgency        UrgencyTier `json:"urgency"`
	PossibleCauses []string    `json:"possible_causes"`
}
