package enrich

// State is the conversation-state machine position for a session.
type State string

const (
	StateInitial             State = "initial"
	StateSymptomGathering    State = "symptom_gathering"
	StateSymptomAnalysis     State = "symptom_analysis"
	StateTreatmentDiscussion State = "treatment_discussion"
	StateFollowUp            State = "follow_up"
	StateEmergency           State = "emergency"
)

// turnSignals is what the transition table sees for one committed turn.
type turnSignals struct {
	emergencyTrigger   bool // urgency indicators present or a critical-tier symptom matched
	symptomsThisTurn   bool
	accumulatedCount   int
	medicationThisTurn bool
	highestTier        UrgencyTier // zero value when no symptoms matched
}

// transition is one row of the state table: from a state, when the trigger
// predicate holds, move to the target state.
type transition struct {
	from    State
	trigger func(turnSignals) bool
	to      State
}

// stateTable holds the forward-only transitions. The emergency rule is a guard
// evaluated before this table, never part of it, so its precedence stays
// auditable on its own.
var stateTable = []transition{
	{
		from:    StateInitial,
		trigger: func(s turnSignals) bool { return s.symptomsThisTurn },
		to:      StateSymptomGathering,
	},
	{
		from:    StateSymptomGathering,
		trigger: func(s turnSignals) bool { return s.accumulatedCount >= 2 },
		to:      StateSymptomAnalysis,
	},
	{
		from:    StateSymptomAnalysis,
		trigger: func(s turnSignals) bool { return s.medicationThisTurn },
		to:      StateTreatmentDiscussion,
	},
	// StateFollowUp has no inbound rule here: it is reserved for external use.
}

// nextState applies the emergency guard, then the table. Emergency is sticky
// only while its trigger persists: on a trigger-free turn the session resumes
// at the state its accumulated facts support before the table runs.
func nextState(current State, s turnSignals) State {
	if s.emergencyTrigger {
		return StateEmergency
	}
	if current == StateEmergency {
		current = recoveryState(s)
	}
	for _, t := range stateTable {
		if t.from == current && t.trigger(s) {
			return t.to
		}
	}
	return current
}

// recoveryState derives the post-emergency state from accumulated facts.
func recoveryState(s turnSignals) State {
	switch {
	case s.accumulatedCount >= 2:
		return StateSymptomAnalysis
	case s.accumulatedCount >= 1:
		return StateSymptomGathering
	default:
		return StateInitial
	}
}

// turnUrgency recomputes the session urgency level from the current turn only.
// It is deliberately not a ratchet: when indicators disappear the level falls
// back.
func turnUrgency(s turnSignals) string {
	if s.emergencyTrigger {
		return UrgencyCritical
	}
	switch s.highestTier {
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
