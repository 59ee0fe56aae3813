package enrich

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderCriticalPreamble(t *testing.T) {
	r := NewPromptRenderer()

	packet := ContextPacket{
		CurrentInput:   "I have chest pain",
		MedicalUrgency: UrgencyCritical,
		Entities: EntityBag{
			Symptoms:          []string{"pain"},
			UrgencyIndicators: []string{"chest pain"},
			Severity:          Unspecified,
			Duration:          Unspecified,
		},
		Symptoms: []ExtractedSymptom{{Name: "Chest Pain", Confidence: 0.9, Urgency: TierCritical}},
		Conversation: ContextSnapshot{
			State:        StateInitial,
			UrgencyLevel: UrgencyLow,
		},
		Flow: FlowAnalysis{NextSteps: []string{"emergency_guidance", "immediate_action_required"}},
	}

	prompt := r.Render(packet)
	assert.Contains(t, prompt, "URGENT SITUATION DETECTED")
	assert.Contains(t, prompt, "- PRIORITY: Address urgent medical situation immediately")
	assert.Contains(t, prompt, "Chest Pain (confidence: 0.90, urgency: critical)")
	assert.Contains(t, prompt, "- Urgency indicators: 1")
	assert.NotContains(t, prompt, "interaction #")
}

func TestRenderFirstTurnHasNoHistory(t *testing.T) {
	r := NewPromptRenderer()

	packet := ContextPacket{
		CurrentInput:   "hello",
		MedicalUrgency: UrgencyLow,
		Entities:       EntityBag{Severity: Unspecified, Duration: Unspecified},
		Conversation:   ContextSnapshot{State: StateInitial},
	}

	prompt := r.Render(packet)
	assert.Contains(t, prompt, "CONVERSATION CONTEXT: This is the beginning of a new conversation with this patient.")
	assert.Contains(t, prompt, "This is interaction #1 in this conversation.")
	assert.Contains(t, prompt, "building rapport")
	assert.Contains(t, prompt, `CURRENT USER INPUT: "hello"`)
}

func TestRenderOngoingConversation(t *testing.T) {
	r := NewPromptRenderer()

	packet := ContextPacket{
		CurrentInput:   "the fever is back",
		MedicalUrgency: UrgencyModerate,
		Entities:       EntityBag{Symptoms: []string{"fever"}, Severity: Unspecified, Duration: Unspecified},
		Symptoms:       []ExtractedSymptom{{Name: "Fever", Confidence: 0.9, Urgency: TierModerate}},
		Conversation: ContextSnapshot{
			State:                 StateSymptomAnalysis,
			UrgencyLevel:          UrgencyModerate,
			TotalInteractions:     3,
			StartedAt:             "2025-03-14T09:26:54Z",
			AccumulatedSymptoms:   []string{"Headache", "Fever"},
			AccumulatedConditions: []string{"flu"},
			History: []Interaction{{
				UserText:  "I had a headache yesterday",
				Assistant: strings.Repeat("a", 200),
				Turn:      3,
			}},
		},
		Flow: FlowAnalysis{
			Gaps:      []string{"symptom_duration"},
			NextSteps: []string{"provide_analysis"},
		},
		FollowUpSuggestions: []string{"Do you have sensitivity to light or sound?"},
	}

	prompt := r.Render(packet)
	assert.Contains(t, prompt, "This is interaction #4 in this conversation.")
	assert.Contains(t, prompt, "- Total interactions: 3")
	assert.Contains(t, prompt, "- Conversation state: symptom_analysis")
	assert.Contains(t, prompt, "- Symptoms discussed: Headache, Fever")
	assert.Contains(t, prompt, "- Conditions mentioned: flu")
	assert.Contains(t, prompt, `- Last user input: "I had a headache yesterday"`)
	// Long assistant replies are truncated to 150 characters.
	assert.Contains(t, prompt, `"`+strings.Repeat("a", 150)+`..."`)
	assert.Contains(t, prompt, "- Overall urgency level: moderate")
	assert.Contains(t, prompt, "- Information gaps to address: symptom_duration")
	assert.Contains(t, prompt, "- Consider asking: Do you have sensitivity to light or sound?")
	assert.Contains(t, prompt, "- Maintain empathetic, supportive tone")
	assert.True(t, strings.HasSuffix(prompt, "the patient's current concerns.\n"))
}
