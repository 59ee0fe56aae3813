package enrich

import (
	"fmt"
	"strings"
)

const basePersona = "You are an empathetic AI medical assistant engaged in an ongoing conversation with a patient."

var statePersonas = map[State]string{
	StateInitial:             "The patient is starting to share their health concerns. Focus on building rapport and gathering initial information.",
	StateSymptomGathering:    "You're gathering detailed symptom information. Ask specific follow-up questions to understand the complete picture.",
	StateSymptomAnalysis:     "You have symptom information and are providing analysis. Connect current symptoms with previously discussed information.",
	StateTreatmentDiscussion: "You're discussing next steps and treatment options. Reference the full context of symptoms discussed.",
	StateFollowUp:            "This is a follow-up conversation. Check on previously discussed symptoms and progress.",
}

// PromptRenderer turns a ContextPacket into the enriched LLM prompt. It is
// stateless and safe for concurrent use.
type PromptRenderer struct{}

// NewPromptRenderer creates a renderer.
func NewPromptRenderer() *PromptRenderer {
	return &PromptRenderer{}
}

// Render produces the full enriched prompt: adaptive system preamble, the
// conversation so far, the medical findings, the current query, and response
// guidance.
func (r *PromptRenderer) Render(packet ContextPacket) string {
	sections := []string{
		r.systemSection(packet.Conversation, packet.MedicalUrgency),
		r.historySection(packet.Conversation),
		r.medicalSection(packet.Symptoms, packet.Entities, packet.Conversation),
		r.querySection(packet.CurrentInput, packet.Symptoms, packet.Entities),
		r.guidanceSection(packet),
	}

	var b strings.Builder
	b.WriteString("\n")
	for _, s := range sections {
		b.WriteString(s)
		b.WriteString("\n\n")
	}
	b.WriteString("Please provide a thoughtful, contextual response that demonstrates understanding of our conversation history and the patient's current concerns.\n")
	return b.String()
}

func (r *PromptRenderer) systemSection(snap ContextSnapshot, urgency string) string {
	if urgency == UrgencyCritical {
		return basePersona + " URGENT SITUATION DETECTED - Provide immediate guidance while recommending emergency care."
	}

	persona, ok := statePersonas[snap.State]
	if !ok {
		persona = "Continue the supportive medical conversation."
	}
	return fmt.Sprintf("%s %s This is interaction #%d in this conversation.", basePersona, persona, snap.TotalInteractions+1)
}

func (r *PromptRenderer) historySection(snap ContextSnapshot) string {
	if len(snap.History) == 0 {
		return "CONVERSATION CONTEXT: This is the beginning of a new conversation with this patient."
	}

	parts := []string{
		"CONVERSATION CONTEXT:",
		fmt.Sprintf("- Total interactions: %d", snap.TotalInteractions),
		fmt.Sprintf("- Conversation state: %s", snap.State),
		fmt.Sprintf("- Session duration: Started %s", snap.StartedAt),
	}
	if len(snap.AccumulatedSymptoms) > 0 {
		parts = append(parts, fmt.Sprintf("- Symptoms discussed: %s", strings.Join(snap.AccumulatedSymptoms, ", ")))
	}
	if len(snap.AccumulatedConditions) > 0 {
		parts = append(parts, fmt.Sprintf("- Conditions mentioned: %s", strings.Join(snap.AccumulatedConditions, ", ")))
	}

	recent := snap.History[len(snap.History)-1]
	parts = append(parts,
		fmt.Sprintf("- Last user input: %q", recent.UserText),
		fmt.Sprintf("- Your last response: %q", truncate(recent.Assistant, 150)+"..."),
	)
	return strings.Join(parts, "\n")
}

func (r *PromptRenderer) medicalSection(symptoms []ExtractedSymptom, entities EntityBag, snap ContextSnapshot) string {
	parts := []string{"MEDICAL CONTEXT:"}

	if len(symptoms) > 0 {
		parts = append(parts, "Current symptoms detected:")
		for _, sym := range symptoms {
			parts = append(parts, fmt.Sprintf("  - %s (confidence: %.2f, urgency: %s)", sym.Name, sym.Confidence, sym.Urgency))
		}
	}

	categories := []struct {
		label string
		items []string
	}{
		{"Body Parts", entities.BodyParts},
		{"Conditions", entities.Conditions},
		{"Medications", entities.Medications},
		{"Temporal", entities.Temporal},
	}
	for _, c := range categories {
		if len(c.items) > 0 {
			parts = append(parts, fmt.Sprintf("- %s: %s", c.label, strings.Join(c.items, ", ")))
		}
	}

	if entities.Severity != Unspecified {
		parts = append(parts, fmt.Sprintf("- Severity: %s", entities.Severity))
	}
	if entities.Duration != Unspecified {
		parts = append(parts, fmt.Sprintf("- Duration: %s", entities.Duration))
	}
	if snap.UrgencyLevel != UrgencyLow && snap.UrgencyLevel != "" {
		parts = append(parts, fmt.Sprintf("- Overall urgency level: %s", snap.UrgencyLevel))
	}
	return strings.Join(parts, "\n")
}

func (r *PromptRenderer) querySection(input string, symptoms []ExtractedSymptom, entities EntityBag) string {
	return fmt.Sprintf(`CURRENT USER INPUT: %q

EXTRACTED FROM CURRENT INPUT:
- Number of symptoms detected: %d
- Medical entities found: %d
- Urgency indicators: %d`,
		input, len(symptoms), entities.ItemCount(), len(entities.UrgencyIndicators))
}

func (r *PromptRenderer) guidanceSection(packet ContextPacket) string {
	parts := []string{"RESPONSE GUIDANCE:"}

	if packet.MedicalUrgency == UrgencyCritical {
		parts = append(parts,
			"- PRIORITY: Address urgent medical situation immediately",
			"- Recommend emergency care while providing immediate guidance",
		)
	} else {
		parts = append(parts,
			"- Maintain empathetic, supportive tone",
			"- Reference relevant information from conversation history",
		)
	}

	if len(packet.Flow.Gaps) > 0 {
		parts = append(parts, fmt.Sprintf("- Information gaps to address: %s", strings.Join(packet.Flow.Gaps, ", ")))
	}
	if len(packet.Flow.NextSteps) > 0 {
		parts = append(parts, fmt.Sprintf("- Logical next steps: %s", strings.Join(packet.Flow.NextSteps, ", ")))
	}
	if len(packet.FollowUpSuggestions) > 0 {
		parts = append(parts, fmt.Sprintf("- Consider asking: %s", packet.FollowUpSuggestions[0]))
	}
	return strings.Join(parts, "\n")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
