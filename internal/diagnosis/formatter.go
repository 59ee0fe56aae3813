package diagnosis

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	adviceDisclaimer = "I strongly recommend consulting with a healthcare professional for proper diagnosis and treatment. If you're experiencing severe symptoms, please seek immediate medical attention."
	noMatchAdvice    = "While I couldn't match specific symptoms or conditions from your description, I recommend discussing your concerns with a healthcare professional who can provide a proper evaluation."

	// highSimilarity marks symptom matches trusted enough to lead the reply.
	highSimilarity = 0.85
	topMatches     = 3
)

// FormatReply renders an assessment as patient-facing prose: acknowledgment,
// the leading symptom matches, the top-ranked conditions, and a medical
// disclaimer.
func FormatReply(a *Assessment) string {
	if a == nil {
		return "I've received your message, but I couldn't provide a specific medical assessment. Please consult with a healthcare professional for proper guidance."
	}

	var parts []string

	if a.InputText != "" {
		parts = append(parts, fmt.Sprintf("Thank you for describing your symptoms: %s", a.InputText))
	}
	if s := symptomSentence(a.Symptoms); s != "" {
		parts = append(parts, s)
	}
	parts = append(parts, conditionSentences(a.Conditions)...)

	if len(a.Symptoms) > 0 || len(a.Conditions) > 0 {
		parts = append(parts, adviceDisclaimer)
	} else {
		parts = append(parts, noMatchAdvice)
	}
	return strings.Join(parts, " ")
}

// symptomSentence prefers high-similarity matches; only when none clear the
// bar does it fall back to the first matches as given.
func symptomSentence(symptoms []MatchedSymptom) string {
	if len(symptoms) == 0 {
		return ""
	}

	var confident []string
	var all []string
	for _, s := range symptoms {
		all = append(all, s.Label)
		if s.Similarity > highSimilarity {
			confident = append(confident, s.Label)
		}
	}

	primary := confident
	if len(primary) == 0 {
		primary = all
	}
	if len(primary) > topMatches {
		primary = primary[:topMatches]
	}

	if len(primary) == 1 {
		return fmt.Sprintf("Based on your description, I've identified: %s.", primary[0])
	}
	return fmt.Sprintf("Based on your description, I've identified these symptoms: %s.", joinWithConjunction(primary, "and"))
}

func conditionSentences(conditions []ProbableCondition) []string {
	if len(conditions) == 0 {
		return nil
	}

	ranked := make([]ProbableCondition, len(conditions))
	copy(ranked, conditions)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if len(ranked) > topMatches {
		ranked = ranked[:topMatches]
	}

	hasCoverage := false
	for _, c := range ranked {
		if c.IllnessCoverage != nil || c.ConditionCoverage != nil {
			hasCoverage = true
			break
		}
	}

	var parts []string
	if hasCoverage {
		parts = append(parts, "Based on the analysis, possible conditions to consider include:")
		for _, c := range ranked {
			coverage := ""
			if c.IllnessCoverage != nil && c.ConditionCoverage != nil {
				coverage = fmt.Sprintf(" (illness match: %s%%, condition match: %s%%)",
					formatPercent(*c.IllnessCoverage), formatPercent(*c.ConditionCoverage))
			}
			parts = append(parts, fmt.Sprintf("• %s%s", c.Name, coverage))
		}
	} else {
		names := make([]string, 0, len(ranked))
		for _, c := range ranked {
			names = append(names, c.Name)
		}
		if len(names) == 1 {
			parts = append(parts, fmt.Sprintf("This could potentially be related to: %s.", names[0]))
		} else {
			parts = append(parts, fmt.Sprintf("Possible conditions to consider include: %s.", joinWithConjunction(names, "or")))
		}
	}

	parts = append(parts, "However, this is a preliminary assessment based on symptom matching.")
	return parts
}

func joinWithConjunction(items []string, conj string) string {
	if len(items) == 1 {
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + ", " + conj + " " + items[len(items)-1]
}

// formatPercent prints whole numbers without a trailing ".0".
func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
