package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractEntities(t *testing.T) {
	r := NewEntityRecognizer()

	tests := []struct {
		name  string
		input string
		want  EntityBag
	}{
		{
			name:  "empty input",
			input: "",
			want: EntityBag{
				Symptoms: []string{}, BodyParts: []string{}, Conditions: []string{},
				Medications: []string{}, Temporal: []string{}, UrgencyIndicators: []string{},
				Severity: Unspecified, Duration: Unspecified,
			},
		},
		{
			name:  "chest pain with urgency indicator",
			input: "I have chest pain",
			want: EntityBag{
				Symptoms: []string{"pain"}, BodyParts: []string{"chest"}, Conditions: []string{},
				Medications: []string{}, Temporal: []string{}, UrgencyIndicators: []string{"chest pain"},
				Severity: Unspecified, Duration: Unspecified,
			},
		},
		{
			name:  "severity and duration scalars",
			input: "severe headache for days",
			want: EntityBag{
				Symptoms: []string{"headache"}, BodyParts: []string{}, Conditions: []string{},
				Medications: []string{}, Temporal: []string{}, UrgencyIndicators: []string{},
				Severity: SeveritySevere, Duration: DurationSubacute,
			},
		},
		{
			name:  "mixed case and multiple categories",
			input: "My STOMACH hurt yesterday after taking ibuprofen for my diabetes",
			want: EntityBag{
				Symptoms: []string{"hurt"}, BodyParts: []string{"stomach"},
				Conditions: []string{"diabetes"}, Medications: []string{"ibuprofen"},
				Temporal: []string{"yesterday"}, UrgencyIndicators: []string{},
				Severity: Unspecified, Duration: DurationSubacute,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.ExtractEntities(tt.input))
		})
	}
}

func TestExtractEntitiesDeduplicates(t *testing.T) {
	r := NewEntityRecognizer()

	bag := r.ExtractEntities("pain pain pain in my head, the pain is awful")
	assert.Equal(t, []string{"pain"}, bag.Symptoms)
	assert.Equal(t, []string{"head"}, bag.BodyParts)
	assert.Equal(t, SeveritySevere, bag.Severity)
}

func TestSeverityPriorityOrder(t *testing.T) {
	r := NewEntityRecognizer()

	// Severe outranks mild even when mild appears first in the text.
	bag := r.ExtractEntities("a slight but sometimes unbearable ache")
	assert.Equal(t, SeveritySevere, bag.Severity)
}

func TestDurationPriorityOrder(t *testing.T) {
	r := NewEntityRecognizer()

	tests := []struct {
		input string
		want  string
	}{
		{"it started hours ago", DurationAcute},
		{"it has been going on for days", DurationSubacute},
		{"this has lasted for months", DurationChronic},
		// Acute wins when both acute and chronic cues appear.
		{"sudden flare of a months-long problem", DurationAcute},
		{"no time words here", Unspecified},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.ExtractEntities(tt.input).Duration, tt.input)
	}
}

func TestUrgencyIndicators(t *testing.T) {
	r := NewEntityRecognizer()

	bag := r.ExtractEntities("call 911, I think it's a heart attack and the pain is unbearable")
	assert.Equal(t, []string{"911", "heart attack", "unbearable"}, bag.UrgencyIndicators)

	bag = r.ExtractEntities("mild soreness after the gym")
	assert.Empty(t, bag.UrgencyIndicators)
}

func TestItemCount(t *testing.T) {
	r := NewEntityRecognizer()

	bag := r.ExtractEntities("I have chest pain")
	// pain + chest + "chest pain" indicator; scalars do not count.
	assert.Equal(t, 3, bag.ItemCount())
}
