package enrich

import (
	"sort"
	"strings"
)

const (
	aliasConfidence   = 0.9
	relatedConfidence = 0.6
)

// CatalogEntry describes one named symptom in the knowledge base.
type CatalogEntry struct {
	Name            string
	Aliases         []string
	RelatedSymptoms []string
	Urgency         UrgencyTier
	CommonCauses    []string
	FollowUps       []string
}

// SymptomExtractor matches text against a fixed catalog of named symptoms.
// Stateless; the catalog is ordered, which defines the tie-break for equal
// confidences.
type SymptomExtractor struct {
	catalog []CatalogEntry
}

// NewSymptomExtractor builds the extractor with the default catalog.
func NewSymptomExtractor() *SymptomExtractor {
	return &SymptomExtractor{catalog: defaultCatalog()}
}

// CatalogSize returns the number of catalog entries, for stats reporting.
func (e *SymptomExtractor) CatalogSize() int {
	return len(e.catalog)
}

// ExtractSymptoms scores every catalog entry against text and returns the
// matches ordered by descending confidence. Confidence is a ceiling, not a
// sum: an alias hit lifts it to 0.9, a related-context hit to 0.6, and
// repeated hits never push it higher. Related-context hits alone still yield
// a 0.6 match.
func (e *SymptomExtractor) ExtractSymptoms(text string) []ExtractedSymptom {
	lower := strings.ToLower(text)
	found := make([]ExtractedSymptom, 0, 2)

	for _, entry := range e.catalog {
		confidence := 0.0
		matched := newOrderedSet()
		related := newOrderedSet()

		for _, alias := range entry.Aliases {
			if strings.Contains(lower, alias) {
				confidence = max(confidence, aliasConfidence)
				matched.Add(alias)
			}
		}
		for _, term := range entry.RelatedSymptoms {
			if strings.Contains(lower, term) {
				confidence = max(confidence, relatedConfidence)
				related.Add(term)
			}
		}

		if confidence == 0 {
			continue
		}
		found = append(found, ExtractedSymptom{
			Name:           entry.Name,
			Confidence:     confidence,
			MatchedAliases: matched.Values(),
			RelatedContext: related.Values(),
			Urgency:        entry.Urgency,
			PossibleCauses: append([]string(nil), entry.CommonCauses...),
		})
	}

	// Stable sort keeps catalog order for equal confidences.
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].Confidence > found[j].Confidence
	})
	return found
}

func defaultCatalog() []CatalogEntry {
	return []CatalogEntry{
		{
			Name:            "Chest Pain",
			Aliases:         []string{"chest pain", "chest tightness", "chest pressure", "heart pain", "chest ache"},
			RelatedSymptoms: []string{"shortness of breath", "sweating", "nausea", "arm pain", "jaw pain"},
			Urgency:         TierCritical,
			CommonCauses:    []string{"heart attack", "angina", "anxiety", "muscle strain", "pneumonia"},
			FollowUps: []string{
				"Is the pain radiating to your arm or jaw?",
				"Are you experiencing shortness of breath?",
				"When did the chest pain start?",
			},
		},
		{
			Name:            "Headache",
			Aliases:         []string{"headache", "head pain", "migraine", "head ache"},
			RelatedSymptoms: []string{"nausea", "sensitivity to light", "dizziness", "blurred vision"},
			Urgency:         TierModerate,
			CommonCauses:    []string{"tension", "migraine", "sinus", "dehydration", "stress"},
			FollowUps: []string{
				"Is this a sudden severe headache?",
				"Do you have sensitivity to light?",
				"Have you had similar headaches before?",
			},
		},
		{
			Name:            "Fever",
			Aliases:         []string{"fever", "temperature", "hot", "burning up", "feverish", "chills"},
			RelatedSymptoms: []string{"chills", "sweating", "fatigue", "body aches", "sore throat"},
			Urgency:         TierModerate,
			CommonCauses:    []string{"infection", "flu", "covid", "pneumonia", "UTI"},
			FollowUps: []string{
				"What is your temperature?",
				"Do you have any other symptoms like cough or sore throat?",
				"How long have you had the fever?",
			},
		},
		{
			Name:            "Shortness Of Breath",
			Aliases:         []string{"shortness of breath", "breathless", "gasping", "difficulty breathing", "wheezing"},
			RelatedSymptoms: []string{"chest pain", "cough", "fatigue", "dizziness"},
			Urgency:         TierHigh,
			CommonCauses:    []string{"asthma", "pneumonia", "heart problems", "anxiety", "covid"},
			FollowUps: []string{
				"Is this sudden onset?",
				"Do you have chest pain with the breathing difficulty?",
				"Are you able to speak in full sentences?",
			},
		},
		{
			Name:            "Abdominal Pain",
			Aliases:         []string{"stomach pain", "belly pain", "abdominal pain", "stomach ache"},
			RelatedSymptoms: []string{"nausea", "vomiting", "fever", "diarrhea", "bloating"},
			Urgency:         TierModerate,
			CommonCauses:    []string{"gastritis", "appendicitis", "food poisoning", "kidney stones"},
			FollowUps: []string{
				"Where exactly is the pain located?",
				"Is the pain constant or comes in waves?",
				"Any nausea or vomiting?",
			},
		},
	}
}
