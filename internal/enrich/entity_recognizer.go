package enrich

import (
	"regexp"
	"strings"
)

// categoryPattern is one declarative rule in a category table. Patterns run
// against lower-cased input, so the tables stay lower-case.
type categoryPattern struct {
	regex *regexp.Regexp
}

// scalarGroup is a priority-ordered pattern group for scalar resolution
// (severity, duration). The first group that matches anywhere wins.
type scalarGroup struct {
	label string
	regex *regexp.Regexp
}

// EntityRecognizer scans free text against category pattern tables and derives
// severity, duration, and urgency signals. It is stateless and total over the
// string domain: any input, including empty, yields a well-formed EntityBag.
type EntityRecognizer struct {
	categories []struct {
		name     string
		patterns []categoryPattern
	}
	severityGroups []scalarGroup
	durationGroups []scalarGroup
	urgencyTables  []*regexp.Regexp
}

// NewEntityRecognizer builds the recognizer with its fixed pattern tables.
func NewEntityRecognizer() *EntityRecognizer {
	r := &EntityRecognizer{}

	add := func(name string, exprs ...string) {
		patterns := make([]categoryPattern, 0, len(exprs))
		for _, expr := range exprs {
			patterns = append(patterns, categoryPattern{regex: regexp.MustCompile(expr)})
		}
		r.categories = append(r.categories, struct {
			name     string
			patterns []categoryPattern
		}{name: name, patterns: patterns})
	}

	add("symptoms",
		`\b(pain|ache|hurt|sore|tender|burning|throbbing|sharp|dull|stabbing|cramping)\b`,
		`\b(fever|temperature|hot|chills|sweating|feverish|burning up)\b`,
		`\b(nausea|vomiting|sick|queasy|throwing up|stomach ache|belly pain)\b`,
		`\b(headache|migraine|head pain|dizzy|dizziness|lightheaded|vertigo)\b`,
		`\b(shortness of breath|breathless|gasping|wheezing|cough|coughing)\b`,
		`\b(chest pain|chest tightness|chest pressure|heart pain|palpitations)\b`,
		`\b(fatigue|tired|exhausted|weakness|weak|swelling|swollen|bloated)\b`,
	)
	add("body_parts",
		`\b(head|neck|shoulder|arm|elbow|wrist|hand|finger|thumb)\b`,
		`\b(chest|back|spine|abdomen|stomach|belly|pelvis)\b`,
		`\b(hip|leg|knee|ankle|foot|toe|thigh|calf)\b`,
		`\b(heart|lung|liver|kidney|brain|throat|nose|ear|eye)\b`,
	)
	add("conditions",
		`\b(diabetes|hypertension|asthma|arthritis|depression|anxiety)\b`,
		`\b(covid|flu|cold|pneumonia|bronchitis|infection)\b`,
		`\b(cancer|tumor|stroke|heart attack|migraine)\b`,
	)
	add("medications",
		`\b(ibuprofen|paracetamol|aspirin|acetaminophen|tylenol|advil)\b`,
		`\b(antibiotic|insulin|inhaler|steroid|medication|medicine|pill|tablet)\b`,
	)
	add("temporal",
		`\b(today|yesterday|last week|few days|hours ago|minutes ago)\b`,
		`\b(sudden|gradual|chronic|acute|persistent|intermittent)\b`,
		`\b(morning|evening|night|during sleep|after eating)\b`,
	)

	r.severityGroups = []scalarGroup{
		{SeveritySevere, regexp.MustCompile(`\b(severe|excruciating|unbearable|intense|terrible|awful|extreme|worst)\b`)},
		{SeverityModerate, regexp.MustCompile(`\b(moderate|noticeable|uncomfortable|bothersome|manageable|medium)\b`)},
		{SeverityMild, regexp.MustCompile(`\b(mild|slight|little|minor|small|barely|light)\b`)},
	}
	r.durationGroups = []scalarGroup{
		{DurationAcute, regexp.MustCompile(`\b(sudden|minutes|hour|hours|today|just now|right now)\b`)},
		{DurationSubacute, regexp.MustCompile(`\b(days|few days|week|yesterday)\b`)},
		{DurationChronic, regexp.MustCompile(`\b(weeks|months|years|long time|always|chronic)\b`)},
	}
	r.urgencyTables = []*regexp.Regexp{
		regexp.MustCompile(`\b(emergency|urgent|immediate|help|911|hospital|emergency room)\b`),
		regexp.MustCompile(`\b(can't breathe|chest pain|heart attack|stroke|bleeding)\b`),
		regexp.MustCompile(`\b(severe pain|unbearable|excruciating|passing out)\b`),
	}

	return r
}

// CategoryCount returns the number of entity category tables, for stats
// reporting.
func (r *EntityRecognizer) CategoryCount() int {
	return len(r.categories)
}

// ExtractEntities runs every category table against text and returns the
// matched terms plus derived severity, duration, and urgency indicators.
// Deterministic and side-effect free.
func (r *EntityRecognizer) ExtractEntities(text string) EntityBag {
	lower := strings.ToLower(text)

	bag := EntityBag{
		Severity: resolveScalar(r.severityGroups, lower),
		Duration: resolveScalar(r.durationGroups, lower),
	}

	for _, cat := range r.categories {
		terms := matchCategory(cat.patterns, lower)
		switch cat.name {
		case "symptoms":
			bag.Symptoms = terms
		case "body_parts":
			bag.BodyParts = terms
		case "conditions":
			bag.Conditions = terms
		case "medications":
			bag.Medications = terms
		case "temporal":
			bag.Temporal = terms
		}
	}

	bag.UrgencyIndicators = r.extractUrgencyIndicators(lower)
	return bag
}

// matchCategory unions the matches of every pattern in a table, deduplicated
// while preserving first-occurrence order within each pattern's match stream.
func matchCategory(patterns []categoryPattern, lower string) []string {
	set := newOrderedSet()
	for _, p := range patterns {
		for _, m := range p.regex.FindAllString(lower, -1) {
			set.Add(m)
		}
	}
	return set.Values()
}

// resolveScalar returns the label of the first group matching anywhere in the
// text. First-match-wins over the priority order, not highest count.
func resolveScalar(groups []scalarGroup, lower string) string {
	for _, g := range groups {
		if g.regex.MatchString(lower) {
			return g.label
		}
	}
	return Unspecified
}

func (r *EntityRecognizer) extractUrgencyIndicators(lower string) []string {
	set := newOrderedSet()
	for _, re := range r.urgencyTables {
		for _, m := range re.FindAllString(lower, -1) {
			set.Add(m)
		}
	}
	return set.Values()
}
