// Package diagnosis talks to the symptom-matching backend and turns its
// replies into patient-facing prose.
package diagnosis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/oakhealth/medrag/pkg/logging"
)

// Backend availability errors. Handlers map these to gateway status codes.
var (
	ErrTimeout     = errors.New("diagnosis: backend timed out")
	ErrUnavailable = errors.New("diagnosis: backend unavailable")
)

// MatchedSymptom is one symptom the backend matched, in its ontology terms.
type MatchedSymptom struct {
	ID         string  `json:"id,omitempty"`
	Label      string  `json:"label"`
	Similarity float64 `json:"similarity"`
}

// ProbableCondition is one candidate condition with its ranking score.
// Coverage percentages are present only when the backend replies in its
// symptoms/illnesses shape.
type ProbableCondition struct {
	ID                string   `json:"id,omitempty"`
	Name              string   `json:"name"`
	Score             float64  `json:"score"`
	IllnessCoverage   *float64 `json:"illness_coverage,omitempty"`
	ConditionCoverage *float64 `json:"condition_coverage,omitempty"`
}

// Assessment is the normalized backend reply. Both wire shapes the backend
// can produce collapse into this one form, so downstream code never sees the
// difference.
type Assessment struct {
	InputText  string              `json:"input_text"`
	Symptoms   []MatchedSymptom    `json:"matched_symptoms"`
	Conditions []ProbableCondition `json:"probable_diseases"`
}

// SymptomNames returns the matched symptom labels, for memory accumulation.
func (a *Assessment) SymptomNames() []string {
	if a == nil {
		return nil
	}
	names := make([]string, 0, len(a.Symptoms))
	for _, s := range a.Symptoms {
		if s.Label != "" {
			names = append(names, s.Label)
		}
	}
	return names
}

// ConditionNames returns the candidate condition names, for memory
// accumulation.
func (a *Assessment) ConditionNames() []string {
	if a == nil {
		return nil
	}
	names := make([]string, 0, len(a.Conditions))
	for _, c := range a.Conditions {
		if c.Name != "" {
			names = append(names, c.Name)
		}
	}
	return names
}

// DiagnoseRequest is the backend's expected payload.
type DiagnoseRequest struct {
	Description string  `json:"description"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// Client is an HTTP client for the diagnosis backend.
type Client struct {
	baseURL    string
	healthPath string
	httpClient *http.Client
	logger     *logging.Logger
	tracer     trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client. Tests use it.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHealthPath overrides the backend health probe path.
func WithHealthPath(p string) Option {
	return func(c *Client) {
		if p != "" {
			c.healthPath = p
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l.Component("diagnosis-client")
		}
	}
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		healthPath: "/health",
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logging.Default().Component("diagnosis-client"),
		tracer:     otel.Tracer("medrag/diagnosis-client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// diagnoseWire accepts both reply shapes the backend is known to produce.
type diagnoseWire struct {
	InputText        string              `json:"input_text"`
	MatchedSymptoms  []MatchedSymptom    `json:"matched_symptoms"`
	ProbableDiseases []ProbableCondition `json:"probable_diseases"`

	Symptoms  []string      `json:"symptoms"`
	Illnesses []illnessWire `json:"illnesses"`
}

type illnessWire struct {
	Name              string  `json:"name"`
	IllnessCoverage   float64 `json:"illness_coverage"`
	ConditionCoverage float64 `json:"condition_coverage"`
}

// Diagnose sends the patient's message to the backend and normalizes the
// reply. One round trip serves both the prose formatter and the structured
// names fed back into conversation memory.
func (c *Client) Diagnose(ctx context.Context, req DiagnoseRequest) (*Assessment, error) {
	ctx, span := c.tracer.Start(ctx, "diagnosis.diagnose")
	defer span.End()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("diagnosis: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/diagnose", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("diagnosis: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var wire diagnoseWire
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("diagnosis: decode response: %w", err)
	}

	assessment := normalize(wire)
	span.SetAttributes(
		attribute.Int("diagnosis.symptom_count", len(assessment.Symptoms)),
		attribute.Int("diagnosis.condition_count", len(assessment.Conditions)),
	)
	c.logger.Debug("backend reply normalized",
		"symptoms", len(assessment.Symptoms),
		"conditions", len(assessment.Conditions),
	)
	return assessment, nil
}

// normalize folds the alternative symptoms/illnesses shape into the primary
// one. Plain symptom strings get a fixed 0.9 similarity; illness coverage
// doubles as the ranking score.
func normalize(wire diagnoseWire) *Assessment {
	if wire.InputText != "" || len(wire.MatchedSymptoms) > 0 || len(wire.ProbableDiseases) > 0 {
		return &Assessment{
			InputText:  wire.InputText,
			Symptoms:   wire.MatchedSymptoms,
			Conditions: wire.ProbableDiseases,
		}
	}
	if len(wire.Symptoms) == 0 && len(wire.Illnesses) == 0 {
		return &Assessment{}
	}

	a := &Assessment{InputText: "Patient symptoms analysis"}
	for _, s := range wire.Symptoms {
		a.Symptoms = append(a.Symptoms, MatchedSymptom{Label: s, Similarity: 0.9})
	}
	for _, ill := range wire.Illnesses {
		name := ill.Name
		if name == "" {
			name = "Unknown condition"
		}
		illnessCov := ill.IllnessCoverage
		conditionCov := ill.ConditionCoverage
		a.Conditions = append(a.Conditions, ProbableCondition{
			Name:              name,
			Score:             illnessCov,
			IllnessCoverage:   &illnessCov,
			ConditionCoverage: &conditionCov,
		})
	}
	return a
}

// Health probes the backend health endpoint and reports "connected" or
// "disconnected". A short deadline keeps the liveness check snappy even when
// the backend hangs.
func (c *Client) Health(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+c.healthPath, nil)
	if err != nil {
		return "disconnected"
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "disconnected"
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return "connected"
	}
	return "disconnected"
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
