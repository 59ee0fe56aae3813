package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestEnrichmentMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewEnrichmentMetrics(reg, func() float64 { return 3 })
	m.ObserveChat("ok")
	m.ObserveTurn("symptom_gathering", "moderate")
	m.ObserveBackendLatency(0.25)
	m.ObservePipelineLatency(0.01)
}

func TestEnrichmentMetricsWithoutGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewEnrichmentMetrics(reg, nil)
	m.ObserveChat("backend_error")
}

func TestEnrichmentMetricsNilSafe(t *testing.T) {
	var m *EnrichmentMetrics
	m.ObserveChat("ok")
	m.ObserveTurn("initial", "low")
	m.ObserveBackendLatency(0.1)
	m.ObservePipelineLatency(0.1)
}
