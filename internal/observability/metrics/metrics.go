package metrics

import "github.com/prometheus/client_golang/prometheus"

// EnrichmentMetrics exposes counters/histograms for the chat enrichment flow.
type EnrichmentMetrics struct {
	chatTotal       *prometheus.CounterVec
	turnsTotal      *prometheus.CounterVec
	backendLatency  prometheus.Histogram
	pipelineLatency prometheus.Histogram
	activeSessions  prometheus.GaugeFunc
}

// NewEnrichmentMetrics registers the enrichment metric set. sessionCount is
// sampled on scrape for the active-sessions gauge; nil disables the gauge.
func NewEnrichmentMetrics(reg prometheus.Registerer, sessionCount func() float64) *EnrichmentMetrics {
	m := &EnrichmentMetrics{
		chatTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medrag",
			Subsystem: "chat",
			Name:      "requests_total",
			Help:      "Total enhanced chat requests",
		}, []string{"status"}),
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medrag",
			Subsystem: "chat",
			Name:      "turns_committed_total",
			Help:      "Total conversation turns committed to memory",
		}, []string{"state", "urgency"}),
		backendLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "medrag",
			Subsystem: "diagnosis",
			Name:      "backend_latency_seconds",
			Help:      "Latency of diagnosis backend calls",
			Buckets:   prometheus.DefBuckets,
		}),
		pipelineLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "medrag",
			Subsystem: "enrich",
			Name:      "pipeline_latency_seconds",
			Help:      "Latency of the enrichment pipeline",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.chatTotal, m.turnsTotal, m.backendLatency, m.pipelineLatency)

	if sessionCount != nil {
		m.activeSessions = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "medrag",
			Subsystem: "chat",
			Name:      "active_sessions",
			Help:      "Sessions currently held in conversation memory",
		}, sessionCount)
		reg.MustRegister(m.activeSessions)
	}
	return m
}

func (m *EnrichmentMetrics) ObserveChat(status string) {
	if m == nil {
		return
	}
	m.chatTotal.WithLabelValues(status).Inc()
}

func (m *EnrichmentMetrics) ObserveTurn(state, urgency string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(state, urgency).Inc()
}

func (m *EnrichmentMetrics) ObserveBackendLatency(seconds float64) {
	if m == nil {
		return
	}
	m.backendLatency.Observe(seconds)
}

func (m *EnrichmentMetrics) ObservePipelineLatency(seconds float64) {
	if m == nil {
		return
	}
	m.pipelineLatency.Observe(seconds)
}
