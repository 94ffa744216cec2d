package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters/histograms for conversation flows.
type ChatMetrics struct {
	toolCallsTotal *prometheus.CounterVec
	turnLatency    *prometheus.HistogramVec
	auditDropped   prometheus.Counter
	llmFallbacks   prometheus.Counter
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		toolCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "twin",
			Subsystem: "tools",
			Name:      "calls_total",
			Help:      "Total tool dispatches by tool name and outcome",
		}, []string{"tool", "status"}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "twin",
			Subsystem: "chat",
			Name:      "turn_latency_seconds",
			Help:      "Latency of one chat turn including tool rounds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
		auditDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "twin",
			Subsystem: "tools",
			Name:      "audit_dropped_total",
			Help:      "Tool call audit records dropped because the queue was full",
		}),
		llmFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "twin",
			Subsystem: "llm",
			Name:      "fallback_total",
			Help:      "Turns answered by the fallback provider",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.toolCallsTotal, m.turnLatency, m.auditDropped, m.llmFallbacks)
	return m
}

func (m *ChatMetrics) ObserveToolCall(tool, status string) {
	if m == nil {
		return
	}
	m.toolCallsTotal.WithLabelValues(tool, status).Inc()
}

func (m *ChatMetrics) ObserveTurnLatency(mode string, seconds float64) {
	if m == nil {
		return
	}
	m.turnLatency.WithLabelValues(mode).Observe(seconds)
}

func (m *ChatMetrics) ObserveAuditDrop() {
	if m == nil {
		return
	}
	m.auditDropped.Inc()
}

func (m *ChatMetrics) ObserveFallback() {
	if m == nil {
		return
	}
	m.llmFallbacks.Inc()
}
