// Package metrics exposes Prometheus counters for debates and generation calls.
package metrics

import (
	"net/http"
	"time"

	"github.com/ppiankov/ticketdebate/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	generations        *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	tokens             *prometheus.CounterVec
	turns              *prometheus.CounterVec
	fallbacks          *prometheus.CounterVec
	debates            *prometheus.CounterVec
}

// New creates and registers all collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		generations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticketdebate_generations_total",
				Help: "Generation calls by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		generationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ticketdebate_generation_duration_seconds",
				Help:    "Latency of generation calls",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
			},
			[]string{"provider"},
		),
		tokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticketdebate_tokens_total",
				Help: "Tokens reported by providers",
			},
			[]string{"provider"},
		),
		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticketdebate_turns_total",
				Help: "Transcript entries appended by the engine",
			},
			[]string{"side", "kind"},
		),
		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticketdebate_fallback_arguments_total",
				Help: "Turns where a fallback argument replaced a failed generation",
			},
			[]string{"side"},
		),
		debates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ticketdebate_debates_total",
				Help: "Finished debates by outcome",
			},
			[]string{"outcome"},
		),
	}

	m.registry.MustRegister(
		m.generations,
		m.generationDuration,
		m.tokens,
		m.turns,
		m.fallbacks,
		m.debates,
	)
	return m
}

// Registry returns the registry backing the collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveGeneration records one provider call
func (m *Metrics) ObserveGeneration(provider, outcome string, duration time.Duration, tokens int) {
	m.generations.WithLabelValues(provider, outcome).Inc()
	m.generationDuration.WithLabelValues(provider).Observe(duration.Seconds())
	if tokens > 0 {
		m.tokens.WithLabelValues(provider).Add(float64(tokens))
	}
}

// OnEntry counts appended transcript entries
func (m *Metrics) OnEntry(_ model.DebateState, entry model.Entry, fallback bool) {
	kind := "argument"
	if entry.Concession {
		kind = "concession"
	}
	m.turns.WithLabelValues(string(entry.Side), kind).Inc()
	if fallback {
		m.fallbacks.WithLabelValues(string(entry.Side)).Inc()
	}
}

// OnFinish counts the debate by outcome
func (m *Metrics) OnFinish(state model.DebateState) {
	m.debates.WithLabelValues(state.Outcome()).Inc()
}
