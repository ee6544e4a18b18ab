// Package metrics exposes wizard lifecycle counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/ormasoftchile/guildwiz/pkg/schema"
	"github.com/ormasoftchile/guildwiz/pkg/wizard"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ wizard.Observer = (*Metrics)(nil)

// Metrics implements wizard.Observer on its own registry.
type Metrics struct {
	registry      *prometheus.Registry
	stepsRendered *prometheus.CounterVec
	stepsSkipped  *prometheus.CounterVec
	previewFailed *prometheus.CounterVec
	finished      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
}

// New registers the wizard metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		stepsRendered: f.NewCounterVec(prometheus.CounterOpts{
			Name: "guildwiz_steps_rendered_total",
			Help: "Steps rendered to operators, by feature and step kind.",
		}, []string{"feature", "kind"}),
		stepsSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "guildwiz_steps_skipped_total",
			Help: "Steps skipped by their condition.",
		}, []string{"feature", "step"}),
		previewFailed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "guildwiz_preview_failures_total",
			Help: "Design previews that could not be rendered.",
		}, []string{"feature", "design"}),
		finished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "guildwiz_conversations_finished_total",
			Help: "Finished conversations, by outcome.",
		}, []string{"feature", "outcome"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "guildwiz_conversation_duration_seconds",
			Help:    "Time from start to the end of a conversation.",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 900, 1800},
		}, []string{"feature", "outcome"}),
	}
}

// Registry returns the registry holding the wizard metrics.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) StepRendered(feature string, kind schema.StepKind) {
	m.stepsRendered.WithLabelValues(feature, string(kind)).Inc()
}

func (m *Metrics) StepSkipped(feature, step string) {
	m.stepsSkipped.WithLabelValues(feature, step).Inc()
}

func (m *Metrics) PreviewFailed(feature, design string) {
	m.previewFailed.WithLabelValues(feature, design).Inc()
}

func (m *Metrics) Finished(feature string, outcome wizard.Outcome, elapsed time.Duration) {
	m.finished.WithLabelValues(feature, string(outcome)).Inc()
	m.duration.WithLabelValues(feature, string(outcome)).Observe(elapsed.Seconds())
}
