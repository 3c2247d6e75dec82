// Package metrics exports template engine events as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "brace"

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeHit   = "hit"
	OutcomeMiss  = "miss"
)

// Observer records parse and render durations and resolver cache lookups.
// It implements tmpl.Observer.
type Observer struct {
	parseDuration  *prometheus.HistogramVec
	renderDuration *prometheus.HistogramVec
	cacheLookups   *prometheus.CounterVec
}

// New creates an [Observer] whose metrics are registered with reg. A nil reg
// leaves the metrics unregistered.
func New(reg prometheus.Registerer) *Observer {
	factory := promauto.With(reg)

	return &Observer{
		parseDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "parse_duration_seconds",
				Help:      "Template parse duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		renderDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "render_duration_seconds",
				Help:      "Template render duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "resolver_cache_lookups_total",
				Help:      "Total number of resolver cache lookups",
			},
			[]string{"outcome"},
		),
	}
}

// Parsed records the duration of a parse.
func (o *Observer) Parsed(_ string, d time.Duration, err error) {
	o.parseDuration.WithLabelValues(outcome(err)).Observe(d.Seconds())
}

// Rendered records the duration of a render.
func (o *Observer) Rendered(_ string, d time.Duration, err error) {
	o.renderDuration.WithLabelValues(outcome(err)).Observe(d.Seconds())
}

// ResolverCache counts a resolver cache lookup.
func (o *Observer) ResolverCache(hit bool) {
	if hit {
		o.cacheLookups.WithLabelValues(OutcomeHit).Inc()

		return
	}

	o.cacheLookups.WithLabelValues(OutcomeMiss).Inc()
}

// Describe implements prometheus.Collector.
func (o *Observer) Describe(ch chan<- *prometheus.Desc) {
	o.parseDuration.Describe(ch)
	o.renderDuration.Describe(ch)
	o.cacheLookups.Describe(ch)
}

// Collect implements prometheus.Collector.
func (o *Observer) Collect(ch chan<- prometheus.Metric) {
	o.parseDuration.Collect(ch)
	o.renderDuration.Collect(ch)
	o.cacheLookups.Collect(ch)
}

// WriteFile writes the metrics gathered from g to filename in the text
// exposition format.
func WriteFile(filename string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(filename, g)
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}

	return OutcomeOK
}
