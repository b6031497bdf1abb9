package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics owns the collectors of one server instance. Methods are safe on a
// nil receiver so handlers can run without metrics in tests.
type Metrics struct {
	buildInfo          *prometheus.GaugeVec
	predictRequests    *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	cacheLookups       *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		buildInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "chatpredict_build_info",
				Help: "Build information for the chatpredict server",
			},
			[]string{"date", "sha", "version"},
		),
		predictRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatpredict_predict_requests_total",
				Help: "Predict requests by outcome",
			},
			[]string{"outcome"},
		),
		generationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chatpredict_generation_duration_seconds",
				Help:    "Time spent in the response generator",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"outcome"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatpredict_cache_lookups_total",
				Help: "Answer cache lookups by result",
			},
			[]string{"result"},
		),
	}
	reg.MustRegister(m.buildInfo, m.predictRequests, m.generationDuration, m.cacheLookups)
	return m
}

// SetBuildInfo sets the build info metric.
func (m *Metrics) SetBuildInfo(version, sha, date string) {
	if m == nil {
		return
	}
	m.buildInfo.WithLabelValues(date, sha, version).Set(1)
}

// RecordPredict counts a finished predict request.
func (m *Metrics) RecordPredict(outcome string) {
	if m == nil {
		return
	}
	m.predictRequests.WithLabelValues(outcome).Inc()
}

// ObserveGeneration records the duration of one generator call.
func (m *Metrics) ObserveGeneration(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.generationDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveCache counts an answer cache lookup.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
