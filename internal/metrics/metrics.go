// Package metrics exposes session counters for the /metrics endpoint.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeAPIError = "api_error"
	OutcomeFailed   = "failed"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	FetchesTotal     *prometheus.CounterVec
	FetchSeconds     prometheus.Histogram
	TrainsRendered   prometheus.Gauge
	LastSuccess      prometheus.Gauge
	AutoRefresh      prometheus.Gauge
	InFlightFetches  prometheus.Gauge
	CacheAgeSeconds  prometheus.Gauge
	RenderWriteTotal *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crossing_fetches_total",
				Help: "Train data fetches by outcome",
			},
			[]string{"outcome"},
		),
		FetchSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "crossing_fetch_seconds",
				Help:    "Time from request to decoded train payload",
				Buckets: prometheus.DefBuckets,
			},
		),
		TrainsRendered: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "crossing_trains_rendered",
			Help: "Rows on the current page after the last render",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "crossing_last_success_timestamp_seconds",
			Help: "Unix time of the last successful fetch",
		}),
		AutoRefresh: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "crossing_auto_refresh_enabled",
			Help: "1 while the auto-refresh timer is running",
		}),
		InFlightFetches: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "crossing_fetches_in_flight",
			Help: "Fetches issued but not yet completed",
		}),
		CacheAgeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "crossing_api_cache_age_seconds",
			Help: "Cache age reported by the train API on the last render",
		}),
		RenderWriteTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crossing_page_writes_total",
				Help: "Rendered page writes by result",
			},
			[]string{"result"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.FetchesTotal,
		m.FetchSeconds,
		m.TrainsRendered,
		m.LastSuccess,
		m.AutoRefresh,
		m.InFlightFetches,
		m.CacheAgeSeconds,
		m.RenderWriteTotal,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) FetchStarted() {
	if m == nil {
		return
	}
	m.InFlightFetches.Inc()
}

func (m *Metrics) FetchDone(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.InFlightFetches.Dec()
	m.FetchesTotal.WithLabelValues(outcome).Inc()
	m.FetchSeconds.Observe(took.Seconds())
	if outcome == OutcomeOK {
		m.LastSuccess.SetToCurrentTime()
	}
}

func (m *Metrics) Rendered(rows int, cacheAge *float64) {
	if m == nil {
		return
	}
	m.TrainsRendered.Set(float64(rows))
	if cacheAge != nil {
		m.CacheAgeSeconds.Set(*cacheAge)
	}
}

func (m *Metrics) SetAutoRefresh(on bool) {
	if m == nil {
		return
	}
	if on {
		m.AutoRefresh.Set(1)
	} else {
		m.AutoRefresh.Set(0)
	}
}

func (m *Metrics) PageWritten(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.RenderWriteTotal.WithLabelValues(result).Inc()
}
