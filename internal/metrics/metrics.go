package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Scan metrics
	scansTotal        *prometheus.CounterVec
	scanDuration      prometheus.Histogram
	chunkFetches      *prometheus.CounterVec
	observationsTotal prometheus.Counter
	tradesFound       prometheus.Counter
	catalogItems      prometheus.Gauge
	jobsActive        prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Scan metrics
	r.scansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "albionflip_scans_total",
			Help: "Total number of scans by outcome",
		},
		[]string{"status"},
	)
	r.scanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "albionflip_scan_duration_seconds",
			Help:    "Scan duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)
	r.chunkFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "albionflip_price_chunks_total",
			Help: "Total number of price chunk requests by outcome",
		},
		[]string{"status"},
	)
	r.observationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "albionflip_observations_total",
			Help: "Total number of price observations received",
		},
	)
	r.tradesFound = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "albionflip_trades_found_total",
			Help: "Total number of profitable trades reported",
		},
	)
	r.catalogItems = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "albionflip_catalog_items",
			Help: "Number of tradeable items in the last scan",
		},
	)
	r.jobsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "albionflip_jobs_active",
			Help: "Number of scan jobs currently running",
		},
	)

	reg.MustRegister(r.scansTotal)
	reg.MustRegister(r.scanDuration)
	reg.MustRegister(r.chunkFetches)
	reg.MustRegister(r.observationsTotal)
	reg.MustRegister(r.tradesFound)
	reg.MustRegister(r.catalogItems)
	reg.MustRegister(r.jobsActive)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordScan records a finished scan.
func (r *Registry) RecordScan(status string, duration float64) {
	r.scansTotal.WithLabelValues(status).Inc()
	r.scanDuration.Observe(duration)
}

// RecordChunk records one price chunk request.
func (r *Registry) RecordChunk(status string, observations int) {
	r.chunkFetches.WithLabelValues(status).Inc()
	r.observationsTotal.Add(float64(observations))
}

// RecordTrades adds reported trades.
func (r *Registry) RecordTrades(n int) {
	r.tradesFound.Add(float64(n))
}

// SetCatalogSize sets the number of tradeable items.
func (r *Registry) SetCatalogSize(n int) {
	r.catalogItems.Set(float64(n))
}

// SetJobsActive sets the number of running scan jobs.
func (r *Registry) SetJobsActive(count int) {
	r.jobsActive.Set(float64(count))
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
