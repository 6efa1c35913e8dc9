package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

var histogramBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}

type metrics struct {
	requestTotal   *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	operations     *prometheus.CounterVec
	rateLimitHits  *prometheus.CounterVec
	checkoutItems  prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookshelf",
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "Count of processed HTTP requests",
		}, []string{"method", "route", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bookshelf",
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "Latency distribution of HTTP handlers",
			Buckets:   histogramBuckets,
		}, []string{"method", "route"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookshelf",
			Subsystem: "api",
			Name:      "operations_total",
			Help:      "API operations by outcome (ok or error kind)",
		}, []string{"operation", "result"}),
		rateLimitHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookshelf",
			Subsystem: "api",
			Name:      "rate_limit_hits_total",
			Help:      "Number of rate-limited responses",
		}, []string{"operation"}),
		checkoutItems: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bookshelf",
			Subsystem: "checkout",
			Name:      "items_total",
			Help:      "Cart rows moved into the purchase ledger",
		}),
	}
	reg.MustRegister(m.requestTotal, m.requestLatency, m.operations, m.rateLimitHits, m.checkoutItems)
	return m
}

// middleware records request count and latency labelled by route template.
func (m *metrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)

		route := req.URL.Path
		if cur := mux.CurrentRoute(req); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		m.requestTotal.WithLabelValues(req.Method, route, strconv.Itoa(rec.status)).Inc()
		m.requestLatency.WithLabelValues(req.Method, route).Observe(time.Since(start).Seconds())
	})
}

func (m *metrics) operation(op, result string) {
	m.operations.WithLabelValues(op, result).Inc()
}

func (m *metrics) rateLimited(op string) {
	m.rateLimitHits.WithLabelValues(op).Inc()
	m.operations.WithLabelValues(op, kindRateLimited).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}
