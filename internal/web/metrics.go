package web

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics lives on a private registry so several servers (tests, the
// snapshot command) never collide on the global one.
type metrics struct {
	registry *prometheus.Registry

	layoutPasses prometheus.Counter
	layoutErrors prometheus.Counter
	mutations    *prometheus.CounterVec
	requests     *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		layoutPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monthcal_layout_passes_total",
			Help: "Number of times the event collection was grouped and lane-assigned.",
		}),
		layoutErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "monthcal_layout_errors_total",
			Help: "Layout passes that failed on a malformed event time.",
		}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "monthcal_event_mutations_total",
			Help: "Event edits by operation.",
		}, []string{"op"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "monthcal_http_requests_total",
			Help: "HTTP requests by route pattern and status code.",
		}, []string{"route", "code"}),
	}
	m.registry.MustRegister(m.layoutPasses, m.layoutErrors, m.mutations, m.requests)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// instrument counts every response of h under route.
func (m *metrics) instrument(route string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		m.requests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
