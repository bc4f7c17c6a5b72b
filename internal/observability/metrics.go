package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application: the HTTP request
// counters plus the domain counters the back office watches (invoices saved,
// payments recorded, reconciliation drift corrections).
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	invoicesSaved    prometheus.Counter
	paymentsRecorded prometheus.Counter
	reconCorrections prometheus.Counter
}

// NewMetrics initialises the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "farmgate_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "farmgate_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	invoices := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "farmgate_invoices_saved_total",
		Help: "Invoices persisted and charged to a customer ledger.",
	})
	payments := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "farmgate_payments_recorded_total",
		Help: "Payments recorded against customer ledgers.",
	})
	corrections := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "farmgate_ledger_corrections_total",
		Help: "Reconciliations that found and corrected ledger drift.",
	})
	registry.MustRegister(requests, duration, invoices, payments, corrections)
	return &Metrics{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:    requests,
		requestDuration:  duration,
		invoicesSaved:    invoices,
		paymentsRecorded: payments,
		reconCorrections: corrections,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Registerer exposes the registry for registering custom metrics.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

// InvoiceSaved increments the saved-invoice counter.
func (m *Metrics) InvoiceSaved() {
	if m != nil {
		m.invoicesSaved.Inc()
	}
}

// PaymentRecorded increments the recorded-payment counter.
func (m *Metrics) PaymentRecorded() {
	if m != nil {
		m.paymentsRecorded.Inc()
	}
}

// LedgerCorrected increments the reconciliation correction counter.
func (m *Metrics) LedgerCorrected() {
	if m != nil {
		m.reconCorrections.Inc()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
