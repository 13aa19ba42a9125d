package service

import (
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic and registration events.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	registrations   *prometheus.CounterVec
	agreements      *prometheus.CounterVec
	passports       *prometheus.CounterVec
	logins          *prometheus.CounterVec
	sessionStore    *prometheus.HistogramVec

	requestCount uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	registrations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "student_registrations_total",
		Help: "Student registrations by terms status",
	}, []string{"status"})

	agreements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rule_agreements_total",
		Help: "Rule agreement rows appended",
	}, []string{"agreed"})

	passports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "passport_uploads_total",
		Help: "Passport upload attempts by outcome",
	}, []string{"result"})

	logins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_logins_total",
		Help: "Admin login attempts by outcome",
	}, []string{"result"})

	sessionStore := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "session_store_duration_seconds",
		Help:    "Latency of session store operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, registrations, agreements, passports, logins, sessionStore, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		registrations:   registrations,
		agreements:      agreements,
		passports:       passports,
		logins:          logins,
		sessionStore:    sessionStore,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
}

// RequestCount returns the number of observed HTTP requests.
func (m *MetricsService) RequestCount() uint64 {
	if m == nil {
		return 0
	}
	return atomic.LoadUint64(&m.requestCount)
}

// RecordRegistration counts a created student by terms status.
func (m *MetricsService) RecordRegistration(termsAgreed bool) {
	if m == nil {
		return
	}
	status := "pending"
	if termsAgreed {
		status = "registered"
	}
	m.registrations.WithLabelValues(status).Inc()
}

// RecordAgreement counts an appended agreement row.
func (m *MetricsService) RecordAgreement(agreed bool) {
	if m == nil {
		return
	}
	m.agreements.WithLabelValues(strconv.FormatBool(agreed)).Inc()
}

// RecordPassportUpload counts an upload outcome such as "stored" or "too_large".
func (m *MetricsService) RecordPassportUpload(result string) {
	if m == nil {
		return
	}
	m.passports.WithLabelValues(result).Inc()
}

// RecordLogin counts a login outcome.
func (m *MetricsService) RecordLogin(success bool) {
	if m == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	m.logins.WithLabelValues(result).Inc()
}

// ObserveSessionStore records session store latency.
func (m *MetricsService) ObserveSessionStore(operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.sessionStore.WithLabelValues(operation).Observe(duration.Seconds())
}
