package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the room service.
type Metrics struct {
	registry               *prometheus.Registry
	requestsTotal          prometheus.Counter
	errorsTotal            prometheus.Counter
	roomsCreatedTotal      prometheus.Counter
	membersJoinedTotal     prometheus.Counter
	recordingsStartedTotal prometheus.Counter
	recordingsStoppedTotal prometheus.Counter
	upstreamErrorsTotal    prometheus.Counter
	activeRecordings       prometheus.Gauge
}

// New creates and registers Prometheus metrics for the room service.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rtc_requests_total",
		Help: "Total number of HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rtc_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	roomsCreatedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rtc_rooms_created_total",
		Help: "Total number of rooms created",
	})
	membersJoinedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rtc_members_joined_total",
		Help: "Total number of successful room joins",
	})
	recordingsStartedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rtc_recordings_started_total",
		Help: "Total number of cloud recordings started",
	})
	recordingsStoppedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rtc_recordings_stopped_total",
		Help: "Total number of cloud recordings stopped",
	})
	upstreamErrorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rtc_upstream_errors_total",
		Help: "Total number of failed calls to external gateways",
	})
	activeRecordings := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rtc_active_recordings",
		Help: "Number of recording sessions currently in progress",
	})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		roomsCreatedTotal,
		membersJoinedTotal,
		recordingsStartedTotal,
		recordingsStoppedTotal,
		upstreamErrorsTotal,
		activeRecordings,
	)

	return &Metrics{
		registry:               registry,
		requestsTotal:          requestsTotal,
		errorsTotal:            errorsTotal,
		roomsCreatedTotal:      roomsCreatedTotal,
		membersJoinedTotal:     membersJoinedTotal,
		recordingsStartedTotal: recordingsStartedTotal,
		recordingsStoppedTotal: recordingsStoppedTotal,
		upstreamErrorsTotal:    upstreamErrorsTotal,
		activeRecordings:       activeRecordings,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// IncRoomsCreated increments the rooms created counter.
func (m *Metrics) IncRoomsCreated() {
	m.roomsCreatedTotal.Inc()
}

// IncMembersJoined increments the members joined counter.
func (m *Metrics) IncMembersJoined() {
	m.membersJoinedTotal.Inc()
}

// IncRecordingsStarted increments the recordings started counter.
func (m *Metrics) IncRecordingsStarted() {
	m.recordingsStartedTotal.Inc()
}

// IncRecordingsStopped increments the recordings stopped counter.
func (m *Metrics) IncRecordingsStopped() {
	m.recordingsStoppedTotal.Inc()
}

// IncUpstreamErrors increments the upstream errors counter.
func (m *Metrics) IncUpstreamErrors() {
	m.upstreamErrorsTotal.Inc()
}

// SetActiveRecordings sets the active recordings gauge.
func (m *Metrics) SetActiveRecordings(n int) {
	m.activeRecordings.Set(float64(n))
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values (e.g.
// active recordings).
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
