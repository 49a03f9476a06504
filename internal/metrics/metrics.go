// v0
// internal/metrics/metrics.go

// Package metrics exposes the plant loop's Prometheus instruments. Every
// method is safe on a nil *Metrics so components can run uninstrumented.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NicoGruemmert/PlantPal/internal/breaker"
	"github.com/NicoGruemmert/PlantPal/internal/plant"
)

type Metrics struct {
	registry *prometheus.Registry

	mood           *prometheus.GaugeVec
	xp             *prometheus.GaugeVec
	level          *prometheus.GaugeVec
	recommendation *prometheus.GaugeVec
	cycles         *prometheus.CounterVec
	levelUps       *prometheus.CounterVec
	publishTotal   *prometheus.CounterVec
	storeOps       *prometheus.CounterVec
	cbState        *prometheus.GaugeVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// New builds the instruments on a private registry, so several instances
// can coexist in one process.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		mood: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "plantpal_mood",
			Help: "Latest mood score (0-100) by plant.",
		}, []string{"plant"}),
		xp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "plantpal_xp",
			Help: "Accumulated experience points by plant.",
		}, []string{"plant"}),
		level: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "plantpal_level",
			Help: "Current level by plant.",
		}, []string{"plant"}),
		recommendation: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "plantpal_recommendation",
			Help: "Latest recommendation code by plant.",
		}, []string{"plant"}),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plantpal_cycles_total",
			Help: "Measurement cycles evaluated by plant.",
		}, []string{"plant"}),
		levelUps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plantpal_level_ups_total",
			Help: "Level-up events by plant.",
		}, []string{"plant"}),
		publishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plantpal_publish_total",
			Help: "Telemetry publish attempts by transport, kind and result.",
		}, []string{"transport", "kind", "result"}),
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plantpal_store_ops_total",
			Help: "Snapshot store operations by op and result.",
		}, []string{"op", "result"}),
		cbState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "plantpal_cb_state",
			Help: "Circuit breaker state gauge (0 closed, 1 open, 2 half open).",
		}, []string{"target"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "plantpal_http_requests_total",
			Help: "Status API requests by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "plantpal_http_request_duration_seconds",
			Help:    "Status API request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.mood,
		m.xp,
		m.level,
		m.recommendation,
		m.cycles,
		m.levelUps,
		m.publishTotal,
		m.storeOps,
		m.cbState,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

func plantLabel(id uint8) string { return strconv.Itoa(int(id)) }

// ObserveState records one evaluated cycle.
func (m *Metrics) ObserveState(st plant.State) {
	if m == nil {
		return
	}
	label := plantLabel(st.PlantID)
	m.mood.WithLabelValues(label).Set(float64(st.Mood))
	m.xp.WithLabelValues(label).Set(float64(st.XP))
	m.level.WithLabelValues(label).Set(float64(st.Level))
	m.recommendation.WithLabelValues(label).Set(float64(st.Recommendation))
	m.cycles.WithLabelValues(label).Inc()
}

func (m *Metrics) LevelUp(id uint8) {
	if m == nil {
		return
	}
	m.levelUps.WithLabelValues(plantLabel(id)).Inc()
}

// Publish counts a telemetry attempt; kind is "sensor", "level" or "alive".
func (m *Metrics) Publish(transport, kind string, err error) {
	if m == nil {
		return
	}
	m.publishTotal.WithLabelValues(transport, kind, result(err)).Inc()
}

// StoreOp counts a snapshot save or load.
func (m *Metrics) StoreOp(op string, err error) {
	if m == nil {
		return
	}
	m.storeOps.WithLabelValues(op, result(err)).Inc()
}

func (m *Metrics) BreakerState(target string, s breaker.State) {
	if m == nil {
		return
	}
	m.cbState.WithLabelValues(target).Set(float64(s))
}

func result(err error) string {
	if err != nil {
		return "fail"
	}
	return "ok"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler counts and times requests served by next under route.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		if m != nil {
			m.httpRequests.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
