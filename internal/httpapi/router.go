// v0
// internal/httpapi/router.go

// Package httpapi serves the local status API: health, per-plant state and
// Prometheus metrics.
package httpapi

import (
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/NicoGruemmert/PlantPal/internal/metrics"
	"github.com/NicoGruemmert/PlantPal/internal/plant"
)

// PlantStatus is the latest known state of one monitored plant.
type PlantStatus struct {
	Slot           int            `json:"slot"`
	Name           string         `json:"name"`
	Profile        plant.Profile  `json:"profile"`
	State          plant.State    `json:"state"`
	Recommendation string         `json:"recommendation"`
	Snapshot       plant.Snapshot `json:"snapshot"`
	Cycle          int            `json:"cycle"`
	History        []uint8        `json:"history"`
	Restored       bool           `json:"restored"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// Provider exposes the plants to the API.
type Provider interface {
	Plants() []PlantStatus
	Plant(slot int) (PlantStatus, bool)
	Reconfigure(slot int, p plant.Profile) error
}

// Health tracks readiness for the /health probe.
type Health struct {
	ready atomic.Bool
}

func (h *Health) SetReady(v bool) { h.ready.Store(v) }
func (h *Health) Ready() bool     { return h.ready.Load() }

// NewRouter wires the routes. accessLog receives one combined-log line per
// request; nil disables access logging.
func NewRouter(p Provider, health *Health, m *metrics.Metrics, logger *slog.Logger, accessLog io.Writer) http.Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	h := &handler{provider: p, health: health, log: logger.With(slog.String("component", "http_api"))}

	r := mux.NewRouter()
	r.Handle("/health", m.WrapHandler("/health", http.HandlerFunc(h.healthHandler))).Methods(http.MethodGet)
	r.Handle("/plants", m.WrapHandler("/plants", http.HandlerFunc(h.listPlants))).Methods(http.MethodGet)
	r.Handle("/plants/{slot:[0-9]+}", m.WrapHandler("/plants/{slot}", http.HandlerFunc(h.getPlant))).Methods(http.MethodGet)
	r.Handle("/plants/{slot:[0-9]+}/profile", m.WrapHandler("/plants/{slot}/profile", http.HandlerFunc(h.putProfile))).Methods(http.MethodPut)
	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)

	var out http.Handler = r
	out = handlers.RecoveryHandler(
		handlers.RecoveryLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError)),
		handlers.PrintRecoveryStack(false),
	)(out)
	if accessLog != nil {
		out = handlers.CombinedLoggingHandler(accessLog, out)
	}
	return out
}
