// v0
// internal/app/monitor.go
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/NicoGruemmert/PlantPal/internal/httpapi"
	"github.com/NicoGruemmert/PlantPal/internal/metrics"
	"github.com/NicoGruemmert/PlantPal/internal/plant"
	"github.com/NicoGruemmert/PlantPal/internal/telemetry"
)

// Monitor drives one plant: every reading is evaluated, published and, when
// the level rises, persisted. The engine is guarded so the status API can
// read and reconfigure it while the measurement loop runs.
type Monitor struct {
	slot      int
	store     plant.SlotStore
	publisher telemetry.Publisher
	metrics   *metrics.Metrics
	log       *slog.Logger
	now       func() time.Time

	mu        sync.RWMutex
	engine    *plant.Engine
	restored  bool
	lastLevel uint16
	last      plant.State
	updatedAt time.Time

	// stale holds back Persist while the store has never confirmed a write
	// after an unavailable restore.
	stale bool
}

func newMonitor(ctx context.Context, slot int, profile plant.Profile, store plant.SlotStore, pub telemetry.Publisher, m *metrics.Metrics, log *slog.Logger, opts ...plant.Option) (*Monitor, error) {
	log = log.With(slog.Int("slot", slot))
	opts = append(opts, plant.WithLogger(log))
	engine, restored, err := plant.Restore(ctx, store, slot, profile, opts...)
	m.StoreOp("load", err)
	if err != nil {
		return nil, fmt.Errorf("restore slot %d: %w", slot, err)
	}
	return &Monitor{
		slot:      slot,
		store:     store,
		publisher: pub,
		metrics:   m,
		log:       log,
		now:       time.Now,
		engine:    engine,
		restored:  restored,
		stale:     errors.Is(engine.FallbackCause(), plant.ErrStoreUnavailable),
	}, nil
}

// Observe runs one measurement cycle for r. Telemetry and store failures are
// logged and counted but never stop the loop.
func (mo *Monitor) Observe(ctx context.Context, r plant.Reading) plant.State {
	mo.mu.Lock()
	st, snap := mo.engine.Evaluate(r)
	progress := mo.engine.Snapshot()
	levelChanged := st.Level != mo.lastLevel
	mo.lastLevel = st.Level
	mo.last = st
	mo.updatedAt = mo.now().UTC()
	var saveErr error
	if snap != nil {
		if saveErr = mo.engine.Save(ctx, mo.store); saveErr == nil {
			mo.stale = false
		}
	}
	mo.mu.Unlock()

	mo.metrics.ObserveState(st)
	mo.log.Info("plant_cycle",
		slog.Int("mood", int(st.Mood)),
		slog.Int("xp", int(st.XP)),
		slog.Int("level", int(st.Level)),
		slog.String("recommendation", st.Recommendation.String()),
	)

	if err := mo.publisher.PublishSensor(ctx, telemetry.NewSensorMessage(st)); err != nil {
		mo.log.Warn("sensor_publish_err", slog.Any("err", err))
	}

	if snap != nil {
		mo.metrics.LevelUp(st.PlantID)
		mo.metrics.StoreOp("save", saveErr)
		if saveErr != nil {
			mo.log.Error("snapshot_save_err", slog.Any("err", saveErr))
		} else {
			mo.log.Info("snapshot_saved", slog.Int("level", int(snap.Level)), slog.Int("xp", int(snap.XP)))
		}
	}
	// The state topic carries the first cycle after start and every level change.
	if levelChanged {
		if err := mo.publisher.PublishLevel(ctx, telemetry.NewLevelMessage(progress)); err != nil {
			mo.log.Warn("level_publish_err", slog.Any("err", err))
		}
	}
	return st
}

// Persist writes the current progression to the store. A plant that started
// fresh because the store was unavailable is not persisted until a later
// save succeeds, so its empty progress cannot replace a record the store
// still holds.
func (mo *Monitor) Persist(ctx context.Context) error {
	mo.mu.RLock()
	if mo.stale {
		mo.mu.RUnlock()
		mo.log.Warn("snapshot_persist_skipped", slog.Any("cause", mo.engine.FallbackCause()))
		return nil
	}
	err := mo.engine.Save(ctx, mo.store)
	mo.mu.RUnlock()
	mo.metrics.StoreOp("save", err)
	return err
}

// Reconfigure swaps the profile and persists it together with the progression.
func (mo *Monitor) Reconfigure(ctx context.Context, p plant.Profile) error {
	mo.mu.Lock()
	if err := mo.engine.Reconfigure(p); err != nil {
		mo.mu.Unlock()
		return err
	}
	err := mo.engine.Save(ctx, mo.store)
	if err == nil {
		mo.stale = false
	}
	mo.mu.Unlock()
	mo.metrics.StoreOp("save", err)
	if err != nil {
		return fmt.Errorf("persist profile: %w", err)
	}
	mo.log.Info("plant_reconfigured", slog.String("name", p.Name))
	return nil
}

// Status reports the latest state for the status API.
func (mo *Monitor) Status() httpapi.PlantStatus {
	mo.mu.RLock()
	defer mo.mu.RUnlock()
	profile := mo.engine.Profile()
	tracker := mo.engine.Tracker()
	return httpapi.PlantStatus{
		Slot:           mo.slot,
		Name:           profile.Name,
		Profile:        profile,
		State:          mo.last,
		Recommendation: mo.last.Recommendation.String(),
		Snapshot:       mo.engine.Snapshot(),
		Cycle:          tracker.Cycle(),
		History:        tracker.History().Values(),
		Restored:       mo.restored,
		UpdatedAt:      mo.updatedAt,
	}
}
