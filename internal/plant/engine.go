// v0
// internal/plant/engine.go
package plant

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Engine evaluates measurement cycles for one plant and owns its
// progression. An Engine is not safe for concurrent use: the host loop must
// serialise calls to Evaluate, Reconfigure and Save.
type Engine struct {
	id      uint8
	profile Profile
	tracker *Tracker
	slots   Slots
	period  int
	log     *slog.Logger

	// fallback is the load error that made Restore start fresh.
	fallback error
}

// Option customises an Engine at construction.
type Option func(*Engine)

// WithAwardPeriod sets the number of cycles between XP awards.
func WithAwardPeriod(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.period = n
		}
	}
}

// WithMaxPlants sets the size of the slot domain.
func WithMaxPlants(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.slots.Max = n
		}
	}
}

// WithLogger attaches a structured logger. Engines log nothing by default.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func newEngine(opts []Option) *Engine {
	e := &Engine{
		period: DefaultAwardPeriod,
		slots:  Slots{Max: DefaultMaxPlants},
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// New builds a plant with zero progress in slot id.
func New(id int, profile Profile, opts ...Option) (*Engine, error) {
	snap := Snapshot{Profile: profile, Level: 1}
	e := newEngine(opts)
	if err := e.slots.Check(id); err != nil {
		return nil, err
	}
	snap.PlantID = uint8(id)
	return e.init(snap)
}

// FromSnapshot resumes a plant from a previously produced snapshot.
func FromSnapshot(snap Snapshot, opts ...Option) (*Engine, error) {
	e := newEngine(opts)
	if err := e.slots.Check(int(snap.PlantID)); err != nil {
		return nil, err
	}
	return e.init(snap)
}

// Restore loads the plant persisted in slot. A missing or corrupt record, or
// an unavailable store, degrades to a fresh plant built from fallback and
// restored is false; the cause is logged. Invalid slots and an invalid
// fallback profile are returned as errors.
func Restore(ctx context.Context, store SlotStore, slot int, fallback Profile, opts ...Option) (*Engine, bool, error) {
	probe := newEngine(opts)
	snap, err := probe.slots.LoadSnapshot(ctx, store, slot)
	if err == nil {
		snap.PlantID = uint8(slot)
		e, initErr := FromSnapshot(snap, opts...)
		if initErr == nil {
			e.log.Info("plant_restored", slog.Int("slot", slot), slog.Int("xp", int(snap.XP)), slog.Int("level", int(snap.Level)))
			return e, true, nil
		}
		err = fmt.Errorf("%w: %v", ErrCorruptSnapshot, initErr)
	}
	if !IsFallback(err) {
		return nil, false, err
	}
	probe.log.Warn("plant_restore_fallback", slog.Int("slot", slot), slog.Any("err", err))
	e, newErr := New(slot, fallback, opts...)
	if newErr != nil {
		return nil, false, newErr
	}
	e.fallback = err
	return e, false, nil
}

func (e *Engine) init(snap Snapshot) (*Engine, error) {
	if err := snap.Profile.Validate(); err != nil {
		return nil, fmt.Errorf("profile %q: %w", snap.Profile.Name, err)
	}
	e.id = snap.PlantID
	e.profile = snap.Profile
	e.tracker = NewTracker(snap, e.period)
	e.log = e.log.With(slog.Int("plant", int(e.id)))
	return e, nil
}

// Evaluate runs one measurement cycle. The returned snapshot is non-nil only
// on the cycle that raised the level watermark.
func (e *Engine) Evaluate(r Reading) (State, *Snapshot) {
	mood := Score(r, e.profile)
	rec := Recommend(r, e.profile, mood)
	awarded, snap := e.tracker.Step(mood)

	progress := e.tracker.Snapshot()
	st := State{
		PlantID:        e.id,
		Mood:           mood,
		XP:             progress.XP,
		Level:          progress.Level,
		Recommendation: rec,
		Reading:        r,
	}
	if e.tracker.Cycle() == 0 {
		e.log.Debug("plant_xp_award", slog.Int("awarded", int(awarded)), slog.Int("xp", int(progress.XP)))
	}
	if snap != nil {
		e.log.Info("plant_level_up", slog.Int("level", int(snap.Level)), slog.Int("xp", int(snap.XP)))
	}
	return st, snap
}

// Save persists the current progression into the plant's slot.
func (e *Engine) Save(ctx context.Context, store SlotStore) error {
	return e.slots.SaveSnapshot(ctx, store, int(e.id), e.tracker.Snapshot())
}

// Reconfigure swaps the calibration profile and keeps the progression.
func (e *Engine) Reconfigure(p Profile) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("profile %q: %w", p.Name, err)
	}
	e.profile = p
	e.tracker.setProfile(p)
	return nil
}

// Snapshot returns the current persisted projection.
func (e *Engine) Snapshot() Snapshot { return e.tracker.Snapshot() }

// ID returns the plant identifier, which is also its store slot.
func (e *Engine) ID() uint8 { return e.id }

// Profile returns the active calibration.
func (e *Engine) Profile() Profile { return e.profile }

// FallbackCause returns the load error that made Restore start from a fresh
// plant, or nil.
func (e *Engine) FallbackCause() error { return e.fallback }

// Tracker exposes the progression counters for inspection.
func (e *Engine) Tracker() *Tracker { return e.tracker }
