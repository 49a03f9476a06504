// v0
// internal/breaker/breaker.go

// Package breaker guards outbound telemetry with a circuit breaker so a
// dead broker fast-fails instead of stalling the measurement loop.
package breaker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
)

type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

var ErrOpen = errors.New("circuit breaker is open; fast-fail")

// Config holds the breaker tunables.
type Config struct {
	Enabled          bool          // when false Execute runs op directly
	MaxFailures      int           // consecutive failures before opening
	ResetTimeout     time.Duration // how long to stay open before probing again
	SuccessesToClose int           // successes required in HalfOpen before closing
}

// DefaultConfig mirrors the defaults of the properties loader.
func DefaultConfig() Config {
	return Config{Enabled: true, MaxFailures: 5, ResetTimeout: 30 * time.Second, SuccessesToClose: 1}
}

func (c Config) normalized() Config {
	if c.MaxFailures < 1 {
		c.MaxFailures = 1
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = 30 * time.Second
	}
	if c.SuccessesToClose < 1 {
		c.SuccessesToClose = 1
	}
	return c
}

type Breaker struct {
	name   string
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	mu          sync.Mutex
	state       State
	recentFails int
	halfOpenOK  int
	openedAt    time.Time
}

func New(name string, cfg Config, logger *slog.Logger) *Breaker {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	b := &Breaker{
		name:   name,
		cfg:    cfg.normalized(),
		logger: logger.With(slog.String("breaker", name)),
		now:    time.Now,
		state:  Closed,
	}
	b.logger.Info("breaker_created",
		slog.Bool("enabled", b.cfg.Enabled),
		slog.Int("maxFailures", b.cfg.MaxFailures),
		slog.String("resetTimeout", b.cfg.ResetTimeout.String()),
	)
	return b
}

// Execute runs op unless the breaker is open. After ResetTimeout an open
// breaker lets calls through in HalfOpen; SuccessesToClose successes close
// it again and any failure reopens it.
func (b *Breaker) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	if b == nil || !b.cfg.Enabled {
		return op(ctx)
	}
	b.mu.Lock()
	if b.state == Open {
		since := b.now().Sub(b.openedAt)
		if since < b.cfg.ResetTimeout {
			b.mu.Unlock()
			b.logger.Debug("breaker_fast_fail", slog.String("since_open", since.String()))
			return ErrOpen
		}
		b.state = HalfOpen
		b.halfOpenOK = 0
		b.logger.Info("breaker_half_open", slog.Int("previous_failures", b.recentFails))
	}
	b.mu.Unlock()

	if err := op(ctx); err != nil {
		b.onFailure(err)
		return err
	}
	b.onSuccess()
	return nil
}

func (b *Breaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == HalfOpen {
		b.halfOpenOK++
		if b.halfOpenOK < b.cfg.SuccessesToClose {
			return
		}
		b.logger.Info("breaker_state_to_closed", slog.String("from", b.state.String()))
	}
	b.state = Closed
	b.recentFails = 0
}

func (b *Breaker) onFailure(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recentFails++
	b.logger.Warn("operation_failure", slog.Int("failures", b.recentFails), slog.String("error", err.Error()))
	if b.state == HalfOpen || b.recentFails >= b.cfg.MaxFailures {
		b.state = Open
		b.openedAt = b.now()
		b.logger.Error("breaker_opened", slog.Int("maxFailures", b.cfg.MaxFailures))
	}
}

func (b *Breaker) State() State {
	if b == nil {
		return Closed
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Name returns the label the breaker was created with.
func (b *Breaker) Name() string { return b.name }
