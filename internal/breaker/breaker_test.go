// v0
// internal/breaker/breaker_test.go
package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestBreaker(cfg Config) (*Breaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 7, 14, 12, 0, 0, 0, time.UTC)}
	b := New("test", cfg, nil)
	b.now = clock.now
	return b, clock
}

func TestBreakerOpensAfterMaxFailures(t *testing.T) {
	b, clock := newTestBreaker(Config{Enabled: true, MaxFailures: 2, ResetTimeout: time.Minute, SuccessesToClose: 2})
	boom := errors.New("broker down")
	failing := func(context.Context) error { return boom }
	calls := 0
	ok := func(context.Context) error { calls++; return nil }
	ctx := context.Background()

	require.ErrorIs(t, b.Execute(ctx, failing), boom)
	assert.Equal(t, Closed, b.State())
	require.ErrorIs(t, b.Execute(ctx, failing), boom)
	assert.Equal(t, Open, b.State())

	require.ErrorIs(t, b.Execute(ctx, ok), ErrOpen)
	assert.Zero(t, calls)

	clock.t = clock.t.Add(time.Minute)
	require.NoError(t, b.Execute(ctx, ok))
	assert.Equal(t, HalfOpen, b.State())
	require.NoError(t, b.Execute(ctx, ok))
	assert.Equal(t, Closed, b.State())
	assert.Equal(t, 2, calls)
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b, clock := newTestBreaker(Config{Enabled: true, MaxFailures: 1, ResetTimeout: time.Second})
	ctx := context.Background()
	boom := errors.New("nope")

	require.Error(t, b.Execute(ctx, func(context.Context) error { return boom }))
	assert.Equal(t, Open, b.State())

	clock.t = clock.t.Add(2 * time.Second)
	require.ErrorIs(t, b.Execute(ctx, func(context.Context) error { return boom }), boom)
	assert.Equal(t, Open, b.State())
	require.ErrorIs(t, b.Execute(ctx, func(context.Context) error { return nil }), ErrOpen)
}

func TestDisabledBreakerPassesThrough(t *testing.T) {
	b := New("off", Config{Enabled: false, MaxFailures: 1}, nil)
	boom := errors.New("x")
	for i := 0; i < 5; i++ {
		require.ErrorIs(t, b.Execute(context.Background(), func(context.Context) error { return boom }), boom)
	}
	assert.Equal(t, Closed, b.State())

	var nilBreaker *Breaker
	require.NoError(t, nilBreaker.Execute(context.Background(), func(context.Context) error { return nil }))
	assert.Equal(t, "half_open", HalfOpen.String())
}
