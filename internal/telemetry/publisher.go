// v0
// internal/telemetry/publisher.go

// Package telemetry carries plant state off the device over MQTT and Kafka.
// Every transport is guarded by a circuit breaker and counted in metrics;
// failures are returned to the caller, which logs them and keeps measuring.
package telemetry

import (
	"context"
	"errors"
	"io"
	"log/slog"
)

// Publisher is a telemetry transport.
type Publisher interface {
	// Start connects the transport; Alive is announced once connected.
	Start(ctx context.Context) error
	Alive(ctx context.Context) error
	PublishSensor(ctx context.Context, msg SensorMessage) error
	PublishLevel(ctx context.Context, msg LevelMessage) error
	Close(ctx context.Context) error
}

// Fanout delivers every message to all of its transports. One failing
// transport does not keep the message from the others.
type Fanout struct {
	pubs []Publisher
	log  *slog.Logger
}

func NewFanout(log *slog.Logger, pubs ...Publisher) *Fanout {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	kept := make([]Publisher, 0, len(pubs))
	for _, p := range pubs {
		if p != nil {
			kept = append(kept, p)
		}
	}
	return &Fanout{pubs: kept, log: log.With(slog.String("component", "telemetry"))}
}

// Len reports the number of transports.
func (f *Fanout) Len() int { return len(f.pubs) }

func (f *Fanout) each(fn func(Publisher) error) error {
	var errs []error
	for _, p := range f.pubs {
		if err := fn(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) Start(ctx context.Context) error {
	err := f.each(func(p Publisher) error { return p.Start(ctx) })
	f.log.Info("telemetry_started", slog.Int("transports", len(f.pubs)), slog.Bool("degraded", err != nil))
	return err
}

func (f *Fanout) Alive(ctx context.Context) error {
	return f.each(func(p Publisher) error { return p.Alive(ctx) })
}

func (f *Fanout) PublishSensor(ctx context.Context, msg SensorMessage) error {
	return f.each(func(p Publisher) error { return p.PublishSensor(ctx, msg) })
}

func (f *Fanout) PublishLevel(ctx context.Context, msg LevelMessage) error {
	return f.each(func(p Publisher) error { return p.PublishLevel(ctx, msg) })
}

func (f *Fanout) Close(ctx context.Context) error {
	err := f.each(func(p Publisher) error { return p.Close(ctx) })
	f.log.Info("telemetry_closed")
	return err
}
