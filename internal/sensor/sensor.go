// v0
// internal/sensor/sensor.go

// Package sensor provides the reading sources sampled once per measurement
// cycle.
package sensor

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"sync"

	"github.com/NicoGruemmert/PlantPal/internal/plant"
)

// ErrExhausted is returned by a non-looping script once every reading was served.
var ErrExhausted = errors.New("sensor script exhausted")

// Source produces one reading per call.
type Source interface {
	Read(ctx context.Context) (plant.Reading, error)
}

// Simulated reproduces the dummy sensor of boards without hardware attached:
// moisture 50±25, temperature 20±10, humidity 50±25, light 50±25.
type Simulated struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulated seeds the generator so runs are reproducible.
func NewSimulated(seed uint64) *Simulated {
	return &Simulated{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// around returns center plus an offset in [-spread, spread).
func (s *Simulated) around(center, spread int) uint8 {
	return uint8(center + s.rng.IntN(2*spread) - spread)
}

func (s *Simulated) Read(ctx context.Context) (plant.Reading, error) {
	if err := ctx.Err(); err != nil {
		return plant.Reading{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return plant.Reading{
		Moisture:       s.around(50, 25),
		Temperature:    s.around(20, 10),
		Humidity:       s.around(50, 25),
		LightIntensity: s.around(50, 25),
	}, nil
}

// Scripted replays a fixed sequence of readings.
type Scripted struct {
	mu       sync.Mutex
	readings []plant.Reading
	next     int
	loop     bool
}

// NewScripted serves readings in order; with loop it starts over at the end.
func NewScripted(readings []plant.Reading, loop bool) *Scripted {
	return &Scripted{readings: append([]plant.Reading(nil), readings...), loop: loop}
}

func (s *Scripted) Read(ctx context.Context) (plant.Reading, error) {
	if err := ctx.Err(); err != nil {
		return plant.Reading{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.readings) == 0 {
		return plant.Reading{}, ErrExhausted
	}
	if s.next >= len(s.readings) {
		if !s.loop {
			return plant.Reading{}, ErrExhausted
		}
		s.next = 0
	}
	r := s.readings[s.next]
	s.next++
	return r, nil
}

// LoadScript parses JSON lines of readings, one object per line, using the
// reading's field names. Blank lines are ignored.
func LoadScript(r io.Reader) ([]plant.Reading, error) {
	var out []plant.Reading
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		var rd plant.Reading
		if err := json.Unmarshal(raw, &rd); err != nil {
			return nil, fmt.Errorf("script line %d: %w", line, err)
		}
		out = append(out, rd)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
