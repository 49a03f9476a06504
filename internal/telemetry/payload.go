// v0
// internal/telemetry/payload.go
package telemetry

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/NicoGruemmert/PlantPal/internal/plant"
)

// Default topic names used by the companion app.
const (
	DefaultSensorTopic = "plantpal/sensor"
	DefaultStateTopic  = "plantpal/state"
	DefaultAliveTopic  = "plantpal/alive"
)

// Message kinds, used as metric labels and Kafka event types.
const (
	KindSensor = "sensor"
	KindLevel  = "level"
	KindAlive  = "alive"
)

// Topics groups the MQTT topic names.
type Topics struct {
	Sensor string
	State  string
	Alive  string
}

// DefaultTopics returns the plantpal/* topic set.
func DefaultTopics() Topics {
	return Topics{Sensor: DefaultSensorTopic, State: DefaultStateTopic, Alive: DefaultAliveTopic}
}

func (t Topics) withDefaults() Topics {
	d := DefaultTopics()
	if strings.TrimSpace(t.Sensor) == "" {
		t.Sensor = d.Sensor
	}
	if strings.TrimSpace(t.State) == "" {
		t.State = d.State
	}
	if strings.TrimSpace(t.Alive) == "" {
		t.Alive = d.Alive
	}
	return t
}

// SensorMessage is published every cycle: the raw reading plus the plant's
// mood, progression and recommendation code.
type SensorMessage struct {
	ID    uint8  `json:"id"`
	Light uint8  `json:"light"`
	TempC uint8  `json:"tempc"`
	Hum   uint8  `json:"hum"`
	SoilM uint8  `json:"soilm"`
	Mood  uint8  `json:"mood"`
	XP    uint16 `json:"xp"`
	Level uint16 `json:"level"`
	Rcmnd uint8  `json:"rcmnd"`
}

func NewSensorMessage(st plant.State) SensorMessage {
	return SensorMessage{
		ID:    st.PlantID,
		Light: st.Reading.LightIntensity,
		TempC: st.Reading.Temperature,
		Hum:   st.Reading.Humidity,
		SoilM: st.Reading.Moisture,
		Mood:  st.Mood,
		XP:    st.XP,
		Level: st.Level,
		Rcmnd: uint8(st.Recommendation),
	}
}

// LevelMessage is published on the state topic when a plant's level changes.
type LevelMessage struct {
	ID    uint8  `json:"id"`
	Level uint16 `json:"level"`
	XP    uint16 `json:"xp"`
	Items uint16 `json:"items"`
}

func NewLevelMessage(snap plant.Snapshot) LevelMessage {
	return LevelMessage{ID: snap.PlantID, Level: snap.Level, XP: snap.XP, Items: snap.UnlockedItems}
}

// Event is the Kafka envelope around a message.
type Event struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Device  string          `json:"device"`
	At      time.Time       `json:"at"`
	Payload json.RawMessage `json:"payload"`
}

func newEvent(kind, device string, payload any, now time.Time) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return Event{
		ID:      uuid.NewString(),
		Type:    "plantpal." + kind,
		Device:  device,
		At:      now.UTC(),
		Payload: raw,
	}, nil
}
