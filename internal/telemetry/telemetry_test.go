// v0
// internal/telemetry/telemetry_test.go
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NicoGruemmert/PlantPal/internal/breaker"
	"github.com/NicoGruemmert/PlantPal/internal/metrics"
	"github.com/NicoGruemmert/PlantPal/internal/plant"
)

type fakeToken struct {
	err  error
	done chan struct{}
}

func doneToken(err error) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { <-t.done; return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeMQTT struct {
	mu        sync.Mutex
	msgs      []published
	publishTo func() mqtt.Token
	connected bool
}

func (f *fakeMQTT) Connect() mqtt.Token {
	f.connected = true
	return doneToken(nil)
}

func (f *fakeMQTT) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishTo != nil {
		return f.publishTo()
	}
	f.msgs = append(f.msgs, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return doneToken(nil)
}

func (f *fakeMQTT) Disconnect(uint)   { f.connected = false }
func (f *fakeMQTT) IsConnected() bool { return f.connected }

func sampleState() plant.State {
	return plant.State{
		PlantID:        3,
		Mood:           70,
		XP:             12,
		Level:          4,
		Recommendation: plant.TooCold,
		Reading:        plant.Reading{Temperature: 14, Humidity: 55, Moisture: 40, LightIntensity: 61},
	}
}

func TestSensorMessageWireKeys(t *testing.T) {
	raw, err := json.Marshal(NewSensorMessage(sampleState()))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":3,"light":61,"tempc":14,"hum":55,"soilm":40,"mood":70,"xp":12,"level":4,"rcmnd":3}`, string(raw))

	snap := plant.Snapshot{PlantID: 1, XP: 9, Level: 3, UnlockedItems: uint16(plant.UnlockSunglasses)}
	raw, err = json.Marshal(NewLevelMessage(snap))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"level":3,"xp":9,"items":1}`, string(raw))
}

func TestMQTTPublishesToTopics(t *testing.T) {
	client := &fakeMQTT{}
	m := metrics.New()
	p := newMQTT(MQTTConfig{Device: "Kitchen Basil", QoS: 1}, client, breaker.New("mqtt", breaker.DefaultConfig(), nil), m, nil)
	ctx := context.Background()

	require.NoError(t, p.Start(ctx))
	require.NoError(t, p.Alive(ctx))
	require.NoError(t, p.PublishSensor(ctx, NewSensorMessage(sampleState())))
	require.NoError(t, p.PublishLevel(ctx, LevelMessage{ID: 3, Level: 4}))

	require.Len(t, client.msgs, 3)
	assert.Equal(t, DefaultAliveTopic, client.msgs[0].topic)
	assert.Equal(t, "Kitchen Basil", string(client.msgs[0].payload))
	assert.Equal(t, DefaultSensorTopic, client.msgs[1].topic)
	assert.Equal(t, DefaultStateTopic, client.msgs[2].topic)
	assert.Equal(t, byte(1), client.msgs[2].qos)

	require.NoError(t, p.Close(ctx))
	assert.False(t, client.connected)
}

func TestMQTTBreakerOpensOnFailures(t *testing.T) {
	boom := errors.New("not connected")
	client := &fakeMQTT{publishTo: func() mqtt.Token { return doneToken(boom) }}
	brk := breaker.New("mqtt", breaker.Config{Enabled: true, MaxFailures: 2, ResetTimeout: time.Hour}, nil)
	p := newMQTT(MQTTConfig{}, client, brk, nil, nil)
	ctx := context.Background()

	require.ErrorIs(t, p.PublishSensor(ctx, SensorMessage{}), boom)
	require.ErrorIs(t, p.PublishSensor(ctx, SensorMessage{}), boom)
	require.ErrorIs(t, p.PublishSensor(ctx, SensorMessage{}), breaker.ErrOpen)
}

func TestMQTTPublishTimesOut(t *testing.T) {
	pending := &fakeToken{done: make(chan struct{})}
	client := &fakeMQTT{publishTo: func() mqtt.Token { return pending }}
	p := newMQTT(MQTTConfig{Timeout: 10 * time.Millisecond}, client, nil, nil, nil)

	err := p.Alive(context.Background())
	require.ErrorIs(t, err, errMQTTTimeout)
}

type recordingWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func (w *recordingWriter) snapshot() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.msgs...)
}

func TestKafkaDeliversKeyedEvents(t *testing.T) {
	w := &recordingWriter{}
	m := metrics.New()
	k := newKafka(KafkaConfig{Topic: "plantpal.events", Device: "pal-1"}, w, w, nil, m, nil)
	ctx := context.Background()

	require.ErrorIs(t, k.PublishSensor(ctx, SensorMessage{}), errKafkaNotStarted)

	require.NoError(t, k.Start(ctx))
	require.NoError(t, k.PublishSensor(ctx, NewSensorMessage(sampleState())))
	require.NoError(t, k.PublishLevel(ctx, LevelMessage{ID: 3, Level: 4, XP: 12}))
	require.NoError(t, k.Close(ctx))
	assert.True(t, w.closed)

	msgs := w.snapshot()
	require.Len(t, msgs, 3)
	assert.Equal(t, "pal-1", string(msgs[0].Key))
	assert.Equal(t, "3", string(msgs[1].Key))
	assert.Equal(t, "3", string(msgs[2].Key))

	var ev Event
	require.NoError(t, json.Unmarshal(msgs[2].Value, &ev))
	assert.Equal(t, "plantpal.level", ev.Type)
	assert.Equal(t, "pal-1", ev.Device)
	assert.NotEmpty(t, ev.ID)
	assert.JSONEq(t, `{"id":3,"level":4,"xp":12,"items":0}`, string(ev.Payload))

	// sensor/fail from the early call plus alive, sensor and level ok
	series, err := testutil.GatherAndCount(m.Registry(), "plantpal_publish_total")
	require.NoError(t, err)
	assert.Equal(t, 4, series)
}

func TestKafkaWriteFailuresAreCounted(t *testing.T) {
	w := &recordingWriter{err: errors.New("leader not available")}
	m := metrics.New()
	k := newKafka(KafkaConfig{Topic: "t"}, w, w, nil, m, nil)
	ctx := context.Background()

	require.NoError(t, k.Start(ctx))
	require.NoError(t, k.PublishSensor(ctx, SensorMessage{ID: 1}))
	require.NoError(t, k.Close(ctx))
	assert.Empty(t, w.snapshot())

	// alive and sensor, both failed
	series, err := testutil.GatherAndCount(m.Registry(), "plantpal_publish_total")
	require.NoError(t, err)
	assert.Equal(t, 2, series)
}

type stubPublisher struct {
	err     error
	sensors int
	levels  int
	alive   int
	started bool
	closed  bool
}

func (s *stubPublisher) Start(context.Context) error { s.started = true; return s.err }
func (s *stubPublisher) Alive(context.Context) error { s.alive++; return s.err }
func (s *stubPublisher) PublishSensor(context.Context, SensorMessage) error {
	s.sensors++
	return s.err
}
func (s *stubPublisher) PublishLevel(context.Context, LevelMessage) error {
	s.levels++
	return s.err
}
func (s *stubPublisher) Close(context.Context) error { s.closed = true; return nil }

func TestFanoutReachesEveryTransport(t *testing.T) {
	boom := errors.New("broker down")
	bad := &stubPublisher{err: boom}
	good := &stubPublisher{}
	f := NewFanout(nil, bad, nil, good)
	ctx := context.Background()

	assert.Equal(t, 2, f.Len())
	require.ErrorIs(t, f.Start(ctx), boom)
	require.ErrorIs(t, f.PublishSensor(ctx, SensorMessage{}), boom)
	require.NoError(t, NewFanout(nil, good).PublishLevel(ctx, LevelMessage{}))
	require.ErrorIs(t, f.Alive(ctx), boom)
	require.NoError(t, f.Close(ctx))

	assert.Equal(t, 1, bad.sensors)
	assert.Equal(t, 1, good.sensors)
	assert.Equal(t, 1, good.levels)
	assert.Equal(t, 1, good.alive)
	assert.True(t, good.started && good.closed && bad.closed)

	require.NoError(t, NewFanout(nil).PublishSensor(ctx, SensorMessage{}))
}
