// v0
// internal/telemetry/kafka.go
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/NicoGruemmert/PlantPal/internal/breaker"
	"github.com/NicoGruemmert/PlantPal/internal/metrics"
)

const (
	transportKafka = "kafka"
	kafkaQueueSize = 256
)

var (
	errKafkaNotStarted = errors.New("kafka publisher not started")
	errKafkaStopped    = errors.New("kafka publisher stopped")
)

// KafkaConfig configures the event stream publisher.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	Acks    int
	Device  string
}

type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type kafkaRequest struct {
	kind string
	msg  kafka.Message
}

// Kafka queues events and writes them from a background loop so a slow
// cluster never blocks the measurement cycle. Messages are keyed by plant id
// to keep each plant's events ordered within a partition.
type Kafka struct {
	cfg     KafkaConfig
	writer  kafkaMessageWriter
	closer  io.Closer
	breaker *breaker.Breaker
	metrics *metrics.Metrics
	log     *slog.Logger
	now     func() time.Time

	queue     chan kafkaRequest
	runCtx    context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool
}

func NewKafka(cfg KafkaConfig, brk *breaker.Breaker, m *metrics.Metrics, log *slog.Logger) (*Kafka, error) {
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, fmt.Errorf("kafka topic must not be empty")
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one kafka broker is required")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		RequiredAcks:           kafka.RequiredAcks(cfg.Acks),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return newKafka(cfg, w, w, brk, m, log), nil
}

func newKafka(cfg KafkaConfig, w kafkaMessageWriter, closer io.Closer, brk *breaker.Breaker, m *metrics.Metrics, log *slog.Logger) *Kafka {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if strings.TrimSpace(cfg.Device) == "" {
		cfg.Device = "PlantPal"
	}
	return &Kafka{
		cfg:     cfg,
		writer:  w,
		closer:  closer,
		breaker: brk,
		metrics: m,
		log:     log.With(slog.String("component", "kafka_publisher")),
		now:     time.Now,
		queue:   make(chan kafkaRequest, kafkaQueueSize),
	}
}

// Start launches the background delivery loop and queues the alive event.
func (k *Kafka) Start(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context must not be nil")
	}
	k.startOnce.Do(func() {
		k.runCtx, k.cancel = context.WithCancel(context.WithoutCancel(ctx))
		k.started.Store(true)
		k.wg.Add(1)
		go k.run()
		k.log.Info("kafka_publisher_started", slog.String("topic", k.cfg.Topic))
		if err := k.Alive(ctx); err != nil {
			k.log.Warn("kafka_alive_err", slog.Any("err", err))
		}
	})
	return nil
}

func (k *Kafka) Alive(ctx context.Context) error {
	return k.enqueue(ctx, KindAlive, k.cfg.Device, map[string]string{"name": k.cfg.Device})
}

func (k *Kafka) PublishSensor(ctx context.Context, msg SensorMessage) error {
	return k.enqueue(ctx, KindSensor, strconv.Itoa(int(msg.ID)), msg)
}

func (k *Kafka) PublishLevel(ctx context.Context, msg LevelMessage) error {
	return k.enqueue(ctx, KindLevel, strconv.Itoa(int(msg.ID)), msg)
}

func (k *Kafka) enqueue(ctx context.Context, kind, key string, payload any) error {
	if !k.started.Load() {
		k.metrics.Publish(transportKafka, kind, errKafkaNotStarted)
		return errKafkaNotStarted
	}
	ev, err := newEvent(kind, k.cfg.Device, payload, k.now())
	if err != nil {
		k.metrics.Publish(transportKafka, kind, err)
		return err
	}
	value, err := json.Marshal(ev)
	if err != nil {
		k.metrics.Publish(transportKafka, kind, err)
		return err
	}
	req := kafkaRequest{kind: kind, msg: kafka.Message{Key: []byte(key), Value: value, Time: ev.At}}
	select {
	case k.queue <- req:
		k.log.Debug("kafka_enqueued", slog.String("kind", kind), slog.String("key", key), slog.String("event", ev.ID))
		return nil
	case <-ctx.Done():
		k.metrics.Publish(transportKafka, kind, ctx.Err())
		return ctx.Err()
	case <-k.runCtx.Done():
		k.metrics.Publish(transportKafka, kind, errKafkaStopped)
		return errKafkaStopped
	}
}

func (k *Kafka) run() {
	defer k.wg.Done()
	for {
		select {
		case <-k.runCtx.Done():
			k.drain()
			k.log.Info("kafka_publisher_loop_exit")
			return
		case req := <-k.queue:
			k.deliver(k.runCtx, req)
		}
	}
}

// drain flushes whatever is still queued with a short deadline of its own,
// since the run context is already cancelled.
func (k *Kafka) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case req := <-k.queue:
			k.deliver(ctx, req)
		default:
			return
		}
	}
}

func (k *Kafka) deliver(ctx context.Context, req kafkaRequest) {
	err := k.breaker.Execute(ctx, func(ctx context.Context) error {
		return k.writer.WriteMessages(ctx, req.msg)
	})
	k.metrics.Publish(transportKafka, req.kind, err)
	k.metrics.BreakerState(transportKafka, k.breaker.State())
	if err != nil {
		k.log.Error("kafka_publish_err", slog.String("kind", req.kind), slog.String("key", string(req.msg.Key)), slog.Any("err", err))
		return
	}
	k.log.Debug("kafka_published", slog.String("kind", req.kind), slog.String("key", string(req.msg.Key)))
}

// Close stops the loop, waits for the queue to drain and closes the writer.
func (k *Kafka) Close(ctx context.Context) error {
	var stopErr error
	k.stopOnce.Do(func() {
		k.started.Store(false)
		if k.cancel != nil {
			k.cancel()
			done := make(chan struct{})
			go func() {
				k.wg.Wait()
				close(done)
			}()
			select {
			case <-done:
			case <-ctx.Done():
				stopErr = ctx.Err()
			}
		}
		if k.closer != nil {
			if err := k.closer.Close(); err != nil {
				k.log.Error("kafka_close_err", slog.Any("err", err))
			}
		}
		k.log.Info("kafka_publisher_stopped")
	})
	return stopErr
}
