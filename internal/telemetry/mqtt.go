// v0
// internal/telemetry/mqtt.go
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/NicoGruemmert/PlantPal/internal/breaker"
	"github.com/NicoGruemmert/PlantPal/internal/metrics"
)

const transportMQTT = "mqtt"

var errMQTTTimeout = errors.New("mqtt operation timed out")

// MQTTConfig holds the broker connection settings.
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Device   string // friendly name announced on the alive topic
	QoS      byte
	Retained bool
	Timeout  time.Duration
	Topics   Topics
}

// mqttClient is the subset of mqtt.Client used by the publisher.
type mqttClient interface {
	Connect() mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
	IsConnected() bool
}

// MQTT publishes plant telemetry to an MQTT broker.
type MQTT struct {
	cfg     MQTTConfig
	client  mqttClient
	breaker *breaker.Breaker
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewMQTT builds a paho client that reconnects on its own and announces the
// device on the alive topic after every (re)connect.
func NewMQTT(cfg MQTTConfig, brk *breaker.Breaker, m *metrics.Metrics, log *slog.Logger) (*MQTT, error) {
	if strings.TrimSpace(cfg.Broker) == "" {
		return nil, fmt.Errorf("mqtt broker must not be empty")
	}
	if strings.TrimSpace(cfg.ClientID) == "" {
		cfg.ClientID = "plantpal-" + uuid.NewString()
	}
	p := newMQTT(cfg, nil, brk, m, log)
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetKeepAlive(60 * time.Second).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(mqtt.Client) {
			p.log.Info("mqtt_connected", slog.String("broker", p.cfg.Broker))
			ctx, cancel := context.WithTimeout(context.Background(), p.cfg.Timeout)
			defer cancel()
			if err := p.Alive(ctx); err != nil {
				p.log.Warn("mqtt_alive_err", slog.Any("err", err))
			}
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			p.log.Warn("mqtt_connection_lost", slog.Any("err", err))
		})
	p.client = mqtt.NewClient(opts)
	return p, nil
}

func newMQTT(cfg MQTTConfig, client mqttClient, brk *breaker.Breaker, m *metrics.Metrics, log *slog.Logger) *MQTT {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if strings.TrimSpace(cfg.Device) == "" {
		cfg.Device = "PlantPal"
	}
	cfg.Topics = cfg.Topics.withDefaults()
	return &MQTT{
		cfg:     cfg,
		client:  client,
		breaker: brk,
		metrics: m,
		log:     log.With(slog.String("component", "mqtt_publisher")),
	}
}

// Start connects to the broker. With connect-retry enabled paho keeps trying
// in the background, so a timeout here is logged and not fatal.
func (p *MQTT) Start(ctx context.Context) error {
	err := wait(ctx, p.client.Connect(), p.cfg.Timeout)
	if err != nil {
		p.log.Warn("mqtt_connect_pending", slog.String("broker", p.cfg.Broker), slog.Any("err", err))
		if errors.Is(err, errMQTTTimeout) {
			return nil
		}
		return fmt.Errorf("mqtt connect %s: %w", p.cfg.Broker, err)
	}
	return nil
}

func (p *MQTT) Alive(ctx context.Context) error {
	return p.publish(ctx, KindAlive, p.cfg.Topics.Alive, []byte(p.cfg.Device))
}

func (p *MQTT) PublishSensor(ctx context.Context, msg SensorMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.publish(ctx, KindSensor, p.cfg.Topics.Sensor, payload)
}

func (p *MQTT) PublishLevel(ctx context.Context, msg LevelMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.publish(ctx, KindLevel, p.cfg.Topics.State, payload)
}

func (p *MQTT) publish(ctx context.Context, kind, topic string, payload []byte) error {
	err := p.breaker.Execute(ctx, func(ctx context.Context) error {
		return wait(ctx, p.client.Publish(topic, p.cfg.QoS, p.cfg.Retained, payload), p.cfg.Timeout)
	})
	p.metrics.Publish(transportMQTT, kind, err)
	p.metrics.BreakerState(transportMQTT, p.breaker.State())
	if err != nil {
		return fmt.Errorf("mqtt publish %s: %w", topic, err)
	}
	p.log.Debug("mqtt_published", slog.String("topic", topic), slog.Int("bytes", len(payload)))
	return nil
}

func (p *MQTT) Close(context.Context) error {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
	p.log.Info("mqtt_disconnected")
	return nil
}

func wait(ctx context.Context, tok mqtt.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return errMQTTTimeout
	}
}
