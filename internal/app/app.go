// v0
// internal/app/app.go

// Package app wires configuration, logging, storage, telemetry and the
// status API around the per-plant monitors, and runs the measurement loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/NicoGruemmert/PlantPal/internal/breaker"
	"github.com/NicoGruemmert/PlantPal/internal/config"
	"github.com/NicoGruemmert/PlantPal/internal/httpapi"
	"github.com/NicoGruemmert/PlantPal/internal/metrics"
	"github.com/NicoGruemmert/PlantPal/internal/plant"
	"github.com/NicoGruemmert/PlantPal/internal/sensor"
	"github.com/NicoGruemmert/PlantPal/internal/store"
	"github.com/NicoGruemmert/PlantPal/internal/telemetry"
)

// Application owns every long-lived resource of the daemon.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	logFile  *os.File
	runID    string
	store    store.Backend
	source   sensor.Source
	pub      *telemetry.Fanout
	metrics  *metrics.Metrics
	health   *httpapi.Health
	monitors []*Monitor
	server   *http.Server
}

// Option overrides a dependency that New would otherwise build from the
// configuration.
type Option func(*deps)

type deps struct {
	logger     *slog.Logger
	store      store.Backend
	source     sensor.Source
	publishers []telemetry.Publisher
	plants     []config.PlantEntry
}

func WithLogger(l *slog.Logger) Option { return func(d *deps) { d.logger = l } }

func WithStore(b store.Backend) Option { return func(d *deps) { d.store = b } }

func WithSource(s sensor.Source) Option { return func(d *deps) { d.source = s } }

// WithPublishers replaces the configured MQTT and Kafka transports.
func WithPublishers(p ...telemetry.Publisher) Option {
	return func(d *deps) { d.publishers = append([]telemetry.Publisher{}, p...) }
}

func WithPlants(p []config.PlantEntry) Option { return func(d *deps) { d.plants = p } }

// New prepares a fully wired instance. Plants are restored from the store
// before New returns, so the status API has data from the first request.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*Application, error) {
	var d deps
	for _, opt := range opts {
		opt(&d)
	}
	a := &Application{cfg: cfg, runID: uuid.NewString(), metrics: metrics.New(), health: &httpapi.Health{}}

	if err := a.initLogger(d.logger); err != nil {
		return nil, err
	}
	if err := a.init(ctx, d); err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}
	a.logger.Info("app_initialised",
		slog.String("device", cfg.DeviceName),
		slog.Int("plants", len(a.monitors)),
		slog.Int("transports", a.pub.Len()),
		slog.String("store", cfg.StoreBackend),
		slog.String("interval", cfg.MeasureInterval.String()),
	)
	return a, nil
}

func (a *Application) initLogger(l *slog.Logger) error {
	if l != nil {
		a.logger = l.With(slog.String("run", a.runID))
		return nil
	}
	level, err := config.ParseLevel(a.cfg.LogLevel)
	if err != nil {
		return err
	}
	var writers []io.Writer
	writers = append(writers, os.Stdout)
	if logPath := strings.TrimSpace(a.cfg.LogFilePath); logPath != "" {
		logPath = filepath.Clean(logPath)
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		lf, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		a.logFile = lf
		writers = append(writers, lf)
	}
	a.logger = newLogger(level, writers...).With(slog.String("run", a.runID))
	return nil
}

func (a *Application) init(ctx context.Context, d deps) error {
	var err error
	a.store = d.store
	if a.store == nil {
		a.store, err = store.Open(a.cfg.StoreBackend, a.cfg.StorePath, a.cfg.StoreNamespace, a.logger.With(slog.String("component", "store")))
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
	}

	a.source = d.source
	if a.source == nil {
		if a.source, err = buildSource(a.cfg); err != nil {
			return err
		}
	}

	pubs := d.publishers
	if pubs == nil {
		if pubs, err = a.buildPublishers(); err != nil {
			return err
		}
	}
	a.pub = telemetry.NewFanout(a.logger, pubs...)

	plants := d.plants
	if plants == nil {
		if plants, err = config.LoadProfiles(a.cfg.ProfilesPath, a.cfg.MaxPlants); err != nil {
			return err
		}
	}
	monLog := a.logger.With(slog.String("component", "monitor"))
	for _, entry := range plants {
		mon, err := newMonitor(ctx, entry.Slot, entry.Profile, a.store, a.pub, a.metrics, monLog,
			plant.WithAwardPeriod(a.cfg.AwardPeriod),
			plant.WithMaxPlants(a.cfg.MaxPlants),
		)
		if err != nil {
			return err
		}
		a.monitors = append(a.monitors, mon)
	}

	if strings.TrimSpace(a.cfg.ListenAddress) != "" {
		router := httpapi.NewRouter(a, a.health, a.metrics, a.logger, slog.NewLogLogger(a.logger.Handler(), slog.LevelDebug).Writer())
		a.server = &http.Server{
			Addr:              a.cfg.ListenAddress,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
		}
	}
	return nil
}

func buildSource(cfg config.Config) (sensor.Source, error) {
	switch strings.ToLower(cfg.SensorSource) {
	case "script":
		f, err := os.Open(cfg.SensorScript)
		if err != nil {
			return nil, fmt.Errorf("open sensor script: %w", err)
		}
		defer f.Close()
		readings, err := sensor.LoadScript(f)
		if err != nil {
			return nil, err
		}
		return sensor.NewScripted(readings, false), nil
	default:
		return sensor.NewSimulated(cfg.SensorSeed), nil
	}
}

func (a *Application) buildPublishers() ([]telemetry.Publisher, error) {
	var pubs []telemetry.Publisher
	if strings.TrimSpace(a.cfg.MQTTBroker) != "" {
		brk := breaker.New("mqtt", a.cfg.Breaker(), a.logger)
		mq, err := telemetry.NewMQTT(telemetry.MQTTConfig{
			Broker:   a.cfg.MQTTBroker,
			ClientID: a.cfg.MQTTClientID,
			Username: a.cfg.MQTTUser,
			Password: a.cfg.MQTTPassword,
			Device:   a.cfg.DeviceName,
			QoS:      a.cfg.MQTTQoS,
			Topics: telemetry.Topics{
				Sensor: a.cfg.MQTTSensorTopic,
				State:  a.cfg.MQTTStateTopic,
				Alive:  a.cfg.MQTTAliveTopic,
			},
		}, brk, a.metrics, a.logger)
		if err != nil {
			return nil, err
		}
		pubs = append(pubs, mq)
	} else {
		a.logger.Info("mqtt_disabled")
	}
	if len(a.cfg.KafkaBrokers) > 0 {
		brk := breaker.New("kafka", a.cfg.Breaker(), a.logger)
		kp, err := telemetry.NewKafka(telemetry.KafkaConfig{
			Brokers: a.cfg.KafkaBrokers,
			Topic:   a.cfg.KafkaTopic,
			Acks:    a.cfg.KafkaAcks,
			Device:  a.cfg.DeviceName,
		}, brk, a.metrics, a.logger)
		if err != nil {
			return nil, err
		}
		pubs = append(pubs, kp)
	} else {
		a.logger.Info("kafka_disabled")
	}
	return pubs, nil
}

// Logger exposes the configured logger so main can log after initialisation.
func (a *Application) Logger() *slog.Logger { return a.logger }

// Run blocks until ctx is cancelled, the sensor script runs out or the HTTP
// server fails.
func (a *Application) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.pub.Start(ctx); err != nil {
		a.logger.Warn("telemetry_start_degraded", slog.Any("err", err))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := a.measure(gctx)
		cancel()
		return err
	})

	if a.server != nil {
		g.Go(func() error {
			a.logger.Info("http_server_listen", slog.String("address", a.cfg.ListenAddress))
			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, stop := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
			defer stop()
			if err := a.server.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("http_shutdown_err", slog.Any("err", err))
			}
			return nil
		})
	}

	a.health.SetReady(true)
	err := g.Wait()
	a.health.SetReady(false)
	if err != nil {
		a.logger.Error("app_stopped", slog.Any("err", err))
		return err
	}
	a.logger.Info("app_stopped")
	return nil
}

// measure runs one cycle immediately and then one per interval. All plants
// are evaluated against the same reading.
func (a *Application) measure(ctx context.Context) error {
	ticker := time.NewTicker(a.cfg.MeasureInterval)
	defer ticker.Stop()
	for {
		done, err := a.Cycle(ctx)
		if err != nil || done {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Cycle samples the sensor once and feeds every plant. done reports that the
// loop should stop.
func (a *Application) Cycle(ctx context.Context) (done bool, err error) {
	reading, err := a.source.Read(ctx)
	switch {
	case errors.Is(err, sensor.ErrExhausted):
		a.logger.Info("sensor_exhausted")
		return true, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return true, nil
	case err != nil:
		a.logger.Warn("sensor_read_err", slog.Any("err", err))
		return false, nil
	}
	for _, mon := range a.monitors {
		mon.Observe(ctx, reading)
	}
	return false, nil
}

func (a *Application) monitor(slot int) (*Monitor, bool) {
	for _, mon := range a.monitors {
		if mon.slot == slot {
			return mon, true
		}
	}
	return nil, false
}

// Plants implements httpapi.Provider.
func (a *Application) Plants() []httpapi.PlantStatus {
	out := make([]httpapi.PlantStatus, 0, len(a.monitors))
	for _, mon := range a.monitors {
		out = append(out, mon.Status())
	}
	return out
}

func (a *Application) Plant(slot int) (httpapi.PlantStatus, bool) {
	mon, ok := a.monitor(slot)
	if !ok {
		return httpapi.PlantStatus{}, false
	}
	return mon.Status(), true
}

func (a *Application) Reconfigure(slot int, p plant.Profile) error {
	mon, ok := a.monitor(slot)
	if !ok {
		return fmt.Errorf("slot %d: %w", slot, plant.ErrNotFound)
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	return mon.Reconfigure(ctx, p)
}

// Handler exposes the status API, mainly for tests.
func (a *Application) Handler() http.Handler {
	if a.server == nil {
		return nil
	}
	return a.server.Handler
}

// Close persists every plant and releases telemetry, the store and the log
// file. It is safe to call on a partially initialised Application.
func (a *Application) Close(ctx context.Context) error {
	var errs []error
	for _, mon := range a.monitors {
		if err := mon.Persist(ctx); err != nil {
			errs = append(errs, fmt.Errorf("persist slot %d: %w", mon.slot, err))
		}
	}
	if a.pub != nil {
		if err := a.pub.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	err := errors.Join(errs...)
	if a.logger != nil {
		if err != nil {
			a.logger.Error("app_close_err", slog.Any("err", err))
		} else {
			a.logger.Info("app_closed")
		}
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
		a.logFile = nil
	}
	return err
}
