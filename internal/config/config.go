// v0
// internal/config/config.go
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/NicoGruemmert/PlantPal/internal/breaker"
	"github.com/NicoGruemmert/PlantPal/internal/plant"
)

// Config captures every runtime setting of the plantpal daemon. Values are
// layered: defaults, then a properties file, then PLANTPAL_* environment
// variables.
type Config struct {
	// DeviceName is the friendly name announced on the alive topic.
	DeviceName string `env:"DEVICE_NAME"`
	// MeasureInterval is the time between two measurement cycles.
	MeasureInterval time.Duration `env:"MEASURE_INTERVAL"`
	// AwardPeriod is the number of cycles between XP awards.
	AwardPeriod int `env:"AWARD_PERIOD"`
	// MaxPlants bounds the persistence slots.
	MaxPlants int `env:"MAX_PLANTS"`
	// ProfilesPath points at the YAML plant profiles; empty runs one default plant.
	ProfilesPath string `env:"PROFILES_PATH"`

	StoreBackend   string `env:"STORE_BACKEND"`
	StorePath      string `env:"STORE_PATH"`
	StoreNamespace string `env:"STORE_NAMESPACE"`

	// SensorSource is "simulated" or "script".
	SensorSource string `env:"SENSOR_SOURCE"`
	SensorScript string `env:"SENSOR_SCRIPT"`
	SensorSeed   uint64 `env:"SENSOR_SEED"`

	// MQTTBroker enables the MQTT transport when set, e.g. tcp://broker:1883.
	MQTTBroker      string `env:"MQTT_BROKER"`
	MQTTClientID    string `env:"MQTT_CLIENT_ID"`
	MQTTUser        string `env:"MQTT_USER"`
	MQTTPassword    string `env:"MQTT_PASSWORD"`
	MQTTQoS         uint8  `env:"MQTT_QOS"`
	MQTTSensorTopic string `env:"MQTT_SENSOR_TOPIC"`
	MQTTStateTopic  string `env:"MQTT_STATE_TOPIC"`
	MQTTAliveTopic  string `env:"MQTT_ALIVE_TOPIC"`

	// KafkaBrokers enables the Kafka transport when non-empty.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC"`
	KafkaAcks    int      `env:"KAFKA_ACKS"`

	// ListenAddress enables the status API when set.
	ListenAddress   string        `env:"LISTEN_ADDRESS"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`

	LogFilePath string `env:"LOG_PATH"`
	LogLevel    string `env:"LOG_LEVEL"`

	CBEnabled        bool          `env:"CB_ENABLED"`
	CBMaxFailures    int           `env:"CB_MAX_FAILURES"`
	CBResetTimeout   time.Duration `env:"CB_RESET_TIMEOUT"`
	CBSuccessToClose int           `env:"CB_SUCCESS_TO_CLOSE"`

	// PropertiesPath records the properties file that was consulted.
	PropertiesPath string
}

const (
	envPrefix         = "PLANTPAL_"
	defaultPropsPath  = "plantpal.properties"
	defaultDevice     = "PlantPal"
	defaultInterval   = 20 * time.Second
	defaultStore      = "file"
	defaultStorePath  = "data/nvs.log"
	defaultSensor     = "simulated"
	defaultKafkaTopic = "plantpal.events"
	defaultListen     = ":8088"
	defaultLogFile    = "logs/plantpal.log"
	defaultLogLevel   = "INFO"
	defaultShutdown   = 5 * time.Second
)

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	cb := breaker.DefaultConfig()
	return Config{
		DeviceName:       defaultDevice,
		MeasureInterval:  defaultInterval,
		AwardPeriod:      plant.DefaultAwardPeriod,
		MaxPlants:        plant.DefaultMaxPlants,
		StoreBackend:     defaultStore,
		StorePath:        filepath.Clean(defaultStorePath),
		SensorSource:     defaultSensor,
		SensorSeed:       1,
		KafkaTopic:       defaultKafkaTopic,
		KafkaAcks:        1,
		ListenAddress:    defaultListen,
		ShutdownTimeout:  defaultShutdown,
		LogFilePath:      filepath.Clean(defaultLogFile),
		LogLevel:         defaultLogLevel,
		CBEnabled:        cb.Enabled,
		CBMaxFailures:    cb.MaxFailures,
		CBResetTimeout:   cb.ResetTimeout,
		CBSuccessToClose: cb.SuccessesToClose,
	}
}

// Load resolves the configuration. The properties file location can be
// overridden with PLANTPAL_PROPERTIES_PATH; a missing file is not an error.
func Load() (Config, error) {
	cfg := Defaults()

	propsPath := strings.TrimSpace(os.Getenv(envPrefix + "PROPERTIES_PATH"))
	if propsPath == "" {
		propsPath = defaultPropsPath
	}
	cfg.PropertiesPath = propsPath

	if err := applyProperties(&cfg, propsPath); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: envPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the daemon cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.MeasureInterval <= 0 {
		errs = append(errs, errors.New("measure interval must be positive"))
	}
	if c.AwardPeriod <= 0 {
		errs = append(errs, errors.New("award period must be positive"))
	}
	if c.MaxPlants <= 0 || c.MaxPlants > 256 {
		errs = append(errs, errors.New("max plants must be in 1..256"))
	}
	switch strings.ToLower(c.StoreBackend) {
	case "memory":
	case "file", "sqlite":
		if strings.TrimSpace(c.StorePath) == "" {
			errs = append(errs, fmt.Errorf("store path is required for the %s backend", c.StoreBackend))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.StoreBackend))
	}
	switch strings.ToLower(c.SensorSource) {
	case "simulated":
	case "script":
		if strings.TrimSpace(c.SensorScript) == "" {
			errs = append(errs, errors.New("sensor script path is required for the script source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown sensor source %q", c.SensorSource))
	}
	if c.MQTTQoS > 2 {
		errs = append(errs, errors.New("mqtt qos must be 0, 1 or 2"))
	}
	if len(c.KafkaBrokers) > 0 && strings.TrimSpace(c.KafkaTopic) == "" {
		errs = append(errs, errors.New("kafka topic is required when brokers are set"))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Breaker returns the circuit breaker settings.
func (c Config) Breaker() breaker.Config {
	return breaker.Config{
		Enabled:          c.CBEnabled,
		MaxFailures:      c.CBMaxFailures,
		ResetTimeout:     c.CBResetTimeout,
		SuccessesToClose: c.CBSuccessToClose,
	}
}

func applyProperties(cfg *Config, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") || strings.HasPrefix(raw, ";") {
			continue
		}
		parts := strings.SplitN(raw, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid properties entry on line %d", line)
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if err := setProperty(cfg, key, value); err != nil {
			return fmt.Errorf("property %s: %w", key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read properties: %w", err)
	}
	return nil
}

func setProperty(cfg *Config, key, value string) error {
	var err error
	switch key {
	case "device_name":
		cfg.DeviceName, err = nonEmpty(value)
	case "measure_interval_ms":
		cfg.MeasureInterval, err = parsePositiveMillis(value)
	case "award_period":
		cfg.AwardPeriod, err = parsePositiveInt(value)
	case "max_plants":
		cfg.MaxPlants, err = parsePositiveInt(value)
	case "profiles_path":
		cfg.ProfilesPath = value
	case "store_backend":
		cfg.StoreBackend, err = nonEmpty(value)
	case "store_path":
		cfg.StorePath = filepath.Clean(value)
	case "store_namespace":
		cfg.StoreNamespace = value
	case "sensor_source":
		cfg.SensorSource, err = nonEmpty(value)
	case "sensor_script":
		cfg.SensorScript = value
	case "sensor_seed":
		cfg.SensorSeed, err = strconv.ParseUint(value, 10, 64)
	case "mqtt_broker":
		cfg.MQTTBroker = value
	case "mqtt_client_id":
		cfg.MQTTClientID = value
	case "mqtt_user":
		cfg.MQTTUser = value
	case "mqtt_password":
		cfg.MQTTPassword = value
	case "mqtt_qos":
		var n uint64
		n, err = strconv.ParseUint(value, 10, 8)
		cfg.MQTTQoS = uint8(n)
	case "mqtt_sensor_topic":
		cfg.MQTTSensorTopic = value
	case "mqtt_state_topic":
		cfg.MQTTStateTopic = value
	case "mqtt_alive_topic":
		cfg.MQTTAliveTopic = value
	case "kafka_brokers":
		cfg.KafkaBrokers = splitAndTrim(value)
	case "kafka_topic":
		cfg.KafkaTopic = value
	case "kafka_acks":
		cfg.KafkaAcks, err = strconv.Atoi(value)
	case "listen_address":
		cfg.ListenAddress = value
	case "shutdown_timeout_ms":
		cfg.ShutdownTimeout, err = parsePositiveMillis(value)
	case "log_path":
		if _, err = nonEmpty(value); err == nil {
			cfg.LogFilePath = filepath.Clean(value)
		}
	case "log_level":
		cfg.LogLevel, err = nonEmpty(value)
	case "cb_enabled":
		cfg.CBEnabled, err = strconv.ParseBool(value)
	case "cb_max_failures":
		cfg.CBMaxFailures, err = parsePositiveInt(value)
	case "cb_reset_timeout_ms":
		cfg.CBResetTimeout, err = parsePositiveMillis(value)
	case "cb_success_to_close":
		cfg.CBSuccessToClose, err = parsePositiveInt(value)
	default:
		// Unknown keys are ignored to keep the loader forward-compatible.
	}
	return err
}

func nonEmpty(v string) (string, error) {
	if v == "" {
		return "", errors.New("value cannot be empty")
	}
	return v, nil
}

func parsePositiveInt(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q: %w", v, err)
	}
	if n <= 0 {
		return 0, errors.New("value must be positive")
	}
	return n, nil
}

func parsePositiveMillis(v string) (time.Duration, error) {
	n, err := parsePositiveInt(v)
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Millisecond, nil
}

func splitAndTrim(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
