// v0
// internal/config/config_test.go
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NicoGruemmert/PlantPal/internal/plant"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaultsWhenNothingIsSet(t *testing.T) {
	t.Setenv("PLANTPAL_PROPERTIES_PATH", filepath.Join(t.TempDir(), "missing.properties"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 20*time.Second, cfg.MeasureInterval)
	assert.Equal(t, plant.DefaultAwardPeriod, cfg.AwardPeriod)
	assert.Equal(t, plant.DefaultMaxPlants, cfg.MaxPlants)
	assert.Equal(t, "file", cfg.StoreBackend)
	assert.Equal(t, "simulated", cfg.SensorSource)
	assert.Empty(t, cfg.MQTTBroker)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.True(t, cfg.Breaker().Enabled)
}

func TestPropertiesThenEnvironment(t *testing.T) {
	props := writeFile(t, "plantpal.properties", `
# device
device_name = Balcony Pal
measure_interval_ms = 1500
award_period = 6
store_backend = sqlite
store_path = /var/lib/plantpal/nvs.db
mqtt_broker = tcp://broker:1883
mqtt_qos = 1
kafka_brokers = k1:9092, k2:9092
log_level = debug
cb_max_failures = 3
unknown_key = ignored
`)
	t.Setenv("PLANTPAL_PROPERTIES_PATH", props)
	t.Setenv("PLANTPAL_AWARD_PERIOD", "12")
	t.Setenv("PLANTPAL_MQTT_BROKER", "tcp://override:1883")
	t.Setenv("PLANTPAL_CB_RESET_TIMEOUT", "45s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Balcony Pal", cfg.DeviceName)
	assert.Equal(t, 1500*time.Millisecond, cfg.MeasureInterval)
	assert.Equal(t, 12, cfg.AwardPeriod)
	assert.Equal(t, "sqlite", cfg.StoreBackend)
	assert.Equal(t, "/var/lib/plantpal/nvs.db", cfg.StorePath)
	assert.Equal(t, "tcp://override:1883", cfg.MQTTBroker)
	assert.Equal(t, uint8(1), cfg.MQTTQoS)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 3, cfg.Breaker().MaxFailures)
	assert.Equal(t, 45*time.Second, cfg.Breaker().ResetTimeout)
	assert.Equal(t, props, cfg.PropertiesPath)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"malformed line": "device_name Balcony\n",
		"negative":       "award_period = -1\n",
		"bad backend":    "store_backend = eeprom\n",
		"bad qos":        "mqtt_qos = 3\n",
		"bad level":      "log_level = chatty\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("PLANTPAL_PROPERTIES_PATH", writeFile(t, "p.properties", body))
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, lvl)
	_, err = ParseLevel("loud")
	require.Error(t, err)
}

func TestLoadProfiles(t *testing.T) {
	path := writeFile(t, "profiles.yaml", `
plants:
  - slot: 2
    name: Cactus
    temperature: {target: 28, range: 8}
    humidity: {target: 20, range: 15}
    moisture: {target: 10, range: 10}
    light: {target: 90, range: 10}
  - slot: 0
    temperature: {target: 22, range: 5}
    humidity: {target: 60, range: 30}
    moisture: {target: 50, range: 50}
    light: {target: 50, range: 50}
`)
	plants, err := LoadProfiles(path, plant.DefaultMaxPlants)
	require.NoError(t, err)
	require.Len(t, plants, 2)
	assert.Equal(t, 0, plants[0].Slot)
	assert.Equal(t, "Plant", plants[0].Name)
	assert.Equal(t, 2, plants[1].Slot)
	assert.Equal(t, plant.Tolerance{Target: 28, Range: 8}, plants[1].Temperature)
}

func TestLoadProfilesFallsBackToDefault(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "absent.yaml"), writeFile(t, "empty.yaml", "plants: []\n")} {
		plants, err := LoadProfiles(path, plant.DefaultMaxPlants)
		require.NoError(t, err)
		require.Len(t, plants, 1)
		assert.Equal(t, 0, plants[0].Slot)
		assert.Equal(t, plant.DefaultProfile(), plants[0].Profile)
	}
}

func TestParseProfilesRejectsInvalidEntries(t *testing.T) {
	cases := map[string]string{
		"slot out of range": "plants:\n  - slot: 5\n    temperature: {target: 1, range: 1}\n    humidity: {target: 1, range: 1}\n    moisture: {target: 1, range: 1}\n    light: {target: 1, range: 1}\n",
		"duplicate slot":    "plants:\n  - slot: 1\n    temperature: {target: 1, range: 1}\n    humidity: {target: 1, range: 1}\n    moisture: {target: 1, range: 1}\n    light: {target: 1, range: 1}\n  - slot: 1\n    temperature: {target: 1, range: 1}\n    humidity: {target: 1, range: 1}\n    moisture: {target: 1, range: 1}\n    light: {target: 1, range: 1}\n",
		"zero range":        "plants:\n  - slot: 0\n    temperature: {target: 1, range: 0}\n    humidity: {target: 1, range: 1}\n    moisture: {target: 1, range: 1}\n    light: {target: 1, range: 1}\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseProfiles([]byte(body), plant.DefaultMaxPlants)
			require.Error(t, err)
		})
	}
	_, err := ParseProfiles([]byte("plants: [\n"), plant.DefaultMaxPlants)
	require.Error(t, err)
}
