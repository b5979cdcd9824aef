package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
database:
  host: db.local
  user: pizzeria
  password: secret
  database: pizzeria
rabbitmq:
  host: mq.local
  user: guest
  password: guest
kitchen:
  urgent_threshold_minutes: 10
  critical_threshold_minutes: 20
notifications:
  debounce_ms: 250
  types:
    cambio_estado:
      enabled: false
      volume: 0.3
pricing:
  removed_ingredient_discount: 25
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "db.local", cfg.Database.Host)
	assert.Equal(t, "mq.local", cfg.RabbitMQ.Host)
	assert.Equal(t, 10, cfg.Kitchen.UrgentThresholdMinutes)
	assert.Equal(t, 20, cfg.Kitchen.CriticalThresholdMinutes)
	assert.Equal(t, 250, cfg.Notifications.DebounceMs)
	assert.Equal(t, 25.0, cfg.Pricing.RemovedIngredientDiscount)

	tc, ok := cfg.Notifications.Types["cambio_estado"]
	require.True(t, ok)
	assert.False(t, tc.Enabled)
	assert.InDelta(t, 0.3, tc.Volume, 1e-9)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 5672, cfg.RabbitMQ.Port)
	assert.Equal(t, 15, cfg.Kitchen.UrgentThresholdMinutes)
	assert.Equal(t, 30, cfg.Kitchen.CriticalThresholdMinutes)
	assert.Equal(t, 60, cfg.Kitchen.TickIntervalSeconds)
	assert.Equal(t, 100, cfg.Notifications.DebounceMs)
	assert.Equal(t, 1000, cfg.Notifications.MinAudioIntervalMs)
	assert.Equal(t, 1024, cfg.Notifications.QueueLimit)
	assert.Equal(t, 10.0, cfg.Pricing.RemovedIngredientDiscount)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [not: a: mapping")
	_, err := Load(path)
	assert.Error(t, err)
}
