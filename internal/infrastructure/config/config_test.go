package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "inventory-service", cfg.App.Name)
	assert.Equal(t, "data/inventory.db", cfg.Storage.SQLiteFile)
	assert.Equal(t, 10, cfg.Storage.MaxConnections)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Messaging.Brokers)
	assert.Equal(t, 15*time.Minute, cfg.Reservations.TTL)
	assert.Equal(t, time.Minute, cfg.Reservations.SweepInterval)
	assert.Equal(t, "info", cfg.Observability.LogLevel)
	assert.Equal(t, 3, cfg.Activities.RetryMaxAttempts)
	assert.Equal(t, 0.5, cfg.Activities.CircuitBreakerThreshold)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("INVENTORY_STORAGE_SQLITE_FILE", "/tmp/test-inventory.db")
	t.Setenv("INVENTORY_KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("INVENTORY_RESERVATION_TTL", "30m")
	t.Setenv("INVENTORY_LOG_LEVEL", "debug")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test-inventory.db", cfg.Storage.SQLiteFile)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Messaging.Brokers)
	assert.Equal(t, 30*time.Minute, cfg.Reservations.TTL)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
}

func TestLoadConfig_InvalidTTLIgnored(t *testing.T) {
	t.Setenv("INVENTORY_RESERVATION_TTL", "soon")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, cfg.Reservations.TTL)
}
