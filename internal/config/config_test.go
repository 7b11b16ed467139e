package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	// shield the test from whatever the host environment carries
	for _, k := range []string{"HTTP_ADDR", "POSTGRES_DSN", "REDIS_ADDR", "KAFKA_BROKERS", "SERVICE_NAME", "WINDOW_DAYS", "DRAFT_TTL"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, ":8081", cfg.HTTPAddr)
	assert.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 365, cfg.WindowDays)
	assert.Equal(t, 30*time.Minute, cfg.DraftTTL)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092 ,")
	t.Setenv("WINDOW_DAYS", "90")
	t.Setenv("DRAFT_TTL", "10m")

	cfg := Load()
	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 90, cfg.WindowDays)
	assert.Equal(t, 10*time.Minute, cfg.DraftTTL)
}

func TestLoadIgnoresInvalidValues(t *testing.T) {
	t.Setenv("WINDOW_DAYS", "-5")
	t.Setenv("DRAFT_TTL", "soon")

	cfg := Load()
	assert.Equal(t, 365, cfg.WindowDays)
	assert.Equal(t, 30*time.Minute, cfg.DraftTTL)
}
