package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OTP_TTL", "")
	t.Setenv("REAPER_INTERVAL", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("OUTBOX_MAX_ATTEMPTS", "")

	cfg := Load()

	assert.Equal(t, 5*time.Minute, cfg.OtpTTL)
	assert.Equal(t, 15*time.Minute, cfg.ReaperInterval)
	assert.Equal(t, "dynamo", cfg.StoreDriver)
	assert.Equal(t, "otp_tokens", cfg.DynamoTables.OtpTokens)
	assert.Equal(t, 5, cfg.OutboxMaxTries)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("OTP_TTL", "90s")
	t.Setenv("OUTBOX_BATCH", "10")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg := Load()

	assert.Equal(t, 90*time.Second, cfg.OtpTTL)
	assert.Equal(t, 10, cfg.OutboxBatch)
	assert.Equal(t, "postgres", cfg.StoreDriver)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoad_InvalidDurationFallsBack(t *testing.T) {
	t.Setenv("REAPER_INTERVAL", "soon")
	t.Setenv("OUTBOX_INTERVAL", "-5s")

	cfg := Load()

	assert.Equal(t, 15*time.Minute, cfg.ReaperInterval)
	assert.Equal(t, 30*time.Second, cfg.OutboxInterval)
}
