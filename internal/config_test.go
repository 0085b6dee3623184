package internal

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	t.Setenv("ENV", "dev")
	t.Setenv("STORE", "memory")
	t.Setenv("OTP_TTL", "")
	t.Setenv("CORS_ORIGINS", "")
	t.Setenv("SMS_COUNTRY_CODE", "")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 10*time.Minute, cfg.OTPTTL)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, "+91", cfg.SMS.CountryCode)
	assert.Equal(t, "memory", cfg.Store)
}

func TestNewConfig_Overrides(t *testing.T) {
	t.Setenv("ENV", "staging")
	t.Setenv("LOG_LEVEL", "verbose")
	t.Setenv("STORE", "postgres")
	t.Setenv("OTP_TTL", "5m")
	t.Setenv("CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("SMTP_USER", "mailer@example.com")
	t.Setenv("SMTP_FROM", "")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env, "unknown env falls back to prod")
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 5*time.Minute, cfg.OTPTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, "mailer@example.com", cfg.Email.From, "sender defaults to the SMTP user")
}

func TestNewConfig_Invalid(t *testing.T) {
	t.Run("unknown store", func(t *testing.T) {
		t.Setenv("STORE", "sqlite")
		_, err := NewConfig()
		assert.Error(t, err)
	})

	t.Run("memory store in prod", func(t *testing.T) {
		t.Setenv("ENV", "prod")
		t.Setenv("STORE", "memory")
		_, err := NewConfig()
		assert.Error(t, err)
	})
}

func TestEmailConfig_Configured(t *testing.T) {
	assert.False(t, EmailConfig{Host: "smtp.example.com", Port: 587}.Configured())
	assert.True(t, EmailConfig{Host: "smtp.example.com", Port: 587, Username: "u", Password: "p"}.Configured())
}

func TestNewLogger_ProdWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "prod", "info")

	logger.Debug("hidden")
	logger.Info("order placed", "order_id", "ord_1")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "order placed", rec["msg"])
	assert.Equal(t, "ord_1", rec["order_id"])
	assert.Equal(t, "bharosa", rec["service"])

	_, err := time.Parse(time.RFC3339Nano, rec["time"].(string))
	assert.NoError(t, err)
}

func TestNewLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "dev", "chatty")

	logger.Debug("hidden")
	out := buf.String()
	assert.Contains(t, out, "unknown LOG_LEVEL")
	assert.NotContains(t, out, "hidden")
}
