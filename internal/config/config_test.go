package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, DispatchInline, cfg.AlertDispatchMode)
	assert.Equal(t, OutboxRedis, cfg.OutboxBackend)
	assert.Equal(t, 15*time.Second, cfg.MailSendTimeout)
	assert.Equal(t, 24*time.Hour, cfg.RetentionInterval)
	assert.Equal(t, 30*24*time.Hour, cfg.RetentionWindow)
	assert.Equal(t, "http://localhost:5173", cfg.FrontendURL)
	assert.Equal(t, "AgriCorus Marketplace", cfg.SMTPFromName)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("ALERT_DISPATCH_MODE", "queue")
	t.Setenv("ALERT_WORKERS", "8")
	t.Setenv("OUTBOX_BACKEND", "memory")
	t.Setenv("MAIL_SEND_TIMEOUT", "3s")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("DEV_VENDOR_CONTACTS", "V1|v1@farm.example|Green Acres, V2|v2@farm.example")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DispatchQueue, cfg.AlertDispatchMode)
	assert.Equal(t, 8, cfg.AlertWorkers)
	assert.Equal(t, OutboxMemory, cfg.OutboxBackend)
	assert.Equal(t, 3*time.Second, cfg.MailSendTimeout)

	contacts, err := cfg.DevContacts()
	require.NoError(t, err)
	assert.Equal(t, []DevContact{
		{VendorID: "V1", Email: "v1@farm.example", Name: "Green Acres"},
		{VendorID: "V2", Email: "v2@farm.example"},
	}, contacts)
}

func TestLoadConfig_BadDuration(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("RETENTION_INTERVAL", "daily")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "RETENTION_INTERVAL")
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := &Config{
		HTTPPort:          0,
		SMTPPort:          587,
		StoreBackend:      "mongo",
		AlertDispatchMode: "carrier-pigeon",
		OutboxBackend:     "kafka",
		AlertWorkers:      0,
		AlertMaxAttempts:  1,
		MailSendTimeout:   time.Second,
		MailRatePerSec:    1,
		RetentionInterval: time.Hour,
		RetentionWindow:   time.Hour,
		LogLevel:          "info",
		LogFormat:         "text",
		JWTSecret:         "short",
	}

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"HTTP_PORT", "STORE_BACKEND", "ALERT_DISPATCH_MODE", "OUTBOX_BACKEND", "ALERT_WORKERS", "JWT_SECRET"} {
		assert.True(t, strings.Contains(err.Error(), want), "expected %s in %q", want, err.Error())
	}
}
