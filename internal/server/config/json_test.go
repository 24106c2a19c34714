package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	dir := t.TempDir()
	path := writeTempJSON(t, dir, "flag.json", map[string]any{
		"http_addr":                           "www.example:9000",
		"database_dsn":                        "postgres://db",
		"secret_key":                          "my_secret_key",
		"session_validity_duration":           "24h",
		"otp_validity_duration":               "5m",
		"verification_link_validity_duration": 3600000000000,
		"frontend_base_url":                   "https://helpdesk.example",
		"email_driver":                        "postmark",
		"postmark_server_token":               "pm-token",
		"sms_driver":                          "none",
		"redis_addr":                          "redis:6379",
		"rate_limit_attempts":                 3,
		"dispatch_queue_size":                 10,
	})

	t.Run("loads from json", func(t *testing.T) {
		cfg := validConfig()
		require.NoError(t, parseJson(cfg, []string{"-config", path}))

		assert.Equal(t, "www.example:9000", cfg.HTTPAddr)
		assert.Equal(t, "postgres://db", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 24*time.Hour, cfg.SessionValidityDuration)
		assert.Equal(t, 5*time.Minute, cfg.OTPValidityDuration)
		assert.Equal(t, time.Hour, cfg.VerificationLinkValidityDuration)
		assert.Equal(t, "https://helpdesk.example", cfg.FrontendBaseURL)
		assert.Equal(t, DriverPostmark, cfg.EmailDriver)
		assert.Equal(t, "pm-token", cfg.PostmarkServerToken)
		assert.Equal(t, DriverNone, cfg.SMSDriver)
		assert.Equal(t, "redis:6379", cfg.RedisAddr)
		assert.Equal(t, 3, cfg.RateLimitAttempts)
		assert.Equal(t, 10, cfg.DispatchQueueSize)
	})

	t.Run("absent keys keep defaults", func(t *testing.T) {
		cfg := validConfig()
		require.NoError(t, parseJson(cfg, []string{"-c", path}))

		assert.Equal(t, "91", cfg.DefaultCountryCode)
		assert.Equal(t, 4, cfg.DispatchWorkers)
		assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	})

	t.Run("no config flag leaves config untouched", func(t *testing.T) {
		cfg := validConfig()
		want := *cfg
		require.NoError(t, parseJson(cfg, []string{"-a", ":1"}))
		assert.Equal(t, want, *cfg)
	})

	t.Run("missing file", func(t *testing.T) {
		cfg := validConfig()
		require.Error(t, parseJson(cfg, []string{"-c", filepath.Join(dir, "nope.json")}))
	})

	t.Run("invalid json", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		cfg := validConfig()
		require.Error(t, parseJson(cfg, []string{"-config", bad}))
	})
}
