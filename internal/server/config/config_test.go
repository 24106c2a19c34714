package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) string { return "" }

func validConfig() *Config {
	c := &Config{}
	c.LoadDefaults()
	c.SecretKey = "secret"
	return c
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, "", c.SecretKey)
	assert.Equal(t, 7*24*time.Hour, c.SessionValidityDuration)
	assert.Equal(t, 10*time.Minute, c.OTPValidityDuration)
	assert.Equal(t, 24*time.Hour, c.VerificationLinkValidityDuration)
	assert.Equal(t, "91", c.DefaultCountryCode)
	assert.Equal(t, DriverLog, c.EmailDriver)
	assert.Equal(t, DriverLog, c.SMSDriver)
	assert.Empty(t, c.RedisAddr)
	assert.Equal(t, 4, c.DispatchWorkers)
}

func TestLoad_RequiresSecret(t *testing.T) {
	_, err := load(nil, noEnv)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "secret key is required")
}

func TestLoad_Precedence(t *testing.T) {
	path := writeTempJSON(t, "", "", map[string]any{
		"http_addr":  ":9000",
		"secret_key": "from-json",
		"log_level":  "debug",
	})
	env := map[string]string{
		"HELPDESK_SECRET_KEY": "from-env",
		"HELPDESK_LOG_LEVEL":  "warn",
	}

	cfg, err := load([]string{"-c", path, "-l", "error"}, func(k string) string { return env[k] })
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, "from-env", cfg.SecretKey)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestParseFlags(t *testing.T) {
	cfg := &Config{}
	args := []string{
		"-c", "ignored.json",
		"-a", "127.0.0.1:9090", "-d", "db", "-s", "secret",
		"-t", "48h", "-o", "5m", "-f", "https://helpdesk.example", "-r", "localhost:6379", "-l", "debug",
	}

	require.NoError(t, parseFlags(cfg, args))

	expected := &Config{
		HTTPAddr:                "127.0.0.1:9090",
		DatabaseDSN:             "db",
		SecretKey:               "secret",
		SessionValidityDuration: 48 * time.Hour,
		OTPValidityDuration:     5 * time.Minute,
		FrontendBaseURL:         "https://helpdesk.example",
		RedisAddr:               "localhost:6379",
		LogLevel:                "debug",
	}
	assert.Empty(t, cmp.Diff(expected, cfg))
}

func TestParseFlags_BadDuration(t *testing.T) {
	cfg := &Config{}
	require.Error(t, parseFlags(cfg, []string{"-o", "soon"}))
}

func TestParseEnv(t *testing.T) {
	env := map[string]string{
		"HELPDESK_DATABASE_DSN":        "postgres://x",
		"HELPDESK_SMS_DRIVER":          DriverTwilio,
		"HELPDESK_DISPATCH_WORKERS":    "8",
		"HELPDESK_OTP_VALIDITY":        "2m",
		"HELPDESK_RATE_LIMIT_ATTEMPTS": "3",
	}
	cfg := validConfig()

	require.NoError(t, parseEnv(cfg, func(k string) string { return env[k] }))

	assert.Equal(t, "postgres://x", cfg.DatabaseDSN)
	assert.Equal(t, DriverTwilio, cfg.SMSDriver)
	assert.Equal(t, 8, cfg.DispatchWorkers)
	assert.Equal(t, 2*time.Minute, cfg.OTPValidityDuration)
	assert.Equal(t, 3, cfg.RateLimitAttempts)
}

func TestParseEnv_Invalid(t *testing.T) {
	env := map[string]string{
		"HELPDESK_DISPATCH_WORKERS": "many",
		"HELPDESK_OTP_VALIDITY":     "forever",
	}
	cfg := validConfig()

	err := parseEnv(cfg, func(k string) string { return env[k] })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HELPDESK_DISPATCH_WORKERS")
	assert.Contains(t, err.Error(), "HELPDESK_OTP_VALIDITY")
	assert.Equal(t, 4, cfg.DispatchWorkers)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "ok", mutate: func(c *Config) {}},
		{name: "empty secret", mutate: func(c *Config) { c.SecretKey = "" }, wantErr: "secret key"},
		{name: "bad frontend url", mutate: func(c *Config) { c.FrontendBaseURL = "not a url" }, wantErr: "frontend base url"},
		{name: "zero otp validity", mutate: func(c *Config) { c.OTPValidityDuration = 0 }, wantErr: "durations"},
		{name: "unknown email driver", mutate: func(c *Config) { c.EmailDriver = "smtp" }, wantErr: "email driver"},
		{name: "postmark without token", mutate: func(c *Config) { c.EmailDriver = DriverPostmark }, wantErr: "postmark"},
		{name: "postmark ok", mutate: func(c *Config) {
			c.EmailDriver = DriverPostmark
			c.PostmarkServerToken = "tok"
		}},
		{name: "unknown sms driver", mutate: func(c *Config) { c.SMSDriver = "pigeon" }, wantErr: "sms driver"},
		{name: "twilio incomplete", mutate: func(c *Config) {
			c.SMSDriver = DriverTwilio
			c.TwilioAccountSID = "AC1"
		}, wantErr: "twilio"},
		{name: "redis with zero attempts", mutate: func(c *Config) {
			c.RedisAddr = "localhost:6379"
			c.RateLimitAttempts = 0
		}, wantErr: "rate limit"},
		{name: "no workers", mutate: func(c *Config) { c.DispatchWorkers = 0 }, wantErr: "dispatcher"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
