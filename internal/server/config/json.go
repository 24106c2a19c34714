package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/helpdesk/internal/flagx"
	"github.com/dmitrijs2005/helpdesk/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file.
// Durations accept strings such as "10m" or integer nanoseconds.
// Absent keys leave the current value untouched.
type JsonConfig struct {
	HTTPAddr    string `json:"http_addr"`
	DatabaseDSN string `json:"database_dsn"`
	LogLevel    string `json:"log_level"`
	SecretKey   string `json:"secret_key"`

	SessionValidityDuration          timex.Duration `json:"session_validity_duration"`
	OTPValidityDuration              timex.Duration `json:"otp_validity_duration"`
	VerificationLinkValidityDuration timex.Duration `json:"verification_link_validity_duration"`

	FrontendBaseURL    string `json:"frontend_base_url"`
	DefaultCountryCode string `json:"default_country_code"`

	EmailDriver           string `json:"email_driver"`
	EmailFrom             string `json:"email_from"`
	PostmarkAPIURL        string `json:"postmark_api_url"`
	PostmarkServerToken   string `json:"postmark_server_token"`
	PostmarkMessageStream string `json:"postmark_message_stream"`

	SMSDriver        string `json:"sms_driver"`
	TwilioAPIURL     string `json:"twilio_api_url"`
	TwilioAccountSID string `json:"twilio_account_sid"`
	TwilioAuthToken  string `json:"twilio_auth_token"`
	TwilioFrom       string `json:"twilio_from"`

	RedisAddr         string         `json:"redis_addr"`
	RedisPassword     string         `json:"redis_password"`
	RedisDB           int            `json:"redis_db"`
	RateLimitAttempts int            `json:"rate_limit_attempts"`
	RateLimitWindow   timex.Duration `json:"rate_limit_window"`

	DispatchWorkers    int            `json:"dispatch_workers"`
	DispatchQueueSize  int            `json:"dispatch_queue_size"`
	DispatchJobTimeout timex.Duration `json:"dispatch_job_timeout"`

	ReadTimeout     timex.Duration `json:"read_timeout"`
	WriteTimeout    timex.Duration `json:"write_timeout"`
	IdleTimeout     timex.Duration `json:"idle_timeout"`
	ShutdownTimeout timex.Duration `json:"shutdown_timeout"`
}

// parseJson overlays values from the file named by -c/-config onto config.
// Without the flag nothing is loaded.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.SessionValidityDuration, c.SessionValidityDuration)
	setDuration(&config.OTPValidityDuration, c.OTPValidityDuration)
	setDuration(&config.VerificationLinkValidityDuration, c.VerificationLinkValidityDuration)
	setString(&config.FrontendBaseURL, c.FrontendBaseURL)
	setString(&config.DefaultCountryCode, c.DefaultCountryCode)
	setString(&config.EmailDriver, c.EmailDriver)
	setString(&config.EmailFrom, c.EmailFrom)
	setString(&config.PostmarkAPIURL, c.PostmarkAPIURL)
	setString(&config.PostmarkServerToken, c.PostmarkServerToken)
	setString(&config.PostmarkMessageStream, c.PostmarkMessageStream)
	setString(&config.SMSDriver, c.SMSDriver)
	setString(&config.TwilioAPIURL, c.TwilioAPIURL)
	setString(&config.TwilioAccountSID, c.TwilioAccountSID)
	setString(&config.TwilioAuthToken, c.TwilioAuthToken)
	setString(&config.TwilioFrom, c.TwilioFrom)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	setInt(&config.RedisDB, c.RedisDB)
	setInt(&config.RateLimitAttempts, c.RateLimitAttempts)
	setDuration(&config.RateLimitWindow, c.RateLimitWindow)
	setInt(&config.DispatchWorkers, c.DispatchWorkers)
	setInt(&config.DispatchQueueSize, c.DispatchQueueSize)
	setDuration(&config.DispatchJobTimeout, c.DispatchJobTimeout)
	setDuration(&config.ReadTimeout, c.ReadTimeout)
	setDuration(&config.WriteTimeout, c.WriteTimeout)
	setDuration(&config.IdleTimeout, c.IdleTimeout)
	setDuration(&config.ShutdownTimeout, c.ShutdownTimeout)

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
