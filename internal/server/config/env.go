package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// parseEnv overlays HELPDESK_* environment variables onto config.
// Unset or empty variables are ignored.
func parseEnv(config *Config, getenv func(string) string) error {
	strs := map[string]*string{
		"HELPDESK_HTTP_ADDR":               &config.HTTPAddr,
		"HELPDESK_DATABASE_DSN":            &config.DatabaseDSN,
		"HELPDESK_LOG_LEVEL":               &config.LogLevel,
		"HELPDESK_SECRET_KEY":              &config.SecretKey,
		"HELPDESK_FRONTEND_BASE_URL":       &config.FrontendBaseURL,
		"HELPDESK_DEFAULT_COUNTRY_CODE":    &config.DefaultCountryCode,
		"HELPDESK_EMAIL_DRIVER":            &config.EmailDriver,
		"HELPDESK_EMAIL_FROM":              &config.EmailFrom,
		"HELPDESK_POSTMARK_API_URL":        &config.PostmarkAPIURL,
		"HELPDESK_POSTMARK_SERVER_TOKEN":   &config.PostmarkServerToken,
		"HELPDESK_POSTMARK_MESSAGE_STREAM": &config.PostmarkMessageStream,
		"HELPDESK_SMS_DRIVER":              &config.SMSDriver,
		"HELPDESK_TWILIO_API_URL":          &config.TwilioAPIURL,
		"HELPDESK_TWILIO_ACCOUNT_SID":      &config.TwilioAccountSID,
		"HELPDESK_TWILIO_AUTH_TOKEN":       &config.TwilioAuthToken,
		"HELPDESK_TWILIO_FROM":             &config.TwilioFrom,
		"HELPDESK_REDIS_ADDR":              &config.RedisAddr,
		"HELPDESK_REDIS_PASSWORD":          &config.RedisPassword,
	}
	ints := map[string]*int{
		"HELPDESK_REDIS_DB":            &config.RedisDB,
		"HELPDESK_RATE_LIMIT_ATTEMPTS": &config.RateLimitAttempts,
		"HELPDESK_DISPATCH_WORKERS":    &config.DispatchWorkers,
		"HELPDESK_DISPATCH_QUEUE_SIZE": &config.DispatchQueueSize,
	}
	durations := map[string]*time.Duration{
		"HELPDESK_SESSION_VALIDITY":           &config.SessionValidityDuration,
		"HELPDESK_OTP_VALIDITY":               &config.OTPValidityDuration,
		"HELPDESK_VERIFICATION_LINK_VALIDITY": &config.VerificationLinkValidityDuration,
		"HELPDESK_RATE_LIMIT_WINDOW":          &config.RateLimitWindow,
		"HELPDESK_DISPATCH_JOB_TIMEOUT":       &config.DispatchJobTimeout,
		"HELPDESK_READ_TIMEOUT":               &config.ReadTimeout,
		"HELPDESK_WRITE_TIMEOUT":              &config.WriteTimeout,
		"HELPDESK_IDLE_TIMEOUT":               &config.IdleTimeout,
		"HELPDESK_SHUTDOWN_TIMEOUT":           &config.ShutdownTimeout,
	}

	for key, dst := range strs {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	var errs []error
	for key, dst := range ints {
		v := getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		*dst = n
	}
	for key, dst := range durations {
		v := getenv(key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		*dst = d
	}

	return errors.Join(errs...)
}
