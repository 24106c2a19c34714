package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/helpdesk/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     HTTP bind address (e.g., ":8080")
//	-d string     PostgreSQL DSN
//	-s string     JWT HMAC secret key
//	-t duration   session validity (e.g., "168h")
//	-o duration   OTP validity (e.g., "10m")
//	-f string     frontend base URL used in verification links
//	-r string     Redis address for attempt limiting
//	-l string     log level
//
// Arguments are filtered with flagx.FilterArgs first so that -c/-config and
// flags owned by other components do not break parsing.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-s", "-t", "-o", "-f", "-r", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.DurationVar(&config.SessionValidityDuration, "t", config.SessionValidityDuration, "session validity duration")
	fs.DurationVar(&config.OTPValidityDuration, "o", config.OTPValidityDuration, "otp validity duration")
	fs.StringVar(&config.FrontendBaseURL, "f", config.FrontendBaseURL, "frontend base url")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	return fs.Parse(args)
}
