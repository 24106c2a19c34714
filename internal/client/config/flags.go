package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/helpdesk/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
//	-a string     base URL of the server
//	-t duration   per-request timeout
//	-s string     session file
//	-i duration   online check interval
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-t", "-s", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "server base url")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "request timeout")
	fs.StringVar(&cfg.SessionFile, "s", cfg.SessionFile, "session file")
	fs.DurationVar(&cfg.OnlineCheckInterval, "i", cfg.OnlineCheckInterval, "online check interval")

	return fs.Parse(args)
}
