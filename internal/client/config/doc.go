// Package config loads runtime configuration for the help-desk CLI.
//
// Sources, in increasing precedence:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags -a, -t, -s and -i.
//
// Example file:
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "request_timeout": "10s",
//	  "session_file": "helpdesk-session.db",
//	  "online_check_interval": "3s"
//	}
package config
