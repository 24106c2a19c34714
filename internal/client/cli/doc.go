// Package cli provides the interactive help-desk command-line client.
//
// It wires configuration, the HTTP API client and the local session file
// into a REPL. Commands cover the whole account lifecycle: register, verify
// by link or code, resend the code, login, show the current account and
// logout. A background watcher probes the server and shows online/offline
// in the prompt.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
