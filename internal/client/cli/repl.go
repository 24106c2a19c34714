package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	VerifyLink(ctx context.Context) error
	VerifyOTP(ctx context.Context) error
	Resend(ctx context.Context) error
	Login(ctx context.Context) error
	Me(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL reads a command per line from reader and dispatches it to a.
// It returns on EOF or when the user types "exit" or "quit".
//
//	register     create an account
//	verify       verify with the emailed link
//	verify-otp   verify with the emailed code
//	resend       send a new code
//	login        authenticate and keep the session
//	me           show the logged in account
//	logout       forget the session
//
// Handlers print their own errors, so the loop ignores them.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("helpdesk %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch cmd := parts[0]; cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: me, logout, register, verify, verify-otp, resend, exit")
			} else {
				printlnFn("Available commands: register, verify, verify-otp, resend, login, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "verify":
			_ = a.VerifyLink(ctx)

		case "verify-otp", "otp":
			_ = a.VerifyOTP(ctx)

		case "resend":
			_ = a.Resend(ctx)

		case "login":
			_ = a.Login(ctx)

		case "me":
			_ = a.Me(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
