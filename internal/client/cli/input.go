package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// prompter asks the user for input. Tests replace it with a scripted one.
type prompter interface {
	// Line prints label and returns the next line, trimmed.
	Line(label string) (string, error)
	// Secret prints label and reads without echo. Callers wipe the result.
	Secret(label string) ([]byte, error)
}

// terminalPrompter reads lines from in, which it shares with the REPL, and
// secrets straight from the terminal.
type terminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
}

func newTerminalPrompter(in *bufio.Reader, out io.Writer) *terminalPrompter {
	return &terminalPrompter{in: in, out: out, fd: int(os.Stdin.Fd())}
}

func (p *terminalPrompter) Line(label string) (string, error) {
	if _, err := fmt.Fprintf(p.out, "%s: ", label); err != nil {
		return "", err
	}
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *terminalPrompter) Secret(label string) ([]byte, error) {
	if _, err := fmt.Fprintf(p.out, "%s: ", label); err != nil {
		return nil, err
	}
	secret, err := readPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return nil, err
	}
	return secret, nil
}
