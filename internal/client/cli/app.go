package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/helpdesk/internal/client/client"
	"github.com/dmitrijs2005/helpdesk/internal/client/config"
	"github.com/dmitrijs2005/helpdesk/internal/client/session"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// sessionStore persists the login state. Implemented by *session.Store.
type sessionStore interface {
	Save(ctx context.Context, s session.Session) error
	Load(ctx context.Context) (*session.Session, error)
	Clear(ctx context.Context) error
}

type App struct {
	config *config.Config
	api    client.Client
	store  sessionStore
	closer io.Closer

	session *session.Session
	// lastEmail prefills the verify-otp and resend prompts after register.
	lastEmail string

	mu   sync.Mutex
	mode Mode

	reader *bufio.Reader
	prompt prompter
	out    io.Writer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	api, err := client.NewHTTPClient(c.ServerURL, &http.Client{Timeout: c.RequestTimeout})
	if err != nil {
		return nil, err
	}

	store, err := session.Open(ctx, c.SessionFile)
	if err != nil {
		return nil, fmt.Errorf("open session file: %w", err)
	}

	sess, err := store.Load(ctx)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	reader := bufio.NewReader(os.Stdin)
	return &App{
		config:  c,
		api:     api,
		store:   store,
		closer:  store,
		session: sess,
		reader:  reader,
		prompt:  newTerminalPrompter(reader, os.Stdout),
		out:     os.Stdout,
	}, nil
}

// Run starts the online watcher and the REPL, and returns when the user exits.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer func() {
		if a.closer != nil {
			_ = a.closer.Close()
		}
	}()

	fmt.Fprintln(a.out, "Help-desk account CLI (type 'help' for commands)")

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) isLoggedIn() bool {
	return a.session != nil
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mode = mode
}

func (a *App) getMode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) getStatus() string {
	s := ""
	if a.session != nil {
		s = a.session.Email + " "
	}
	s += string(a.getMode())
	if s == "" {
		return ""
	}
	return fmt.Sprintf("(%s)", s)
}

// StartOnlineStatusWatcher probes the server every interval and flips the
// mode shown in the prompt.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	a.checkOnline(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := a.api.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}
