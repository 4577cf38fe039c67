package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/mentorship/internal/client/client"
	"github.com/dmitrijs2005/mentorship/internal/client/config"
	"github.com/google/uuid"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type pinger interface {
	Ping(ctx context.Context) error
	Close() error
}

type App struct {
	config   *config.Config
	api      client.Client
	health   pinger
	reader   *bufio.Reader
	out      io.Writer
	userName string
	role     string

	mu   sync.Mutex
	mode Mode

	// formIDs holds the current form instance per role. A new instance is
	// started after a successful registration.
	formIDs   map[string]string
	newFormID func() string
}

func NewApp(c *config.Config) (*App, error) {
	hc, err := client.NewHealthChecker(c.HealthEndpointAddr)
	if err != nil {
		return nil, err
	}

	return &App{
		config:    c,
		api:       client.NewAPIClient(c.ServerURL, c.RequestTimeout),
		health:    hc,
		reader:    bufio.NewReader(os.Stdin),
		out:       os.Stdout,
		formIDs:   make(map[string]string),
		newFormID: uuid.NewString,
	}, nil
}

func (a *App) formID(role string) string {
	id, ok := a.formIDs[role]
	if !ok {
		id = a.newFormID()
		a.formIDs[role] = id
	}
	return id
}

func (a *App) resetForm(role string) {
	delete(a.formIDs, role)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format+"\n", args...)
}

func (a *App) isLoggedIn() bool {
	return a.userName != ""
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.printf("Switched to %s mode", mode)
	}
}

func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) getStatus() string {
	s := ""
	if a.userName != "" {
		s = a.userName + " "
	}
	if m := a.Mode(); m != "" {
		s = s + string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Run starts the connectivity watcher and the REPL on stdin.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.health.Close()

	a.printf("Welcome to the mentorship CLI (type 'help' for commands)")

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))

	if a.isLoggedIn() {
		_ = a.Logout(ctx)
	}
}

// StartOnlineStatusWatcher probes the health service every interval until
// ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	check := func() {
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := a.health.Ping(pctx); err != nil {
			a.setMode(ModeOffline)
			return
		}
		a.setMode(ModeOnline)
	}

	check()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			check()
		case <-ctx.Done():
			return
		}
	}
}
