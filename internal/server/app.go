// Package server wires the registration service together: storage, the
// authentication provider, the orphan ledger, the JSON API and the gRPC
// health service. It also handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/mentorship/internal/logging"
	"github.com/dmitrijs2005/mentorship/internal/server/authprovider"
	"github.com/dmitrijs2005/mentorship/internal/server/config"
	"github.com/dmitrijs2005/mentorship/internal/server/httpapi"
	"github.com/dmitrijs2005/mentorship/internal/server/orphans"
	"github.com/dmitrijs2005/mentorship/internal/server/registration"
	"github.com/dmitrijs2005/mentorship/internal/server/shared/db"
	"github.com/dmitrijs2005/mentorship/internal/server/telemetry"

	gs "github.com/dmitrijs2005/mentorship/internal/server/grpc"
)

const serviceName = "mentorship-registration"

// Version is set at build time with -ldflags.
var Version = "dev"

type App struct {
	config   *config.Config
	logger   logging.Logger
	repos    *db.RepositoryManager
	provider authprovider.Provider
	http     *httpapi.Server
	health   *gs.HealthServer
	shutdown func(context.Context) error
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	shutdown, err := telemetry.InitTracer(ctx, serviceName, Version, c.OTLPEndpoint)
	if err != nil {
		return nil, fmt.Errorf("telemetry init error: %w", err)
	}

	repos, err := db.NewRepositoryManager(c.DatabaseDriver, c.DatabaseDSN, logger)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := repos.RunMigrations(ctx); err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	provider, err := newProvider(c, logger)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}

	ledger, err := newOrphanRecorder(ctx, c, logger)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}

	wf := registration.NewWorkflow(provider, repos.Students(), repos.Organizations(), ledger, logger, registration.Config{
		RedirectTo: c.RedirectURL(),
		Retry: registration.RetryPolicy{
			MaxAttempts:  c.SignUpMaxAttempts,
			InitialDelay: c.SignUpInitialDelay,
		},
		DeleteOnCompensation: c.DeleteOrphanedAccounts,
	})

	api := httpapi.NewServer(c.EndpointAddrHTTP, httpapi.Dependencies{
		Forms:         registration.NewForms(wf),
		Provider:      provider,
		Students:      repos.Students(),
		Organizations: repos.Organizations(),
		DB:            repos.Conn(),
		JWTSecret:     []byte(c.JWTSecret),
	}, c.AllowedOrigins, logger)

	health := gs.NewHealthServer(c.EndpointAddrGRPC, repos.Conn(), c.HealthCheckInterval, logger)

	return &App{
		config:   c,
		logger:   logger,
		repos:    repos,
		provider: provider,
		http:     api,
		health:   health,
		shutdown: shutdown,
	}, nil
}

func newProvider(c *config.Config, logger logging.Logger) (authprovider.Provider, error) {
	switch c.AuthProvider {
	case "memory":
		return authprovider.NewMemoryProvider([]byte(c.JWTSecret), c.AccessTokenValidityDuration), nil
	case "supabase", "gotrue":
		if c.SupabaseURL == "" || c.SupabaseAnonKey == "" {
			return nil, fmt.Errorf("auth provider %q requires SUPABASE_URL and SUPABASE_ANON_KEY", c.AuthProvider)
		}
		var opts []authprovider.GoTrueOption
		if c.SupabaseServiceRoleKey != "" {
			opts = append(opts, authprovider.WithServiceRoleKey(c.SupabaseServiceRoleKey))
		}
		return authprovider.NewGoTrueClient(c.AuthBaseURL(), c.SupabaseAnonKey, c.AuthTimeout, logger, opts...), nil
	default:
		return nil, fmt.Errorf("unknown auth provider %q", c.AuthProvider)
	}
}

func newOrphanRecorder(ctx context.Context, c *config.Config, logger logging.Logger) (orphans.Recorder, error) {
	if c.S3Bucket == "" {
		return orphans.NewLogRecorder(logger), nil
	}
	r, err := orphans.NewS3Recorder(ctx, orphans.S3Config{
		Region:    c.S3Region,
		Endpoint:  c.S3BaseEndpoint,
		AccessKey: c.S3AccessKey,
		SecretKey: c.S3SecretKey,
		Bucket:    c.S3Bucket,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("orphan ledger init error: %w", err)
	}
	return r, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) start(ctx context.Context, cancelFunc context.CancelFunc, name string, run func(context.Context) error) {
	if err := run(ctx); err != nil {
		app.logger.Error(ctx, name+" stopped", "error", err)
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a signal arrives, then waits for both
// servers to stop and releases resources.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "version", Version)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.start(ctx, cancelFunc, "http server", app.http.Run)
	}()
	go func() {
		defer wg.Done()
		app.start(ctx, cancelFunc, "grpc server", app.health.Run)
	}()

	wg.Wait()

	app.close()
}

func (app *App) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.shutdown(ctx); err != nil {
		app.logger.Error(ctx, "telemetry shutdown error", "error", err)
	}
	if err := app.repos.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
