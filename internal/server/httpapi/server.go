// Package httpapi is the JSON surface of the registration service: the two
// registration forms, sign-in/sign-out, the signed-in user's profile and the
// organization directory.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/mentorship/internal/common"
	"github.com/dmitrijs2005/mentorship/internal/logging"
	"github.com/dmitrijs2005/mentorship/internal/server/authprovider"
	"github.com/dmitrijs2005/mentorship/internal/server/models"
	"github.com/dmitrijs2005/mentorship/internal/server/records"
	"github.com/dmitrijs2005/mentorship/internal/server/registration"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ProfileStore is the part of records.Store the API reads and patches.
type ProfileStore[T any] interface {
	Get(ctx context.Context, id string) (*T, error)
	List(ctx context.Context, filters ...records.Filter) ([]*T, error)
	Update(ctx context.Context, id string, patch records.Patch) (*T, error)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Dependencies struct {
	Forms         *registration.Forms
	Provider      authprovider.Provider
	Students      ProfileStore[models.Student]
	Organizations ProfileStore[models.Organization]
	DB            Pinger
	JWTSecret     []byte
}

type Server struct {
	address       string
	forms         *registration.Forms
	provider      authprovider.Provider
	students      ProfileStore[models.Student]
	organizations ProfileStore[models.Organization]
	db            Pinger
	jwtSecret     []byte
	origins       []string
	logger        logging.Logger
}

func NewServer(address string, deps Dependencies, allowedOrigins []string, l logging.Logger) *Server {
	return &Server{
		address:       address,
		forms:         deps.Forms,
		provider:      deps.Provider,
		students:      deps.Students,
		organizations: deps.Organizations,
		db:            deps.DB,
		jwtSecret:     deps.JWTSecret,
		origins:       allowedOrigins,
		logger:        l.With("module", "http_server"),
	}
}

// Handler returns the routed API wrapped with CORS, request logging and
// tracing.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/students", s.registerStudent)
	mux.HandleFunc("POST /api/organizations", s.registerOrganization)
	mux.HandleFunc("GET /api/organizations", s.listOrganizations)

	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("POST /api/auth/logout", s.requireAuth(s.logout))
	mux.HandleFunc("GET /api/auth/me", s.requireAuth(s.me))
	mux.HandleFunc("PATCH /api/auth/me", s.requireAuth(s.updateMe))

	mux.HandleFunc("GET /healthz", s.health)

	c := cors.New(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", common.FormInstanceHeaderName},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
	})

	return otelhttp.NewHandler(c.Handler(s.logRequests(mux)), "http.server")
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Warn(r.Context(), "health check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "unavailable", "Database unavailable")
			return
		}
	}
	writeData(w, http.StatusOK, map[string]string{"status": "ok"}, "")
}
