// Package config handles configuration for the registration server,
// including defaults, a JSON overlay, environment variables and
// command-line flags.
package config

import (
	"strings"
	"time"
)

// Config holds runtime settings for the server.
//
// Fields:
//   - EndpointAddrHTTP / EndpointAddrGRPC: bind addresses for the JSON API and the health service.
//   - DatabaseDriver / DatabaseDSN: "pgx" (Postgres, Supabase) or "sqlite" (local development).
//   - AuthProvider: "supabase" for a GoTrue-compatible API, "memory" for the in-process stand-in.
//   - SupabaseURL / SupabaseAnonKey / SupabaseServiceRoleKey: hosted provider settings; the
//     service role key enables account deletion during compensation.
//   - JWTSecret: HS256 secret used to verify access tokens (and to mint them in memory mode).
//   - SiteURL: public site; verification links redirect to SiteURL + "/login".
//   - SignUpMaxAttempts / SignUpInitialDelay: retry-with-backoff while the provider rate-limits.
//   - S3*: optional bucket for the orphaned-account ledger; empty bucket logs orphans instead.
type Config struct {
	EndpointAddrHTTP string `env:"HTTP_ADDRESS"`
	EndpointAddrGRPC string `env:"GRPC_ADDRESS"`

	DatabaseDriver string `env:"DATABASE_DRIVER"`
	DatabaseDSN    string `env:"DATABASE_URL"`

	AuthProvider           string        `env:"AUTH_PROVIDER"`
	SupabaseURL            string        `env:"SUPABASE_URL"`
	SupabaseAnonKey        string        `env:"SUPABASE_ANON_KEY"`
	SupabaseServiceRoleKey string        `env:"SUPABASE_SERVICE_ROLE_KEY"`
	AuthTimeout            time.Duration `env:"AUTH_TIMEOUT"`

	JWTSecret                   string        `env:"SUPABASE_JWT_SECRET"`
	AccessTokenValidityDuration time.Duration `env:"ACCESS_TOKEN_TTL"`

	SiteURL                string        `env:"SITE_URL"`
	SignUpMaxAttempts      int           `env:"SIGNUP_MAX_ATTEMPTS"`
	SignUpInitialDelay     time.Duration `env:"SIGNUP_INITIAL_DELAY"`
	DeleteOrphanedAccounts bool          `env:"DELETE_ORPHANED_ACCOUNTS"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	S3AccessKey    string `env:"S3_ACCESS_KEY"`
	S3SecretKey    string `env:"S3_SECRET_KEY"`
	S3Bucket       string `env:"S3_BUCKET"`
	S3Region       string `env:"S3_REGION"`
	S3BaseEndpoint string `env:"S3_BASE_ENDPOINT"`

	OTLPEndpoint        string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	HealthCheckInterval time.Duration `env:"HEALTH_CHECK_INTERVAL"`
	LogLevel            string        `env:"LOG_LEVEL"`
}

// LoadDefaults populates Config with development defaults: SQLite and the
// in-memory auth provider. These are not suitable for production.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDriver = "sqlite"
	c.DatabaseDSN = "file:mentorship.db?_pragma=foreign_keys(1)&_time_format=sqlite"
	c.AuthProvider = "memory"
	c.AuthTimeout = 10 * time.Second
	c.JWTSecret = "secretKey"
	c.AccessTokenValidityDuration = time.Hour
	c.SiteURL = "http://localhost:5173"
	c.SignUpMaxAttempts = 3
	c.SignUpInitialDelay = 5 * time.Second
	c.DeleteOrphanedAccounts = true
	c.AllowedOrigins = []string{"http://localhost:5173"}
	c.S3Region = "us-east-1"
	c.HealthCheckInterval = 10 * time.Second
	c.LogLevel = "info"
}

// AuthBaseURL is the GoTrue API root under the Supabase project URL.
func (c *Config) AuthBaseURL() string {
	return strings.TrimRight(c.SupabaseURL, "/") + "/auth/v1"
}

// RedirectURL is where email verification sends the user.
func (c *Config) RedirectURL() string {
	return strings.TrimRight(c.SiteURL, "/") + "/login"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment (and .env) and finally
// command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
