package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"endpoint_addr_http":             "www.example:9000",
		"endpoint_addr_grpc":             "www.example:9001",
		"database_driver":                "pgx",
		"database_dsn":                   "postgres://db",
		"auth_provider":                  "supabase",
		"supabase_url":                   "https://abc.supabase.co",
		"supabase_anon_key":              "anon",
		"supabase_service_role_key":      "service",
		"auth_timeout":                   "3s",
		"jwt_secret":                     "my_secret_key",
		"access_token_validity_duration": "30m",
		"site_url":                       "https://mentorship.dev",
		"signup_max_attempts":            5,
		"signup_initial_delay":           1000000000,
		"delete_orphaned_accounts":       false,
		"allowed_origins":                []string{"https://mentorship.dev"},
		"s3_bucket":                      "ledger",
		"s3_region":                      "eu-central-1",
		"otlp_endpoint":                  "http://collector:4318",
		"health_check_interval":          "1m",
		"log_level":                      "debug",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "www.example:9000", cfg.EndpointAddrHTTP)
		assert.Equal(t, "www.example:9001", cfg.EndpointAddrGRPC)
		assert.Equal(t, "pgx", cfg.DatabaseDriver)
		assert.Equal(t, "postgres://db", cfg.DatabaseDSN)
		assert.Equal(t, "supabase", cfg.AuthProvider)
		assert.Equal(t, "https://abc.supabase.co", cfg.SupabaseURL)
		assert.Equal(t, "anon", cfg.SupabaseAnonKey)
		assert.Equal(t, "service", cfg.SupabaseServiceRoleKey)
		assert.Equal(t, 3*time.Second, cfg.AuthTimeout)
		assert.Equal(t, "my_secret_key", cfg.JWTSecret)
		assert.Equal(t, 30*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, "https://mentorship.dev", cfg.SiteURL)
		assert.Equal(t, 5, cfg.SignUpMaxAttempts)
		assert.Equal(t, time.Second, cfg.SignUpInitialDelay)
		assert.False(t, cfg.DeleteOrphanedAccounts)
		assert.Equal(t, []string{"https://mentorship.dev"}, cfg.AllowedOrigins)
		assert.Equal(t, "ledger", cfg.S3Bucket)
		assert.Equal(t, "eu-central-1", cfg.S3Region)
		assert.Equal(t, "http://collector:4318", cfg.OTLPEndpoint)
		assert.Equal(t, time.Minute, cfg.HealthCheckInterval)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("partial file keeps other values", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{"site_url": "https://x.dev"})
		os.Args = []string{"testbin", "-c", partial}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "https://x.dev", cfg.SiteURL)
		assert.Equal(t, ":8080", cfg.EndpointAddrHTTP)
		assert.Equal(t, 5*time.Second, cfg.SignUpInitialDelay)
		assert.True(t, cfg.DeleteOrphanedAccounts)
	})

	t.Run("no config flag → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{EndpointAddrHTTP: "defaults:1234", SignUpMaxAttempts: 7}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrHTTP)
		assert.Equal(t, 7, cfg.SignUpMaxAttempts)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})

	t.Run("missing file → panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", filepath.Join(dir, "nope.json")}
		require.Panics(t, func() { parseJson(&Config{}) })
	})
}
