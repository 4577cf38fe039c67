package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/mentorship/internal/flagx"
	"github.com/dmitrijs2005/mentorship/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON config file. Durations accept
// "5s" style strings or integer nanoseconds. Only fields present in the file
// override the current values.
type JsonConfig struct {
	EndpointAddrHTTP            string          `json:"endpoint_addr_http"`
	EndpointAddrGRPC            string          `json:"endpoint_addr_grpc"`
	DatabaseDriver              string          `json:"database_driver"`
	DatabaseDSN                 string          `json:"database_dsn"`
	AuthProvider                string          `json:"auth_provider"`
	SupabaseURL                 string          `json:"supabase_url"`
	SupabaseAnonKey             string          `json:"supabase_anon_key"`
	SupabaseServiceRoleKey      string          `json:"supabase_service_role_key"`
	AuthTimeout                 *timex.Duration `json:"auth_timeout"`
	JWTSecret                   string          `json:"jwt_secret"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	SiteURL                     string          `json:"site_url"`
	SignUpMaxAttempts           *int            `json:"signup_max_attempts"`
	SignUpInitialDelay          *timex.Duration `json:"signup_initial_delay"`
	DeleteOrphanedAccounts      *bool           `json:"delete_orphaned_accounts"`
	AllowedOrigins              []string        `json:"allowed_origins"`
	S3AccessKey                 string          `json:"s3_access_key"`
	S3SecretKey                 string          `json:"s3_secret_key"`
	S3Bucket                    string          `json:"s3_bucket"`
	S3Region                    string          `json:"s3_region"`
	S3BaseEndpoint              string          `json:"s3_base_endpoint"`
	OTLPEndpoint                string          `json:"otlp_endpoint"`
	HealthCheckInterval         *timex.Duration `json:"health_check_interval"`
	LogLevel                    string          `json:"log_level"`
}

// parseJson loads the file named by -c or -config, if any, into config.
// An unreadable or malformed file panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.ConfigFileFlag(os.Args[1:])

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDriver, c.DatabaseDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.AuthProvider, c.AuthProvider)
	setString(&config.SupabaseURL, c.SupabaseURL)
	setString(&config.SupabaseAnonKey, c.SupabaseAnonKey)
	setString(&config.SupabaseServiceRoleKey, c.SupabaseServiceRoleKey)
	setString(&config.JWTSecret, c.JWTSecret)
	setString(&config.SiteURL, c.SiteURL)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.OTLPEndpoint, c.OTLPEndpoint)
	setString(&config.LogLevel, c.LogLevel)

	if c.AuthTimeout != nil {
		config.AuthTimeout = c.AuthTimeout.Duration
	}
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.SignUpMaxAttempts != nil {
		config.SignUpMaxAttempts = *c.SignUpMaxAttempts
	}
	if c.SignUpInitialDelay != nil {
		config.SignUpInitialDelay = c.SignUpInitialDelay.Duration
	}
	if c.DeleteOrphanedAccounts != nil {
		config.DeleteOrphanedAccounts = *c.DeleteOrphanedAccounts
	}
	if c.AllowedOrigins != nil {
		config.AllowedOrigins = c.AllowedOrigins
	}
	if c.HealthCheckInterval != nil {
		config.HealthCheckInterval = c.HealthCheckInterval.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
