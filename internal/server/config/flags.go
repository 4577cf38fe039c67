package config

import (
	"flag"
	"os"
	"strings"

	"github.com/dmitrijs2005/mentorship/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-g string   gRPC health bind address (e.g., ":50051")
//	-d string   database DSN
//	-D string   database driver ("pgx" or "sqlite")
//	-P string   auth provider ("supabase" or "memory")
//	-u string   Supabase project URL
//	-k string   Supabase anon key
//	-s string   JWT secret
//	-w string   site URL used for verification redirects
//	-o string   comma-separated CORS origins
//	-l string   log level
//
// Flags not listed here are ignored, so -c/-config can share the command line.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-d", "-D", "-P", "-u", "-k", "-s", "-w", "-o", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port to run server")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC health address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.DatabaseDriver, "D", config.DatabaseDriver, "database driver")
	fs.StringVar(&config.AuthProvider, "P", config.AuthProvider, "auth provider")
	fs.StringVar(&config.SupabaseURL, "u", config.SupabaseURL, "Supabase project URL")
	fs.StringVar(&config.SupabaseAnonKey, "k", config.SupabaseAnonKey, "Supabase anon key")
	fs.StringVar(&config.JWTSecret, "s", config.JWTSecret, "JWT secret")
	fs.StringVar(&config.SiteURL, "w", config.SiteURL, "site URL")
	origins := fs.String("o", strings.Join(config.AllowedOrigins, ","), "allowed CORS origins")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AllowedOrigins = splitList(*origins)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
