package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd", "-a", "http://api:9090", "-g", "api:50051", "-i", "10", "-t", "45"},
			expected: &Config{
				ServerURL: "http://api:9090", HealthEndpointAddr: "api:50051",
				OnlineCheckInterval: 10 * time.Second, RequestTimeout: 45 * time.Second,
			},
		},
		{
			name: "config flag is left to the json loader",
			args: []string{"cmd", "-c", "client.json", "-a", "http://api:9090"},
			expected: &Config{
				ServerURL: "http://api:9090", HealthEndpointAddr: "127.0.0.1:50051",
				OnlineCheckInterval: 3 * time.Second, RequestTimeout: 30 * time.Second,
			},
		},
		{name: "incorrect check interval", args: []string{"cmd", "-i", "abc"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{}
			config.LoadDefaults()

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"cmd"}

	cfg := LoadConfig()
	assert.Equal(t, "http://127.0.0.1:8080", cfg.ServerURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}
