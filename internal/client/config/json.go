package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/mentorship/internal/flagx"
	"github.com/dmitrijs2005/mentorship/internal/timex"
)

// JsonConfig is the on-disk shape of Config. Empty fields keep the current
// value.
type JsonConfig struct {
	ServerURL           string          `json:"server_url"`
	HealthEndpointAddr  string          `json:"health_endpoint_addr"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	RequestTimeout      *timex.Duration `json:"request_timeout"`
}

// parseJson overlays cfg with the file named by -c/-config. It panics on read
// or decode errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigFileFlag(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.HealthEndpointAddr != "" {
		cfg.HealthEndpointAddr = jc.HealthEndpointAddr
	}
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = time.Duration(jc.OnlineCheckInterval.Duration)
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = time.Duration(jc.RequestTimeout.Duration)
	}
}
