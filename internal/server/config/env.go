package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var envFiles = []string{".env", "../.env"}

// parseEnv overlays variables from the process environment. A .env file in
// the working directory (or its parent) is loaded first without overriding
// variables that are already set. Unset variables leave fields unchanged.
func parseEnv(config *Config) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err == nil {
			break
		}
	}

	if err := env.Parse(config); err != nil {
		panic(fmt.Errorf("parse env: %w", err))
	}
}
