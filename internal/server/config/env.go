package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// parseEnv overlays values from CK_* environment variables (and the
// conventional SENDGRID_API_KEY). Unset variables leave fields untouched.
// Durations use time.ParseDuration syntax. Malformed values panic.
func parseEnv(config *Config) {
	if err := env.Parse(config); err != nil {
		panic(fmt.Errorf("parse env: %w", err))
	}
}
