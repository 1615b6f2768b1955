package router

import (
	"fmt"
	"strings"
)

// Mode selects the terminal action for non-API requests. It is fixed at
// startup; switching modes means restarting the process.
type Mode string

const (
	ModeProduction  Mode = "production"
	ModeDevelopment Mode = "development"
)

// ModeEnvVar is the environment variable consulted at startup.
const ModeEnvVar = "MONOSERVE_MODE"

// ParseMode maps the startup signal to a Mode. An empty value defaults to
// production: proxying must be opted into explicitly, since nothing
// guarantees a dev process exists to receive forwarded traffic. Any other
// unrecognized value is a configuration mistake and fails.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return ModeProduction, nil
	case "production", "prod":
		return ModeProduction, nil
	case "development", "dev":
		return ModeDevelopment, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want %q or %q)", value, ModeProduction, ModeDevelopment)
	}
}
