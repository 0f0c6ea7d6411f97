package featureflags

import (
	"os"
	"strings"
)

// Flag names an optional FreightLink feature. A flag is switched on with
// FLAG_<NAME>=true|1|yes|on (case-insensitive); anything else is off.
type Flag string

const (
	// LiveSearch serves the websocket subcontractor search.
	LiveSearch Flag = "live_search"
)

// Known lists every flag, for startup logging.
var Known = []Flag{LiveSearch}

// EnvKey is the environment variable that controls f.
func (f Flag) EnvKey() string {
	return "FLAG_" + strings.ToUpper(string(f))
}

// Enabled reads f from the environment on every call.
func (f Flag) Enabled() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(f.EnvKey()))) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// Snapshot reports the state of every known flag.
func Snapshot() map[Flag]bool {
	out := make(map[Flag]bool, len(Known))
	for _, f := range Known {
		out[f] = f.Enabled()
	}
	return out
}
