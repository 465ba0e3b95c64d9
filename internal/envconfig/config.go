// Package envconfig reads the decoder's settings from the environment.
package envconfig

import (
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Var returns an environment variable stripped of surrounding whitespace
// and quotes.
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}

// LogLevel returns the log level for the application.
// Configurable via DECODER_DEBUG: a true boolean selects debug, an integer n
// selects slog.Level(-4*n) so that 2 enables trace output.
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("DECODER_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}

	return level
}

// Uint returns a function reading a uint from key with a default value.
// Unparsable values are logged and replaced by the default.
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return uint(n)
			}
		}
		return defaultValue
	}
}

// NumWorkers is the number of goroutines CPU kernels and model loading may
// use. Configurable via DECODER_NUM_WORKERS; 0 or unset means GOMAXPROCS.
func NumWorkers() int {
	if n := Uint("DECODER_NUM_WORKERS", 0)(); n > 0 {
		return int(n)
	}
	return runtime.GOMAXPROCS(0)
}

// EnvVar describes one supported environment variable.
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap returns every supported variable with its effective value.
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"DECODER_DEBUG":       {"DECODER_DEBUG", LogLevel(), "Show additional debug information (e.g. DECODER_DEBUG=1)"},
		"DECODER_NUM_WORKERS": {"DECODER_NUM_WORKERS", NumWorkers(), "Maximum goroutines used by CPU kernels and model loading"},
	}
}
