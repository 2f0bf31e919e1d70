package config

import (
	"os"
	"strings"
)

// EnvironmentExpander replaces ${VAR} and $VAR placeholders in raw configuration bytes.
type EnvironmentExpander interface {
	Expand(input []byte) ([]byte, error)
}

// OsEnvironmentExpander expands placeholders from the process environment.
// ${VAR:-fallback} expands to fallback when VAR is unset or empty.
// Other unset variables expand to the empty string; Validate reports the ones that matter.
type OsEnvironmentExpander struct {
	lookup func(string) (string, bool)
}

// NewOsEnvironmentExpander creates and returns a new instance of OsEnvironmentExpander.
func NewOsEnvironmentExpander() *OsEnvironmentExpander {
	return &OsEnvironmentExpander{lookup: os.LookupEnv}
}

// Expand implements EnvironmentExpander. It never fails.
func (e *OsEnvironmentExpander) Expand(input []byte) ([]byte, error) {
	lookup := e.lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return []byte(os.Expand(string(input), func(key string) string {
		name, fallback, hasFallback := strings.Cut(key, ":-")
		value, _ := lookup(name)
		if value == "" && hasFallback {
			return fallback
		}
		return value
	})), nil
}
