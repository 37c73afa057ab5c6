package config

import (
	"os"
	"strconv"
	"time"
)

// Getter is an interface for retrieving raw settings by name
type Getter interface {
	Get(key string) string
}

// EnvGetter reads settings from the process environment
type EnvGetter struct{}

// Get returns the environment variable value, empty if unset
func (EnvGetter) Get(key string) string {
	return os.Getenv(key)
}

// MapGetter serves settings from a fixed map
type MapGetter map[string]string

// Get returns the mapped value, empty if absent
func (m MapGetter) Get(key string) string {
	return m[key]
}

// Loader provides typed access to settings with default values
type Loader struct {
	src Getter
}

// NewLoader creates a new settings loader
func NewLoader(src Getter) *Loader {
	if src == nil {
		src = EnvGetter{}
	}
	return &Loader{src: src}
}

// Int retrieves an integer setting, returning defaultVal if not found or invalid
func (l *Loader) Int(key string, defaultVal int) int {
	if val := l.src.Get(key); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			return v
		}
	}
	return defaultVal
}

// Bool retrieves a boolean setting, returning defaultVal if not found or invalid
func (l *Loader) Bool(key string, defaultVal bool) bool {
	if val := l.src.Get(key); val != "" {
		if v, err := strconv.ParseBool(val); err == nil {
			return v
		}
	}
	return defaultVal
}

// String retrieves a string setting, returning defaultVal if not found or empty
func (l *Loader) String(key, defaultVal string) string {
	if val := l.src.Get(key); val != "" {
		return val
	}
	return defaultVal
}

// Raw retrieves a string setting without substituting a default for empty values.
// The second return value reports whether the key was set at all.
func (l *Loader) Raw(key string) (string, bool) {
	if lk, ok := l.src.(interface{ Lookup(string) (string, bool) }); ok {
		return lk.Lookup(key)
	}
	val := l.src.Get(key)
	return val, val != ""
}

// Duration retrieves a duration setting, returning defaultVal if not found or invalid
// Expects the value to be in Go duration format (e.g., "1h30m", "5s")
func (l *Loader) Duration(key string, defaultVal time.Duration) time.Duration {
	if val := l.src.Get(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// Lookup reports whether the environment variable is set, even when empty
func (EnvGetter) Lookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// Lookup reports whether the key is present in the map, even when empty
func (m MapGetter) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}
