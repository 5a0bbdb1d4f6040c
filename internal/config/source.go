package config

import (
	"os"
	"strings"

	apperrors "github.com/dvloznov/ramp-bills/internal/errors"
)

// Source resolves configuration keys.
type Source interface {
	Lookup(key string) (string, bool)
}

// MapSource is a fixed set of values, usually parsed from an env file.
type MapSource map[string]string

func (m MapSource) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// OSEnv reads the process environment.
type OSEnv struct{}

func (OSEnv) Lookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// Layered consults each source in order. The first non-empty value wins.
type Layered []Source

func (l Layered) Lookup(key string) (string, bool) {
	for _, src := range l {
		if src == nil {
			continue
		}
		if v, ok := src.Lookup(key); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// Get returns the value for key or fallback when it is unset or empty.
func Get(src Source, key, fallback string) string {
	if v, ok := src.Lookup(key); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

// Require checks that every key resolves to a non-empty value. The error
// names all missing keys at once.
func Require(src Source, keys ...string) error {
	var missing []string
	for _, k := range keys {
		if v, ok := src.Lookup(k); !ok || strings.TrimSpace(v) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return apperrors.WrapError(nil, apperrors.ErrMissingCredential, strings.Join(missing, ", "))
}
