package config

import (
	"fmt"
	"strconv"
)

// KeyInfo is one row of `coachd config show`: the key, its env override,
// and the current value.
type KeyInfo struct {
	Key    string
	EnvVar string
	Value  string
}

// ShowAll renders the resolved config as key/value rows. Secrets (the Groq
// API key, the API token) are omitted so they never reach a terminal.
func ShowAll(cfg Config) []KeyInfo {
	var rows []KeyInfo
	for _, s := range specs {
		if s.secret {
			continue
		}
		rows = append(rows, KeyInfo{
			Key:    s.key,
			EnvVar: s.env,
			Value:  fmt.Sprintf("%v", s.extract(cfg)),
		})
	}
	return rows
}

// SetKey persists one config key to the platform backend. Secrets are
// refused here; they belong in the keychain or an environment variable.
func SetKey(key, value string) error {
	b := newPlatformBackend()

	for _, s := range specs {
		if s.key != key {
			continue
		}
		if s.secret {
			return fmt.Errorf("cannot set secret %q via config; use environment variable %s", key, s.env)
		}
		switch s.typ {
		case kString:
			return b.SetString(key, value)
		case kInt:
			i, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid integer value for %s: %w", key, err)
			}
			return b.SetInt(key, i)
		}
	}

	return fmt.Errorf("unknown config key: %q", key)
}

// ValidKeys lists the key names SetKey accepts.
func ValidKeys() []string {
	var keys []string
	for _, s := range specs {
		if !s.secret {
			keys = append(keys, s.key)
		}
	}
	return keys
}
