// Package env reads the handful of variables needed before config.Load runs.
package env

import (
	"os"
	"strings"
)

// Get returns the value of key, or fallback when it is unset or blank.
func Get(key, fallback string) string {
	if val, ok := Lookup(key); ok {
		return val
	}
	return fallback
}

// Lookup returns the trimmed value of key and whether it held anything.
func Lookup(key string) (string, bool) {
	val := strings.TrimSpace(os.Getenv(key))
	return val, val != ""
}

// First returns the first non-blank value among keys, in order. Service
// prefixed names go first so GASDROP_LOG_FORMAT wins over LOG_FORMAT.
func First(fallback string, keys ...string) string {
	for _, key := range keys {
		if val, ok := Lookup(key); ok {
			return val
		}
	}
	return fallback
}
