package config

import (
	"os"
	"strconv"
)

// Get returns the environment value for key, or fallback when unset or
// empty. godotenv is loaded by main before any Get call.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// GetInt parses an integer environment value, returning fallback when
// unset or malformed.
func GetInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
