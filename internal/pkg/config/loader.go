// Package config provides environment-variable loading helpers with a
// fail-open policy: an invalid value falls back to its default with a warning
// instead of stopping the worker. Components build their validated config
// structs on top of these helpers.
package config

import (
	"fmt"
	"os"
	"time"
)

// LoadResult is the outcome of loading one configuration value. Value holds
// the effective value, which is the default when FallbackApplied is true.
type LoadResult struct {
	Value           interface{}
	Warnings        []string
	FallbackApplied bool
}

func fallbackResult(envKey, raw string, err error, defaultValue interface{}) LoadResult {
	return LoadResult{
		Value:           defaultValue,
		Warnings:        []string{fmt.Sprintf("Invalid %s=%q: %v, falling back to default '%v'", envKey, raw, err, defaultValue)},
		FallbackApplied: true,
	}
}

// LoadEnvString reads a string variable without validation.
// An unset or empty variable yields the default.
func LoadEnvString(envKey, defaultValue string) string {
	if value := os.Getenv(envKey); value != "" {
		return value
	}
	return defaultValue
}

// LoadEnvWithFallback reads a string variable and validates it. A validation
// failure falls back to the default with a warning; an unset variable uses
// the default silently.
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) LoadResult {
	value := os.Getenv(envKey)
	if value == "" {
		return LoadResult{Value: defaultValue}
	}
	if validator != nil {
		if err := validator(value); err != nil {
			return fallbackResult(envKey, value, err, defaultValue)
		}
	}
	return LoadResult{Value: value}
}

// LoadEnvDuration reads a Go duration string ("30s", "5m", "1h30m").
// Parse and validation failures fall back to the default with a warning.
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) LoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return LoadResult{Value: defaultValue}
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fallbackResult(envKey, raw, err, defaultValue)
	}
	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallbackResult(envKey, raw, err, defaultValue)
		}
	}
	return LoadResult{Value: parsed}
}

// LoadEnvInt reads an integer variable. Parse and validation failures fall
// back to the default with a warning.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) LoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return LoadResult{Value: defaultValue}
	}
	var parsed int
	if _, err := fmt.Sscanf(raw, "%d", &parsed); err != nil {
		return fallbackResult(envKey, raw, fmt.Errorf("invalid integer format"), defaultValue)
	}
	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallbackResult(envKey, raw, err, defaultValue)
		}
	}
	return LoadResult{Value: parsed}
}

// LoadEnvBool reads a boolean variable. Accepted forms follow strconv
// conventions ("1"/"0", "t"/"f", "true"/"false" in any common casing).
func LoadEnvBool(envKey string, defaultValue bool) LoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return LoadResult{Value: defaultValue}
	}
	switch raw {
	case "1", "t", "T", "true", "TRUE", "True":
		return LoadResult{Value: true}
	case "0", "f", "F", "false", "FALSE", "False":
		return LoadResult{Value: false}
	}
	return fallbackResult(envKey, raw, fmt.Errorf("invalid boolean format, expected 'true' or 'false'"), defaultValue)
}
