package env

import (
	"os"
	"strconv"
)

// Bool reads a boolean environment variable, returning defaultValue when the
// variable is unset or unparsable.
func Bool(name string, defaultValue bool) bool {
	v := os.Getenv(name)
	if v == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// Int reads an integer environment variable, returning defaultValue when the
// variable is unset or unparsable.
func Int(name string, defaultValue int) int {
	v := os.Getenv(name)
	if v == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// Float64 reads a float environment variable, returning defaultValue when the
// variable is unset or unparsable.
func Float64(name string, defaultValue float64) float64 {
	v := os.Getenv(name)
	if v == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// String reads a string environment variable, returning defaultValue when the
// variable is unset.
func String(name string, defaultValue string) string {
	v := os.Getenv(name)
	if v == "" {
		return defaultValue
	}
	return v
}
