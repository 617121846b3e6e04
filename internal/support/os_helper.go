package support

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// FirstEnv returns the first non-empty value among keys.
func FirstEnv(fallback string, keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return fallback
}

// GetEnvInt returns the integer value of key. Unset or empty keys yield
// fallback; malformed values are logged and also yield fallback.
func GetEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		log.Warn("Ignoring invalid integer in environment", "env", key, "value", value, "fallback", fallback)
		return fallback
	}
	return parsed
}

// GetEnvDuration accepts Go duration strings ("45s") or plain seconds ("45").
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback
	}
	value = strings.TrimSpace(value)
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Warn("Ignoring invalid duration in environment", "env", key, "value", value, "fallback", fallback)
	return fallback
}
