package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Validate checks the resolved configuration and reports every problem at once
func (c *Config) Validate() error {
	var problems []string

	if u, err := url.Parse(c.ServerURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		problems = append(problems, fmt.Sprintf("%s must be an absolute http(s) URL", KeyServerURL))
	}
	if u, err := url.Parse(c.WSURL); err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
		problems = append(problems, fmt.Sprintf("%s must be an absolute ws(s) URL", KeyWSURL))
	}
	if c.HTTPTimeout <= 0 {
		problems = append(problems, fmt.Sprintf("%s must be positive", KeyHTTPTimeout))
	}
	if c.CheckTimeout <= 0 {
		problems = append(problems, fmt.Sprintf("%s must be positive", KeyCheckTimeout))
	}
	if c.CheckEvent == "" || c.ReplyEvent == "" {
		problems = append(problems, "event names cannot be empty")
	}

	switch c.SessionStore {
	case StoreFile:
		if c.SessionFile == "" {
			problems = append(problems, fmt.Sprintf("%s is required for the file store", KeySessionFile))
		}
	case StoreRedis:
		if c.RedisAddr == "" {
			problems = append(problems, fmt.Sprintf("%s is required for the redis store", KeyRedisAddr))
		}
	default:
		problems = append(problems, fmt.Sprintf("%s must be %q or %q", KeySessionStore, StoreFile, StoreRedis))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ValidateEnv validates that all required environment variables are set
func ValidateEnv(requiredVars []string) error {
	var missing []string

	for _, varName := range requiredVars {
		if os.Getenv(varName) == "" {
			missing = append(missing, varName)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return nil
}

// GetEnvOrDefault retrieves an environment variable or returns a default value
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvDuration parses a duration environment variable, falling back on error
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// GetEnvInt parses an integer environment variable, falling back on error
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
