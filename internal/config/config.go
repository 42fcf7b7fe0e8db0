package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Storage
	DataBackend  string
	SQLiteDBPath string
	StoreTimeout time.Duration

	// Domain
	Companies    []string
	DefaultRates map[string]float64
	FallbackRate float64

	// Auth (gate disabled when AuthSecret is empty)
	AuthEmail        string
	AuthPasswordHash string
	AuthSecret       string
	SessionTTL       time.Duration
}

const (
	defaultCompanies = "VedaAI,CK,BrandSurge"
	defaultRates     = "VedaAI=45,CK=35,BrandSurge=40"
)

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/tempo.db"),
		StoreTimeout: getEnvDuration("STORE_TIMEOUT", 5*time.Second),

		Companies:    parseCompanies(getEnv("COMPANIES", defaultCompanies)),
		DefaultRates: parseRates(getEnv("DEFAULT_RATES", defaultRates)),
		FallbackRate: getEnvFloat("FALLBACK_RATE", 35),

		AuthEmail:        getEnv("AUTH_EMAIL", ""),
		AuthPasswordHash: getEnv("AUTH_PASSWORD_HASH", ""),
		AuthSecret:       getEnv("AUTH_SECRET", ""),
		SessionTTL:       getEnvDuration("SESSION_TTL", 24*time.Hour),
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case "memory":
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be memory or sqlite", c.DataBackend))
	}

	if c.StoreTimeout < 100*time.Millisecond || c.StoreTimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid store timeout %v: must be between 100ms and 1m", c.StoreTimeout))
	}

	if len(c.Companies) == 0 {
		errors = append(errors, "company set cannot be empty")
	}
	if c.FallbackRate <= 0 {
		errors = append(errors, fmt.Sprintf("invalid fallback rate %v: must be positive", c.FallbackRate))
	}
	for company, rate := range c.DefaultRates {
		if rate <= 0 {
			errors = append(errors, fmt.Sprintf("invalid rate %v for company '%s': must be positive", rate, company))
		}
	}

	// Auth is all-or-nothing: a secret without credentials locks everyone out.
	if c.AuthSecret != "" {
		if c.AuthEmail == "" {
			errors = append(errors, "AUTH_EMAIL is required when AUTH_SECRET is set")
		}
		if c.AuthPasswordHash == "" {
			errors = append(errors, "AUTH_PASSWORD_HASH is required when AUTH_SECRET is set")
		}
		if c.SessionTTL < time.Minute || c.SessionTTL > 30*24*time.Hour {
			errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be between 1m and 720h", c.SessionTTL))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// parseCompanies splits a comma-separated company list, trimming blanks.
func parseCompanies(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// parseRates parses "Company=45,Other=35" pairs. Malformed pairs are
// skipped; a rate of 0 is kept so Validate can report it.
func parseRates(raw string) map[string]float64 {
	out := make(map[string]float64)
	for _, part := range strings.Split(raw, ",") {
		pair := strings.SplitN(part, "=", 2)
		if len(pair) != 2 {
			continue
		}
		name := strings.TrimSpace(pair[0])
		rate, err := strconv.ParseFloat(strings.TrimSpace(pair[1]), 64)
		if name == "" || err != nil {
			continue
		}
		out[name] = rate
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
