// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values for the API server and itinctl.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// JWTSecret is the HMAC key bearer tokens are verified with. Required.
	JWTSecret string

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64

	// MigrateOnStart applies pending migrations before the server listens.
	MigrateOnStart bool

	// RoutingProvider selects the route backend: straightline, mapbox or google.
	RoutingProvider string
	MapboxToken     string
	GoogleMapsKey   string

	// RoutingTimeout bounds a single routing call. Defaults to 5s.
	RoutingTimeout time.Duration

	// RedisURL enables the route cache when set, e.g. redis://localhost:6379/0.
	RedisURL string

	// RouteCacheTTL is how long cached routes live. Defaults to 24h.
	RouteCacheTTL time.Duration
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set, or the
// first variable whose value cannot be parsed.
func Load() (Config, error) {
	cfg := Config{
		Port:            getEnv("PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CORSOrigins:     splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		RoutingProvider: strings.ToLower(getEnv("ROUTING_PROVIDER", "straightline")),
		MapboxToken:     os.Getenv("MAPBOX_ACCESS_TOKEN"),
		GoogleMapsKey:   os.Getenv("GOOGLE_MAPS_API_KEY"),
		RedisURL:        os.Getenv("REDIS_URL"),
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	cfg.JWTSecret = os.Getenv("AUTH_JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "AUTH_JWT_SECRET")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	var err error
	if cfg.MaxBodyBytes, err = getInt64("MAX_BODY_BYTES", 1<<20); err != nil {
		return Config{}, err
	}
	if cfg.MigrateOnStart, err = getBool("MIGRATE_ON_START", false); err != nil {
		return Config{}, err
	}
	if cfg.RoutingTimeout, err = getDuration("ROUTING_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.RouteCacheTTL, err = getDuration("ROUTE_CACHE_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}

	switch cfg.RoutingProvider {
	case "straightline":
	case "mapbox":
		if cfg.MapboxToken == "" {
			return Config{}, fmt.Errorf("ROUTING_PROVIDER=mapbox requires MAPBOX_ACCESS_TOKEN")
		}
	case "google":
		if cfg.GoogleMapsKey == "" {
			return Config{}, fmt.Errorf("ROUTING_PROVIDER=google requires GOOGLE_MAPS_API_KEY")
		}
	default:
		return Config{}, fmt.Errorf("ROUTING_PROVIDER: unknown provider %q", cfg.RoutingProvider)
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s: expected a positive integer, got %q", key, v)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: expected a boolean, got %q", key, v)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: expected a positive duration like 5s, got %q", key, v)
	}
	return d, nil
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
