// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // LOG_TIMEZONE must resolve in minimal containers
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// JWTSecret is the HS256 key bearer tokens are signed with. Required.
	JWTSecret string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// GoogleMapsAPIKey enables geocoding and directions through Google Maps.
	// Without it only "lat,lng" locations are accepted.
	GoogleMapsAPIKey string

	// RedisURL enables the route cache when set.
	RedisURL string

	// RouteCacheTTL is how long a cached route stays valid. Defaults to 24h.
	RouteCacheTTL time.Duration

	// RouteTimeout bounds each router call. Defaults to 10s.
	RouteTimeout time.Duration

	// LogTimezone is the IANA zone whose midnights split daily logs. Defaults to UTC.
	LogTimezone *time.Location

	// AvgSpeedMPH and FuelIntervalMiles tune the trip simulation.
	AvgSpeedMPH       float64
	FuelIntervalMiles float64

	// PlanRateLimitRPS and PlanRateLimitBurst throttle POST /trips per user.
	PlanRateLimitRPS   float64
	PlanRateLimitBurst int

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64

	// MigrateOnStart runs pending goose migrations before serving.
	MigrateOnStart bool
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set and any
// values that do not parse.
func Load() (Config, error) {
	p := parser{}
	cfg := Config{
		Port:               getEnv("PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSOrigins:        splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		GoogleMapsAPIKey:   os.Getenv("GOOGLE_MAPS_API_KEY"),
		RedisURL:           os.Getenv("REDIS_URL"),
		RouteCacheTTL:      p.duration("ROUTE_CACHE_TTL", 24*time.Hour),
		RouteTimeout:       p.duration("ROUTE_TIMEOUT", 10*time.Second),
		LogTimezone:        p.location("LOG_TIMEZONE", time.UTC),
		AvgSpeedMPH:        p.float("AVG_SPEED_MPH", 55),
		FuelIntervalMiles:  p.float("FUEL_INTERVAL_MILES", 1000),
		PlanRateLimitRPS:   p.float("PLAN_RATE_LIMIT_RPS", 2),
		PlanRateLimitBurst: p.int("PLAN_RATE_LIMIT_BURST", 5),
		MaxBodyBytes:       int64(p.int("MAX_BODY_BYTES", 1<<20)),
		MigrateOnStart:     p.bool("MIGRATE_ON_START", false),
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}
	if len(p.invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(p.invalid, "; "))
	}
	if cfg.RouteTimeout <= 0 {
		return Config{}, fmt.Errorf("invalid environment variables: ROUTE_TIMEOUT must be positive")
	}
	if cfg.MaxBodyBytes <= 0 {
		return Config{}, fmt.Errorf("invalid environment variables: MAX_BODY_BYTES must be positive")
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

// parser reads typed values and collects every parse failure so Load can
// report them together.
type parser struct {
	invalid []string
}

func (p *parser) fail(key, raw string, err error) {
	p.invalid = append(p.invalid, fmt.Sprintf("%s=%q: %v", key, raw, err))
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, raw, err)
		return fallback
	}
	return d
}

func (p *parser) float(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(key, raw, err)
		return fallback
	}
	return f
}

func (p *parser) int(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, raw, err)
		return fallback
	}
	return n
}

func (p *parser) bool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, raw, err)
		return fallback
	}
	return b
}

func (p *parser) location(key string, fallback *time.Location) *time.Location {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	loc, err := time.LoadLocation(raw)
	if err != nil {
		p.fail(key, raw, err)
		return fallback
	}
	return loc
}
