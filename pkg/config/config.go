package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string
	HTTPAddr string

	// BookingAllowedOrigins is a comma-separated allowlist of origins allowed to call
	// the booking endpoints from a browser frontend. Example:
	//   https://book.yourcruiseline.com,http://localhost:5173
	BookingAllowedOrigins []string

	// SessionTTL is how long an idle booking session survives before the
	// sweeper drops it. Sessions are memory-only; nothing durable.
	SessionTTL time.Duration

	// SubmitRatePerMinute caps booking submissions per client as a second
	// guard against double-clicks on top of the per-session busy flag.
	SubmitRatePerMinute int

	Reservations ReservationsConfig
}

// ReservationsConfig points at the reservations backend, the black-box HTTP
// service that owns all durable state (itineraries, ships, cabins, bookings).
type ReservationsConfig struct {
	// BaseURL is the backend root, e.g. https://reservations.internal:8443
	BaseURL string

	// APIKey is sent as X-Api-Key on every call.
	APIKey string

	// Timeout applies per call. The submit path makes up to three calls in
	// sequence, so keep this well under any upstream gateway timeout.
	Timeout time.Duration
}

func Load() Config {
	// Convenience for local dev: load variables from .env if present.
	// In production, rely on real environment variables.
	_ = godotenv.Load()

	// Cloud Run sets PORT. Prefer it when HTTP_ADDR isn't explicitly set.
	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			httpAddr = ":" + port
		} else {
			httpAddr = ":8081"
		}
	}

	return Config{
		AppEnv:   env("APP_ENV", "dev"),
		HTTPAddr: httpAddr,

		BookingAllowedOrigins: envList("BOOKING_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:4173"),

		SessionTTL:          envDuration("SESSION_TTL", 45*time.Minute),
		SubmitRatePerMinute: envInt("SUBMIT_RATE_PER_MINUTE", 6),

		Reservations: ReservationsConfig{
			BaseURL: env("RESERVATIONS_BASE_URL", "http://localhost:9090"),
			APIKey:  os.Getenv("RESERVATIONS_API_KEY"),
			Timeout: envDuration("RESERVATIONS_TIMEOUT", 20*time.Second),
		},
	}
}

func env(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func envList(key, fallbackCSV string) []string {
	v := os.Getenv(key)
	if v == "" {
		v = fallbackCSV
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
