// Package config loads runtime configuration from the environment.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the server's runtime settings.
type Config struct {
	Port            string        // TCP port to bind
	ClientURL       string        // allowed cross-origin for the transport & REST surface
	JanitorInterval time.Duration // sweep cadence for the ended-session janitor
}

// Load reads configuration from the environment. It first attempts to
// load a .env file for local development; the error is ignored since a
// missing .env is expected in production, where real env vars are set.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:            getEnv("PORT", "3001"),
		ClientURL:       getEnv("CLIENT_URL", "http://localhost:5173"),
		JanitorInterval: 30 * time.Minute,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
