package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the server's runtime settings.
type Config struct {
	DeckFile  string
	SwapDelay time.Duration
	LogLevel  string
}

// Load reads configuration from a .env file (if present) and environment
// variables, applying defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the server still starts when .env is absent.
	_ = godotenv.Load()

	return Config{
		DeckFile:  envOr("DECK_FILE", "./decks.json"),
		SwapDelay: time.Duration(envIntOr("SWAP_DELAY_MS", 150)) * time.Millisecond,
		LogLevel:  envOr("LOG_LEVEL", "info"),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}
