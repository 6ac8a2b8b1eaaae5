package main

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds the server's runtime settings, all sourced from the
// environment (optionally via a .env file) with sensible defaults.
type Config struct {
	Addr        string
	DBPath      string
	SeedOnStart bool
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// LoadConfig reads configuration from the environment. A missing .env file
// is not an error.
func LoadConfig() Config {
	_ = godotenv.Load()

	return Config{
		Addr:        getenv("BOOKSTORE_ADDR", ":8080"),
		DBPath:      getenv("BOOKSTORE_DB_PATH", "bookstore.db"),
		SeedOnStart: getenv("BOOKSTORE_SEED", "true") == "true",
	}
}
