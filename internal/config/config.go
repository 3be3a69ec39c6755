package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds everything the binaries need from the environment.
type AppConfig struct {
	Port            string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	FilterDebounce  time.Duration
}

// Load reads the optional .env file and the environment. An empty
// MongoURI means the binaries fall back to the in-memory store.
func Load() AppConfig {
	if err := godotenv.Load(); err != nil {
		log.Printf("[cfg] no .env file loaded: %v", err)
	}

	get := func(k, def string) string {
		if v := os.Getenv(k); v != "" {
			return v
		}
		return def
	}

	debounceMS, err := strconv.Atoi(get("FILTER_DEBOUNCE_MS", "300"))
	if err != nil || debounceMS < 0 {
		debounceMS = 300
	}

	return AppConfig{
		Port:            get("PORT", "8080"),
		MongoURI:        get("MONGO_URI", ""),
		MongoDatabase:   get("MONGO_DB", "weightbridge_to_factory"),
		MongoCollection: get("MONGO_COLLECTION", "entries"),
		FilterDebounce:  time.Duration(debounceMS) * time.Millisecond,
	}
}
