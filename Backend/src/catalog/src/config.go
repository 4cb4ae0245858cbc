package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/ahinestrog/bestsellers/internal/catalog"
)

const defaultListURL = "https://api.nytimes.com/svc/books/v3/lists/current/hardcover-fiction.json"

type Config struct {
	ServiceName  string
	GRPCAddr     string
	ListURL      string
	APIKey       string
	FetchTimeout time.Duration
	PriceSeed    uint64
	RabbitURL    string
	Exchange     string
	LogLevel     string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// LoadConfig reads the environment, after an optional .env in the working
// directory.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ServiceName: getenv("CATALOG_SERVICE_NAME", "catalog"),
		GRPCAddr:    getenv("CATALOG_GRPC_ADDR", ":50051"),
		ListURL:     getenv("CATALOG_API_URL", defaultListURL),
		APIKey:      os.Getenv("NYT_API_KEY"),
		RabbitURL:   os.Getenv("RABBITMQ_URL"),
		Exchange:    getenv("EVENTS_EXCHANGE", "bestsellers.events"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
	}

	timeout, err := time.ParseDuration(getenv("CATALOG_FETCH_TIMEOUT", catalog.DefaultTimeout.String()))
	if err != nil {
		return Config{}, fmt.Errorf("CATALOG_FETCH_TIMEOUT: %w", err)
	}
	cfg.FetchTimeout = timeout

	seed, err := strconv.ParseUint(getenv("CATALOG_PRICE_SEED", "0"), 10, 64)
	if err != nil {
		return Config{}, fmt.Errorf("CATALOG_PRICE_SEED: %w", err)
	}
	cfg.PriceSeed = seed

	if cfg.APIKey == "" {
		return Config{}, errors.New("NYT_API_KEY is required")
	}
	return cfg, nil
}

// Prices is the loader option the seed selects: 0 draws fresh prices on
// every load.
func (c Config) Prices() catalog.Option {
	return catalog.WithSeed(c.PriceSeed)
}
