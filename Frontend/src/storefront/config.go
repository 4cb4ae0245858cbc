package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr       string
	CatalogTarget  string
	CartTarget     string
	RequestTimeout time.Duration
	AllowedOrigins []string
	LogLevel       string
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:      getenv("STOREFRONT_HTTP_ADDR", ":8080"),
		CatalogTarget: getenv("CATALOG_GRPC_TARGET", "localhost:50051"),
		CartTarget:    getenv("CART_GRPC_TARGET", "localhost:50052"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
	}
	for _, o := range strings.Split(getenv("CORS_ALLOWED_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	timeout, err := time.ParseDuration(getenv("REQUEST_TIMEOUT", "5s"))
	if err != nil {
		return Config{}, fmt.Errorf("REQUEST_TIMEOUT: %w", err)
	}
	if timeout < 3*time.Second || timeout > 5*time.Second {
		return Config{}, fmt.Errorf("REQUEST_TIMEOUT must be between 3s and 5s, got %s", timeout)
	}
	cfg.RequestTimeout = timeout
	return cfg, nil
}
