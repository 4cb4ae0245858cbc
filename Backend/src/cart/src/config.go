package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName    string
	GRPCAddr       string
	CatalogTarget  string
	CatalogTimeout time.Duration
	RabbitURL      string
	Exchange       string
	EventBuffer    int
	LogLevel       string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		ServiceName:   getenv("CART_SERVICE_NAME", "cart"),
		GRPCAddr:      getenv("CART_GRPC_ADDR", ":50052"),
		CatalogTarget: getenv("CATALOG_GRPC_TARGET", "localhost:50051"),
		RabbitURL:     os.Getenv("RABBITMQ_URL"),
		Exchange:      getenv("EVENTS_EXCHANGE", "bestsellers.events"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
	}

	timeout, err := time.ParseDuration(getenv("CATALOG_RPC_TIMEOUT", "5s"))
	if err != nil {
		return Config{}, fmt.Errorf("CATALOG_RPC_TIMEOUT: %w", err)
	}
	cfg.CatalogTimeout = timeout

	buf, err := strconv.Atoi(getenv("EVENT_BUFFER", "256"))
	if err != nil {
		return Config{}, fmt.Errorf("EVENT_BUFFER: %w", err)
	}
	cfg.EventBuffer = buf
	return cfg, nil
}
