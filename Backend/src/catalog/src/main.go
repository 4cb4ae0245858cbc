package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/ahinestrog/bestsellers/internal/catalog"
	"github.com/ahinestrog/bestsellers/internal/events"
	"github.com/ahinestrog/bestsellers/internal/rpc"
)

func main() {
	// Logger
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	cfg, err := LoadConfig()
	must(err)
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	log.Info().
		Str("addr", cfg.GRPCAddr).
		Str("list", cfg.ListURL).
		Dur("fetch_timeout", cfg.FetchTimeout).
		Uint64("price_seed", cfg.PriceSeed).
		Bool("events", cfg.RabbitURL != "").
		Msg("starting catalog service")

	// Rabbit
	pub, err := events.Dial(cfg.RabbitURL, cfg.Exchange, cfg.ServiceName)
	must(err)
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loader := catalog.NewLoader(cfg.ListURL, cfg.APIKey,
		catalog.WithTimeout(cfg.FetchTimeout),
		cfg.Prices(),
	)
	srv := NewCatalogServer(ctx, loader, pub)
	srv.Start()

	// gRPC server
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	must(err)
	grpcSrv := grpc.NewServer()
	rpc.RegisterCatalogServer(grpcSrv, srv)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, hs)
	hs.SetServingStatus(rpc.CatalogService, healthpb.HealthCheckResponse_SERVING)

	// Signals for a clean shutdown
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		log.Warn().Msg("shutting down...")
		hs.Shutdown()
		cancel()
		grpcSrv.GracefulStop()
	}()

	log.Info().Msg("gRPC listening")
	must(grpcSrv.Serve(lis))
	srv.Wait()
}

func must(err error) {
	if err != nil {
		log.Fatal().Err(err).Msg("fatal")
	}
}
