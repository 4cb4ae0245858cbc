package main

import (
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

	"github.com/ahinestrog/bestsellers/internal/cart"
	"github.com/ahinestrog/bestsellers/internal/events"
	"github.com/ahinestrog/bestsellers/internal/rpc"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	cfg, err := LoadConfig()
	must(err)
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	log.Info().
		Str("addr", cfg.GRPCAddr).
		Str("catalog", cfg.CatalogTarget).
		Bool("events", cfg.RabbitURL != "").
		Msg("starting cart service")

	cc, err := rpc.Dial(cfg.CatalogTarget)
	must(err)
	defer cc.Close()
	books := newCatalogBooks(rpc.NewCatalogClient(cc), cfg.CatalogTimeout)

	pub, err := events.Dial(cfg.RabbitURL, cfg.Exchange, cfg.ServiceName)
	must(err)
	defer pub.Close()
	fwd := events.NewForwarder(pub, cfg.EventBuffer, 5*time.Second)
	defer fwd.Close()

	// One cart per process.
	engine := cart.NewEngine(books)
	engine.Subscribe(fwd.Observe)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	must(err)
	grpcSrv := grpc.NewServer()
	rpc.RegisterCartServer(grpcSrv, NewCartServer(engine, books))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, hs)
	hs.SetServingStatus(rpc.CartService, healthpb.HealthCheckResponse_SERVING)

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		log.Warn().Msg("shutting down...")
		hs.Shutdown()
		grpcSrv.GracefulStop()
	}()

	log.Info().Msg("gRPC listening")
	must(grpcSrv.Serve(lis))
}

func must(err error) {
	if err != nil {
		log.Fatal().Err(err).Msg("fatal")
	}
}
