package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adrianliechti/vectorgate/config"
	"github.com/adrianliechti/vectorgate/pkg/otel"
	"github.com/adrianliechti/vectorgate/server"
)

var version = "dev"

func main() {
	configFlag := flag.String("config", "config.yaml", "configuration file")
	addressFlag := flag.String("address", "", "listen address")

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := otel.Setup(ctx, "vectorgate", version)

	if err != nil {
		slog.Error("failed to set up telemetry", "error", err)
	}

	if shutdown != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			shutdown(ctx)
		}()
	}

	cfg, err := config.Parse(*configFlag)

	if err != nil {
		slog.Error("failed to load config", "path", *configFlag, "error", err)
		os.Exit(1)
	}

	defer cfg.Close()

	if *addressFlag != "" {
		cfg.Address = *addressFlag
	}

	s, err := server.New(cfg)

	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	if err := s.ListenAndServe(ctx); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
