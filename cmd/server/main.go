package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"earnings-reversal/internal/analysis"
	"earnings-reversal/internal/logger"
	"earnings-reversal/internal/server"
	"earnings-reversal/internal/store"
	"earnings-reversal/internal/trace"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	_ = godotenv.Load()

	configPath := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		configPath = v
	}
	cfg, err := store.LoadConfig(configPath)
	must(err)

	must(logger.InitWithConfig(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}))
	must(trace.Init())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	analyzer, cleanup, err := analysis.BuildFromConfig(ctx, cfg)
	must(err)
	defer cleanup()

	srv := server.New(cfg, analyzer)

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		must(err)
	case sig := <-sigc:
		logger.Info(ctx, "Shutting down", "signal", sig.String())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithErr(shutdownCtx, "Server shutdown failed", err)
	}
	if err := trace.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithErr(shutdownCtx, "Tracer shutdown failed", err)
	}
}
