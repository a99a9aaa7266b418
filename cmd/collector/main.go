package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Tap30/gameanalytics-go/internal/collector"
	"github.com/Tap30/gameanalytics-go/internal/config"
	"github.com/Tap30/gameanalytics-go/internal/telemetry"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config file")
	flag.Parse()

	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Telemetry.Enabled {
		_, shutdown, err := telemetry.InitTracer(cfg.Telemetry.ServiceName+"-collector", os.Stderr, logger)
		if err != nil {
			log.Fatalf("Failed to initialize tracer: %v", err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
			}
		}()
	}

	keys := cfg.CollectorKeys()
	if len(keys) == 0 {
		log.Fatal("No game keys configured; set game.game_key/secret_key or collector.keys")
	}

	c := collector.New(collector.Config{
		Keys:     keys,
		Disabled: cfg.Collector.Disabled,
		Logger:   logger,
	})
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Collector.Port),
		Handler:           c,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("collector listening",
			slog.Int("port", cfg.Collector.Port),
			slog.String("base_url", fmt.Sprintf("http://localhost:%d/v2", cfg.Collector.Port)),
			slog.Int("games", len(keys)),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Collector failed: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", slog.String("error", err.Error()))
	}
	logger.Info("collector stopped", slog.Int("events", len(c.Events())))
}
