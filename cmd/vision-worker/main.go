// Package main implements a vision inference worker: it answers NATS
// request-reply prediction calls by delegating to an HTTP model backend.
// Multiple workers share a queue group, so running more of them scales
// inference horizontally without touching the API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"

	"github.com/AutoEstimateAI/autoestimate-mvp/pkg/vision"
)

// Config holds all environment-based configuration.
type Config struct {
	NATSURL   string
	VisionURL string
}

func loadConfig() Config {
	return Config{
		NATSURL:   envOr("NATS_URL", nats.DefaultURL),
		VisionURL: envOr("VISION_URL", "http://localhost:8500"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("worker exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	nc, err := nats.Connect(cfg.NATSURL, nats.Name("autoestimate-vision-worker"))
	if err != nil {
		return fmt.Errorf("nats connect: %w", err)
	}
	defer nc.Close()

	backends := map[string]vision.Predictor{
		vision.SubjectParts:  vision.NewHTTPClient(cfg.VisionURL, "/predict/parts"),
		vision.SubjectDamage: vision.NewHTTPClient(cfg.VisionURL, "/predict/damage"),
	}

	for subject, backend := range backends {
		sub, err := vision.ServeNATS(nc, subject, backend)
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
		defer sub.Unsubscribe()
		logger.Info("worker listening", "subject", subject)
	}

	<-ctx.Done()
	logger.Info("shutdown signal received")
	return nil
}
