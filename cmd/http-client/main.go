package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"product-api/internal/client"
	"product-api/internal/config"
	"product-api/internal/logger"
	"product-api/internal/tracer"
	"product-api/internal/version"
)

const requestTimeout = 2 * time.Second

// poll makes one round of read-only calls against the API.
func poll(ctx context.Context, c *client.ProductClient) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	page, err := c.List(ctx, 1, 10)
	if err != nil {
		logger.Error(ctx, "Failed to list products", slog.String("error", err.Error()))
		return
	}

	stats, err := c.Stats(ctx)
	if err != nil {
		logger.Error(ctx, "Failed to fetch stats", slog.String("error", err.Error()))
		return
	}

	logger.Info(ctx, "Received products",
		slog.Int("count", len(page.Products)),
		slog.Int64("total", page.Total),
		slog.Int("categories", len(stats.CountByCategory)),
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Instance()

	logger.Info(ctx, cfg.AppName,
		slog.String("version", version.Version),
		slog.String("commit", version.Commit),
		slog.String("buildTime", version.BuildTime),
	)

	shutdownTracer, err := tracer.Instance(ctx, cfg)
	if err != nil {
		logger.Warn(ctx, "Tracing disabled", slog.String("error", err.Error()))
	}
	defer func() {
		_ = shutdownTracer(context.Background())
	}()

	delay := time.Duration(cfg.ClientDelayMs) * time.Millisecond
	logger.Info(ctx, "HTTP client started",
		slog.String("target", cfg.APIBaseURL),
		slog.Int64("delay_ms", cfg.ClientDelayMs),
	)

	c := client.NewProductClient(cfg.APIBaseURL, cfg.APIKey, requestTimeout)
	ticker := time.NewTicker(delay)
	defer ticker.Stop()

	for {
		poll(ctx, c)
		select {
		case <-ctx.Done():
			logger.Info(context.Background(), "HTTP client stopped")
			return
		case <-ticker.C:
		}
	}
}
