package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"product-api/internal/config"
	"product-api/internal/database"
	handler "product-api/internal/handler/http"
	"product-api/internal/logger"
	middleware_http "product-api/internal/middleware/http"
	"product-api/internal/repository"
	"product-api/internal/service"
	"product-api/internal/tracer"
	"product-api/internal/version"
)

func main() {
	globalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Instance()

	logger.Info(globalCtx, cfg.AppName,
		slog.String("version", version.Version),
		slog.String("commit", version.Commit),
		slog.String("buildTime", version.BuildTime),
	)

	// Initialize telemetry (OpenTelemetry + Pyroscope)
	shutdownTracer, err := tracer.Instance(globalCtx, cfg)
	if err != nil {
		logger.Warn(globalCtx, "Tracing disabled", slog.String("error", err.Error()))
	}

	var (
		store  service.ProductStore
		pinger service.Pinger
		db     *database.Mongo
	)
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Warn(globalCtx, "Using the in-memory store, data is lost on exit")
		store = repository.NewMemoryProductRepository()
	default:
		db, err = database.Connect(globalCtx, cfg.MongoURI, cfg.MongoDBName, cfg.AppName)
		if err != nil {
			logger.Error(globalCtx, "Failed to connect to MongoDB", slog.String("error", err.Error()))
			os.Exit(1)
		}
		productRepo := repository.NewProductRepository(db.Database)
		if err := productRepo.EnsureIndexes(globalCtx); err != nil {
			logger.Warn(globalCtx, "Failed to ensure indexes", slog.String("error", err.Error()))
		}
		store = productRepo
		pinger = db.Client
	}

	// Wiring
	productHandler := handler.NewProductHandler(service.NewProductService(store))
	healthHandler := handler.NewHealthHandler(service.NewHealthService(pinger))
	router := handler.NewRouter(cfg.APIKey, productHandler, healthHandler)

	server := &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      middleware_http.TraceMiddleware(router),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info(globalCtx, "HTTP server running", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error(globalCtx, "Server failed", slog.String("error", err.Error()))
			exitCode = 1
		}
	case <-globalCtx.Done():
		logger.Info(context.Background(), "Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "HTTP server shutdown failed", slog.String("error", err.Error()))
		exitCode = 1
	}
	if db != nil {
		if err := db.Disconnect(shutdownCtx); err != nil {
			logger.Error(shutdownCtx, "MongoDB disconnect failed", slog.String("error", err.Error()))
		}
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "Tracer shutdown failed", slog.String("error", err.Error()))
	}

	logger.Info(shutdownCtx, "Server stopped")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
