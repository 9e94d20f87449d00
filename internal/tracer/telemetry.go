package tracer

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"product-api/internal/config"
	"product-api/internal/logger"
	"product-api/internal/version"

	otelpyroscope "github.com/grafana/otel-profiling-go"
	"github.com/grafana/pyroscope-go"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"google.golang.org/grpc"
)

var (
	once         sync.Once
	shutdownFunc func(context.Context) error
	initErr      error
)

var pyroLogrus = func() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.JSONFormatter{})
	return l
}()

// exporters returns the span exporters enabled by cfg. None is fine: spans are
// still created so trace and span ids reach the logs.
func exporters(ctx context.Context, cfg *config.Config) ([]trace.SpanExporter, error) {
	var exps []trace.SpanExporter

	if cfg.RemoteTraceRpcURI != "" {
		exp, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithInsecure(),
			otlptracegrpc.WithEndpoint(cfg.RemoteTraceRpcURI),
			otlptracegrpc.WithCompressor("gzip"),
			otlptracegrpc.WithDialOption(grpc.WithUserAgent(cfg.AppName+"/"+version.Version)),
		)
		if err != nil {
			return nil, err
		}
		exps = append(exps, exp)
	}

	if cfg.TraceStdout {
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, err
		}
		exps = append(exps, exp)
	}

	return exps, nil
}

// Instance sets up the global tracer provider, propagators and the Pyroscope agent
// once. The returned function flushes and stops them.
func Instance(globalCtx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	once.Do(func() {
		exps, err := exporters(globalCtx, cfg)
		if err != nil {
			logger.Error(globalCtx, "Failed to create trace exporter", slog.String("error", err.Error()))
			initErr = err
			return
		}

		res, err := resource.New(globalCtx,
			resource.WithAttributes(
				semconv.ServiceNameKey.String(cfg.AppName),
				semconv.ServiceVersionKey.String(version.Version),
				attribute.String("store", cfg.StoreDriver),
			),
		)
		if err != nil {
			logger.Error(globalCtx, "Failed to create resource", slog.String("error", err.Error()))
			initErr = err
			return
		}

		opts := []trace.TracerProviderOption{trace.WithResource(res)}
		for _, exp := range exps {
			opts = append(opts, trace.WithBatcher(exp))
		}
		tp := trace.NewTracerProvider(opts...)

		otel.SetTracerProvider(otelpyroscope.NewTracerProvider(tp))
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
		logger.Info(globalCtx, "OpenTelemetry tracer initialized", slog.Int("exporters", len(exps)))

		var profiler *pyroscope.Profiler
		if cfg.RemoteProfilingHttpURI != "" {
			profiler, err = pyroscope.Start(pyroscope.Config{
				ApplicationName: cfg.AppName,
				ServerAddress:   cfg.RemoteProfilingHttpURI,
				Logger:          pyroLogrus,
				Tags:            map[string]string{"version": version.Version},
			})
			if err != nil {
				logger.Error(globalCtx, "Pyroscope failed to start", slog.String("error", err.Error()))
			} else {
				logger.Info(globalCtx, "Pyroscope started successfully")
			}
		}

		shutdownFunc = func(ctx context.Context) error {
			var errs []error
			if err := tp.Shutdown(ctx); err != nil {
				errs = append(errs, err)
			}
			if profiler != nil {
				if err := profiler.Stop(); err != nil {
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		}
	})

	if shutdownFunc == nil {
		return func(context.Context) error { return nil }, initErr
	}
	return shutdownFunc, initErr
}
