package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"
)

type Config struct {
	ServiceName  string
	OTLPEndpoint string // host:port of an OTLP gRPC collector; empty disables export
	Insecure     bool
	Interval     time.Duration
}

// SetupMetrics installs a global meter provider exporting over OTLP gRPC.
// With no endpoint configured the global provider stays a no-op. The
// returned function flushes and stops the exporter.
func SetupMetrics(ctx context.Context, cfg Config, log *zap.Logger) (func(context.Context) error, error) {
	if cfg.OTLPEndpoint == "" {
		log.Info("metrics export disabled")
		return func(context.Context) error { return nil }, nil
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(resource.NewWithAttributes(semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
		)),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(cfg.Interval),
		)),
	)
	otel.SetMeterProvider(mp)

	log.Info("metrics export enabled",
		zap.String("endpoint", cfg.OTLPEndpoint),
		zap.Duration("interval", cfg.Interval),
	)
	return mp.Shutdown, nil
}
