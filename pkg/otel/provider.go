package otel

import (
	"context"
	"errors"
	"log/slog"
	"os"

	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.38.0"
)

const instrumentationName = "github.com/adrianliechti/vectorgate"

var (
	EnableDebug     = false
	EnableTelemetry = false
)

func init() {
	EnableDebug = os.Getenv("DEBUG") != ""
	EnableTelemetry = os.Getenv("TELEMETRY") != ""
}

type Observable interface {
	otelSetup()
}

// Setup installs the otlp log, trace and metric exporters when telemetry is
// enabled and returns a function flushing them. Without TELEMETRY only the
// slog level is adjusted.
func Setup(ctx context.Context, serviceName, serviceVersion string) (func(context.Context) error, error) {
	if EnableDebug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	if !EnableTelemetry {
		return func(context.Context) error { return nil }, nil
	}

	resource, err := sdkresource.Merge(
		sdkresource.Default(),
		sdkresource.NewSchemaless(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)

	if err != nil {
		return nil, err
	}

	var shutdowns []shutdownFunc
	var errs []error

	for _, setup := range []func(context.Context, *sdkresource.Resource) (shutdownFunc, error){
		setupTracer,
		setupMeter,
		setupLogger,
	} {
		shutdown, err := setup(ctx, resource)

		if err != nil {
			errs = append(errs, err)
			continue
		}

		shutdowns = append(shutdowns, shutdown)
	}

	shutdown := func(ctx context.Context) error {
		var errs []error

		for _, s := range shutdowns {
			errs = append(errs, s(ctx))
		}

		return errors.Join(errs...)
	}

	return shutdown, errors.Join(errs...)
}
