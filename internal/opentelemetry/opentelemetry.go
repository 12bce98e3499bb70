package opentelemetry

import (
	"context"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/sdk/metric"
)

var (
	DefaultMeter = otel.Meter("github.com/cirruslabs/vmpower")
)

// Configure installs a global meter provider that exports metrics using OTLP.
//
// The exporter's protocol follows the standard OTEL_EXPORTER_OTLP_METRICS_PROTOCOL
// and OTEL_EXPORTER_OTLP_PROTOCOL environment variables and defaults to HTTP.
func Configure(ctx context.Context) (func(context.Context) error, error) {
	meterExporter, err := newMeterExporter(ctx)
	if err != nil {
		return nil, err
	}

	meterProvider := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(meterExporter)),
	)

	otel.SetMeterProvider(meterProvider)

	return meterProvider.Shutdown, nil
}

func newMeterExporter(ctx context.Context) (metric.Exporter, error) {
	protocol, ok := os.LookupEnv("OTEL_EXPORTER_OTLP_METRICS_PROTOCOL")
	if !ok {
		protocol = os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL")
	}

	if protocol == "grpc" {
		return otlpmetricgrpc.New(ctx)
	}

	return otlpmetrichttp.New(ctx)
}
