// Package telemetry はOpenTelemetryによる分散トレーシングのセットアップを提供する。
package telemetry

import (
	"context"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Setup はOTLPトレースエクスポーターを初期化し、シャットダウン関数を返す。
// OTEL_EXPORTER_OTLP_ENDPOINTが未設定の場合は何もしないno-opを返すため、
// トレーシング基盤のない環境でもそのまま起動できる。
func Setup(serviceName string, logger *slog.Logger) func(context.Context) error {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		return func(context.Context) error { return nil }
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
	if os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true" {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(context.Background(), opts...)
	if err != nil {
		logger.Error("OTLPエクスポーターの初期化に失敗しました",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
		)
		return func(context.Context) error { return nil }
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		logger.Warn("OTELリソース属性の構築に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	provider := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	logger.Info("分散トレーシングを有効化しました",
		slog.String("endpoint", endpoint),
		slog.String("service", serviceName),
	)

	return provider.Shutdown
}
