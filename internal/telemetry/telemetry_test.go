package telemetry

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func TestSetup_NoEndpoint_ReturnsNoop(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	shutdown := Setup("sumika", logger)

	if shutdown == nil {
		t.Fatal("shutdown func should not be nil")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("noop shutdown should not fail: %v", err)
	}
}
