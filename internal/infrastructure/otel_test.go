package infrastructure

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return NewJSONLogger(&bytes.Buffer{}, "error")
}

func TestInitializeTelemetry_Metrics(t *testing.T) {
	tel, err := InitializeTelemetry(TelemetryConfig{RunID: "run-1", EnableMetrics: true}, quietLogger())
	require.NoError(t, err)
	defer tel.Shutdown(context.Background())

	ctx := context.Background()
	ctx, stage := tel.StartStage(ctx, "clean", 10)
	tel.RecordRemoved(ctx, "zero_coordinates", 2)
	tel.RecordRemoved(ctx, "non_positive_fare", 1)
	stage.End(7, nil)

	path := filepath.Join(t.TempDir(), "pipeline.prom")
	require.NoError(t, tel.WriteMetrics(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "pipeline_rows_removed_total")
	assert.Contains(t, text, `step="zero_coordinates"`)
	assert.Contains(t, text, "pipeline_rows_processed_total")
	assert.Contains(t, text, `stage="clean"`)
	assert.Contains(t, text, "pipeline_stage_duration_seconds")
}

func TestInitializeTelemetry_FileTraces(t *testing.T) {
	traceFile := filepath.Join(t.TempDir(), "traces", "traces.json")
	tel, err := InitializeTelemetry(TelemetryConfig{
		EnableTracing: true,
		TraceExporter: "file",
		TraceFile:     traceFile,
	}, quietLogger())
	require.NoError(t, err)
	require.NotNil(t, tel.TracerProvider)

	_, stage := tel.StartStage(context.Background(), "load", 0)
	stage.End(5, nil)
	require.NoError(t, tel.Shutdown(context.Background()))

	data, err := os.ReadFile(traceFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "pipeline.load")
}

func TestInitializeTelemetry_UnsupportedExporter(t *testing.T) {
	_, err := InitializeTelemetry(TelemetryConfig{EnableTracing: true, TraceExporter: "jaeger"}, quietLogger())
	assert.Error(t, err)
}

func TestTelemetry_NilIsNoop(t *testing.T) {
	var tel *Telemetry

	ctx, stage := tel.StartStage(context.Background(), "derive", 3)
	tel.RecordRemoved(ctx, "step", 1)
	assert.GreaterOrEqual(t, stage.End(3, assert.AnError).Nanoseconds(), int64(0))
	assert.NoError(t, tel.WriteMetrics(filepath.Join(t.TempDir(), "m.prom")))
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestTelemetry_MetricsDisabled(t *testing.T) {
	tel, err := InitializeTelemetry(TelemetryConfig{}, quietLogger())
	require.NoError(t, err)

	_, stage := tel.StartStage(context.Background(), "load", 0)
	stage.End(1, nil)

	path := filepath.Join(t.TempDir(), "m.prom")
	require.NoError(t, tel.WriteMetrics(path))
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
