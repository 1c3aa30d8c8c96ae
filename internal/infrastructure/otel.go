package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"uberfares/pkg/contracts"
)

// InstrumentationName names the tracer and meter
const InstrumentationName = "uberfares/pipeline"

// TelemetryConfig holds OpenTelemetry configuration for a run
type TelemetryConfig struct {
	ServiceName    string
	ServiceVersion string
	RunID          string
	EnableTracing  bool
	TraceExporter  string // "stdout", "file", "none"
	TraceFile      string
	EnableMetrics  bool
}

// Telemetry holds the providers for one batch run. A nil *Telemetry is valid
// and records nothing.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Registry       *promclient.Registry
	Metrics        *PipelineMetrics

	logger    *slog.Logger
	traceFile *os.File
}

// InitializeTelemetry sets up stage tracing and pipeline metrics
func InitializeTelemetry(cfg TelemetryConfig, logger *slog.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = GetLogger()
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = contracts.ServiceName
	}
	if cfg.ServiceVersion == "" {
		cfg.ServiceVersion = contracts.Version
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		attribute.String("run.id", cfg.RunID),
	)

	t := &Telemetry{logger: logger}

	if err := t.initTracing(cfg, res); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if err := t.initMetrics(cfg, res); err != nil {
		t.closeTraceFile()
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	logger.Info("Telemetry initialized",
		slog.Bool("tracing_enabled", t.TracerProvider != nil),
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.Bool("metrics_enabled", t.MeterProvider != nil))

	return t, nil
}

func (t *Telemetry) initTracing(cfg TelemetryConfig, res *resource.Resource) error {
	if !cfg.EnableTracing || cfg.TraceExporter == "none" {
		t.Tracer = tracenoop.NewTracerProvider().Tracer(InstrumentationName)
		return nil
	}

	var w io.Writer
	switch cfg.TraceExporter {
	case "stdout":
		w = os.Stderr
	case "file":
		if err := os.MkdirAll(filepath.Dir(cfg.TraceFile), 0755); err != nil {
			return fmt.Errorf("failed to create trace directory: %w", err)
		}
		file, err := os.Create(cfg.TraceFile)
		if err != nil {
			return fmt.Errorf("failed to create trace file: %w", err)
		}
		t.traceFile = file
		w = file
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		t.closeTraceFile()
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	// Syncer: a batch run is short and spans should be on disk when it ends
	t.TracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	t.Tracer = t.TracerProvider.Tracer(InstrumentationName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
	return nil
}

func (t *Telemetry) initMetrics(cfg TelemetryConfig, res *resource.Resource) error {
	var meter metric.Meter
	if cfg.EnableMetrics {
		t.Registry = promclient.NewRegistry()
		exporter, err := otelprom.New(otelprom.WithRegisterer(t.Registry))
		if err != nil {
			return fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		t.MeterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)
		meter = t.MeterProvider.Meter(InstrumentationName, metric.WithInstrumentationVersion(cfg.ServiceVersion))
	} else {
		meter = metricnoop.NewMeterProvider().Meter(InstrumentationName)
	}

	metrics, err := NewPipelineMetrics(meter)
	if err != nil {
		return err
	}
	t.Metrics = metrics
	return nil
}

// WriteMetrics writes the collected metrics in Prometheus text format,
// suitable for the node_exporter textfile collector.
func (t *Telemetry) WriteMetrics(path string) error {
	if t == nil || t.Registry == nil || path == "" {
		return nil
	}
	if err := promclient.WriteToTextfile(path, t.Registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	t.logger.Info("Metrics written", slog.String("path", path))
	return nil
}

// Shutdown flushes and stops the providers
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}

	var errs []error
	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}
	if err := t.closeTraceFile(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (t *Telemetry) closeTraceFile() error {
	if t.traceFile == nil {
		return nil
	}
	err := t.traceFile.Close()
	t.traceFile = nil
	return err
}

// PipelineMetrics are the instruments recorded for every stage
type PipelineMetrics struct {
	rowsProcessed metric.Int64Counter
	rowsRemoved   metric.Int64Counter
	stageDuration metric.Float64Histogram
	stageErrors   metric.Int64Counter
}

// NewPipelineMetrics creates the pipeline instruments on meter
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	rowsProcessed, err := meter.Int64Counter(
		"pipeline_rows_processed",
		metric.WithDescription("Rows leaving each pipeline stage"),
	)
	if err != nil {
		return nil, err
	}

	rowsRemoved, err := meter.Int64Counter(
		"pipeline_rows_removed",
		metric.WithDescription("Rows dropped by each cleaning step"),
	)
	if err != nil {
		return nil, err
	}

	stageDuration, err := meter.Float64Histogram(
		"pipeline_stage_duration",
		metric.WithDescription("Pipeline stage duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	stageErrors, err := meter.Int64Counter(
		"pipeline_stage_errors",
		metric.WithDescription("Pipeline stages that ended with an error"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		rowsProcessed: rowsProcessed,
		rowsRemoved:   rowsRemoved,
		stageDuration: stageDuration,
		stageErrors:   stageErrors,
	}, nil
}

// StageSpan tracks one running stage
type StageSpan struct {
	ctx     context.Context
	name    string
	rowsIn  int
	start   time.Time
	span    trace.Span
	metrics *PipelineMetrics
}

// StartStage opens a span for stage and starts its timer
func (t *Telemetry) StartStage(ctx context.Context, stage string, rowsIn int) (context.Context, *StageSpan) {
	s := &StageSpan{ctx: ctx, name: stage, rowsIn: rowsIn, start: time.Now()}
	if t == nil {
		return ctx, s
	}

	ctx, span := t.Tracer.Start(ctx, "pipeline."+stage,
		trace.WithAttributes(
			attribute.String("pipeline.stage", stage),
			attribute.Int("pipeline.rows_in", rowsIn),
		))
	s.ctx = ctx
	s.span = span
	s.metrics = t.Metrics
	return ctx, s
}

// End closes the stage and returns its duration
func (s *StageSpan) End(rowsOut int, err error) time.Duration {
	elapsed := time.Since(s.start)
	stageAttr := metric.WithAttributes(attribute.String("stage", s.name))

	if s.metrics != nil {
		s.metrics.rowsProcessed.Add(s.ctx, int64(rowsOut), stageAttr)
		s.metrics.stageDuration.Record(s.ctx, elapsed.Seconds(), stageAttr)
		if err != nil {
			s.metrics.stageErrors.Add(s.ctx, 1, stageAttr)
		}
	}

	if s.span != nil {
		s.span.SetAttributes(
			attribute.Int("pipeline.rows_out", rowsOut),
			attribute.Int("pipeline.rows_removed", s.rowsIn-rowsOut),
		)
		if err != nil {
			s.span.RecordError(err)
			s.span.SetStatus(codes.Error, err.Error())
		} else {
			s.span.SetStatus(codes.Ok, "")
		}
		s.span.End()
	}

	return elapsed
}

// RecordRemoved counts rows dropped by a cleaning step and notes it on the
// current stage span
func (t *Telemetry) RecordRemoved(ctx context.Context, step string, removed int) {
	if t == nil {
		return
	}
	if t.Metrics != nil {
		t.Metrics.rowsRemoved.Add(ctx, int64(removed), metric.WithAttributes(attribute.String("step", step)))
	}
	trace.SpanFromContext(ctx).AddEvent("cleaning step",
		trace.WithAttributes(
			attribute.String("step", step),
			attribute.Int("removed", removed),
		))
}
