package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"uberfares/internal/config"
	"uberfares/internal/dataprocessing"
	"uberfares/internal/exporter"
	"uberfares/internal/infrastructure"
	"uberfares/internal/operations"
	"uberfares/internal/report"
	"uberfares/internal/validation"
	"uberfares/pkg/contracts"
)

// Artifact kinds recorded in the run manifest
const (
	ArtifactDataset  = "dataset_csv"
	ArtifactWorkbook = "workbook"
	ArtifactPDF      = "report_pdf"
	ArtifactMetrics  = "metrics"
)

// run executes one full processing run and writes every enabled artifact.
// The console report goes to stdout.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout io.Writer) (err error) {
	runID := infrastructure.GenerateRunID()
	ctx = infrastructure.WithTraceID(ctx, runID)
	logger = infrastructure.WithComponent(logger, "processor")

	paths, err := config.NewPaths(cfg)
	if err != nil {
		return err
	}
	paths.LogPathResolution(logger)

	validator := validation.NewFileValidator(logger)
	if err := validator.ValidateInputFile(paths.InputFile); err != nil {
		return err
	}
	if err := validator.ValidateOutputDirectory(paths.OutputDir); err != nil {
		return err
	}
	if err := validator.ValidateOutputFiles(paths.InputFile, paths.OutputFile, paths.WorkbookFile, paths.ReportPDF); err != nil {
		return err
	}
	if err := paths.EnsureDirectories(); err != nil {
		return err
	}

	telemetry, err := infrastructure.InitializeTelemetry(infrastructure.TelemetryConfig{
		RunID:         runID,
		EnableTracing: cfg.Telemetry.Tracing,
		TraceExporter: cfg.Telemetry.TraceExporter,
		TraceFile:     paths.TraceFile,
		EnableMetrics: cfg.Telemetry.Metrics,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if serr := telemetry.Shutdown(shutdownCtx); serr != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", serr.Error()))
		}
	}()

	manifest := operations.NewRunManifest(runID, contracts.Version, paths.InputFile)
	defer func() {
		if paths.ManifestFile == "" {
			return
		}
		if err != nil {
			manifest.Fail(err)
		} else {
			manifest.Complete()
		}
		if merr := manifest.SaveToFile(paths.ManifestFile); merr != nil {
			logger.Error("Failed to save run manifest", slog.String("error", merr.Error()))
			if err == nil {
				err = merr
			}
			return
		}
		logger.Info("Run manifest saved", slog.String("path", paths.ManifestFile))
	}()

	logger.InfoContext(ctx, "Starting Uber fares processing",
		slog.String("run_id", runID),
		slog.String("version", contracts.Version),
		slog.String("input", paths.InputFile))

	pipeline := dataprocessing.NewPipeline(cfg.Pipeline, telemetry, logger)
	res, err := pipeline.Run(ctx, paths.InputFile)
	if res != nil {
		manifest.RecordStages(res.Stages)
	}
	if err != nil {
		return err
	}
	manifest.RecordCleaning(res.Cleaning)

	if err := ctx.Err(); err != nil {
		return err
	}

	writer := exporter.NewCSVWriter(paths, logger)
	err = pipeline.RunStage(ctx, res, dataprocessing.StageWrite, res.Table.Len(), func(context.Context) (int, error) {
		return exporter.NewTripExporter(writer, cfg.Export.CSVBOM, logger).Export(res.Table, paths.OutputFile)
	})
	if err != nil {
		manifest.RecordStages(res.Stages)
		return err
	}
	if err := manifest.AddArtifact(ArtifactDataset, paths.OutputFile); err != nil {
		return err
	}

	summary := report.NewSummary(runID, paths.InputFile, paths.OutputFile, cfg.Pipeline.BusiestHours, res)

	err = pipeline.RunStage(ctx, res, dataprocessing.StageExport, res.Table.Len(), func(context.Context) (int, error) {
		if paths.WorkbookFile != "" {
			data := exporter.WorkbookData{Table: res.Table, Cleaning: res.Cleaning, Analysis: res.Analysis}
			if err := exporter.NewWorkbookExporter(logger).Export(data, paths.WorkbookFile); err != nil {
				return 0, err
			}
		}
		if paths.ReportPDF != "" {
			if err := report.NewPDFRenderer(logger).WriteFile(summary, paths.ReportPDF); err != nil {
				return 0, err
			}
		}
		return res.Table.Len(), nil
	})
	manifest.RecordStages(res.Stages)
	if err != nil {
		return err
	}

	if err := manifest.AddArtifact(ArtifactWorkbook, paths.WorkbookFile); err != nil {
		return err
	}
	if err := manifest.AddArtifact(ArtifactPDF, paths.ReportPDF); err != nil {
		return err
	}

	summary.Stages = res.Stages
	if err := report.NewConsoleRenderer(stdout).Render(summary); err != nil {
		return fmt.Errorf("failed to render console report: %w", err)
	}

	if err := telemetry.WriteMetrics(paths.MetricsFile); err != nil {
		return err
	}
	if err := manifest.AddArtifact(ArtifactMetrics, paths.MetricsFile); err != nil {
		return err
	}

	logger.InfoContext(ctx, "Processing complete",
		slog.Int("original_rows", res.Cleaning.OriginalRows),
		slog.Int("final_rows", res.Cleaning.FinalRows),
		slog.String("output", paths.OutputFile))
	return nil
}
