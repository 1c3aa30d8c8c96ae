package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the resolved, absolute locations used by a run.
// This is the single source of truth for file paths once flags and
// configuration have been merged.
type Paths struct {
	WorkingDir string
	InputFile  string
	OutputDir  string
	LogsDir    string

	// Artifacts; an empty value means the artifact is disabled
	OutputFile   string
	WorkbookFile string
	ReportPDF    string
	ManifestFile string
	MetricsFile  string
	TraceFile    string
	LogFile      string
}

// NewPaths resolves the configured paths against the working directory.
// Artifact file names without a directory land in the output directory.
func NewPaths(cfg *Config) (*Paths, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(wd, p)
	}

	outputDir := abs(cfg.Paths.OutputDir)
	inOutput := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		if filepath.Base(p) == p {
			return filepath.Join(outputDir, p)
		}
		return abs(p)
	}

	paths := &Paths{
		WorkingDir:   wd,
		InputFile:    abs(cfg.Paths.InputFile),
		OutputDir:    outputDir,
		LogsDir:      abs(cfg.Paths.LogsDir),
		OutputFile:   inOutput(cfg.Paths.OutputFile),
		ManifestFile: inOutput(cfg.Paths.ManifestFile),
		LogFile:      abs(cfg.Logging.FilePath),
	}

	if cfg.Export.Workbook {
		paths.WorkbookFile = inOutput(cfg.Paths.WorkbookFile)
	}
	if cfg.Export.PDF {
		paths.ReportPDF = inOutput(cfg.Paths.ReportPDF)
	}
	if !cfg.Export.Manifest {
		paths.ManifestFile = ""
	}
	if cfg.Telemetry.Metrics {
		paths.MetricsFile = inOutput(cfg.Paths.MetricsFile)
	}
	if cfg.Telemetry.Tracing && cfg.Telemetry.TraceExporter == "file" {
		paths.TraceFile = inOutput(cfg.Telemetry.TraceFile)
	}

	return paths, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{p.OutputDir}
	if p.LogsDir != "" {
		directories = append(directories, p.LogsDir)
	}
	for _, file := range []string{p.OutputFile, p.WorkbookFile, p.ReportPDF, p.ManifestFile, p.MetricsFile, p.TraceFile} {
		if file != "" {
			directories = append(directories, filepath.Dir(file))
		}
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// GetOutputPath returns the path for a file in the output directory
func (p *Paths) GetOutputPath(filename string) string {
	return filepath.Join(p.OutputDir, filename)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs detailed path resolution information for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("working", p.WorkingDir),
			slog.String("output", p.OutputDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("input",
			slog.String("file", p.InputFile),
			slog.Bool("exists", FileExists(p.InputFile)),
		),
		slog.Group("artifacts",
			slog.String("dataset_csv", p.OutputFile),
			slog.String("workbook", p.WorkbookFile),
			slog.String("report_pdf", p.ReportPDF),
			slog.String("manifest", p.ManifestFile),
			slog.String("metrics", p.MetricsFile),
			slog.String("traces", p.TraceFile),
		))
}
