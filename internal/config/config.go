package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "uberfares/internal/errors"
)

// EnvPrefix namespaces every environment variable, e.g. FARES_LOGGING_LEVEL
const EnvPrefix = "FARES"

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Pipeline  PipelineConfig  `yaml:"pipeline" envconfig:"PIPELINE"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains input and output locations. Relative output file
// names are resolved against OutputDir.
type PathsConfig struct {
	InputFile    string `yaml:"input_file" envconfig:"INPUT_FILE" validate:"required"`
	OutputDir    string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	OutputFile   string `yaml:"output_file" envconfig:"OUTPUT_FILE" validate:"required"`
	WorkbookFile string `yaml:"workbook_file" envconfig:"WORKBOOK_FILE"`
	ReportPDF    string `yaml:"report_pdf" envconfig:"REPORT_PDF"`
	ManifestFile string `yaml:"manifest_file" envconfig:"MANIFEST_FILE"`
	MetricsFile  string `yaml:"metrics_file" envconfig:"METRICS_FILE"`
	LogsDir      string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// PipelineConfig holds the cleaning and feature constants
type PipelineConfig struct {
	OutlierMultiplier float64 `yaml:"outlier_multiplier" envconfig:"OUTLIER_MULTIPLIER" validate:"gt=0"`
	DistanceEpsilon   float64 `yaml:"distance_epsilon" envconfig:"DISTANCE_EPSILON" validate:"gt=0"`
	EarthRadiusKm     float64 `yaml:"earth_radius_km" envconfig:"EARTH_RADIUS_KM" validate:"gt=0"`
	MinPassengers     int     `yaml:"min_passengers" envconfig:"MIN_PASSENGERS" validate:"min=0"`
	MaxPassengers     int     `yaml:"max_passengers" envconfig:"MAX_PASSENGERS" validate:"gtefield=MinPassengers"`
	BusiestHours      int     `yaml:"busiest_hours" envconfig:"BUSIEST_HOURS" validate:"min=1,max=24"`
	SampleRows        int     `yaml:"sample_rows" envconfig:"SAMPLE_ROWS" validate:"min=0"`
}

// ExportConfig toggles the secondary artifacts
type ExportConfig struct {
	CSVBOM   bool `yaml:"csv_bom" envconfig:"CSV_BOM"`
	Workbook bool `yaml:"workbook" envconfig:"WORKBOOK"`
	PDF      bool `yaml:"pdf" envconfig:"PDF"`
	Manifest bool `yaml:"manifest" envconfig:"MANIFEST"`
}

// TelemetryConfig contains tracing and metrics configuration
type TelemetryConfig struct {
	Tracing       bool   `yaml:"tracing" envconfig:"TRACING"`
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout file none"`
	TraceFile     string `yaml:"trace_file" envconfig:"TRACE_FILE"`
	Metrics       bool   `yaml:"metrics" envconfig:"METRICS"`
}

// Load loads configuration from defaults, an optional .env file, an optional
// YAML file and environment variables. Environment variables win.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom is Load with an explicit YAML file; an empty path skips the file.
func LoadFrom(configFile string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, apperrors.NewConfigError("failed to load .env file", err)
	}

	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("failed to load config file %s", configFile), err)
		}
	}

	// Fields without a matching variable keep their current value
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadDotEnv populates the environment from a .env file when one exists.
// Variables already set in the process environment are left untouched.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return godotenv.Load(path)
}

// loadFromFile overlays YAML configuration onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

var validate = validator.New()

// Validate checks the configuration and normalizes logging settings
func (c *Config) Validate() error {
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Output = strings.ToLower(c.Logging.Output)
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}

	if err := validate.Struct(c); err != nil {
		return apperrors.NewConfigError("config validation failed", err)
	}

	if (c.Logging.Output == "file" || c.Logging.Output == "both") && c.Logging.FilePath == "" {
		return apperrors.NewConfigError("logging.file_path is required when logging to a file", nil)
	}
	if c.Telemetry.Tracing && c.Telemetry.TraceExporter == "file" && c.Telemetry.TraceFile == "" {
		return apperrors.NewConfigError("telemetry.trace_file is required for the file trace exporter", nil)
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG_FILE"); path != "" {
		return path
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "logs/processor.log",
		},
		Paths: PathsConfig{
			InputFile:    "uber.csv",
			OutputDir:    "output",
			OutputFile:   "uber_fares_cleaned_enhanced.csv",
			WorkbookFile: "uber_fares_powerbi.xlsx",
			ReportPDF:    "uber_fares_report.pdf",
			ManifestFile: "run_manifest.json",
			MetricsFile:  "pipeline_metrics.prom",
			LogsDir:      "logs",
		},
		Pipeline: PipelineConfig{
			OutlierMultiplier: 1.5,
			DistanceEpsilon:   0.001,
			EarthRadiusKm:     6371,
			MinPassengers:     1,
			MaxPassengers:     6,
			BusiestHours:      10,
			SampleRows:        10,
		},
		Export: ExportConfig{
			CSVBOM:   false,
			Workbook: true,
			PDF:      true,
			Manifest: true,
		},
		Telemetry: TelemetryConfig{
			Tracing:       false,
			TraceExporter: "file",
			TraceFile:     "traces.json",
			Metrics:       true,
		},
	}
}
