package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "uberfares/internal/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "uber_fares_cleaned_enhanced.csv", cfg.Paths.OutputFile)
	assert.Equal(t, 1.5, cfg.Pipeline.OutlierMultiplier)
	assert.Equal(t, 0.001, cfg.Pipeline.DistanceEpsilon)
	assert.Equal(t, 6371.0, cfg.Pipeline.EarthRadiusKm)
	assert.Equal(t, 1, cfg.Pipeline.MinPassengers)
	assert.Equal(t, 6, cfg.Pipeline.MaxPassengers)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name        string
		yaml        string
		env         map[string]string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults without file or env",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "uber.csv", cfg.Paths.InputFile)
				assert.Equal(t, 10, cfg.Pipeline.BusiestHours)
			},
		},
		{
			name: "yaml overrides defaults",
			yaml: "paths:\n  input_file: data/trips.csv\npipeline:\n  busiest_hours: 5\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "data/trips.csv", cfg.Paths.InputFile)
				assert.Equal(t, 5, cfg.Pipeline.BusiestHours)
				assert.Equal(t, 1.5, cfg.Pipeline.OutlierMultiplier, "untouched fields keep defaults")
			},
		},
		{
			name: "env wins over yaml",
			yaml: "logging:\n  level: warn\n",
			env:  map[string]string{"FARES_LOGGING_LEVEL": "DEBUG", "FARES_EXPORT_PDF": "false"},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.False(t, cfg.Export.PDF)
			},
		},
		{
			name:    "invalid log level",
			env:     map[string]string{"FARES_LOGGING_LEVEL": "verbose"},
			wantErr: true,
		},
		{
			name:    "max passengers below min",
			yaml:    "pipeline:\n  min_passengers: 4\n  max_passengers: 2\n",
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			yaml:    "pipeline: [unterminated",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			configFile := ""
			if tt.yaml != "" {
				configFile = writeFile(t, t.TempDir(), "config.yaml", tt.yaml)
			}

			cfg, err := LoadFrom(configFile)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsKind(err, apperrors.KindConfigInvalid))
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoadFrom_MissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConfigInvalid))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".env", "FARES_DOTENV_PROBE=from-file\n")
	t.Cleanup(func() { os.Unsetenv("FARES_DOTENV_PROBE") })

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("FARES_DOTENV_PROBE"))

	assert.NoError(t, loadDotEnv(filepath.Join(dir, "missing.env")), "absent .env is not an error")
}

func TestValidate_FileLoggingNeedsPath(t *testing.T) {
	cfg := Default()
	cfg.Logging.Output = "file"
	cfg.Logging.FilePath = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file_path")

	cfg.Logging.Output = "console"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_TraceFileRequired(t *testing.T) {
	cfg := Default()
	cfg.Telemetry.Tracing = true
	cfg.Telemetry.TraceExporter = "file"
	cfg.Telemetry.TraceFile = ""

	assert.Error(t, cfg.Validate())

	cfg.Telemetry.TraceExporter = "stdout"
	assert.NoError(t, cfg.Validate())
}
