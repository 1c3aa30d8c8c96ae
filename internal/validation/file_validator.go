package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "uberfares/internal/errors"
	"uberfares/internal/infrastructure"
)

// FileValidator checks input and output locations before a run starts, so a
// bad path fails fast instead of after the dataset has been processed
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	return &FileValidator{
		logger: infrastructure.WithComponent(logger, "file_validator"),
	}
}

// ValidateInputFile checks that path is a readable regular file. A file
// without a .csv extension is accepted with a warning.
func (v *FileValidator) ValidateInputFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("Input file does not exist",
			slog.String("file", path))
		return apperrors.NewMissingFileError(path, err)
	}
	if err != nil {
		v.logger.Error("Failed to stat input file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewMissingFileError(path, err)
	}
	if info.IsDir() {
		v.logger.Error("Input path is a directory, not a file",
			slog.String("path", path))
		return apperrors.NewMissingFileError(path, fmt.Errorf("%s is a directory", path))
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("Input file is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewMissingFileError(path, err)
	}
	file.Close()

	if ext := strings.ToLower(filepath.Ext(path)); ext != ".csv" {
		v.logger.Warn("Input file does not have a .csv extension",
			slog.String("file", path),
			slog.String("extension", ext))
	}

	v.logger.Debug("Input file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputDirectory ensures dir exists or can be created, and is
// writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewWriteError("validate", dir, fmt.Errorf("failed to create output directory: %w", err))
	}

	file, err := os.CreateTemp(dir, ".write_test")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewWriteError("validate", dir, fmt.Errorf("output directory is not writable: %w", err))
	}
	name := file.Name()
	file.Close()
	os.Remove(name)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// ValidateOutputFiles checks that no artifact path collides with an existing
// directory or with the input file. Empty paths are skipped.
func (v *FileValidator) ValidateOutputFiles(inputFile string, outputs ...string) error {
	in, _ := filepath.Abs(inputFile)
	for _, out := range outputs {
		if out == "" {
			continue
		}
		abs, _ := filepath.Abs(out)
		if abs == in {
			v.logger.Error("Output would overwrite the input file",
				slog.String("file", out))
			return apperrors.NewWriteError("validate", out, fmt.Errorf("output path equals input file"))
		}
		if info, err := os.Stat(out); err == nil && info.IsDir() {
			v.logger.Error("Output path is a directory",
				slog.String("path", out))
			return apperrors.NewWriteError("validate", out, fmt.Errorf("%s is a directory", out))
		}
	}
	return nil
}
