package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"uberfares/internal/config"
	apperrors "uberfares/internal/errors"
	"uberfares/internal/infrastructure"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance. Relative file names are
// resolved against paths.OutputDir; paths may be nil.
func NewCSVWriter(paths *config.Paths, logger *slog.Logger) *CSVWriter {
	return &CSVWriter{paths: paths, logger: infrastructure.WithComponent(logger, "csv_writer")}
}

// StreamWriter writes rows one at a time to a CSV file
type StreamWriter struct {
	path   string
	file   *os.File
	writer *csv.Writer
	rows   int
}

// CreateStreamWriter creates the file, writes the optional BOM and the
// header row
func (w *CSVWriter) CreateStreamWriter(filePath string, headers []string, bom bool) (*StreamWriter, error) {
	fullPath := w.resolvePath(filePath)

	w.logger.Info("Creating CSV stream writer",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("header_count", len(headers)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, apperrors.NewWriteError("write", fullPath, fmt.Errorf("failed to create directory: %w", err))
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return nil, apperrors.NewWriteError("write", fullPath, err)
	}

	if bom {
		if _, err := file.Write(utf8BOM); err != nil {
			file.Close()
			return nil, apperrors.NewWriteError("write", fullPath, fmt.Errorf("failed to write BOM: %w", err))
		}
	}

	writer := csv.NewWriter(file)
	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			file.Close()
			return nil, apperrors.NewWriteError("write", fullPath, fmt.Errorf("failed to write headers: %w", err))
		}
	}

	return &StreamWriter{path: fullPath, file: file, writer: writer}, nil
}

// Path returns the resolved file path
func (s *StreamWriter) Path() string {
	return s.path
}

// Rows returns the number of records written so far
func (s *StreamWriter) Rows() int {
	return s.rows
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	if err := s.writer.Write(record); err != nil {
		return err
	}
	s.rows++
	return nil
}

// Close flushes and closes the stream writer
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return apperrors.NewWriteError("write", s.path, err)
	}
	if err := s.file.Close(); err != nil {
		return apperrors.NewWriteError("write", s.path, err)
	}
	return nil
}

// Abort closes the file without reporting flush errors
func (s *StreamWriter) Abort() {
	s.file.Close()
}

// resolvePath resolves a relative path against the output directory
func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.paths == nil {
		return filePath
	}
	return w.paths.GetOutputPath(filePath)
}
