package dataprocessing

import (
	"bufio"
	"bytes"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "uberfares/internal/errors"
	"uberfares/internal/infrastructure"
	"uberfares/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// timestampLayouts are tried in order; the first that parses wins
var timestampLayouts = []string{
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05Z07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// RawTable is the file exactly as read: header plus string cells
type RawTable struct {
	Path   string
	Header []string
	Rows   [][]string
	// Lines holds the 1-based file line each row starts on
	Lines []int
}

// Len returns the number of data rows
func (r *RawTable) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// Loader reads the trip CSV into a typed table
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a loader
func NewLoader(logger *slog.Logger) *Loader {
	return &Loader{logger: infrastructure.WithComponent(logger, "loader")}
}

// Load reads and parses path in one go
func (l *Loader) Load(path string) (*domain.TripTable, error) {
	raw, err := l.ReadRaw(path)
	if err != nil {
		return nil, err
	}
	return l.Parse(raw)
}

// ReadRaw reads the delimited file at path. A missing file, a short header
// or a ragged row is fatal.
func (l *Loader) ReadRaw(path string) (*RawTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewMissingFileError(path, err)
	}
	defer file.Close()

	raw, err := readRaw(file, path)
	if err != nil {
		return nil, err
	}

	l.logger.Info("Read input file",
		slog.String("path", path),
		slog.Int("rows", raw.Len()),
		slog.Int("columns", len(raw.Header)))

	return raw, nil
}

func readRaw(r io.Reader, path string) (*RawTable, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)

	header, err := reader.Read()
	if err == io.EOF {
		return nil, apperrors.NewMissingColumnError(path, domain.RequiredColumns)
	}
	if err != nil {
		return nil, malformedFromCSV(path, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	raw := &RawTable{Path: path, Header: header}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, malformedFromCSV(path, err)
		}
		line, _ := reader.FieldPos(0)
		raw.Rows = append(raw.Rows, record)
		raw.Lines = append(raw.Lines, line)
	}

	return raw, nil
}

func malformedFromCSV(path string, err error) error {
	var parseErr *csv.ParseError
	if stderrors.As(err, &parseErr) {
		return apperrors.NewMalformedRowError(path, parseErr.Line, "", parseErr.Err)
	}
	return apperrors.NewMalformedRowError(path, 0, "", err)
}

// columnIndex maps the typed columns and passthrough columns of a header
type columnIndex struct {
	required map[string]int
	extra    []int
}

func indexColumns(path string, header []string) (*columnIndex, []string, error) {
	idx := &columnIndex{required: make(map[string]int, len(domain.RequiredColumns))}
	var extraNames []string

	for i, name := range header {
		if domain.IsRequiredColumn(name) {
			if _, dup := idx.required[name]; !dup {
				idx.required[name] = i
				continue
			}
		}
		idx.extra = append(idx.extra, i)
		extraNames = append(extraNames, name)
	}

	var missing []string
	for _, col := range domain.RequiredColumns {
		if _, ok := idx.required[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, nil, apperrors.NewMissingColumnError(path, missing)
	}
	return idx, extraNames, nil
}

// Parse converts raw cells into trip records. Empty numeric cells become NaN;
// text that is not a number or a timestamp is fatal.
func (l *Loader) Parse(raw *RawTable) (*domain.TripTable, error) {
	idx, extraNames, err := indexColumns(raw.Path, raw.Header)
	if err != nil {
		return nil, err
	}

	table := &domain.TripTable{
		Columns:      append([]string(nil), raw.Header...),
		ExtraColumns: extraNames,
		Records:      make([]domain.TripRecord, 0, len(raw.Rows)),
	}

	for i, row := range raw.Rows {
		line := i + 2
		if i < len(raw.Lines) {
			line = raw.Lines[i]
		}

		record, err := parseRecord(row, idx)
		if err != nil {
			var cellErr *cellError
			if stderrors.As(err, &cellErr) {
				return nil, apperrors.NewMalformedRowError(raw.Path, line, cellErr.column, cellErr.err)
			}
			return nil, apperrors.NewMalformedRowError(raw.Path, line, "", err)
		}
		table.Records = append(table.Records, record)
	}

	l.logger.Info("Parsed trip records",
		slog.Int("records", table.Len()),
		slog.Int("passthrough_columns", len(extraNames)))

	return table, nil
}

type cellError struct {
	column string
	err    error
}

func (e *cellError) Error() string {
	return fmt.Sprintf("column %s: %v", e.column, e.err)
}

func (e *cellError) Unwrap() error {
	return e.err
}

func parseRecord(row []string, idx *columnIndex) (domain.TripRecord, error) {
	var record domain.TripRecord
	var err error

	cell := func(col string) string {
		return strings.TrimSpace(row[idx.required[col]])
	}
	float := func(col string) float64 {
		if err != nil {
			return math.NaN()
		}
		var v float64
		v, err = parseFloatCell(cell(col))
		if err != nil {
			err = &cellError{column: col, err: err}
		}
		return v
	}

	record.FareAmount = float(domain.ColFareAmount)
	record.PickupLongitude = float(domain.ColPickupLongitude)
	record.PickupLatitude = float(domain.ColPickupLatitude)
	record.DropoffLongitude = float(domain.ColDropoffLongitude)
	record.DropoffLatitude = float(domain.ColDropoffLatitude)
	if err != nil {
		return record, err
	}

	record.PassengerCount, err = parsePassengerCount(cell(domain.ColPassengerCount))
	if err != nil {
		return record, &cellError{column: domain.ColPassengerCount, err: err}
	}

	record.PickupDatetime, err = ParseTimestamp(cell(domain.ColPickupDatetime))
	if err != nil {
		return record, &cellError{column: domain.ColPickupDatetime, err: err}
	}

	if len(idx.extra) > 0 {
		record.Extra = make([]string, len(idx.extra))
		for i, col := range idx.extra {
			record.Extra[i] = row[col]
		}
	}

	return record, nil
}

func parseFloatCell(s string) (float64, error) {
	if s == "" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN(), fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

// parsePassengerCount reads an integral count. Empty reads as 0, which the
// passenger filter later removes.
func parsePassengerCount(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, fmt.Errorf("invalid passenger count %q", s)
	}
	return int(v), nil
}

// ParseTimestamp parses a pickup timestamp and normalizes it to UTC
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
