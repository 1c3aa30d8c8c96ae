package dataprocessing

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"uberfares/internal/infrastructure"
)

// missingMarkers are the raw cell values treated as missing
var missingMarkers = []string{"", "NA", "NaN", "nan", "N/A", "null", "<nil>"}

// ColumnProfile describes one raw column
type ColumnProfile struct {
	Name           string  `json:"name"`
	DType          string  `json:"dtype"`
	Missing        int     `json:"missing"`
	MissingPercent float64 `json:"missing_percent"`
	Unique         int     `json:"unique"`
}

// DescribeRow holds the describe() statistics of a numeric column
type DescribeRow struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	P25    float64 `json:"p25"`
	P50    float64 `json:"p50"`
	P75    float64 `json:"p75"`
	Max    float64 `json:"max"`
}

// DatasetProfile is a read-only overview of the raw input
type DatasetProfile struct {
	Rows          int             `json:"rows"`
	Columns       int             `json:"columns"`
	ColumnInfo    []ColumnProfile `json:"column_info"`
	SampleHeader  []string        `json:"sample_header"`
	Sample        [][]string      `json:"sample"`
	DuplicateRows int             `json:"duplicate_rows"`
	Describe      []DescribeRow   `json:"describe"`
}

// TotalMissing returns the number of missing cells across all columns
func (p *DatasetProfile) TotalMissing() int {
	total := 0
	for _, c := range p.ColumnInfo {
		total += c.Missing
	}
	return total
}

// Profiler inspects the raw table before any parsing or cleaning
type Profiler struct {
	sampleRows int
	logger     *slog.Logger
}

// NewProfiler creates a profiler keeping sampleRows leading rows
func NewProfiler(sampleRows int, logger *slog.Logger) *Profiler {
	return &Profiler{sampleRows: sampleRows, logger: infrastructure.WithComponent(logger, "profiler")}
}

// Profile computes shape, inferred dtypes, missing values, duplicates,
// unique counts and numeric summaries of raw
func (p *Profiler) Profile(raw *RawTable) (*DatasetProfile, error) {
	profile := &DatasetProfile{
		Rows:          raw.Len(),
		Columns:       len(raw.Header),
		SampleHeader:  append([]string(nil), raw.Header...),
		DuplicateRows: countDuplicateRows(raw.Rows),
	}

	if raw.Len() == 0 {
		for _, name := range raw.Header {
			profile.ColumnInfo = append(profile.ColumnInfo, ColumnProfile{
				Name:           name,
				DType:          "object",
				MissingPercent: math.NaN(),
			})
		}
		return profile, nil
	}

	records := make([][]string, 0, raw.Len()+1)
	records = append(records, raw.Header)
	records = append(records, raw.Rows...)

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(missingMarkers),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to build dataframe: %w", df.Err)
	}

	types := df.Types()
	for i, name := range df.Names() {
		col := df.Col(name)

		missing := 0
		unique := make(map[string]struct{})
		isNaN := col.IsNaN()
		cells := col.Records()
		for j, nan := range isNaN {
			if nan {
				missing++
				continue
			}
			unique[cells[j]] = struct{}{}
		}

		profile.ColumnInfo = append(profile.ColumnInfo, ColumnProfile{
			Name:           raw.Header[i],
			DType:          dtypeName(types[i]),
			Missing:        missing,
			MissingPercent: percentOf(missing, df.Nrow()),
			Unique:         len(unique),
		})

		if types[i] == series.Int || types[i] == series.Float {
			profile.Describe = append(profile.Describe, describe(raw.Header[i], col.Float()))
		}
	}

	if n := min(p.sampleRows, raw.Len()); n > 0 {
		profile.Sample = raw.Rows[:n]
	}

	p.logger.Info("Dataset profiled",
		slog.Int("rows", profile.Rows),
		slog.Int("columns", profile.Columns),
		slog.Int("missing_cells", profile.TotalMissing()),
		slog.Int("duplicate_rows", profile.DuplicateRows))

	return profile, nil
}

func describe(column string, values []float64) DescribeRow {
	q := Quantiles(values, 0.25, 0.5, 0.75)
	return DescribeRow{
		Column: column,
		Count:  Count(values),
		Mean:   Mean(values),
		Std:    StdDev(values),
		Min:    Min(values),
		P25:    q[0],
		P50:    q[1],
		P75:    q[2],
		Max:    Max(values),
	}
}

func dtypeName(t series.Type) string {
	switch t {
	case series.Int:
		return "int64"
	case series.Float:
		return "float64"
	case series.Bool:
		return "bool"
	default:
		return "object"
	}
}

// countDuplicateRows counts rows identical to an earlier row
func countDuplicateRows(rows [][]string) int {
	seen := make(map[string]struct{}, len(rows))
	dups := 0
	for _, row := range rows {
		key := strings.Join(row, "\x1f")
		if _, ok := seen[key]; ok {
			dups++
			continue
		}
		seen[key] = struct{}{}
	}
	return dups
}
