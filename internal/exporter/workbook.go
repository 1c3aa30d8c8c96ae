package exporter

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"uberfares/internal/dataprocessing"
	apperrors "uberfares/internal/errors"
	"uberfares/internal/infrastructure"
	"uberfares/pkg/contracts/domain"
)

// Workbook sheet names
const (
	SheetTrips       = "Trips"
	SheetSummary     = "Summary"
	SheetFrequencies = "Frequencies"
	SheetCorrelation = "Correlation"
	SheetCleaning    = "Cleaning"
)

// WorkbookData is everything the Power BI workbook is built from
type WorkbookData struct {
	Table    *domain.TripTable
	Cleaning *dataprocessing.CleaningResult
	Analysis *dataprocessing.AnalysisReport
}

// WorkbookExporter writes the XLSX hand-off for Power BI
type WorkbookExporter struct {
	logger *slog.Logger
}

// NewWorkbookExporter creates a workbook exporter
func NewWorkbookExporter(logger *slog.Logger) *WorkbookExporter {
	return &WorkbookExporter{logger: infrastructure.WithComponent(logger, "workbook_exporter")}
}

// Export writes data to path, replacing any existing file
func (e *WorkbookExporter) Export(data WorkbookData, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		return apperrors.NewWriteError("export", path, err)
	}

	if err := f.SetSheetName("Sheet1", SheetTrips); err != nil {
		return apperrors.NewWriteError("export", path, err)
	}

	steps := []struct {
		sheet string
		write func(*excelize.File, string, int) error
	}{
		{SheetTrips, func(f *excelize.File, s string, st int) error { return writeTripsSheet(f, s, st, data.Table) }},
		{SheetSummary, func(f *excelize.File, s string, st int) error { return writeSummarySheet(f, s, st, data.Analysis) }},
		{SheetFrequencies, func(f *excelize.File, s string, st int) error { return writeFrequencySheet(f, s, st, data.Analysis) }},
		{SheetCorrelation, func(f *excelize.File, s string, st int) error { return writeCorrelationSheet(f, s, st, data.Analysis) }},
		{SheetCleaning, func(f *excelize.File, s string, st int) error { return writeCleaningSheet(f, s, st, data.Cleaning) }},
	}

	for _, step := range steps {
		if step.sheet != SheetTrips {
			if _, err := f.NewSheet(step.sheet); err != nil {
				return apperrors.NewWriteError("export", path, err)
			}
		}
		if err := step.write(f, step.sheet, header); err != nil {
			return apperrors.NewWriteError("export", path, fmt.Errorf("sheet %s: %w", step.sheet, err))
		}
	}
	f.SetActiveSheet(0)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewWriteError("export", path, err)
	}
	if err := f.SaveAs(path); err != nil {
		return apperrors.NewWriteError("export", path, err)
	}

	e.logger.Info("Workbook written",
		slog.String("path", path),
		slog.Int("trip_rows", data.Table.Len()))

	return nil
}

// cellValue turns NaN into an empty cell
func cellValue(f float64) interface{} {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

func headerRow(names []string) []interface{} {
	row := make([]interface{}, len(names))
	for i, n := range names {
		row[i] = n
	}
	return row
}

func writeTripsSheet(f *excelize.File, sheet string, headerStyle int, table *domain.TripTable) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}

	withFeatures := table.HasFeatures() || table.Len() == 0
	if err := sw.SetRow("A1", headerRow(table.OutputColumns(withFeatures)), excelize.RowOpts{StyleID: headerStyle}); err != nil {
		return err
	}

	plan := columnPlan(table)
	for i, r := range table.Records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, tripValues(plan, r, withFeatures)); err != nil {
			return err
		}
	}
	return sw.Flush()
}

// tripValues is rowFor with numbers kept numeric for the spreadsheet
func tripValues(plan []cellSource, r domain.TripRecord, withFeatures bool) []interface{} {
	values := make([]interface{}, 0, len(plan)+len(domain.DerivedColumns))
	for _, src := range plan {
		switch src.name {
		case "":
			var cell interface{}
			if src.extra < len(r.Extra) {
				cell = r.Extra[src.extra]
			}
			values = append(values, cell)
		case domain.ColFareAmount:
			values = append(values, cellValue(r.FareAmount))
		case domain.ColPickupDatetime:
			values = append(values, formatTimestamp(r.PickupDatetime))
		case domain.ColPickupLongitude:
			values = append(values, cellValue(r.PickupLongitude))
		case domain.ColPickupLatitude:
			values = append(values, cellValue(r.PickupLatitude))
		case domain.ColDropoffLongitude:
			values = append(values, cellValue(r.DropoffLongitude))
		case domain.ColDropoffLatitude:
			values = append(values, cellValue(r.DropoffLatitude))
		case domain.ColPassengerCount:
			values = append(values, r.PassengerCount)
		}
	}

	if !withFeatures {
		return values
	}
	if f := r.Features; f != nil {
		values = append(values,
			f.PickupHour, f.PickupDay, f.PickupMonth, f.PickupYear, f.PickupDayOfWeek,
			f.PickupWeekday, string(f.TimePeriod),
			cellValue(f.TripDistanceKm), cellValue(f.FarePerKm), string(f.Season))
	} else {
		values = append(values, make([]interface{}, len(domain.DerivedColumns))...)
	}
	return values
}

// sheetWriter appends rows to a regular sheet
type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
	err   error
}

func (w *sheetWriter) write(values ...interface{}) {
	if w.err != nil {
		return
	}
	w.row++
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetSheetRow(w.sheet, cell, &values)
}

func (w *sheetWriter) header(style int, values ...interface{}) {
	w.write(values...)
	if w.err != nil {
		return
	}
	first, _ := excelize.CoordinatesToCellName(1, w.row)
	last, _ := excelize.CoordinatesToCellName(len(values), w.row)
	w.err = w.f.SetCellStyle(w.sheet, first, last, style)
}

func (w *sheetWriter) blank() {
	w.row++
}

func writeSummarySheet(f *excelize.File, sheet string, style int, report *dataprocessing.AnalysisReport) error {
	w := &sheetWriter{f: f, sheet: sheet}
	w.header(style, "column", "count", "mean", "median", "std", "min", "max")
	for _, s := range []dataprocessing.SummaryStats{report.FareStats, report.DistanceStats} {
		w.write(s.Column, s.Count, cellValue(s.Mean), cellValue(s.Median), cellValue(s.Std), cellValue(s.Min), cellValue(s.Max))
	}

	w.blank()
	w.header(style, "hour", "trips")
	for _, h := range report.HourlyRides {
		w.write(h.Hour, h.Count)
	}

	w.blank()
	w.header(style, "busiest_rank", "hour", "trips")
	for i, h := range report.BusiestHours {
		w.write(i+1, h.Hour, h.Count)
	}

	if report.Extent.HasPickup || report.Extent.HasDropoff {
		w.blank()
		w.header(style, "extent", "min_longitude", "min_latitude", "max_longitude", "max_latitude")
		if report.Extent.HasPickup {
			b := report.Extent.Pickup
			w.write("pickup", b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat())
		}
		if report.Extent.HasDropoff {
			b := report.Extent.Dropoff
			w.write("dropoff", b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat())
		}
	}

	if w.err == nil {
		w.err = f.SetColWidth(sheet, "A", "G", 16)
	}
	return w.err
}

func writeFrequencySheet(f *excelize.File, sheet string, style int, report *dataprocessing.AnalysisReport) error {
	w := &sheetWriter{f: f, sheet: sheet}
	w.header(style, "column", "value", "count", "percent")
	for _, ft := range []dataprocessing.FrequencyTable{report.PassengerCounts, report.TimePeriods, report.Seasons} {
		for _, e := range ft.Entries {
			w.write(ft.Column, e.Value, e.Count, cellValue(e.Percent))
		}
	}
	if w.err == nil {
		w.err = f.SetColWidth(sheet, "A", "D", 18)
	}
	return w.err
}

func writeCorrelationSheet(f *excelize.File, sheet string, style int, report *dataprocessing.AnalysisReport) error {
	m := report.Correlation
	w := &sheetWriter{f: f, sheet: sheet}

	head := append([]interface{}{""}, headerRow(m.Columns)...)
	w.header(style, head...)
	for i, name := range m.Columns {
		row := []interface{}{name}
		for _, v := range m.Values[i] {
			row = append(row, cellValue(v))
		}
		w.write(row...)
	}

	w.blank()
	w.header(style, "column", "correlation_with_fare")
	for _, c := range report.FareCorrelations {
		w.write(c.Column, cellValue(c.Value))
	}
	return w.err
}

func writeCleaningSheet(f *excelize.File, sheet string, style int, cleaning *dataprocessing.CleaningResult) error {
	w := &sheetWriter{f: f, sheet: sheet}
	w.header(style, "step", "description", "rows_before", "rows_after", "removed")
	for _, s := range cleaning.Steps {
		w.write(s.Name, s.Description, s.RowsBefore, s.RowsAfter, s.Removed)
	}

	w.blank()
	w.header(style, "metric", "value")
	w.write("original_records", cleaning.OriginalRows)
	w.write("final_records", cleaning.FinalRows)
	w.write("records_removed", cleaning.RemovedTotal())
	w.write("retention_rate_percent", cellValue(cleaning.RetentionRate()))
	w.write("fare_lower_bound", cellValue(cleaning.FareBounds.Lower))
	w.write("fare_upper_bound", cellValue(cleaning.FareBounds.Upper))

	if w.err == nil {
		w.err = f.SetColWidth(sheet, "A", "B", 28)
	}
	return w.err
}
