// Package exporter writes the pipeline's output artifacts.
//
// CSVWriter: core CSV writing with header rows, streaming and an optional
// UTF-8 BOM.
//
// TripExporter: writes the cleaned, enriched trip table. Input columns keep
// their order, derived columns follow, and no index column is added.
//
// WorkbookExporter: writes the Power BI hand-off workbook (Trips, Summary,
// Frequencies, Correlation and Cleaning sheets).
//
// Example usage:
//
//	writer := exporter.NewCSVWriter(paths, logger)
//	rows, err := exporter.NewTripExporter(writer, false, logger).Export(table, "uber_fares_cleaned_enhanced.csv")
//
// Every write failure is returned as a write_failed PipelineError.
package exporter
