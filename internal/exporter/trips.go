package exporter

import (
	"log/slog"

	apperrors "uberfares/internal/errors"
	"uberfares/internal/infrastructure"
	"uberfares/pkg/contracts/domain"
)

// cellSource says where an output column's value comes from: a typed field
// (name set) or a passthrough cell (extra index)
type cellSource struct {
	name  string
	extra int
}

// columnPlan maps each input column to its source in a TripRecord. The
// first occurrence of a typed column name is typed; repeats are
// passthrough, matching the loader.
func columnPlan(table *domain.TripTable) []cellSource {
	plan := make([]cellSource, len(table.Columns))
	seen := make(map[string]bool)
	extra := 0
	for i, col := range table.Columns {
		if domain.IsRequiredColumn(col) && !seen[col] {
			seen[col] = true
			plan[i] = cellSource{name: col}
			continue
		}
		plan[i] = cellSource{extra: extra}
		extra++
	}
	return plan
}

func typedCell(r domain.TripRecord, col string) string {
	switch col {
	case domain.ColFareAmount:
		return formatFloat(r.FareAmount)
	case domain.ColPickupDatetime:
		return formatTimestamp(r.PickupDatetime)
	case domain.ColPickupLongitude:
		return formatFloat(r.PickupLongitude)
	case domain.ColPickupLatitude:
		return formatFloat(r.PickupLatitude)
	case domain.ColDropoffLongitude:
		return formatFloat(r.DropoffLongitude)
	case domain.ColDropoffLatitude:
		return formatFloat(r.DropoffLatitude)
	case domain.ColPassengerCount:
		return formatInt(r.PassengerCount)
	}
	return ""
}

func featureCells(f *domain.TripFeatures) []string {
	return []string{
		formatInt(f.PickupHour),
		formatInt(f.PickupDay),
		formatInt(f.PickupMonth),
		formatInt(f.PickupYear),
		formatInt(f.PickupDayOfWeek),
		f.PickupWeekday,
		string(f.TimePeriod),
		formatFloat(f.TripDistanceKm),
		formatFloat(f.FarePerKm),
		string(f.Season),
	}
}

// rowFor renders a record in output column order
func rowFor(plan []cellSource, r domain.TripRecord, withFeatures bool) []string {
	row := make([]string, 0, len(plan)+len(domain.DerivedColumns))
	for _, src := range plan {
		if src.name != "" {
			row = append(row, typedCell(r, src.name))
			continue
		}
		cell := ""
		if src.extra < len(r.Extra) {
			cell = r.Extra[src.extra]
		}
		row = append(row, cell)
	}
	if withFeatures {
		if r.Features != nil {
			row = append(row, featureCells(r.Features)...)
		} else {
			row = append(row, make([]string, len(domain.DerivedColumns))...)
		}
	}
	return row
}

// TripExporter writes the enhanced dataset: input columns in input order,
// then the derived columns, header row, no index column
type TripExporter struct {
	writer *CSVWriter
	bom    bool
	logger *slog.Logger
}

// NewTripExporter creates a trip exporter
func NewTripExporter(writer *CSVWriter, bom bool, logger *slog.Logger) *TripExporter {
	return &TripExporter{
		writer: writer,
		bom:    bom,
		logger: infrastructure.WithComponent(logger, "trip_exporter"),
	}
}

// Export writes table to filePath and returns the number of data rows
// written. Derived columns are included when the table has been enriched,
// or is empty (so an empty run still produces the full header).
func (e *TripExporter) Export(table *domain.TripTable, filePath string) (int, error) {
	withFeatures := table.HasFeatures() || table.Len() == 0
	headers := table.OutputColumns(withFeatures)

	sw, err := e.writer.CreateStreamWriter(filePath, headers, e.bom)
	if err != nil {
		return 0, err
	}

	plan := columnPlan(table)
	for _, r := range table.Records {
		if err := sw.WriteRecord(rowFor(plan, r, withFeatures)); err != nil {
			sw.Abort()
			return sw.Rows(), apperrors.NewWriteError("write", sw.Path(), err)
		}
	}

	if err := sw.Close(); err != nil {
		return sw.Rows(), err
	}

	e.logger.Info("Enhanced dataset written",
		slog.String("path", sw.Path()),
		slog.Int("rows", sw.Rows()),
		slog.Int("columns", len(headers)))

	return sw.Rows(), nil
}
