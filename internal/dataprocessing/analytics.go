package dataprocessing

import (
	"log/slog"
	"math"
	"sort"
	"strconv"

	"github.com/paulmach/orb"

	"uberfares/internal/infrastructure"
	"uberfares/pkg/contracts/domain"
)

// CorrelationColumns are the numeric columns of the correlation matrix
var CorrelationColumns = []string{
	domain.ColFareAmount,
	domain.ColPickupLongitude,
	domain.ColPickupLatitude,
	domain.ColDropoffLongitude,
	domain.ColDropoffLatitude,
	domain.ColPassengerCount,
	domain.ColPickupHour,
	domain.ColPickupDay,
	domain.ColPickupMonth,
	domain.ColPickupYear,
	domain.ColTripDistanceKm,
	domain.ColFarePerKm,
}

// SummaryStats are the descriptive statistics of one numeric column
type SummaryStats struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summarize computes SummaryStats over values
func Summarize(column string, values []float64) SummaryStats {
	return SummaryStats{
		Column: column,
		Count:  Count(values),
		Mean:   Mean(values),
		Median: Median(values),
		Std:    StdDev(values),
		Min:    Min(values),
		Max:    Max(values),
	}
}

// FrequencyEntry is one value of a frequency table
type FrequencyEntry struct {
	Value   string  `json:"value"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// FrequencyTable counts the distinct values of a column
type FrequencyTable struct {
	Column  string           `json:"column"`
	Entries []FrequencyEntry `json:"entries"`
}

// Count returns the count recorded for value, 0 if absent
func (f FrequencyTable) Count(value string) int {
	for _, e := range f.Entries {
		if e.Value == value {
			return e.Count
		}
	}
	return 0
}

// HourCount is the number of trips picked up in an hour
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// Correlation is one column's correlation with fare_amount
type Correlation struct {
	Column string  `json:"column"`
	Value  float64 `json:"value"`
}

// CorrelationMatrix is a symmetric Pearson matrix over Columns
type CorrelationMatrix struct {
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"`
}

// Get returns the correlation of columns a and b, NaN if either is unknown
func (m CorrelationMatrix) Get(a, b string) float64 {
	i, j := -1, -1
	for k, c := range m.Columns {
		if c == a {
			i = k
		}
		if c == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return math.NaN()
	}
	return m.Values[i][j]
}

// GeoExtent is the bounding box of pickups and dropoffs
type GeoExtent struct {
	Pickup     orb.Bound `json:"pickup"`
	Dropoff    orb.Bound `json:"dropoff"`
	HasPickup  bool      `json:"has_pickup"`
	HasDropoff bool      `json:"has_dropoff"`
}

// AnalysisReport is the read-only summary of a cleaned, enriched table
type AnalysisReport struct {
	Rows             int               `json:"rows"`
	FareStats        SummaryStats      `json:"fare_stats"`
	DistanceStats    SummaryStats      `json:"distance_stats"`
	PassengerCounts  FrequencyTable    `json:"passenger_counts"`
	TimePeriods      FrequencyTable    `json:"time_periods"`
	Seasons          FrequencyTable    `json:"seasons"`
	HourlyRides      []HourCount       `json:"hourly_rides"`
	BusiestHours     []HourCount       `json:"busiest_hours"`
	Correlation      CorrelationMatrix `json:"correlation"`
	FareCorrelations []Correlation     `json:"fare_correlations"`
	FinalColumns     []string          `json:"final_columns"`
	Extent           GeoExtent         `json:"extent"`
}

// Aggregator computes an AnalysisReport without touching the table
type Aggregator struct {
	busiestHours int
	logger       *slog.Logger
}

// NewAggregator creates an aggregator reporting the top busiestHours hours
func NewAggregator(busiestHours int, logger *slog.Logger) *Aggregator {
	if busiestHours <= 0 {
		busiestHours = 10
	}
	return &Aggregator{
		busiestHours: busiestHours,
		logger:       infrastructure.WithComponent(logger, "aggregator"),
	}
}

// Analyze builds the report. Records without features contribute NaN to the
// derived columns.
func (a *Aggregator) Analyze(table *domain.TripTable) *AnalysisReport {
	columns := numericColumns(table)

	report := &AnalysisReport{
		Rows:          table.Len(),
		FareStats:     Summarize(domain.ColFareAmount, columns[domain.ColFareAmount]),
		DistanceStats: Summarize(domain.ColTripDistanceKm, columns[domain.ColTripDistanceKm]),
		FinalColumns:  table.OutputColumns(table.HasFeatures()),
	}

	report.PassengerCounts = passengerFrequencies(table)
	report.TimePeriods = labelFrequencies(domain.ColTimePeriod, table, func(f *domain.TripFeatures) string {
		return string(f.TimePeriod)
	})
	report.Seasons = labelFrequencies(domain.ColSeason, table, func(f *domain.TripFeatures) string {
		return string(f.Season)
	})
	report.HourlyRides = hourlyRides(table)
	report.BusiestHours = busiest(report.HourlyRides, a.busiestHours)

	report.Correlation = correlationMatrix(CorrelationColumns, columns)
	report.FareCorrelations = sortedCorrelations(report.Correlation, domain.ColFareAmount)
	report.Extent = geoExtent(table)

	a.logger.Info("Analysis complete",
		slog.Int("rows", report.Rows),
		slog.Float64("fare_mean", report.FareStats.Mean),
		slog.Float64("distance_mean", report.DistanceStats.Mean))

	return report
}

// numericColumns extracts the correlation columns as float slices
func numericColumns(table *domain.TripTable) map[string][]float64 {
	n := table.Len()
	cols := make(map[string][]float64, len(CorrelationColumns))
	for _, name := range CorrelationColumns {
		cols[name] = make([]float64, n)
	}

	nan := math.NaN()
	for i, r := range table.Records {
		cols[domain.ColFareAmount][i] = r.FareAmount
		cols[domain.ColPickupLongitude][i] = r.PickupLongitude
		cols[domain.ColPickupLatitude][i] = r.PickupLatitude
		cols[domain.ColDropoffLongitude][i] = r.DropoffLongitude
		cols[domain.ColDropoffLatitude][i] = r.DropoffLatitude
		cols[domain.ColPassengerCount][i] = float64(r.PassengerCount)

		f := r.Features
		if f == nil {
			for _, name := range CorrelationColumns[6:] {
				cols[name][i] = nan
			}
			continue
		}
		cols[domain.ColPickupHour][i] = float64(f.PickupHour)
		cols[domain.ColPickupDay][i] = float64(f.PickupDay)
		cols[domain.ColPickupMonth][i] = float64(f.PickupMonth)
		cols[domain.ColPickupYear][i] = float64(f.PickupYear)
		cols[domain.ColTripDistanceKm][i] = f.TripDistanceKm
		cols[domain.ColFarePerKm][i] = f.FarePerKm
	}
	return cols
}

func percentOf(count, total int) float64 {
	if total == 0 {
		return math.NaN()
	}
	return float64(count) / float64(total) * 100
}

// passengerFrequencies counts passenger_count values, ordered by value
func passengerFrequencies(table *domain.TripTable) FrequencyTable {
	counts := make(map[int]int)
	for _, r := range table.Records {
		counts[r.PassengerCount]++
	}

	values := make([]int, 0, len(counts))
	for v := range counts {
		values = append(values, v)
	}
	sort.Ints(values)

	ft := FrequencyTable{Column: domain.ColPassengerCount}
	for _, v := range values {
		ft.Entries = append(ft.Entries, FrequencyEntry{
			Value:   strconv.Itoa(v),
			Count:   counts[v],
			Percent: percentOf(counts[v], table.Len()),
		})
	}
	return ft
}

// labelFrequencies counts a categorical feature, ordered by count
// descending then label
func labelFrequencies(column string, table *domain.TripTable, label func(*domain.TripFeatures) string) FrequencyTable {
	counts := make(map[string]int)
	for _, r := range table.Records {
		if r.Features == nil {
			continue
		}
		counts[label(r.Features)]++
	}

	ft := FrequencyTable{Column: column}
	for v, c := range counts {
		ft.Entries = append(ft.Entries, FrequencyEntry{Value: v, Count: c, Percent: percentOf(c, table.Len())})
	}
	sort.Slice(ft.Entries, func(i, j int) bool {
		if ft.Entries[i].Count != ft.Entries[j].Count {
			return ft.Entries[i].Count > ft.Entries[j].Count
		}
		return ft.Entries[i].Value < ft.Entries[j].Value
	})
	return ft
}

// hourlyRides returns trip counts for every hour that has trips, by hour
func hourlyRides(table *domain.TripTable) []HourCount {
	var counts [24]int
	for _, r := range table.Records {
		if r.Features == nil {
			continue
		}
		counts[r.Features.PickupHour]++
	}

	var rides []HourCount
	for h, c := range counts {
		if c > 0 {
			rides = append(rides, HourCount{Hour: h, Count: c})
		}
	}
	return rides
}

// busiest returns the n hours with the most trips, ties by hour
func busiest(rides []HourCount, n int) []HourCount {
	ranked := append([]HourCount(nil), rides...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Hour < ranked[j].Hour
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func correlationMatrix(names []string, columns map[string][]float64) CorrelationMatrix {
	m := CorrelationMatrix{
		Columns: append([]string(nil), names...),
		Values:  make([][]float64, len(names)),
	}
	for i := range names {
		m.Values[i] = make([]float64, len(names))
	}

	for i, a := range names {
		for j := i; j < len(names); j++ {
			r := Pearson(columns[a], columns[names[j]])
			if i == j && !math.IsNaN(r) {
				r = 1
			}
			m.Values[i][j] = r
			m.Values[j][i] = r
		}
	}
	return m
}

// sortedCorrelations returns column's row of the matrix, highest first with
// NaN last
func sortedCorrelations(m CorrelationMatrix, column string) []Correlation {
	out := make([]Correlation, 0, len(m.Columns))
	for _, c := range m.Columns {
		out = append(out, Correlation{Column: c, Value: m.Get(column, c)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		vi, vj := out[i].Value, out[j].Value
		if math.IsNaN(vi) {
			return false
		}
		if math.IsNaN(vj) {
			return true
		}
		return vi > vj
	})
	return out
}

func geoExtent(table *domain.TripTable) GeoExtent {
	var ext GeoExtent
	for _, r := range table.Records {
		extendBound(&ext.Pickup, &ext.HasPickup, r.Pickup())
		extendBound(&ext.Dropoff, &ext.HasDropoff, r.Dropoff())
	}
	return ext
}
