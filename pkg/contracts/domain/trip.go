package domain

import (
	"math"
	"time"

	"github.com/paulmach/orb"
)

// Column names of the trip dataset. The first block must be present in every
// input file, the second block is appended by feature derivation.
const (
	ColFareAmount       = "fare_amount"
	ColPickupDatetime   = "pickup_datetime"
	ColPickupLongitude  = "pickup_longitude"
	ColPickupLatitude   = "pickup_latitude"
	ColDropoffLongitude = "dropoff_longitude"
	ColDropoffLatitude  = "dropoff_latitude"
	ColPassengerCount   = "passenger_count"

	ColPickupHour      = "pickup_hour"
	ColPickupDay       = "pickup_day"
	ColPickupMonth     = "pickup_month"
	ColPickupYear      = "pickup_year"
	ColPickupDayOfWeek = "pickup_dayofweek"
	ColPickupWeekday   = "pickup_weekday"
	ColTimePeriod      = "time_period"
	ColTripDistanceKm  = "trip_distance_km"
	ColFarePerKm       = "fare_per_km"
	ColSeason          = "season"
)

// RequiredColumns lists the columns the loader refuses to run without
var RequiredColumns = []string{
	ColFareAmount,
	ColPickupDatetime,
	ColPickupLongitude,
	ColPickupLatitude,
	ColDropoffLongitude,
	ColDropoffLatitude,
	ColPassengerCount,
}

// DerivedColumns lists the feature columns in the order they are added
var DerivedColumns = []string{
	ColPickupHour,
	ColPickupDay,
	ColPickupMonth,
	ColPickupYear,
	ColPickupDayOfWeek,
	ColPickupWeekday,
	ColTimePeriod,
	ColTripDistanceKm,
	ColFarePerKm,
	ColSeason,
}

// IsRequiredColumn reports whether name is one of the typed trip columns
func IsRequiredColumn(name string) bool {
	for _, col := range RequiredColumns {
		if col == name {
			return true
		}
	}
	return false
}

// TimePeriod is the time-of-day category of a pickup
type TimePeriod string

const (
	TimePeriodPeak      TimePeriod = "Peak"
	TimePeriodOffPeak   TimePeriod = "Off-Peak"
	TimePeriodLateNight TimePeriod = "Late Night"
)

// Season is the meteorological season of a pickup month
type Season string

const (
	SeasonWinter Season = "Winter"
	SeasonSpring Season = "Spring"
	SeasonSummer Season = "Summer"
	SeasonFall   Season = "Fall"
)

// TripRecord is one ride-hailing trip. Missing numeric cells are carried as NaN.
type TripRecord struct {
	FareAmount       float64   `json:"fare_amount"`
	PickupDatetime   time.Time `json:"pickup_datetime"`
	PickupLongitude  float64   `json:"pickup_longitude"`
	PickupLatitude   float64   `json:"pickup_latitude"`
	DropoffLongitude float64   `json:"dropoff_longitude"`
	DropoffLatitude  float64   `json:"dropoff_latitude"`
	PassengerCount   int       `json:"passenger_count"`

	// Extra holds passthrough cells aligned with TripTable.ExtraColumns
	Extra []string `json:"extra,omitempty"`

	// Features is nil until the record has been through feature derivation
	Features *TripFeatures `json:"features,omitempty"`
}

// Pickup returns the pickup location as a lon/lat point
func (r TripRecord) Pickup() orb.Point {
	return orb.Point{r.PickupLongitude, r.PickupLatitude}
}

// Dropoff returns the dropoff location as a lon/lat point
func (r TripRecord) Dropoff() orb.Point {
	return orb.Point{r.DropoffLongitude, r.DropoffLatitude}
}

// HasCoordinates reports whether all four coordinates are present (not NaN)
func (r TripRecord) HasCoordinates() bool {
	return !math.IsNaN(r.PickupLongitude) && !math.IsNaN(r.PickupLatitude) &&
		!math.IsNaN(r.DropoffLongitude) && !math.IsNaN(r.DropoffLatitude)
}

// TripFeatures are the columns derived from a single trip's own fields
type TripFeatures struct {
	PickupHour      int        `json:"pickup_hour"`
	PickupDay       int        `json:"pickup_day"`
	PickupMonth     int        `json:"pickup_month"`
	PickupYear      int        `json:"pickup_year"`
	PickupDayOfWeek int        `json:"pickup_dayofweek"` // Monday=0
	PickupWeekday   string     `json:"pickup_weekday"`
	TimePeriod      TimePeriod `json:"time_period"`
	TripDistanceKm  float64    `json:"trip_distance_km"`
	FarePerKm       float64    `json:"fare_per_km"`
	Season          Season     `json:"season"`
}

// TripTable is the in-memory dataset. Pipeline stages never mutate a table
// they receive; they return a new one.
type TripTable struct {
	// Columns is the input header order
	Columns []string `json:"columns"`

	// ExtraColumns are the passthrough columns, in input order
	ExtraColumns []string `json:"extra_columns"`

	Records []TripRecord `json:"records"`
}

// Len returns the number of rows
func (t *TripTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// HasFeatures reports whether derived columns are present on every row
func (t *TripTable) HasFeatures() bool {
	if t.Len() == 0 {
		return false
	}
	for _, r := range t.Records {
		if r.Features == nil {
			return false
		}
	}
	return true
}

// OutputColumns returns the header of the written dataset: input columns
// first, then derived columns when they exist.
func (t *TripTable) OutputColumns(withFeatures bool) []string {
	cols := make([]string, 0, len(t.Columns)+len(DerivedColumns))
	cols = append(cols, t.Columns...)
	if withFeatures {
		cols = append(cols, DerivedColumns...)
	}
	return cols
}

// WithRecords returns a table sharing this table's schema and holding records
func (t *TripTable) WithRecords(records []TripRecord) *TripTable {
	return &TripTable{
		Columns:      t.Columns,
		ExtraColumns: t.ExtraColumns,
		Records:      records,
	}
}

// Filter returns a new table with the rows for which keep returns true
func (t *TripTable) Filter(keep func(TripRecord) bool) *TripTable {
	kept := make([]TripRecord, 0, len(t.Records))
	for _, r := range t.Records {
		if keep(r) {
			kept = append(kept, r)
		}
	}
	return t.WithRecords(kept)
}

// Fares returns the fare column
func (t *TripTable) Fares() []float64 {
	fares := make([]float64, len(t.Records))
	for i, r := range t.Records {
		fares[i] = r.FareAmount
	}
	return fares
}
