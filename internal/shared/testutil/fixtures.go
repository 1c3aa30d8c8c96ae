package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TripsHeader is the header of the reference Uber fares dataset, including
// its two passthrough columns
const TripsHeader = ",key,fare_amount,pickup_datetime,pickup_longitude,pickup_latitude,dropoff_longitude,dropoff_latitude,passenger_count"

// TripRow builds one CSV row in TripsHeader order
type TripRow struct {
	ID         int
	Fare       string
	Pickup     string
	PickupLon  string
	PickupLat  string
	DropoffLon string
	DropoffLat string
	Passengers string
}

// ValidTrip returns a Manhattan trip that survives every cleaning rule
func ValidTrip(id int, fare string) TripRow {
	return TripRow{
		ID:         id,
		Fare:       fare,
		Pickup:     "2015-05-07 19:52:06 UTC",
		PickupLon:  "-73.999817",
		PickupLat:  "40.738354",
		DropoffLon: "-73.999512",
		DropoffLat: "40.723217",
		Passengers: "1",
	}
}

// String renders the row as a CSV line
func (r TripRow) String() string {
	key := strings.ReplaceAll(r.Pickup, " UTC", "") + fmt.Sprintf(".%07d", r.ID)
	return strings.Join([]string{
		fmt.Sprint(r.ID), key, r.Fare, r.Pickup,
		r.PickupLon, r.PickupLat, r.DropoffLon, r.DropoffLat, r.Passengers,
	}, ",")
}

// TripsCSV renders the header plus rows
func TripsCSV(rows ...TripRow) string {
	var b strings.Builder
	b.WriteString(TripsHeader)
	b.WriteString("\n")
	for _, r := range rows {
		b.WriteString(r.String())
		b.WriteString("\n")
	}
	return b.String()
}

// WriteFile writes content to name inside dir and returns the full path
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

// WriteTripsCSV writes a trips file into a fresh temp dir
func WriteTripsCSV(t *testing.T, rows ...TripRow) string {
	t.Helper()
	return WriteFile(t, t.TempDir(), "uber.csv", TripsCSV(rows...))
}
