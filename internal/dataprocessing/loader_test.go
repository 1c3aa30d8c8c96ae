package dataprocessing

import (
	stderrors "errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "uberfares/internal/errors"
	"uberfares/internal/shared/testutil"
	"uberfares/pkg/contracts/domain"
)

func TestLoader_Load(t *testing.T) {
	path := testutil.WriteTripsCSV(t, testutil.ValidTrip(0, "7.5"), testutil.ValidTrip(1, "12.1"))

	table, err := NewLoader(discardLogger()).Load(path)
	require.NoError(t, err)

	require.Equal(t, 2, table.Len())
	assert.Equal(t, strings.Split(testutil.TripsHeader, ","), table.Columns)
	assert.Equal(t, []string{"", "key"}, table.ExtraColumns)

	r := table.Records[0]
	assert.Equal(t, 7.5, r.FareAmount)
	assert.Equal(t, time.Date(2015, 5, 7, 19, 52, 6, 0, time.UTC), r.PickupDatetime)
	assert.Equal(t, time.UTC, r.PickupDatetime.Location())
	assert.Equal(t, -73.999817, r.PickupLongitude)
	assert.Equal(t, 40.723217, r.DropoffLatitude)
	assert.Equal(t, 1, r.PassengerCount)
	assert.Equal(t, []string{"0", "2015-05-07 19:52:06.0000000"}, r.Extra)
	assert.Nil(t, r.Features)
}

func TestLoader_Errors(t *testing.T) {
	badTime := testutil.ValidTrip(1, "9")
	badTime.Pickup = "yesterday"
	badFare := testutil.ValidTrip(1, "ten")
	badPassengers := testutil.ValidTrip(1, "9")
	badPassengers.Passengers = "1.5"

	tests := []struct {
		name     string
		content  string
		kind     apperrors.Kind
		row      int
		column   string
		contains string
	}{
		{
			name:     "missing required column",
			content:  "key,fare_amount,pickup_datetime,pickup_longitude,pickup_latitude,dropoff_longitude\n",
			kind:     apperrors.KindMissingColumn,
			contains: "dropoff_latitude, passenger_count",
		},
		{
			name:    "empty file",
			content: "",
			kind:    apperrors.KindMissingColumn,
		},
		{
			name:    "unparseable timestamp",
			content: testutil.TripsCSV(testutil.ValidTrip(0, "7"), badTime),
			kind:    apperrors.KindMalformedRow,
			row:     3,
			column:  domain.ColPickupDatetime,
		},
		{
			name:    "non-numeric fare",
			content: testutil.TripsCSV(badFare),
			kind:    apperrors.KindMalformedRow,
			row:     2,
			column:  domain.ColFareAmount,
		},
		{
			name:    "fractional passenger count",
			content: testutil.TripsCSV(badPassengers),
			kind:    apperrors.KindMalformedRow,
			row:     2,
			column:  domain.ColPassengerCount,
		},
		{
			name:    "ragged row",
			content: testutil.TripsHeader + "\n1,2,3\n",
			kind:    apperrors.KindMalformedRow,
			row:     2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := testutil.WriteFile(t, t.TempDir(), "uber.csv", tt.content)

			_, err := NewLoader(discardLogger()).Load(path)
			require.Error(t, err)
			assert.True(t, apperrors.IsKind(err, tt.kind), "got %v", err)

			var pe *apperrors.PipelineError
			require.True(t, stderrors.As(err, &pe))
			assert.Equal(t, path, pe.Path)
			if tt.row > 0 {
				assert.Equal(t, tt.row, pe.Row)
			}
			if tt.column != "" {
				assert.Equal(t, tt.column, pe.Column)
			}
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
		})
	}
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := NewLoader(discardLogger()).Load(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindMissingFile))
	assert.ErrorIs(t, err, apperrors.ErrMissingFile)
}

func TestLoader_EmptyCells(t *testing.T) {
	row := testutil.ValidTrip(0, "")
	row.DropoffLon = ""
	row.Passengers = ""
	path := testutil.WriteTripsCSV(t, row)

	table, err := NewLoader(discardLogger()).Load(path)
	require.NoError(t, err)

	r := table.Records[0]
	assert.True(t, math.IsNaN(r.FareAmount))
	assert.True(t, math.IsNaN(r.DropoffLongitude))
	assert.False(t, r.HasCoordinates())
	assert.Equal(t, 0, r.PassengerCount)
}

func TestLoader_BOMAndHeaderOnly(t *testing.T) {
	content := "\ufefffare_amount,pickup_datetime,pickup_longitude,pickup_latitude,dropoff_longitude,dropoff_latitude,passenger_count\n"
	path := testutil.WriteFile(t, t.TempDir(), "bom.csv", content)

	table, err := NewLoader(discardLogger()).Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
	assert.Equal(t, domain.RequiredColumns, table.Columns)
	assert.Empty(t, table.ExtraColumns)
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2009, 6, 15, 17, 26, 21, 0, time.UTC)
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2009-06-15 17:26:21 UTC", want},
		{"2009-06-15 17:26:21+00:00", want},
		{"2009-06-15 12:26:21-05:00", want},
		{"2009-06-15T17:26:21Z", want},
		{"2009-06-15T17:26:21.5Z", want.Add(500 * time.Millisecond)},
		{"2009-06-15 17:26:21", want},
		{"2009-06-15T17:26:21", want},
		{"2009-06-15", time.Date(2009, 6, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimestamp(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}

	for _, bad := range []string{"", "15/06/2009", "not a date"} {
		_, err := ParseTimestamp(bad)
		assert.Error(t, err, bad)
	}
}
