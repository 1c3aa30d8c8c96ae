package exporter

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uberfares/internal/config"
	"uberfares/internal/dataprocessing"
	"uberfares/internal/shared/testutil"
	"uberfares/pkg/contracts/domain"
)

func runPipeline(t *testing.T, rows ...testutil.TripRow) *dataprocessing.Result {
	t.Helper()
	path := testutil.WriteTripsCSV(t, rows...)
	res, err := dataprocessing.NewPipeline(config.Default().Pipeline, nil, discardLogger()).Run(context.Background(), path)
	require.NoError(t, err)
	return res
}

func TestTripExporter_Export(t *testing.T) {
	res := runPipeline(t, testutil.ValidTrip(0, "7.5"), testutil.ValidTrip(1, "8"))
	w, dir := setupWriter(t)

	n, err := NewTripExporter(w, false, discardLogger()).Export(res.Table, "enhanced.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	records := readCSV(t, filepath.Join(dir, "enhanced.csv"))
	require.Len(t, records, 3)

	wantHeader := append(strings.Split(testutil.TripsHeader, ","), domain.DerivedColumns...)
	assert.Equal(t, wantHeader, records[0])

	assert.Equal(t, []string{
		"0", "2015-05-07 19:52:06.0000000", "7.5", "2015-05-07 19:52:06+00:00",
		"-73.999817", "40.738354", "-73.999512", "40.723217", "1",
		"19", "7", "5", "2015", "3", "Thursday", "Peak",
	}, records[1][:16])
	assert.True(t, strings.HasPrefix(records[1][16], "1.68335"))
	assert.Equal(t, "Spring", records[1][18])
}

func TestTripExporter_RoundTrip(t *testing.T) {
	zero := testutil.ValidTrip(2, "9")
	zero.DropoffLon = "0"
	res := runPipeline(t, testutil.ValidTrip(0, "7.5"), testutil.ValidTrip(1, "8"), zero, testutil.ValidTrip(3, "9.25"))
	w, dir := setupWriter(t)

	_, err := NewTripExporter(w, true, discardLogger()).Export(res.Table, "enhanced.csv")
	require.NoError(t, err)

	reread, err := dataprocessing.NewLoader(discardLogger()).Load(filepath.Join(dir, "enhanced.csv"))
	require.NoError(t, err)

	assert.Equal(t, res.Table.Len(), reread.Len())
	assert.ElementsMatch(t, res.Table.OutputColumns(true), reread.Columns)
	for i, r := range reread.Records {
		orig := res.Table.Records[i]
		assert.Equal(t, orig.FareAmount, r.FareAmount)
		assert.True(t, orig.PickupDatetime.Equal(r.PickupDatetime))
		assert.Equal(t, orig.PickupLongitude, r.PickupLongitude)
		assert.Equal(t, orig.PassengerCount, r.PassengerCount)
	}
}

func TestTripExporter_EmptyTableWritesHeader(t *testing.T) {
	res := runPipeline(t)
	w, dir := setupWriter(t)

	n, err := NewTripExporter(w, false, discardLogger()).Export(res.Table, "empty.csv")
	require.NoError(t, err)
	assert.Zero(t, n)

	records := readCSV(t, filepath.Join(dir, "empty.csv"))
	require.Len(t, records, 1)
	assert.Len(t, records[0], 9+len(domain.DerivedColumns))
}

func TestColumnPlan_DuplicateTypedColumn(t *testing.T) {
	table := &domain.TripTable{
		Columns: []string{"fare_amount", "id", "fare_amount"},
	}
	plan := columnPlan(table)
	assert.Equal(t, []cellSource{{name: "fare_amount"}, {extra: 0}, {extra: 1}}, plan)
}
