package dataprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uberfares/internal/shared/testutil"
	"uberfares/pkg/contracts/domain"
)

// cleaningFixture has one row for every way a trip can be dropped
func cleaningFixture() *domain.TripTable {
	zeroLon := trip(10, 1)
	zeroLon.PickupLongitude = 0

	return tableOf(
		trip(10, 1),  // kept
		zeroLon,      // zero coordinate
		trip(0, 1),   // non-positive fare
		trip(-5, 1),  // non-positive fare
		trip(12, 2),  // kept
		trip(11, 1),  // kept
		trip(9, 6),   // kept
		trip(500, 1), // fare outlier
		trip(10, 0),  // no passengers
		trip(10, 7),  // too many passengers
	)
}

func TestCleaner_StepCounts(t *testing.T) {
	c := NewCleaner(testPipelineConfig(), discardLogger())

	res := c.Clean(cleaningFixture())

	wantRemoved := map[string]int{
		StepZeroCoordinates: 1,
		StepNonPositiveFare: 2,
		StepFareOutliers:    1,
		StepPassengerCount:  2,
	}
	require.Len(t, res.Steps, 4)
	for i, name := range []string{StepZeroCoordinates, StepNonPositiveFare, StepFareOutliers, StepPassengerCount} {
		step := res.Steps[i]
		assert.Equal(t, name, step.Name, "steps run in fixed order")
		assert.Equal(t, wantRemoved[name], step.Removed, name)
		assert.Equal(t, step.RowsBefore-step.RowsAfter, step.Removed)
	}

	assert.Equal(t, 10, res.OriginalRows)
	assert.Equal(t, 4, res.FinalRows)
	assert.Equal(t, 6, res.RemovedTotal())
	assert.InDelta(t, 40.0, res.RetentionRate(), 1e-9)

	// bound from fares 9,10,10,10,11,12,500 that survive the first two steps
	assert.InDelta(t, 10.0, res.FareBounds.Q1, 1e-12)
	assert.InDelta(t, 11.5, res.FareBounds.Q3, 1e-12)
	assert.InDelta(t, 7.75, res.FareBounds.Lower, 1e-12)
	assert.InDelta(t, 13.75, res.FareBounds.Upper, 1e-12)
}

func TestCleaner_OutputInvariants(t *testing.T) {
	c := NewCleaner(testPipelineConfig(), discardLogger())
	res := c.Clean(cleaningFixture())

	for _, r := range res.Table.Records {
		assert.Greater(t, r.FareAmount, 0.0)
		assert.NotZero(t, r.PickupLongitude)
		assert.NotZero(t, r.PickupLatitude)
		assert.NotZero(t, r.DropoffLongitude)
		assert.NotZero(t, r.DropoffLatitude)
		assert.GreaterOrEqual(t, r.PassengerCount, 1)
		assert.LessOrEqual(t, r.PassengerCount, 6)
		assert.True(t, res.FareBounds.Contains(r.FareAmount))
	}
}

func TestCleaner_Idempotent(t *testing.T) {
	c := NewCleaner(testPipelineConfig(), discardLogger())

	first := c.Clean(cleaningFixture())
	second := c.Clean(first.Table)

	assert.Equal(t, first.FinalRows, second.FinalRows)
	for _, step := range second.Steps {
		assert.Zero(t, step.Removed, step.Name)
	}
}

func TestCleaner_OutlierBoundDependsOnOrder(t *testing.T) {
	bad := func(fare float64) domain.TripRecord {
		r := trip(fare, 1)
		r.DropoffLatitude = 0
		return r
	}
	table := tableOf(trip(10, 1), trip(11, 1), trip(12, 1), trip(13, 1), bad(100), bad(200), bad(300))

	rawBounds := ComputeFareBounds(table.Fares(), 1.5)

	c := NewCleaner(testPipelineConfig(), discardLogger())
	res := c.Clean(table)

	assert.NotEqual(t, rawBounds, res.FareBounds)
	assert.InDelta(t, 10.75, res.FareBounds.Q1, 1e-12)
	assert.InDelta(t, 12.25, res.FareBounds.Q3, 1e-12)
	assert.Equal(t, 4, res.FinalRows)
}

func TestCleaner_MissingValues(t *testing.T) {
	nanCoord := trip(10, 1)
	nanCoord.PickupLatitude = math.NaN()
	nanFare := trip(math.NaN(), 1)

	c := NewCleaner(testPipelineConfig(), discardLogger())
	res := c.Clean(tableOf(nanCoord, nanFare, trip(10, 1)))

	step, ok := res.Step(StepZeroCoordinates)
	require.True(t, ok)
	assert.Zero(t, step.Removed, "a missing coordinate is not zero")

	step, _ = res.Step(StepNonPositiveFare)
	assert.Equal(t, 1, step.Removed, "a missing fare is not positive")
	assert.Equal(t, 2, res.FinalRows)
}

func TestCleaner_DegenerateIQR(t *testing.T) {
	c := NewCleaner(testPipelineConfig(), discardLogger())
	res := c.Clean(tableOf(trip(10, 1), trip(10, 1), trip(10, 1), trip(10, 1), trip(11, 1)))

	assert.Zero(t, res.FareBounds.IQR)
	assert.Equal(t, 4, res.FinalRows)
}

func TestCleaner_EmptyTable(t *testing.T) {
	c := NewCleaner(testPipelineConfig(), discardLogger())
	res := c.Clean(tableOf())

	assert.Equal(t, 0, res.FinalRows)
	assert.NotNil(t, res.Table)
	assert.True(t, math.IsNaN(res.RetentionRate()))
	assert.True(t, math.IsNaN(res.FareBounds.Lower))
	for _, step := range res.Steps {
		assert.Zero(t, step.Removed)
	}
}

func TestCleaner_AllRowsRemoved(t *testing.T) {
	c := NewCleaner(testPipelineConfig(), discardLogger())
	res := c.Clean(tableOf(trip(-1, 1), trip(0, 2)))

	assert.Equal(t, 0, res.FinalRows)
	assert.InDelta(t, 0.0, res.RetentionRate(), 1e-12)
}

func TestCleaner_InputUntouched(t *testing.T) {
	in := cleaningFixture()
	before := len(in.Records)

	NewCleaner(testPipelineConfig(), discardLogger()).Clean(in)
	assert.Len(t, in.Records, before)
}

func TestCleaner_LogsEachStep(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	NewCleaner(testPipelineConfig(), logger).Clean(cleaningFixture())

	assert.Len(t, handler.FindByMessage("Cleaning step applied"), 4)
	testutil.AssertLogAttr(t, handler, "component", "cleaner")
	testutil.AssertLogAttr(t, handler, "step", StepFareOutliers)
	testutil.AssertLogAttr(t, handler, "removed", 2)
}
