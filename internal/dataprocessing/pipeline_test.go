package dataprocessing

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "uberfares/internal/errors"
	"uberfares/internal/infrastructure"
	"uberfares/internal/shared/testutil"
)

func pipelineFixture() []testutil.TripRow {
	zero := testutil.ValidTrip(3, "8")
	zero.PickupLat = "0"
	free := testutil.ValidTrip(4, "0")
	crowd := testutil.ValidTrip(5, "9")
	crowd.Passengers = "9"

	return []testutil.TripRow{
		testutil.ValidTrip(0, "7.5"),
		testutil.ValidTrip(1, "8.5"),
		testutil.ValidTrip(2, "9"),
		zero,
		free,
		crowd,
	}
}

func TestPipeline_Run(t *testing.T) {
	path := testutil.WriteTripsCSV(t, pipelineFixture()...)
	p := NewPipeline(testPipelineConfig(), nil, discardLogger())

	res, err := p.Run(context.Background(), path)
	require.NoError(t, err)

	var names []string
	for _, s := range res.Stages {
		names = append(names, s.Name)
		assert.Equal(t, StatusCompleted, s.Status)
	}
	assert.Equal(t, []string{StageLoad, StageProfile, StageClean, StageDerive, StageAnalyze}, names)

	assert.Equal(t, 6, res.Input.Len())
	assert.Equal(t, 6, res.Profile.Rows)
	assert.Equal(t, 3, res.Cleaning.FinalRows)
	assert.Equal(t, 3, res.Table.Len())
	assert.True(t, res.Table.HasFeatures())
	assert.Equal(t, 3, res.Analysis.Rows)
	assert.False(t, res.Input.HasFeatures(), "stages do not mutate earlier tables")

	clean, ok := res.Stage(StageClean)
	require.True(t, ok)
	assert.Equal(t, 6, clean.RowsIn)
	assert.Equal(t, 3, clean.RowsOut)
}

func TestPipeline_LoadFailureStopsEarly(t *testing.T) {
	p := NewPipeline(testPipelineConfig(), nil, discardLogger())

	res, err := p.Run(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindMissingFile))

	require.Len(t, res.Stages, 1)
	assert.Equal(t, StatusFailed, res.Stages[0].Status)
	assert.Nil(t, res.Cleaning)
}

func TestPipeline_EmptyInput(t *testing.T) {
	path := testutil.WriteTripsCSV(t)
	p := NewPipeline(testPipelineConfig(), nil, discardLogger())

	res, err := p.Run(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 0, res.Table.Len())
	assert.True(t, math.IsNaN(res.Cleaning.RetentionRate()))
	assert.True(t, math.IsNaN(res.Analysis.FareStats.Mean))
}

func TestPipeline_RecordsMetrics(t *testing.T) {
	tel, err := infrastructure.InitializeTelemetry(infrastructure.TelemetryConfig{EnableMetrics: true}, discardLogger())
	require.NoError(t, err)
	defer tel.Shutdown(context.Background())

	path := testutil.WriteTripsCSV(t, pipelineFixture()...)
	_, err = NewPipeline(testPipelineConfig(), tel, discardLogger()).Run(context.Background(), path)
	require.NoError(t, err)

	metricsPath := filepath.Join(t.TempDir(), "pipeline.prom")
	require.NoError(t, tel.WriteMetrics(metricsPath))

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `step="passenger_count"`)
	assert.Contains(t, string(data), `stage="derive"`)
}
