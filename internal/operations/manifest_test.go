package operations

import (
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"

	"uberfares/internal/dataprocessing"
	"uberfares/pkg/contracts/domain"
)

func TestRunManifest(t *testing.T) {
	t.Run("NewManifest", func(t *testing.T) {
		m := NewRunManifest("run-1", "1.0.0", "uber.csv")

		assert.Equal(t, "run-1", m.RunID)
		assert.Equal(t, StatusRunning, m.Status)
		assert.Empty(t, m.Stages)
		assert.NotNil(t, m.Artifacts)
	})

	t.Run("RecordStages", func(t *testing.T) {
		m := NewRunManifest("run-1", "1.0.0", "uber.csv")
		m.RecordStages([]dataprocessing.StageResult{
			{Name: "load", RowsOut: 10, Duration: 2 * time.Millisecond, Status: dataprocessing.StatusCompleted},
			{Name: "clean", RowsIn: 10, RowsOut: 7, Status: dataprocessing.StatusCompleted},
		})

		require.Len(t, m.Stages, 2)
		assert.Equal(t, "2ms", m.Stages[0].Duration)
		assert.Equal(t, 7, m.Stages[1].RowsOut)
	})

	t.Run("CompleteAndFail", func(t *testing.T) {
		m := NewRunManifest("run-1", "1.0.0", "uber.csv")
		m.Complete()
		assert.Equal(t, StatusCompleted, m.Status)
		assert.False(t, m.EndTime.IsZero())

		m.Fail(errors.New("disk full"))
		assert.Equal(t, StatusFailed, m.Status)
		assert.Equal(t, "disk full", m.Error)
	})
}

func TestRunManifest_AddArtifact(t *testing.T) {
	dir := t.TempDir()
	content := []byte("fare_amount\n7.5\n")
	path := filepath.Join(dir, "trips.csv")
	require.NoError(t, os.WriteFile(path, content, 0644))

	m := NewRunManifest("run-1", "1.0.0", "uber.csv")
	require.NoError(t, m.AddArtifact("dataset_csv", path))
	require.NoError(t, m.AddArtifact("workbook", ""), "disabled artifacts are skipped")

	assert.True(t, m.HasArtifact("dataset_csv"))
	assert.False(t, m.HasArtifact("workbook"))

	sum := blake2b.Sum256(content)
	a := m.Artifacts["dataset_csv"]
	assert.Equal(t, hex.EncodeToString(sum[:]), a.Blake2b)
	assert.Equal(t, int64(len(content)), a.Size)

	ok, err := m.VerifyArtifact("dataset_csv")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, os.WriteFile(path, []byte("tampered"), 0644))
	ok, err = m.VerifyArtifact("dataset_csv")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = m.VerifyArtifact("workbook")
	assert.Error(t, err)

	assert.Error(t, m.AddArtifact("missing", filepath.Join(dir, "nope.csv")))
}

func TestRunManifest_SaveAndLoad(t *testing.T) {
	m := NewRunManifest("run-1", "1.0.0", "uber.csv")
	m.RecordCleaning(&dataprocessing.CleaningResult{
		Table:        &domain.TripTable{},
		OriginalRows: 0,
		FinalRows:    0,
		FareBounds:   dataprocessing.ComputeFareBounds(nil, 1.5),
		Steps:        []dataprocessing.CleaningStep{{Name: dataprocessing.StepZeroCoordinates}},
	})
	m.Complete()

	path := filepath.Join(t.TempDir(), "meta", "manifest.json")
	require.NoError(t, m.SaveToFile(path), "NaN statistics must not break encoding")

	loaded, err := LoadManifestFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "run-1", loaded.RunID)
	assert.Equal(t, StatusCompleted, loaded.Status)
	require.NotNil(t, loaded.Cleaning)
	assert.Nil(t, loaded.Cleaning.RetentionRate)
	assert.Nil(t, loaded.Cleaning.FareLower)
	require.Len(t, loaded.Cleaning.Steps, 1)
}

func TestRunManifest_RecordCleaning(t *testing.T) {
	m := NewRunManifest("run-1", "1.0.0", "uber.csv")
	m.RecordCleaning(nil)
	assert.Nil(t, m.Cleaning)

	m.RecordCleaning(&dataprocessing.CleaningResult{
		OriginalRows: 10,
		FinalRows:    4,
		FareBounds:   dataprocessing.ComputeFareBounds([]float64{10, 10, 11, 12}, 1.5),
		Steps: []dataprocessing.CleaningStep{
			{Name: dataprocessing.StepZeroCoordinates, Removed: 4},
			{Name: dataprocessing.StepPassengerCount, Removed: 2},
		},
	})

	require.NotNil(t, m.Cleaning)
	assert.Equal(t, 6, m.Cleaning.RemovedTotal)
	require.NotNil(t, m.Cleaning.RetentionRate)
	assert.InDelta(t, 40.0, *m.Cleaning.RetentionRate, 1e-9)
	require.NotNil(t, m.Cleaning.FareUpper)
}

func TestLoadManifestFromFile_Errors(t *testing.T) {
	_, err := LoadManifestFromFile(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))
	_, err = LoadManifestFromFile(path)
	assert.Error(t, err)
}
