package errors

import (
	stderrors "errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *PipelineError
		want string
	}{
		{
			name: "missing file with cause",
			err:  NewMissingFileError("uber.csv", os.ErrNotExist),
			want: "[missing_file] load: input file not found (file uber.csv): file does not exist",
		},
		{
			name: "malformed row with line and column",
			err:  NewMalformedRowError("uber.csv", 12, "pickup_datetime", fmt.Errorf("bad timestamp")),
			want: "[malformed_row] load: malformed row (file uber.csv, line 12, column pickup_datetime): bad timestamp",
		},
		{
			name: "config error without path",
			err:  NewConfigError("invalid log level", nil),
			want: "[config_invalid] config: invalid log level",
		},
		{
			name: "nil receiver",
			err:  nil,
			want: "unknown pipeline error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestMissingColumnError_ListsColumns(t *testing.T) {
	err := NewMissingColumnError("trips.csv", []string{"fare_amount", "passenger_count"})

	assert.Equal(t, KindMissingColumn, err.Kind)
	assert.Equal(t, "fare_amount,passenger_count", err.Column)
	assert.Contains(t, err.Error(), "fare_amount, passenger_count")
}

func TestIsKind_ThroughWrapping(t *testing.T) {
	base := NewMalformedRowError("trips.csv", 3, "fare_amount", stderrors.New("not a number"))
	wrapped := fmt.Errorf("load dataset: %w", base)

	assert.True(t, IsKind(wrapped, KindMalformedRow))
	assert.False(t, IsKind(wrapped, KindMissingFile))
	assert.False(t, IsKind(stderrors.New("plain"), KindMalformedRow))

	kind, ok := KindOf(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindMalformedRow, kind)

	_, ok = KindOf(nil)
	assert.False(t, ok)
}

func TestSentinels_MatchByKind(t *testing.T) {
	err := fmt.Errorf("run: %w", NewMissingFileError("gone.csv", os.ErrNotExist))

	assert.ErrorIs(t, err, ErrMissingFile)
	assert.NotErrorIs(t, err, ErrMissingColumn)
	assert.ErrorIs(t, err, os.ErrNotExist, "cause stays reachable")
}

func TestWriteError_Unwrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := NewWriteError("write", "/out/trips.csv", cause)

	assert.Equal(t, cause, stderrors.Unwrap(err))
	assert.Equal(t, "write", err.Step)

	var nilErr *PipelineError
	assert.Nil(t, nilErr.Unwrap())
}
