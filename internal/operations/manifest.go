package operations

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"

	"uberfares/internal/dataprocessing"
)

// Manifest status values
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// RunManifest is the machine-readable record of one pipeline run: the stages
// that ran and the artifacts they left behind
type RunManifest struct {
	mu sync.RWMutex `json:"-"`

	// Identity
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Version   string    `json:"version"`
	InputFile string    `json:"input_file"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time,omitempty"`

	Stages    []StageRecord       `json:"stages"`
	Artifacts map[string]Artifact `json:"artifacts"`
	Cleaning  *CleaningSummary    `json:"cleaning,omitempty"`

	Status      string    `json:"status"`
	LastUpdated time.Time `json:"last_updated"`
	Error       string    `json:"error,omitempty"`
}

// StageRecord is one executed pipeline stage
type StageRecord struct {
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	Duration  string    `json:"duration"`
	RowsIn    int       `json:"rows_in"`
	RowsOut   int       `json:"rows_out"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
}

// Artifact describes a file written by the run
type Artifact struct {
	Kind      string    `json:"kind"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	Blake2b   string    `json:"blake2b_256"`
	CreatedAt time.Time `json:"created_at"`
}

// CleaningSummary is the JSON-safe view of a cleaning result. Values that are
// NaN for an empty table are left out.
type CleaningSummary struct {
	OriginalRows  int         `json:"original_rows"`
	FinalRows     int         `json:"final_rows"`
	RemovedTotal  int         `json:"removed_total"`
	RetentionRate *float64    `json:"retention_rate,omitempty"`
	FareLower     *float64    `json:"fare_lower,omitempty"`
	FareUpper     *float64    `json:"fare_upper,omitempty"`
	Steps         []StepCount `json:"steps"`
}

// StepCount is the number of rows one cleaning step removed
type StepCount struct {
	Name    string `json:"name"`
	Removed int    `json:"removed"`
}

// NewRunManifest creates a manifest for a run that is about to start
func NewRunManifest(runID, version, inputFile string) *RunManifest {
	now := time.Now().UTC()
	return &RunManifest{
		ID:          fmt.Sprintf("manifest-%d", now.Unix()),
		RunID:       runID,
		Version:     version,
		InputFile:   inputFile,
		StartTime:   now,
		Stages:      []StageRecord{},
		Artifacts:   make(map[string]Artifact),
		Status:      StatusRunning,
		LastUpdated: now,
	}
}

// RecordStages copies the stage results of a run
func (m *RunManifest) RecordStages(stages []dataprocessing.StageResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Stages = m.Stages[:0]
	for _, s := range stages {
		m.Stages = append(m.Stages, StageRecord{
			Name:      s.Name,
			StartTime: s.StartTime,
			Duration:  s.Duration.String(),
			RowsIn:    s.RowsIn,
			RowsOut:   s.RowsOut,
			Status:    s.Status,
			Error:     s.Error,
		})
	}
	m.LastUpdated = time.Now().UTC()
}

// RecordCleaning stores the cleaning summary
func (m *RunManifest) RecordCleaning(c *dataprocessing.CleaningResult) {
	if c == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	summary := &CleaningSummary{
		OriginalRows:  c.OriginalRows,
		FinalRows:     c.FinalRows,
		RemovedTotal:  c.RemovedTotal(),
		RetentionRate: finitePtr(c.RetentionRate()),
		FareLower:     finitePtr(c.FareBounds.Lower),
		FareUpper:     finitePtr(c.FareBounds.Upper),
		Steps:         make([]StepCount, 0, len(c.Steps)),
	}
	for _, s := range c.Steps {
		summary.Steps = append(summary.Steps, StepCount{Name: s.Name, Removed: s.Removed})
	}
	m.Cleaning = summary
	m.LastUpdated = time.Now().UTC()
}

// AddArtifact hashes the file at path and records it under kind.
// An empty path is ignored so disabled artifacts can be passed through.
func (m *RunManifest) AddArtifact(kind, path string) error {
	if path == "" {
		return nil
	}

	size, digest, err := digestFile(path)
	if err != nil {
		return fmt.Errorf("failed to digest %s: %w", path, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Artifacts[kind] = Artifact{
		Kind:      kind,
		Path:      path,
		Size:      size,
		Blake2b:   digest,
		CreatedAt: time.Now().UTC(),
	}
	m.LastUpdated = time.Now().UTC()
	return nil
}

// HasArtifact checks if an artifact of kind was recorded
func (m *RunManifest) HasArtifact(kind string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.Artifacts[kind]
	return ok
}

// Complete marks the run finished
func (m *RunManifest) Complete() {
	m.finish(StatusCompleted, "")
}

// Fail marks the run failed with err
func (m *RunManifest) Fail(err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	m.finish(StatusFailed, msg)
}

func (m *RunManifest) finish(status, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	m.Status = status
	m.Error = msg
	m.EndTime = now
	m.LastUpdated = now
}

// SaveToFile saves the manifest to a JSON file
func (m *RunManifest) SaveToFile(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}
	return nil
}

// LoadManifestFromFile loads a manifest from a JSON file
func LoadManifestFromFile(path string) (*RunManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	var manifest RunManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	return &manifest, nil
}

// VerifyArtifact reports whether the file on disk still matches its record
func (m *RunManifest) VerifyArtifact(kind string) (bool, error) {
	m.mu.RLock()
	a, ok := m.Artifacts[kind]
	m.mu.RUnlock()
	if !ok {
		return false, fmt.Errorf("unknown artifact: %s", kind)
	}

	size, digest, err := digestFile(a.Path)
	if err != nil {
		return false, err
	}
	return size == a.Size && digest == a.Blake2b, nil
}

func digestFile(path string) (int64, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, "", err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return 0, "", err
	}
	n, err := io.Copy(h, f)
	if err != nil {
		return 0, "", err
	}
	return n, hex.EncodeToString(h.Sum(nil)), nil
}

func finitePtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
