package dataprocessing

import (
	"context"
	"log/slog"
	"time"

	"uberfares/internal/config"
	"uberfares/internal/infrastructure"
	"uberfares/pkg/contracts/domain"
)

// Stage names, in execution order
const (
	StageLoad    = "load"
	StageProfile = "profile"
	StageClean   = "clean"
	StageDerive  = "derive"
	StageAnalyze = "analyze"
	StageWrite   = "write"
	StageExport  = "export"
)

// Stage status values
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// StageResult records one executed stage
type StageResult struct {
	Name      string        `json:"name"`
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
	RowsIn    int           `json:"rows_in"`
	RowsOut   int           `json:"rows_out"`
	Status    string        `json:"status"`
	Error     string        `json:"error,omitempty"`
}

// Result carries every intermediate product of a run. Each stage reads the
// previous stage's table and never mutates it.
type Result struct {
	Raw      *RawTable
	Profile  *DatasetProfile
	Input    *domain.TripTable
	Cleaning *CleaningResult
	Table    *domain.TripTable
	Analysis *AnalysisReport
	Stages   []StageResult
}

// Stage returns the record for name
func (r *Result) Stage(name string) (StageResult, bool) {
	for _, s := range r.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return StageResult{}, false
}

// Pipeline runs load, profile, clean, derive and analyze in sequence
type Pipeline struct {
	loader     *Loader
	profiler   *Profiler
	cleaner    *Cleaner
	deriver    *FeatureDeriver
	aggregator *Aggregator
	telemetry  *infrastructure.Telemetry
	logger     *slog.Logger
}

// NewPipeline wires the stages. telemetry may be nil.
func NewPipeline(cfg config.PipelineConfig, telemetry *infrastructure.Telemetry, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Pipeline{
		loader:     NewLoader(logger),
		profiler:   NewProfiler(cfg.SampleRows, logger),
		cleaner:    NewCleaner(cfg, logger),
		deriver:    NewFeatureDeriver(cfg, logger),
		aggregator: NewAggregator(cfg.BusiestHours, logger),
		telemetry:  telemetry,
		logger:     infrastructure.WithComponent(logger, "pipeline"),
	}
}

// Run executes the pipeline over the file at inputPath. A structural load
// error aborts before cleaning; the partial Result still lists the stages
// that ran.
func (p *Pipeline) Run(ctx context.Context, inputPath string) (*Result, error) {
	res := &Result{}
	p.logger.InfoContext(ctx, "Pipeline started", slog.String("input", inputPath))

	err := p.RunStage(ctx, res, StageLoad, 0, func(context.Context) (int, error) {
		raw, err := p.loader.ReadRaw(inputPath)
		if err != nil {
			return 0, err
		}
		res.Raw = raw
		table, err := p.loader.Parse(raw)
		if err != nil {
			return 0, err
		}
		res.Input = table
		return table.Len(), nil
	})
	if err != nil {
		return res, err
	}

	err = p.RunStage(ctx, res, StageProfile, res.Raw.Len(), func(context.Context) (int, error) {
		profile, err := p.profiler.Profile(res.Raw)
		if err != nil {
			return 0, err
		}
		res.Profile = profile
		return res.Raw.Len(), nil
	})
	if err != nil {
		return res, err
	}

	p.Process(ctx, res)

	p.logger.InfoContext(ctx, "Pipeline finished",
		slog.Int("original_rows", res.Cleaning.OriginalRows),
		slog.Int("final_rows", res.Cleaning.FinalRows))

	return res, nil
}

// Process cleans, enriches and analyzes res.Input. None of these stages can
// fail.
func (p *Pipeline) Process(ctx context.Context, res *Result) {
	p.RunStage(ctx, res, StageClean, res.Input.Len(), func(ctx context.Context) (int, error) {
		res.Cleaning = p.cleaner.Clean(res.Input)
		for _, step := range res.Cleaning.Steps {
			p.telemetry.RecordRemoved(ctx, step.Name, step.Removed)
		}
		return res.Cleaning.FinalRows, nil
	})

	p.RunStage(ctx, res, StageDerive, res.Cleaning.FinalRows, func(context.Context) (int, error) {
		res.Table = p.deriver.Derive(res.Cleaning.Table)
		return res.Table.Len(), nil
	})

	p.RunStage(ctx, res, StageAnalyze, res.Table.Len(), func(context.Context) (int, error) {
		res.Analysis = p.aggregator.Analyze(res.Table)
		return res.Table.Len(), nil
	})
}

// RunStage times fn, opens a telemetry span around it and appends a
// StageResult to res
func (p *Pipeline) RunStage(ctx context.Context, res *Result, name string, rowsIn int, fn func(context.Context) (int, error)) error {
	start := time.Now()
	stageCtx, span := p.telemetry.StartStage(ctx, name, rowsIn)

	rowsOut, err := fn(stageCtx)
	duration := span.End(rowsOut, err)

	stage := StageResult{
		Name:      name,
		StartTime: start,
		Duration:  duration,
		RowsIn:    rowsIn,
		RowsOut:   rowsOut,
		Status:    StatusCompleted,
	}
	if err != nil {
		stage.Status = StatusFailed
		stage.Error = err.Error()
		p.logger.ErrorContext(ctx, "Stage failed",
			slog.String("stage", name),
			slog.String("error", err.Error()))
	} else {
		p.logger.DebugContext(ctx, "Stage completed",
			slog.String("stage", name),
			slog.Int("rows_in", rowsIn),
			slog.Int("rows_out", rowsOut),
			slog.Duration("duration", duration))
	}
	res.Stages = append(res.Stages, stage)

	return err
}
