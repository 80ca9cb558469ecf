package app

import (
	"context"
	"time"

	"gopower/domain/core"
	"gopower/domain/design"
	"gopower/domain/power"
	"gopower/domain/trial"
	"gopower/internal"
	"gopower/internal/errors"
	"gopower/internal/fit"
	"gopower/internal/gen"
	"gopower/internal/sim"
	"gopower/ports"
)

// PowerService orchestrates power-simulation sweeps: validation, grid
// execution, aggregation, and the optional archive and export side channels.
type PowerService struct {
	runner   *sim.Runner
	rngPort  ports.RNGPort
	repo     ports.RunRepositoryPort // nil disables the archive
	exporter ports.ExporterPort      // nil disables spreadsheet export
	logger   *internal.Logger
}

// NewPowerService creates a power service. repo and exporter may be nil.
func NewPowerService(runner *sim.Runner, rngPort ports.RNGPort, repo ports.RunRepositoryPort, exporter ports.ExporterPort, logger *internal.Logger) *PowerService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &PowerService{
		runner:   runner,
		rngPort:  rngPort,
		repo:     repo,
		exporter: exporter,
		logger:   logger,
	}
}

// SweepRequest defines the inputs for one sweep
type SweepRequest struct {
	Spec   design.Spec
	RunID  core.RunID // optional, generated when empty
	Export bool
}

// SweepResult contains the complete output of one sweep
type SweepResult struct {
	Run        power.RunRecord   `json:"run"`
	Aggregates []power.CellStats `json:"aggregates"`
	Trials     []trial.Record    `json:"-"`
	ExportPath string            `json:"export_path,omitempty"`
	RuntimeMs  int64             `json:"runtime_ms"`
}

// RunSweep validates the design spec, executes the full grid, aggregates the
// flat table, and archives/exports the results where those adapters are wired.
func (s *PowerService) RunSweep(ctx context.Context, req SweepRequest) (*SweepResult, error) {
	startTime := time.Now()

	if err := req.Spec.Validate(); err != nil {
		return nil, err
	}

	runID := req.RunID
	if runID == "" {
		runID = core.NewRunID()
	}

	s.logger.Info("starting sweep %s: %d cells x %d repetitions",
		runID, len(req.Spec.Grid()), req.Spec.Repetitions)

	output, err := s.runner.Run(ctx, runID, req.Spec)
	if err != nil {
		return nil, errors.Wrap(err, "grid execution failed")
	}

	aggregates, err := sim.Aggregate(output, req.Spec.Grid())
	if err != nil {
		return nil, errors.Wrap(err, "aggregation failed")
	}

	result := &SweepResult{
		Run: power.RunRecord{
			RunID:           runID,
			Spec:            req.Spec,
			StartedAt:       core.NewTimestamp(startTime),
			FinishedAt:      core.Now(),
			CompletedTrials: output.Completed,
			FailedTrials:    output.Failed,
		},
		Aggregates: aggregates,
		Trials:     output.Records,
	}

	if s.repo != nil {
		if err := s.repo.SaveRun(ctx, result.Run); err != nil {
			return nil, errors.Wrap(err, "failed to archive run")
		}
		if err := s.repo.SaveAggregates(ctx, runID, aggregates); err != nil {
			return nil, errors.Wrap(err, "failed to archive aggregates")
		}
	}

	if req.Export && s.exporter != nil {
		path, err := s.exporter.Export(ctx, runID, output.Records, aggregates)
		if err != nil {
			return nil, errors.Wrap(err, "spreadsheet export failed")
		}
		result.ExportPath = path
	}

	result.RuntimeMs = time.Since(startTime).Milliseconds()
	return result, nil
}

// RunSingleTrial generates and evaluates one dataset with a fixed seed,
// supporting reproducible spot checks of the evaluator.
func (s *PowerService) RunSingleTrial(ctx context.Context, n int, means [design.CellMeanCount]float64, sd, alpha float64, seed int64) (trial.Result, error) {
	if alpha <= 0 || alpha >= 1 {
		return trial.Result{}, errors.ConfigInvalid("significance threshold must be in (0, 1)")
	}

	rng, err := s.rngPort.SeededStream(ctx, "single-trial", seed)
	if err != nil {
		return trial.Result{}, errors.Wrap(err, "failed to seed trial stream")
	}

	ds, err := gen.Generate(n, means, sd, rng)
	if err != nil {
		return trial.Result{}, err
	}
	return fit.Evaluate(ds, alpha)
}

// GetRun fetches one archived run manifest
func (s *PowerService) GetRun(ctx context.Context, runID core.RunID) (*power.RunRecord, error) {
	if s.repo == nil {
		return nil, errors.NotFound("run archive")
	}
	return s.repo.GetRun(ctx, runID)
}

// GetAggregates fetches the archived aggregate rows of one run
func (s *PowerService) GetAggregates(ctx context.Context, runID core.RunID) ([]power.CellStats, error) {
	if s.repo == nil {
		return nil, errors.NotFound("run archive")
	}
	return s.repo.GetAggregates(ctx, runID)
}

// ListRuns lists archived runs, most recent first
func (s *PowerService) ListRuns(ctx context.Context, limit int) ([]power.RunRecord, error) {
	if s.repo == nil {
		return nil, errors.NotFound("run archive")
	}
	return s.repo.ListRuns(ctx, limit)
}
