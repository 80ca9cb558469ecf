package sim

import (
	"context"
	"sync"

	"gopower/domain/core"
	"gopower/domain/design"
	"gopower/domain/trial"
	"gopower/internal"
	"gopower/internal/errors"
	"gopower/internal/fit"
	"gopower/internal/gen"
	"gopower/ports"

	"golang.org/x/sync/semaphore"
)

// Runner executes the generator+evaluator pipeline over a design grid.
//
// Trials are independent given their own seeded streams, so they are
// distributed across workers bounded by a weighted semaphore. Fit failures
// follow a skip-and-continue policy: a degenerate trial is dropped and counted
// against its cell without corrupting the rest of the cell's repetitions.
type Runner struct {
	rngPort ports.RNGPort
	workers int64
	logger  *internal.Logger
}

// NewRunner creates a grid runner with the given worker limit
func NewRunner(rngPort ports.RNGPort, workers int, logger *internal.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Runner{rngPort: rngPort, workers: int64(workers), logger: logger}
}

// Output is the flat result table of one sweep plus per-cell failure counts.
type Output struct {
	Records      []trial.Record
	FailedByCell map[design.Cell]int
	Completed    int
	Failed       int
}

type trialOutcome struct {
	record trial.Record
	err    error
}

// Run executes spec.Repetitions trials for every grid cell and collects the
// completed trials into a flat table keyed by (n, sd, repetition index).
// Repetition indices are 1-based in the output.
func (r *Runner) Run(ctx context.Context, runID core.RunID, spec design.Spec) (*Output, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	cells := spec.Grid()
	total := len(cells) * spec.Repetitions
	outcomes := make([]trialOutcome, total)

	sem := semaphore.NewWeighted(r.workers)
	var wg sync.WaitGroup

	for ci, cell := range cells {
		for rep := 0; rep < spec.Repetitions; rep++ {
			if err := sem.Acquire(ctx, 1); err != nil {
				wg.Wait()
				return nil, errors.Wrap(err, "sweep cancelled while waiting for a worker")
			}
			wg.Add(1)
			idx := ci*spec.Repetitions + rep
			go func(idx int, cell design.Cell, rep int) {
				defer wg.Done()
				defer sem.Release(1)
				outcomes[idx] = r.runTrial(ctx, runID, spec, cell, rep)
			}(idx, cell, rep)
		}
	}
	wg.Wait()

	out := &Output{
		Records:      make([]trial.Record, 0, total),
		FailedByCell: make(map[design.Cell]int),
	}
	for ci, cell := range cells {
		completed := 0
		for rep := 0; rep < spec.Repetitions; rep++ {
			outcome := outcomes[ci*spec.Repetitions+rep]
			if outcome.err != nil {
				out.Failed++
				out.FailedByCell[cell]++
				r.logger.Warn("trial failed (n=%d sd=%g rep=%d): %v", cell.N, cell.SD, rep+1, outcome.err)
				continue
			}
			out.Records = append(out.Records, outcome.record)
			completed++
		}
		if completed == 0 {
			return nil, errors.InternalError("every trial failed for cell, aggregate would be empty")
		}
	}
	out.Completed = len(out.Records)

	r.logger.Info("sweep %s finished: %d cells, %d completed trials, %d failed",
		runID, len(cells), out.Completed, out.Failed)
	return out, nil
}

// runTrial generates one dataset and evaluates the three models against it.
func (r *Runner) runTrial(ctx context.Context, runID core.RunID, spec design.Spec, cell design.Cell, rep int) trialOutcome {
	rng, err := r.rngPort.TrialStream(ctx, runID.String(), cell.N, cell.SD, rep, spec.Seed)
	if err != nil {
		return trialOutcome{err: errors.Wrap(err, "failed to derive trial stream")}
	}

	ds, err := gen.Generate(cell.N, spec.Means, cell.SD, rng)
	if err != nil {
		return trialOutcome{err: err}
	}

	result, err := fit.Evaluate(ds, spec.Alpha)
	if err != nil {
		return trialOutcome{err: err}
	}

	return trialOutcome{record: trial.Record{
		N:      cell.N,
		SD:     cell.SD,
		Rep:    rep + 1,
		Result: result,
	}}
}
