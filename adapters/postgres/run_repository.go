package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"gopower/domain/core"
	"gopower/domain/design"
	"gopower/domain/power"
	"gopower/domain/trial"

	"github.com/jmoiron/sqlx"
)

// RunRepository archives completed sweeps and their aggregate tables.
type RunRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

// SaveRun persists one run manifest
func (r *RunRepository) SaveRun(ctx context.Context, run power.RunRecord) error {
	specJSON, err := json.Marshal(run.Spec)
	if err != nil {
		return fmt.Errorf("failed to marshal design spec: %w", err)
	}

	query := `
		INSERT INTO simulation_runs (
			run_id, spec, started_at, finished_at, completed_trials, failed_trials
		) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = r.db.ExecContext(ctx, query,
		run.RunID.String(),
		specJSON,
		run.StartedAt.Time(),
		run.FinishedAt.Time(),
		run.CompletedTrials,
		run.FailedTrials,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// SaveAggregates persists the aggregate rows of one run
func (r *RunRepository) SaveAggregates(ctx context.Context, runID core.RunID, cells []power.CellStats) error {
	query := `
		INSERT INTO power_aggregates (
			run_id, n, sd, effect, power, significant_count, completed_trials,
			failed_trials, mean_effect_size, standard_error, lower_bound, upper_bound
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	for _, cs := range cells {
		_, err := r.db.ExecContext(ctx, query,
			runID.String(),
			cs.N,
			cs.SD,
			string(cs.Effect),
			cs.Power,
			cs.SignificantCount,
			cs.CompletedTrials,
			cs.FailedTrials,
			cs.MeanEffectSize,
			cs.StdError,
			cs.LowerBound,
			cs.UpperBound,
		)
		if err != nil {
			return fmt.Errorf("failed to insert aggregate row: %w", err)
		}
	}
	return nil
}

// GetRun fetches one run manifest, nil when absent
func (r *RunRepository) GetRun(ctx context.Context, runID core.RunID) (*power.RunRecord, error) {
	query := `
		SELECT run_id, spec, started_at, finished_at, completed_trials, failed_trials
		FROM simulation_runs
		WHERE run_id = $1`

	var (
		run        power.RunRecord
		idStr      string
		specJSON   []byte
		startedAt  time.Time
		finishedAt time.Time
	)
	err := r.db.QueryRowContext(ctx, query, runID.String()).Scan(
		&idStr,
		&specJSON,
		&startedAt,
		&finishedAt,
		&run.CompletedTrials,
		&run.FailedTrials,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var spec design.Spec
	if err := json.Unmarshal(specJSON, &spec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal design spec: %w", err)
	}

	run.RunID = core.RunID(idStr)
	run.Spec = spec
	run.StartedAt = core.NewTimestamp(startedAt)
	run.FinishedAt = core.NewTimestamp(finishedAt)
	return &run, nil
}

// GetAggregates fetches the aggregate rows of one run in grid order
func (r *RunRepository) GetAggregates(ctx context.Context, runID core.RunID) ([]power.CellStats, error) {
	query := `
		SELECT n, sd, effect, power, significant_count, completed_trials,
			   failed_trials, mean_effect_size, standard_error, lower_bound, upper_bound
		FROM power_aggregates
		WHERE run_id = $1
		ORDER BY sd, n, effect`

	rows, err := r.db.QueryContext(ctx, query, runID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query aggregates: %w", err)
	}
	defer rows.Close()

	var cells []power.CellStats
	for rows.Next() {
		var (
			cs     power.CellStats
			effect string
		)
		if err := rows.Scan(
			&cs.N,
			&cs.SD,
			&effect,
			&cs.Power,
			&cs.SignificantCount,
			&cs.CompletedTrials,
			&cs.FailedTrials,
			&cs.MeanEffectSize,
			&cs.StdError,
			&cs.LowerBound,
			&cs.UpperBound,
		); err != nil {
			return nil, fmt.Errorf("failed to scan aggregate row: %w", err)
		}
		cs.Effect = trial.EffectLabel(effect)
		cells = append(cells, cs)
	}
	return cells, rows.Err()
}

// ListRuns lists archived runs, most recent first
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]power.RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT run_id, spec, started_at, finished_at, completed_trials, failed_trials
		FROM simulation_runs
		ORDER BY started_at DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []power.RunRecord
	for rows.Next() {
		var (
			run        power.RunRecord
			idStr      string
			specJSON   []byte
			startedAt  time.Time
			finishedAt time.Time
		)
		if err := rows.Scan(&idStr, &specJSON, &startedAt, &finishedAt, &run.CompletedTrials, &run.FailedTrials); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		if err := json.Unmarshal(specJSON, &run.Spec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal design spec: %w", err)
		}
		run.RunID = core.RunID(idStr)
		run.StartedAt = core.NewTimestamp(startedAt)
		run.FinishedAt = core.NewTimestamp(finishedAt)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
