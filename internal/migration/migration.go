package migration

import (
	"context"

	"gopower/internal/errors"

	"github.com/jmoiron/sqlx"
)

// MigrationRunner handles run-archive schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{version: "1.0.0"}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all schema migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createSimulationRunsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create simulation_runs table")
	}
	if err := r.createPowerAggregatesTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create power_aggregates table")
	}
	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}
	return nil
}

func (r *MigrationRunner) createSimulationRunsTable(ctx context.Context, db *sqlx.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS simulation_runs (
			run_id TEXT PRIMARY KEY,
			spec JSONB NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL,
			completed_trials INTEGER NOT NULL,
			failed_trials INTEGER NOT NULL
		)`
	_, err := db.ExecContext(ctx, query)
	return err
}

func (r *MigrationRunner) createPowerAggregatesTable(ctx context.Context, db *sqlx.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS power_aggregates (
			run_id TEXT NOT NULL REFERENCES simulation_runs(run_id) ON DELETE CASCADE,
			n INTEGER NOT NULL,
			sd DOUBLE PRECISION NOT NULL,
			effect TEXT NOT NULL,
			power DOUBLE PRECISION NOT NULL,
			significant_count INTEGER NOT NULL,
			completed_trials INTEGER NOT NULL,
			failed_trials INTEGER NOT NULL,
			mean_effect_size DOUBLE PRECISION NOT NULL,
			standard_error DOUBLE PRECISION NOT NULL,
			lower_bound DOUBLE PRECISION NOT NULL,
			upper_bound DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (run_id, n, sd, effect)
		)`
	_, err := db.ExecContext(ctx, query)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	query := `CREATE INDEX IF NOT EXISTS idx_power_aggregates_run ON power_aggregates(run_id)`
	_, err := db.ExecContext(ctx, query)
	return err
}
