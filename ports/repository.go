package ports

import (
	"context"

	"gopower/domain/core"
	"gopower/domain/power"
)

// RunRepositoryPort archives completed sweeps and their aggregated statistics.
type RunRepositoryPort interface {
	SaveRun(ctx context.Context, run power.RunRecord) error
	SaveAggregates(ctx context.Context, runID core.RunID, cells []power.CellStats) error
	GetRun(ctx context.Context, runID core.RunID) (*power.RunRecord, error)
	GetAggregates(ctx context.Context, runID core.RunID) ([]power.CellStats, error)
	ListRuns(ctx context.Context, limit int) ([]power.RunRecord, error)
}
