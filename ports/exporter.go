package ports

import (
	"context"

	"gopower/domain/core"
	"gopower/domain/power"
	"gopower/domain/trial"
)

// ExporterPort writes the flat trial table and the aggregated table to an
// external tabular format.
type ExporterPort interface {
	// Export writes both tables and returns the path of the written file.
	Export(ctx context.Context, runID core.RunID, records []trial.Record, cells []power.CellStats) (string, error)
}
