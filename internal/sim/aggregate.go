package sim

import (
	"math"

	"gopower/domain/design"
	"gopower/domain/power"
	"gopower/domain/trial"
	"gopower/internal/errors"

	"github.com/montanaflynn/stats"
)

// ciZ is the normal-approximation critical value for a 95% interval.
const ciZ = 1.96

// Aggregate reduces the flat trial table into per-(n, sd, effect) statistics,
// in grid order with the three effects nested innermost. Power is the
// proportion of completed trials in the cell that reached significance.
func Aggregate(out *Output, cells []design.Cell) ([]power.CellStats, error) {
	if out == nil || len(out.Records) == 0 {
		return nil, errors.InvalidInput("no trial records to aggregate")
	}

	byCell := make(map[design.Cell][]trial.Record, len(cells))
	for _, rec := range out.Records {
		key := design.Cell{N: rec.N, SD: rec.SD}
		byCell[key] = append(byCell[key], rec)
	}

	aggregated := make([]power.CellStats, 0, len(cells)*len(trial.EffectLabels()))
	for _, cell := range cells {
		recs := byCell[cell]
		if len(recs) == 0 {
			return nil, errors.InternalError("aggregation found an empty grid cell")
		}

		for _, label := range trial.EffectLabels() {
			cs, err := aggregateEffect(cell, label, recs, out.FailedByCell[cell])
			if err != nil {
				return nil, err
			}
			aggregated = append(aggregated, cs)
		}
	}
	return aggregated, nil
}

func aggregateEffect(cell design.Cell, label trial.EffectLabel, recs []trial.Record, failed int) (power.CellStats, error) {
	sizes := make([]float64, len(recs))
	sigCount := 0
	for i, rec := range recs {
		sizes[i] = rec.ES(label)
		if rec.Sig(label) {
			sigCount++
		}
	}

	mean, err := stats.Mean(sizes)
	if err != nil {
		return power.CellStats{}, errors.Wrap(err, "failed to compute mean effect size")
	}

	// Standard error from the sample standard deviation; a single completed
	// trial has no spread to estimate, so its interval collapses to the mean.
	se := 0.0
	if len(sizes) > 1 {
		sd, err := stats.StandardDeviationSample(sizes)
		if err != nil {
			return power.CellStats{}, errors.Wrap(err, "failed to compute effect size spread")
		}
		se = sd / math.Sqrt(float64(len(sizes)))
	}

	return power.CellStats{
		N:                cell.N,
		SD:               cell.SD,
		Effect:           label,
		Power:            float64(sigCount) / float64(len(recs)),
		SignificantCount: sigCount,
		CompletedTrials:  len(recs),
		FailedTrials:     failed,
		MeanEffectSize:   mean,
		StdError:         se,
		LowerBound:       mean - ciZ*se,
		UpperBound:       mean + ciZ*se,
	}, nil
}
