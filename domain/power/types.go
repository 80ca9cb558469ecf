package power

import (
	"gopower/domain/core"
	"gopower/domain/design"
	"gopower/domain/trial"
)

// CellStats is one row of the aggregated output, keyed by (n, sd, effect).
//
// Power is reported as a proportion: significant trials divided by completed
// trials in the cell. The raw significant count is carried alongside so either
// convention can be recovered downstream.
type CellStats struct {
	N                int               `json:"n"`
	SD               float64           `json:"sd"`
	Effect           trial.EffectLabel `json:"effect"`
	Power            float64           `json:"power"`
	SignificantCount int               `json:"significant_count"`
	CompletedTrials  int               `json:"completed_trials"`
	FailedTrials     int               `json:"failed_trials"`
	MeanEffectSize   float64           `json:"mean_effect_size"`
	StdError         float64           `json:"standard_error"`
	LowerBound       float64           `json:"lower_bound"`
	UpperBound       float64           `json:"upper_bound"`
}

// RunRecord is the manifest of one completed sweep.
type RunRecord struct {
	RunID           core.RunID     `json:"run_id"`
	Spec            design.Spec    `json:"spec"`
	StartedAt       core.Timestamp `json:"started_at"`
	FinishedAt      core.Timestamp `json:"finished_at"`
	CompletedTrials int            `json:"completed_trials"`
	FailedTrials    int            `json:"failed_trials"`
}
