package design

import (
	"gopower/internal/errors"
)

// CellMeanCount is the number of condition means in a 2x2 factorial design,
// ordered (a1b1, a2b1, a1b2, a2b2).
const CellMeanCount = 4

// DefaultAlpha is the conventional significance threshold.
const DefaultAlpha = 0.05

// Spec defines one power-simulation sweep: the parametric assumptions under
// test plus the grid and repetition count.
type Spec struct {
	Means       [CellMeanCount]float64 `json:"means"`
	SampleSizes []int                  `json:"sample_sizes"`
	StdDevs     []float64              `json:"std_devs"`
	Repetitions int                    `json:"repetitions"`
	Alpha       float64                `json:"alpha"`
	Seed        int64                  `json:"seed"`
}

// Cell is one (n, sd) combination in the simulation grid.
type Cell struct {
	N  int     `json:"n"`
	SD float64 `json:"sd"`
}

// Validate rejects an invalid spec before any trial runs.
func (s Spec) Validate() error {
	if len(s.SampleSizes) == 0 {
		return errors.ConfigInvalid("at least one sample size is required")
	}
	for _, n := range s.SampleSizes {
		if n <= 0 {
			return errors.ConfigInvalid("sample sizes must be positive")
		}
		if n%4 != 0 {
			return errors.ConfigInvalid("sample sizes must be divisible by 4 for a balanced 2x2 design")
		}
	}
	if len(s.StdDevs) == 0 {
		return errors.ConfigInvalid("at least one standard deviation is required")
	}
	for _, sd := range s.StdDevs {
		if sd <= 0 {
			return errors.ConfigInvalid("standard deviations must be positive")
		}
	}
	if s.Repetitions < 1 {
		return errors.ConfigInvalid("repetition count must be at least 1")
	}
	if s.Alpha <= 0 || s.Alpha >= 1 {
		return errors.ConfigInvalid("significance threshold must be in (0, 1)")
	}
	return nil
}

// Grid returns the cartesian product of sample sizes and standard deviations,
// sample sizes varying fastest within each standard deviation.
func (s Spec) Grid() []Cell {
	cells := make([]Cell, 0, len(s.SampleSizes)*len(s.StdDevs))
	for _, sd := range s.StdDevs {
		for _, n := range s.SampleSizes {
			cells = append(cells, Cell{N: n, SD: sd})
		}
	}
	return cells
}

// TotalTrials returns the number of trials a full sweep of this spec performs.
func (s Spec) TotalTrials() int {
	return len(s.SampleSizes) * len(s.StdDevs) * s.Repetitions
}
