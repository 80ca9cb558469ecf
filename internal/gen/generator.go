package gen

import (
	"math"
	"math/rand"

	"gopower/domain/design"
	"gopower/domain/trial"
	"gopower/internal/errors"
)

// Generate produces one balanced synthetic 2x2 factorial dataset of n rows.
//
// Cell assignment is deterministic: iv1 alternates every observation, iv2
// alternates in blocks of two, so each of the four conditions receives n/4
// rows. The mean vector (a1b1, a2b1, a1b2, a2b2) is broadcast in the same
// interleaving order, each draw perturbed by Gaussian noise of scale sd and
// rounded to the nearest integer.
//
// Pure function of its inputs and the supplied random source.
func Generate(n int, means [design.CellMeanCount]float64, sd float64, rng *rand.Rand) (*trial.Dataset, error) {
	if n <= 0 {
		return nil, errors.InvalidInput("sample size must be positive")
	}
	if n%4 != 0 {
		return nil, errors.InvalidInput("sample size must be divisible by 4 for a balanced 2x2 design")
	}
	if sd <= 0 {
		return nil, errors.InvalidInput("standard deviation must be positive")
	}

	ds := &trial.Dataset{
		Response: make([]float64, n),
		IV1:      make([]trial.FactorLevel, n),
		IV2:      make([]trial.FactorLevel, n),
	}

	for i := 0; i < n; i++ {
		// The i%4 cycle reproduces the (a1b1, a2b1, a1b2, a2b2) interleaving:
		// iv1 flips every row, iv2 every other row.
		ds.Response[i] = math.Round(means[i%4] + rng.NormFloat64()*sd)

		if i%2 == 0 {
			ds.IV1[i] = trial.LevelA1
		} else {
			ds.IV1[i] = trial.LevelA2
		}
		if (i/2)%2 == 0 {
			ds.IV2[i] = trial.LevelB1
		} else {
			ds.IV2[i] = trial.LevelB2
		}
	}

	return ds, nil
}
