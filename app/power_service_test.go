package app

import (
	"context"
	"testing"

	"gopower/adapters/rng"
	"gopower/domain/design"
	"gopower/internal"
	"gopower/internal/errors"
	"gopower/internal/sim"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *PowerService {
	logger := internal.NewLogger(internal.LogLevelError)
	adapter := rng.NewAdapter()
	runner := sim.NewRunner(adapter, 4, logger)
	return NewPowerService(runner, adapter, nil, nil, logger)
}

func TestRunSweep_EndToEnd(t *testing.T) {
	service := newTestService()

	spec := design.Spec{
		Means:       [design.CellMeanCount]float64{2.5, 2.75, 3, 4},
		SampleSizes: []int{40, 80},
		StdDevs:     []float64{1.5, 2},
		Repetitions: 10,
		Alpha:       0.05,
		Seed:        42,
	}

	result, err := service.RunSweep(context.Background(), SweepRequest{Spec: spec})
	require.NoError(t, err)

	assert.False(t, result.Run.RunID.String() == "", "run ID should be generated")
	assert.Equal(t, spec.TotalTrials(), result.Run.CompletedTrials+result.Run.FailedTrials)
	// 4 grid cells x 3 effects
	assert.Len(t, result.Aggregates, 12)

	for _, cs := range result.Aggregates {
		assert.GreaterOrEqual(t, cs.Power, 0.0)
		assert.LessOrEqual(t, cs.Power, 1.0)
		assert.GreaterOrEqual(t, cs.MeanEffectSize, 0.0, "Cohen's f is a magnitude")
		assert.LessOrEqual(t, cs.LowerBound, cs.UpperBound)
	}
}

func TestRunSweep_RejectsInvalidSpec(t *testing.T) {
	service := newTestService()

	spec := design.Spec{
		Means:       [design.CellMeanCount]float64{1, 2, 3, 4},
		SampleSizes: []int{41}, // not divisible by 4
		StdDevs:     []float64{1},
		Repetitions: 10,
		Alpha:       0.05,
	}

	_, err := service.RunSweep(context.Background(), SweepRequest{Spec: spec})
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestRunSingleTrial_ReferenceScenario(t *testing.T) {
	// The documented end-to-end scenario: means (2.5, 2.75, 3, 4), sd 1.5,
	// n 600. The iv1 contrast (0.625 raw, f around 0.21) is far past the
	// detection threshold at this sample size, so any fixed seed must land
	// on a significant result with an effect size in that neighborhood.
	service := newTestService()

	means := [design.CellMeanCount]float64{2.5, 2.75, 3, 4}
	res, err := service.RunSingleTrial(context.Background(), 600, means, 1.5, 0.05, 42)
	require.NoError(t, err)

	assert.True(t, res.SigIV1, "iv1 must be significant at n=600")
	assert.Less(t, res.PIV1, 0.05)
	assert.InDelta(t, 0.21, res.ESIV1, 0.16, "es_1 should be near the parametric value")

	// Fixed seed policy: the same seed reproduces the trial bit for bit.
	again, err := service.RunSingleTrial(context.Background(), 600, means, 1.5, 0.05, 42)
	require.NoError(t, err)
	assert.Equal(t, res, again)

	other, err := service.RunSingleTrial(context.Background(), 600, means, 1.5, 0.05, 43)
	require.NoError(t, err)
	assert.NotEqual(t, res, other, "a different seed should draw a different sample")
}

func TestRunSingleTrial_RejectsBadAlpha(t *testing.T) {
	service := newTestService()
	means := [design.CellMeanCount]float64{1, 2, 3, 4}

	_, err := service.RunSingleTrial(context.Background(), 100, means, 1, 0, 42)
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestArchiveAccessors_DisabledWithoutRepository(t *testing.T) {
	service := newTestService()
	ctx := context.Background()

	_, err := service.GetRun(ctx, "some-run")
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	_, err = service.GetAggregates(ctx, "some-run")
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	_, err = service.ListRuns(ctx, 10)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}
