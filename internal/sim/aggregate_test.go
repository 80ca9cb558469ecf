package sim

import (
	"context"
	"math"
	"testing"

	"gopower/domain/design"
	"gopower/domain/trial"
)

func TestAggregate_KnownValues(t *testing.T) {
	cell := design.Cell{N: 40, SD: 1}
	out := &Output{FailedByCell: map[design.Cell]int{cell: 2}}

	// Four completed trials with iv1 effect sizes 1..4, two of them significant.
	for i, es := range []float64{1, 2, 3, 4} {
		out.Records = append(out.Records, trial.Record{
			N: 40, SD: 1, Rep: i + 1,
			Result: trial.Result{ESIV1: es, SigIV1: i%2 == 0},
		})
	}
	out.Completed = len(out.Records)

	cells, err := Aggregate(out, []design.Cell{cell})
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(cells) != 3 {
		t.Fatalf("Expected 3 effect rows for one cell, got %d", len(cells))
	}

	iv1 := cells[0]
	if iv1.Effect != trial.EffectIV1 {
		t.Fatalf("Expected iv1 row first, got %s", iv1.Effect)
	}
	if iv1.Power != 0.5 {
		t.Errorf("Expected power 0.5, got %g", iv1.Power)
	}
	if iv1.SignificantCount != 2 || iv1.CompletedTrials != 4 || iv1.FailedTrials != 2 {
		t.Errorf("Unexpected counts: %+v", iv1)
	}
	if math.Abs(iv1.MeanEffectSize-2.5) > 1e-9 {
		t.Errorf("Expected mean effect size 2.5, got %g", iv1.MeanEffectSize)
	}

	// Sample sd of {1,2,3,4} is sqrt(5/3); SE divides by sqrt(4).
	wantSE := math.Sqrt(5.0/3.0) / 2
	if math.Abs(iv1.StdError-wantSE) > 1e-9 {
		t.Errorf("Expected SE %g, got %g", wantSE, iv1.StdError)
	}
	if math.Abs(iv1.LowerBound-(2.5-1.96*wantSE)) > 1e-9 {
		t.Errorf("Unexpected lower bound %g", iv1.LowerBound)
	}
	if math.Abs(iv1.UpperBound-(2.5+1.96*wantSE)) > 1e-9 {
		t.Errorf("Unexpected upper bound %g", iv1.UpperBound)
	}
}

func TestAggregate_FullGridCoverage(t *testing.T) {
	// The reference sweep shape: 23 sample sizes x 3 standard deviations
	// x 3 effects = 207 aggregate rows.
	var sizes []int
	for n := 100; n <= 980; n += 40 {
		sizes = append(sizes, n)
	}
	spec := design.Spec{
		Means:       [design.CellMeanCount]float64{2.5, 2.75, 3, 4},
		SampleSizes: sizes,
		StdDevs:     []float64{1, 1.5, 2},
		Repetitions: 2,
		Alpha:       0.05,
		Seed:        42,
	}

	out, err := newTestRunner(8).Run(context.Background(), "grid-run", spec)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	cells, err := Aggregate(out, spec.Grid())
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if len(cells) != 207 {
		t.Fatalf("Expected 207 aggregate rows (23 x 3 x 3), got %d", len(cells))
	}

	type key struct {
		n      int
		sd     float64
		effect trial.EffectLabel
	}
	seen := make(map[key]bool)
	for _, cs := range cells {
		k := key{cs.N, cs.SD, cs.Effect}
		if seen[k] {
			t.Fatalf("Duplicate aggregate key %+v", k)
		}
		seen[k] = true
	}
}

func TestAggregate_EmptyInput(t *testing.T) {
	if _, err := Aggregate(&Output{}, nil); err == nil {
		t.Fatal("Expected an error for empty input")
	}
	if _, err := Aggregate(nil, nil); err == nil {
		t.Fatal("Expected an error for nil input")
	}
}
