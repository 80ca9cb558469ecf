package design

import (
	"testing"

	"gopower/internal/errors"
)

func validSpec() Spec {
	return Spec{
		Means:       [CellMeanCount]float64{2.5, 2.75, 3, 4},
		SampleSizes: []int{100, 140},
		StdDevs:     []float64{1, 1.5},
		Repetitions: 1000,
		Alpha:       DefaultAlpha,
		Seed:        42,
	}
}

func TestSpec_Validate(t *testing.T) {
	if err := validSpec().Validate(); err != nil {
		t.Fatalf("Valid spec rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Spec)
	}{
		{"no sample sizes", func(s *Spec) { s.SampleSizes = nil }},
		{"negative sample size", func(s *Spec) { s.SampleSizes = []int{-8} }},
		{"size not divisible by 4", func(s *Spec) { s.SampleSizes = []int{102} }},
		{"no standard deviations", func(s *Spec) { s.StdDevs = nil }},
		{"zero standard deviation", func(s *Spec) { s.StdDevs = []float64{0} }},
		{"zero repetitions", func(s *Spec) { s.Repetitions = 0 }},
		{"zero alpha", func(s *Spec) { s.Alpha = 0 }},
		{"alpha of one", func(s *Spec) { s.Alpha = 1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec := validSpec()
			tc.mutate(&spec)
			err := spec.Validate()
			if err == nil {
				t.Fatal("Expected a validation error, got nil")
			}
			if errors.GetCode(err) != errors.CodeConfigInvalid {
				t.Errorf("Expected CONFIG_INVALID, got %s", errors.GetCode(err))
			}
		})
	}
}

func TestSpec_Grid(t *testing.T) {
	spec := validSpec()
	cells := spec.Grid()

	if len(cells) != 4 {
		t.Fatalf("Expected 4 grid cells, got %d", len(cells))
	}

	// Sample sizes vary fastest within each standard deviation.
	want := []Cell{{100, 1}, {140, 1}, {100, 1.5}, {140, 1.5}}
	for i, cell := range cells {
		if cell != want[i] {
			t.Errorf("Cell %d: expected %+v, got %+v", i, want[i], cell)
		}
	}
}

func TestSpec_TotalTrials(t *testing.T) {
	spec := validSpec()
	if got := spec.TotalTrials(); got != 4000 {
		t.Errorf("Expected 4000 total trials, got %d", got)
	}
}
