package sim

import (
	"context"
	"testing"

	"gopower/adapters/rng"
	"gopower/domain/design"
	"gopower/internal"
)

func newTestRunner(workers int) *Runner {
	return NewRunner(rng.NewAdapter(), workers, internal.NewLogger(internal.LogLevelError))
}

func testSpec() design.Spec {
	return design.Spec{
		Means:       [design.CellMeanCount]float64{2.5, 2.75, 3, 4},
		SampleSizes: []int{40, 80},
		StdDevs:     []float64{1.5},
		Repetitions: 5,
		Alpha:       0.05,
		Seed:        42,
	}
}

func TestRunner_FlatTableShape(t *testing.T) {
	runner := newTestRunner(4)
	spec := testSpec()

	out, err := runner.Run(context.Background(), "test-run", spec)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	want := spec.TotalTrials()
	if out.Completed+out.Failed != want {
		t.Fatalf("Expected %d trials accounted for, got %d completed + %d failed",
			want, out.Completed, out.Failed)
	}

	// Every (n, sd, repetition) key appears exactly once.
	seen := make(map[[3]int]bool)
	for _, rec := range out.Records {
		key := [3]int{rec.N, int(rec.SD * 10), rec.Rep}
		if seen[key] {
			t.Fatalf("Duplicate trial key (n=%d sd=%g rep=%d)", rec.N, rec.SD, rec.Rep)
		}
		seen[key] = true
		if rec.Rep < 1 || rec.Rep > spec.Repetitions {
			t.Fatalf("Repetition index %d outside 1..%d", rec.Rep, spec.Repetitions)
		}
	}
}

func TestRunner_DeterministicAcrossWorkerCounts(t *testing.T) {
	spec := testSpec()

	serial, err := newTestRunner(1).Run(context.Background(), "det-run", spec)
	if err != nil {
		t.Fatalf("Serial run failed: %v", err)
	}
	parallel, err := newTestRunner(8).Run(context.Background(), "det-run", spec)
	if err != nil {
		t.Fatalf("Parallel run failed: %v", err)
	}

	if len(serial.Records) != len(parallel.Records) {
		t.Fatalf("Record counts differ: %d vs %d", len(serial.Records), len(parallel.Records))
	}
	for i := range serial.Records {
		if serial.Records[i] != parallel.Records[i] {
			t.Fatalf("Record %d differs between serial and parallel runs:\n%+v\n%+v",
				i, serial.Records[i], parallel.Records[i])
		}
	}
}

func TestRunner_SeedChangesResults(t *testing.T) {
	spec := testSpec()
	first, err := newTestRunner(2).Run(context.Background(), "seed-run", spec)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	spec.Seed = 1234
	second, err := newTestRunner(2).Run(context.Background(), "seed-run", spec)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	same := true
	for i := range first.Records {
		if first.Records[i] != second.Records[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("Different base seeds produced identical sweeps")
	}
}

func TestRunner_RejectsInvalidSpec(t *testing.T) {
	spec := testSpec()
	spec.SampleSizes = []int{10} // not divisible by 4

	_, err := newTestRunner(1).Run(context.Background(), "bad-run", spec)
	if err == nil {
		t.Fatal("Expected a configuration error before any trial ran")
	}
}

func TestRunner_AllTrialsDegenerate(t *testing.T) {
	// Flat means with near-zero noise: every response rounds to the same
	// integer and every fit is degenerate, so the sweep must fail loudly
	// rather than emit an empty aggregate.
	spec := design.Spec{
		Means:       [design.CellMeanCount]float64{0, 0, 0, 0},
		SampleSizes: []int{20},
		StdDevs:     []float64{0.001},
		Repetitions: 3,
		Alpha:       0.05,
		Seed:        7,
	}

	_, err := newTestRunner(2).Run(context.Background(), "degenerate-run", spec)
	if err == nil {
		t.Fatal("Expected the sweep to fail when every trial is degenerate")
	}
}

func TestRunner_NullEffectCalibration(t *testing.T) {
	if testing.Short() {
		t.Skip("statistical calibration test")
	}

	// Equal condition means: the rejection rate should approximate alpha.
	spec := design.Spec{
		Means:       [design.CellMeanCount]float64{10, 10, 10, 10},
		SampleSizes: []int{100},
		StdDevs:     []float64{2},
		Repetitions: 400,
		Alpha:       0.05,
		Seed:        42,
	}

	out, err := newTestRunner(8).Run(context.Background(), "null-run", spec)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	sig := 0
	for _, rec := range out.Records {
		if rec.SigIV1 {
			sig++
		}
	}
	rate := float64(sig) / float64(len(out.Records))
	if rate < 0.005 || rate > 0.12 {
		t.Errorf("Null rejection rate %.3f far from nominal 0.05", rate)
	}
}

func TestRunner_PowerMonotonicInN(t *testing.T) {
	if testing.Short() {
		t.Skip("statistical monotonicity test")
	}

	spec := design.Spec{
		Means:       [design.CellMeanCount]float64{0, 0.5, 0, 0.5},
		SampleSizes: []int{40, 400},
		StdDevs:     []float64{1},
		Repetitions: 150,
		Alpha:       0.05,
		Seed:        42,
	}

	out, err := newTestRunner(8).Run(context.Background(), "mono-n-run", spec)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	cells, err := Aggregate(out, spec.Grid())
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	powerByN := make(map[int]float64)
	for _, cs := range cells {
		if cs.Effect == "iv1" {
			powerByN[cs.N] = cs.Power
		}
	}
	if powerByN[400] < powerByN[40] {
		t.Errorf("Power should not decrease with n: power(40)=%.3f, power(400)=%.3f",
			powerByN[40], powerByN[400])
	}
}

func TestRunner_PowerMonotonicInSD(t *testing.T) {
	if testing.Short() {
		t.Skip("statistical monotonicity test")
	}

	spec := design.Spec{
		Means:       [design.CellMeanCount]float64{0, 0.5, 0, 0.5},
		SampleSizes: []int{200},
		StdDevs:     []float64{1, 4},
		Repetitions: 150,
		Alpha:       0.05,
		Seed:        42,
	}

	out, err := newTestRunner(8).Run(context.Background(), "mono-sd-run", spec)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	cells, err := Aggregate(out, spec.Grid())
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	powerBySD := make(map[float64]float64)
	for _, cs := range cells {
		if cs.Effect == "iv1" {
			powerBySD[cs.SD] = cs.Power
		}
	}
	if powerBySD[4] > powerBySD[1] {
		t.Errorf("Power should not increase with sd: power(sd=1)=%.3f, power(sd=4)=%.3f",
			powerBySD[1], powerBySD[4])
	}
}
