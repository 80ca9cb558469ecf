package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"gopower/adapters/excel"
	"gopower/adapters/rng"
	"gopower/app"
	"gopower/domain/design"
	"gopower/internal"
	"gopower/internal/sim"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gopower",
		Short: "Power simulation for 2x2 factorial designs",
	}

	rootCmd.AddCommand(
		newSweepCmd(),
		newTrialCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newSweepCmd() *cobra.Command {
	var (
		means   []float64
		sizes   []int
		sds     []float64
		reps    int
		alpha   float64
		seed    int64
		workers int
		export  bool
		outDir  string
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run a power sweep over a grid of sample sizes and standard deviations",
		Long: `Run the generator+evaluator pipeline for every (n, sd) grid cell and
print the aggregated power table.

Example: gopower sweep --means 2.5,2.75,3,4 --sizes 100,140,180 --sds 1,1.5,2 --reps 1000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(means) != design.CellMeanCount {
				return fmt.Errorf("expected %d condition means (a1b1, a2b1, a1b2, a2b2), got %d",
					design.CellMeanCount, len(means))
			}

			spec := design.Spec{
				SampleSizes: sizes,
				StdDevs:     sds,
				Repetitions: reps,
				Alpha:       alpha,
				Seed:        seed,
			}
			copy(spec.Means[:], means)

			logger := internal.NewDefaultLogger()
			rngAdapter := rng.NewAdapter()
			runner := sim.NewRunner(rngAdapter, workers, logger)
			service := app.NewPowerService(runner, rngAdapter, nil, excel.NewWriter(outDir), logger)

			result, err := service.RunSweep(cmd.Context(), app.SweepRequest{
				Spec:   spec,
				Export: export,
			})
			if err != nil {
				return err
			}

			printAggregates(result)
			return nil
		},
	}

	cmd.Flags().Float64SliceVar(&means, "means", []float64{2.5, 2.75, 3, 4}, "condition means (a1b1,a2b1,a1b2,a2b2)")
	cmd.Flags().IntSliceVar(&sizes, "sizes", defaultSizes(), "sample sizes (each divisible by 4)")
	cmd.Flags().Float64SliceVar(&sds, "sds", []float64{1, 1.5, 2}, "standard deviations")
	cmd.Flags().IntVar(&reps, "reps", 1000, "repetitions per grid cell")
	cmd.Flags().Float64Var(&alpha, "alpha", design.DefaultAlpha, "significance threshold")
	cmd.Flags().Int64Var(&seed, "seed", 42, "base seed for trial streams")
	cmd.Flags().IntVar(&workers, "workers", 4, "concurrent trial workers")
	cmd.Flags().BoolVar(&export, "export", false, "export trial and aggregate tables to .xlsx")
	cmd.Flags().StringVar(&outDir, "out-dir", ".", "directory for exported workbooks")

	return cmd
}

func newTrialCmd() *cobra.Command {
	var (
		means []float64
		n     int
		sd    float64
		alpha float64
		seed  int64
	)

	cmd := &cobra.Command{
		Use:   "trial",
		Short: "Run one seeded trial and print the fitted-model statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(means) != design.CellMeanCount {
				return fmt.Errorf("expected %d condition means, got %d", design.CellMeanCount, len(means))
			}

			var meanVec [design.CellMeanCount]float64
			copy(meanVec[:], means)

			logger := internal.NewDefaultLogger()
			rngAdapter := rng.NewAdapter()
			runner := sim.NewRunner(rngAdapter, 1, logger)
			service := app.NewPowerService(runner, rngAdapter, nil, nil, logger)

			result, err := service.RunSingleTrial(context.Background(), n, meanVec, sd, alpha, seed)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.Flags().Float64SliceVar(&means, "means", []float64{2.5, 2.75, 3, 4}, "condition means (a1b1,a2b1,a1b2,a2b2)")
	cmd.Flags().IntVar(&n, "n", 600, "sample size (divisible by 4)")
	cmd.Flags().Float64Var(&sd, "sd", 1.5, "standard deviation")
	cmd.Flags().Float64Var(&alpha, "alpha", design.DefaultAlpha, "significance threshold")
	cmd.Flags().Int64Var(&seed, "seed", 42, "trial seed")

	return cmd
}

// defaultSizes mirrors the reference sweep: 100 through 980 in steps of 40.
func defaultSizes() []int {
	var sizes []int
	for n := 100; n <= 980; n += 40 {
		sizes = append(sizes, n)
	}
	return sizes
}

func printAggregates(result *app.SweepResult) {
	fmt.Printf("run %s: %d completed trials, %d failed, %d ms\n",
		result.Run.RunID, result.Run.CompletedTrials, result.Run.FailedTrials, result.RuntimeMs)
	if result.ExportPath != "" {
		fmt.Printf("exported workbook: %s\n", result.ExportPath)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "n\tsd\teffect\tpower\tmean_es\tse\tlower\tupper")
	for _, cs := range result.Aggregates {
		fmt.Fprintf(w, "%d\t%g\t%s\t%.3f\t%.4f\t%.4f\t%.4f\t%.4f\n",
			cs.N, cs.SD, cs.Effect, cs.Power, cs.MeanEffectSize, cs.StdError, cs.LowerBound, cs.UpperBound)
	}
	w.Flush()
}
