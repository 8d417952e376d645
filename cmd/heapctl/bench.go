package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/internal/workload"
)

var (
	benchOps     int
	benchSeed    int64
	benchMaxSize int
)

func init() {
	cmd := newBenchCmd()
	cmd.Flags().IntVar(&benchOps, "ops", 10000, "Number of operations in the random workload")
	cmd.Flags().Int64Var(&benchSeed, "seed", 1, "Seed for the random workload")
	cmd.Flags().IntVar(&benchMaxSize, "max-size", 1024, "Largest request in the random workload")
	rootCmd.AddCommand(cmd)
}

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench [script.yaml]",
		Short: "Compare placement strategies on one workload",
		Long: `The bench command replays the same workload under every placement
strategy, each on a fresh heap, and prints the statistics side by side.
Without a script a seeded random workload is generated.

Example:
  heapctl bench
  heapctl bench --ops 50000 --seed 7 --max-size 4096
  heapctl bench churn.yaml --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(cmd.Context(), args)
		},
	}
	return cmd
}

type benchRow struct {
	Strategy alloc.Strategy `json:"strategy"`
	workload.Result
}

type benchOutput struct {
	RunID  string     `json:"run_id"`
	Script string     `json:"script"`
	Rows   []benchRow `json:"rows"`
}

func runBench(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var script *workload.Script
	if len(args) == 1 {
		s, err := workload.Load(args[0])
		if err != nil {
			return err
		}
		script = s
	} else {
		if benchOps <= 0 {
			return fmt.Errorf("--ops must be positive, got %d", benchOps)
		}
		script = workload.Random(benchSeed, benchOps, benchMaxSize)
	}
	printVerbose("Workload %s: %d steps\n", script.Name, script.Len())

	rows := make([]benchRow, 0, len(alloc.Strategies()))
	for _, s := range alloc.Strategies() {
		a, r, err := newHeap(s)
		if err != nil {
			return err
		}
		res, err := workload.Run(ctx, a, script)
		r.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", s, err)
		}
		rows = append(rows, benchRow{Strategy: s, Result: res})
	}

	if jsonOut {
		return printJSON(benchOutput{RunID: runID, Script: script.Name, Rows: rows})
	}

	printInfo("\nStrategy comparison: %s\n", script.Name)
	printInfo("%s\n", strings.Repeat("=", 40))
	printInfo("%-10s %8s %8s %8s %10s %8s %12s %8s\n",
		"strategy", "grows", "reuses", "splits", "coalesces", "blocks", "max heap", "failed")
	for _, row := range rows {
		st := row.Stats
		printInfo("%-10s %8d %8d %8d %10d %8d %12d %8d\n",
			row.Strategy, st.Grows, st.Reuses, st.Splits, st.Coalesces, st.Blocks, st.MaxHeap, row.Failed)
	}
	return nil
}
