package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/alloc"
	"github.com/joshuapare/heapkit/heap/report"
	"github.com/joshuapare/heapkit/internal/workload"
)

func init() {
	rootCmd.AddCommand(newRunCmd())
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <script.yaml>",
		Short: "Replay a workload script and print heap statistics",
		Long: `The run command replays a YAML workload script against a fresh heap
and prints the heap management statistics.

A script's "strategy" field is used unless --strategy is given.

Example:
  heapctl run churn.yaml
  heapctl run churn.yaml --strategy best-fit --lang en
  heapctl run churn.yaml --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd.Context(), args, cmd.Flags().Changed("strategy"))
		},
	}
	return cmd
}

type runOutput struct {
	RunID    string          `json:"run_id"`
	Script   string          `json:"script"`
	Strategy alloc.Strategy  `json:"strategy"`
	Result   workload.Result `json:"result"`
}

func runScript(ctx context.Context, args []string, strategyFromFlag bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	path := args[0]

	printVerbose("Loading script: %s\n", path)
	script, err := workload.Load(path)
	if err != nil {
		return err
	}

	name := strategy
	if !strategyFromFlag && script.Strategy != "" {
		name = script.Strategy
	}
	s, err := alloc.ParseStrategy(name)
	if err != nil {
		return err
	}

	a, r, err := newHeap(s)
	if err != nil {
		return err
	}
	defer r.Close()

	printVerbose("Replaying %d steps with %s\n", script.Len(), s)
	res, err := workload.Run(ctx, a, script)
	if err != nil {
		return fmt.Errorf("replay %s: %w", path, err)
	}

	if jsonOut {
		return printJSON(runOutput{RunID: runID, Script: script.Name, Strategy: s, Result: res})
	}

	printInfo("%s: %d steps, %d failed allocations, %d live blocks (%s)\n",
		displayName(script, path), res.Steps, res.Failed, res.Live, res.Elapsed)
	if quiet {
		return nil
	}
	opts := report.Options{Lang: lang}
	if verbose {
		opts.RunID = runID
	}
	return report.Write(os.Stdout, res.Stats, opts)
}

func displayName(s *workload.Script, path string) string {
	if s.Name != "" {
		return s.Name
	}
	return path
}
