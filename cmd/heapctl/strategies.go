package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/alloc"
)

var strategyHelp = map[alloc.Strategy]string{
	alloc.FirstFit: "first free block large enough, scanning from the lowest address",
	alloc.BestFit:  "free block leaving the least slack; earliest on ties",
	alloc.WorstFit: "free block leaving the most slack; earliest on ties",
	alloc.NextFit:  "like first-fit, but resumes after the previous hit and wraps",
}

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List block placement strategies",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStrategies()
	},
}

func init() {
	rootCmd.AddCommand(strategiesCmd)
}

func runStrategies() error {
	if jsonOut {
		out := make(map[string]string, len(strategyHelp))
		for s, help := range strategyHelp {
			out[s.String()] = help
		}
		return printJSON(out)
	}
	for _, s := range alloc.Strategies() {
		printInfo("%-10s %s\n", s, strategyHelp[s])
	}
	return nil
}
