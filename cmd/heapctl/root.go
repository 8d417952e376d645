package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap/region"
	"github.com/joshuapare/heapkit/internal/logger"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	cfgFile    string
	strategy   string
	regionKind string
	maxHeap    int
	lang       string
	logLevel   string
	logFile    string

	// Set per invocation in PersistentPreRunE
	runID     string
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "heapctl",
	Short: "Replay and compare allocation workloads",
	Long: `heapctl drives the heapkit free-list allocator with scripted or
synthetic allocation traffic and reports heap management statistics.
Workloads can be replayed under any block placement strategy and the
results compared side by side.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initializeConfig(cmd); err != nil {
			return err
		}
		return initLogger()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	pf.BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	pf.BoolVar(&jsonOut, "json", false, "Output in JSON format")
	pf.StringVar(&cfgFile, keyConfig, "", "Config file (YAML, TOML or JSON)")
	pf.StringVarP(&strategy, "strategy", "s", "first-fit", "Block placement strategy")
	pf.StringVar(&regionKind, "region", string(region.KindAuto), "Region implementation: auto, mmap or slice")
	pf.IntVar(&maxHeap, "max-heap", region.DefaultMax, "Maximum heap size in bytes")
	pf.StringVar(&lang, "lang", "", "Locale for number formatting in reports, e.g. en or de")
	pf.StringVar(&logLevel, "log-level", "", "Enable logging at this level (debug, info, warn, error)")
	pf.StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

// initLogger configures internal/logger from the flags and tags every
// record with a fresh run id.
func initLogger() error {
	runID = uuid.NewString()

	opts := logger.Options{Enabled: logLevel != "", File: logFile}
	if opts.Enabled {
		if err := opts.Level.UnmarshalText([]byte(logLevel)); err != nil {
			return fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
		}
	}
	closer, err := logger.Init(opts)
	if err != nil {
		return err
	}
	logCloser = closer
	logger.L = logger.L.With(slog.String(logger.RunIDKey, runID))
	return nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
