package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// testScriptPath returns the path to a script under testdata
func testScriptPath(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join("testdata", name)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("test file not found: %s", path)
	}
	return path
}

// resetFlags restores every flag and global to its default
func resetFlags(t *testing.T) {
	t.Helper()
	var reset func(cmd *cobra.Command)
	reset = func(cmd *cobra.Command) {
		visit := func(f *pflag.Flag) {
			if err := f.Value.Set(f.DefValue); err != nil {
				t.Fatalf("reset flag %s: %v", f.Name, err)
			}
			f.Changed = false
		}
		cmd.PersistentFlags().VisitAll(visit)
		cmd.Flags().VisitAll(visit)
		for _, c := range cmd.Commands() {
			reset(c)
		}
	}
	reset(rootCmd)
	regionKind = "slice"
	maxHeap = 1 << 20
	runID = ""
}

// captureOutput captures stdout while running a function
func captureOutput(t *testing.T, fn func() error) (string, error) {
	t.Helper()

	// Save original stdout
	origStdout := os.Stdout

	// Create a pipe to capture output
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}

	// Redirect stdout to pipe
	os.Stdout = w

	// Drain concurrently so large outputs cannot fill the pipe
	done := make(chan struct{})
	var buf bytes.Buffer
	go func() {
		defer close(done)
		_, _ = buf.ReadFrom(r)
	}()

	// Run function
	fnErr := fn()

	// Close write end and restore stdout
	w.Close()
	os.Stdout = origStdout
	<-done

	return buf.String(), fnErr
}

// assertJSON checks that output is valid JSON and decodes it into v
func assertJSON(t *testing.T, output string, v interface{}) {
	t.Helper()
	if err := json.Unmarshal([]byte(output), v); err != nil {
		t.Fatalf("invalid JSON output: %v\nOutput: %s", err, output)
	}
}

// assertContains checks that output contains all expected strings
func assertContains(t *testing.T, output string, expected []string) {
	t.Helper()
	for _, want := range expected {
		if !strings.Contains(output, want) {
			t.Errorf("output missing expected string %q\nGot: %s", want, output)
		}
	}
}
