// Package logger prints pipeline progress to stderr when the CLI runs
// with --verbose. The retriever and synthesizer mark each stage
// (extraction, chunking, embedding, retrieval, synthesis) and emit
// per-stage detail beneath it; nothing is printed in quiet mode.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Stage marks the start of a pipeline stage.
func Stage(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n==> %s\n", name)
	}
}

// Debug prints per-stage detail.
func Debug(format string, args ...any) {
	logf("[DEBUG] ", format, args...)
}

// Info prints stage progress.
func Info(format string, args ...any) {
	logf("[INFO] ", format, args...)
}

// Warn prints a warning. Warnings do not stop the pipeline; failures
// that do are returned as errors, not logged.
func Warn(format string, args ...any) {
	logf("[WARN] ", format, args...)
}

func logf(prefix, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, prefix+format+"\n", args...)
	}
}
