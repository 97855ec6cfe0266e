// Package engine executes deployment graphs against a network.
package engine

import (
	"runtime"
)

// Concurrency constants for parallel execution.
const (
	// MinConcurrentSteps is the minimum number of concurrent submissions,
	// ensuring reasonable parallelism even on single-core systems.
	MinConcurrentSteps = 4

	// MaxConcurrentSteps caps parallel submissions; RPC endpoints throttle
	// bursts from a single sender.
	MaxConcurrentSteps = 16
)

// ExecutionConfig controls execution behavior.
type ExecutionConfig struct {
	// MaxConcurrentSteps bounds parallel submissions (0 = default)
	MaxConcurrentSteps int
	// HaltOnFailure stops starting new steps after the first failure.
	// Independent branches keep running when false.
	HaltOnFailure bool
}

// DefaultExecutionConfig returns sensible defaults for parallel execution.
func DefaultExecutionConfig() ExecutionConfig {
	maxSteps := runtime.NumCPU()
	if maxSteps < MinConcurrentSteps {
		maxSteps = MinConcurrentSteps
	}
	if maxSteps > MaxConcurrentSteps {
		maxSteps = MaxConcurrentSteps
	}

	return ExecutionConfig{
		MaxConcurrentSteps: maxSteps,
	}
}

// workers returns the number of workers for a graph of n steps.
func (c ExecutionConfig) workers(n int) int {
	w := c.MaxConcurrentSteps
	if w <= 0 {
		w = DefaultExecutionConfig().MaxConcurrentSteps
	}
	if n > 0 && w > n {
		w = n
	}
	if w < 1 {
		w = 1
	}
	return w
}
