// Package engine executes packet test cases against a dissection target.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/dissect-kit/dissect-go/internal/testharness/loader"
	"github.com/dissect-kit/dissect-go/pkg/dissect"
)

// Target is the dissection host under test.
type Target interface {
	Dissect(protocol string, data []byte) (*dissect.Result, error)
	Size(protocol string, data []byte) (int, error)
	SetDecodeAs(table, protocol string) error
	ClearDecodeAs(table string) error
}

// TestResult represents the outcome of a single test case.
type TestResult struct {
	// TestCase is the test case that was executed.
	TestCase *loader.TestCase

	// Passed indicates if all steps passed.
	Passed bool

	// Error is the error that caused failure, if any.
	Error error

	// StepResults contains results for each step.
	StepResults []*StepResult

	// Duration is how long the test took.
	Duration time.Duration

	// StartTime when the test started.
	StartTime time.Time

	// EndTime when the test finished.
	EndTime time.Time

	// Skipped indicates if the test was skipped.
	Skipped bool

	// SkipReason explains why the test was skipped.
	SkipReason string
}

// StepResult represents the outcome of a single step.
type StepResult struct {
	// Step is the step that was executed.
	Step *loader.Step

	// StepIndex is the index of this step (0-based).
	StepIndex int

	// Passed indicates if the step passed.
	Passed bool

	// Error is the error that caused failure, if any.
	Error error

	// ExpectResults holds the expectation checks in evaluation order.
	ExpectResults []*ExpectResult

	// Duration is how long the step took.
	Duration time.Duration

	// Output contains the values the step produced.
	Output map[string]any
}

// ExpectResult represents the result of checking an expectation.
type ExpectResult struct {
	// Key is the expectation key (e.g., "consumed", "fields.baby_udp.dst_port").
	Key string

	// Expected is the expected value.
	Expected any

	// Actual is the actual value.
	Actual any

	// Passed indicates if the expectation was met.
	Passed bool

	// Message describes the result.
	Message string
}

// SuiteResult represents the outcome of running a set of test cases.
type SuiteResult struct {
	// SuiteName identifies the test suite.
	SuiteName string

	// Results contains results for each test case.
	Results []*TestResult

	// PassCount is the number of passed tests.
	PassCount int

	// FailCount is the number of failed tests.
	FailCount int

	// SkipCount is the number of skipped tests.
	SkipCount int

	// Duration is the total time for all tests.
	Duration time.Duration
}

// add records a test result and updates the counters.
func (s *SuiteResult) add(r *TestResult) {
	s.Results = append(s.Results, r)
	switch {
	case r.Skipped:
		s.SkipCount++
	case r.Passed:
		s.PassCount++
	default:
		s.FailCount++
	}
}

// ActionHandler processes a test step action.
// Returns outputs to record for the step, and an error if the action failed.
type ActionHandler func(ctx context.Context, step *loader.Step, state *ExecutionState) (map[string]any, error)

// ExecutionState holds state during the execution of one test case.
type ExecutionState struct {
	// Target is the host under test.
	Target Target

	// Protocol is the case's default protocol.
	Protocol string

	// Result is the outcome of the last dissect step.
	Result *dissect.Result

	// Outputs accumulated from the steps so far.
	Outputs map[string]any

	// Context for cancellation.
	Context context.Context
}

// NewExecutionState creates a new execution state.
func NewExecutionState(ctx context.Context, target Target, protocol string) *ExecutionState {
	return &ExecutionState{
		Target:   target,
		Protocol: protocol,
		Outputs:  make(map[string]any),
		Context:  ctx,
	}
}

// Get retrieves a value from outputs.
func (s *ExecutionState) Get(key string) (any, bool) {
	v, ok := s.Outputs[key]
	return v, ok
}

// Set stores a value in outputs.
func (s *ExecutionState) Set(key string, value any) {
	s.Outputs[key] = value
}

// EngineConfig configures the test engine.
type EngineConfig struct {
	// StopOnFirstFailure stops execution after the first test failure.
	StopOnFirstFailure bool

	// Logger receives per-case debug output. Nil disables it.
	Logger *slog.Logger
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *EngineConfig {
	return &EngineConfig{}
}

// Output keys recorded by the built-in actions.
const (
	OutputConsumed   = "consumed"
	OutputErrors     = "errors"
	OutputErrorPaths = "error_paths"
	OutputFatal      = "fatal"
	OutputInfo       = "info"
	OutputSize       = "size"
)
