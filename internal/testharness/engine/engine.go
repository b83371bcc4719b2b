package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dissect-kit/dissect-go/internal/testharness/loader"
	"github.com/dissect-kit/dissect-go/pkg/inspect"
	"github.com/dissect-kit/dissect-go/pkg/tree"
)

// Engine executes test cases against a Target.
type Engine struct {
	config   *EngineConfig
	target   Target
	handlers map[string]ActionHandler
	mu       sync.RWMutex
}

// New creates a new test engine with default configuration.
func New(target Target) *Engine {
	return NewWithConfig(target, DefaultConfig())
}

// NewWithConfig creates a new test engine with the given configuration.
func NewWithConfig(target Target, config *EngineConfig) *Engine {
	if config == nil {
		config = DefaultConfig()
	}

	e := &Engine{
		config:   config,
		target:   target,
		handlers: make(map[string]ActionHandler),
	}

	e.RegisterHandler(loader.ActionDissect, handleDissect)
	e.RegisterHandler(loader.ActionSize, handleSize)
	e.RegisterHandler(loader.ActionDecodeAs, handleDecodeAs)

	return e
}

// RegisterHandler registers an action handler, replacing any existing one.
func (e *Engine) RegisterHandler(action string, handler ActionHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[action] = handler
}

// RunSuite executes cases in order.
func (e *Engine) RunSuite(ctx context.Context, name string, cases []*loader.TestCase) *SuiteResult {
	start := time.Now()
	suite := &SuiteResult{SuiteName: name}

	for _, tc := range cases {
		if ctx.Err() != nil {
			break
		}
		result := e.Run(ctx, tc)
		suite.add(result)
		if !result.Passed && !result.Skipped && e.config.StopOnFirstFailure {
			break
		}
	}

	suite.Duration = time.Since(start)
	return suite
}

// Run executes a single test case. Decode-as selections made by the case
// are cleared when it finishes.
func (e *Engine) Run(ctx context.Context, tc *loader.TestCase) *TestResult {
	result := &TestResult{
		TestCase:  tc,
		StartTime: time.Now(),
	}
	defer func() {
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
		e.debugLog("test case finished", "id", tc.ID, "passed", result.Passed, "skipped", result.Skipped)
	}()

	if tc.Skip {
		result.Skipped = true
		result.SkipReason = tc.SkipReason
		if result.SkipReason == "" {
			result.SkipReason = "skipped by test definition"
		}
		return result
	}

	state := NewExecutionState(ctx, e.target, tc.Protocol)
	selected := make(map[string]bool)
	defer func() {
		for table := range selected {
			_ = e.target.ClearDecodeAs(table)
		}
	}()

	tables := make([]string, 0, len(tc.DecodeAs))
	for table := range tc.DecodeAs {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	for _, table := range tables {
		if err := e.target.SetDecodeAs(table, tc.DecodeAs[table]); err != nil {
			result.Error = fmt.Errorf("decode-as setup failed: %w", err)
			return result
		}
		selected[table] = true
	}

	for i := range tc.Steps {
		if err := ctx.Err(); err != nil {
			result.Error = err
			return result
		}
		step := &tc.Steps[i]
		if step.Action == loader.ActionDecodeAs {
			selected[step.Table] = true
		}
		stepResult := e.executeStep(ctx, step, i, state)
		result.StepResults = append(result.StepResults, stepResult)

		if !stepResult.Passed {
			result.Error = fmt.Errorf("step %d (%s): %w", i+1, step.Action, stepResult.Error)
			return result
		}
	}

	result.Passed = true
	return result
}

// executeStep executes a single step and checks its expectations.
func (e *Engine) executeStep(ctx context.Context, step *loader.Step, index int, state *ExecutionState) *StepResult {
	result := &StepResult{
		Step:      step,
		StepIndex: index,
		Output:    make(map[string]any),
	}
	startTime := time.Now()
	defer func() { result.Duration = time.Since(startTime) }()

	e.mu.RLock()
	handler, exists := e.handlers[step.Action]
	e.mu.RUnlock()

	if !exists {
		result.Error = fmt.Errorf("unknown action: %s", step.Action)
		return result
	}

	outputs, err := handler(ctx, step, state)
	for k, v := range outputs {
		state.Set(k, v)
		result.Output[k] = v
	}

	if step.Expect.Error != "" {
		er := checkStepError(step.Expect.Error, err)
		result.ExpectResults = append(result.ExpectResults, er)
		if !er.Passed {
			result.Error = fmt.Errorf("expectation failed: %s - %s", er.Key, er.Message)
			return result
		}
		result.Passed = true
		return result
	}
	if err != nil {
		result.Error = err
		return result
	}

	result.Passed = true
	for _, er := range checkExpect(step.Expect, state) {
		result.ExpectResults = append(result.ExpectResults, er)
		if !er.Passed && result.Passed {
			result.Passed = false
			result.Error = fmt.Errorf("expectation failed: %s - %s", er.Key, er.Message)
		}
	}
	return result
}

func (e *Engine) debugLog(msg string, args ...any) {
	if e.config.Logger != nil {
		e.config.Logger.Debug(msg, args...)
	}
}

func stepProtocol(step *loader.Step, state *ExecutionState) string {
	if step.Protocol != "" {
		return step.Protocol
	}
	return state.Protocol
}

func handleDissect(_ context.Context, step *loader.Step, state *ExecutionState) (map[string]any, error) {
	data, err := inspect.ParseHex(step.Input)
	if err != nil {
		return nil, err
	}
	res, err := state.Target.Dissect(stepProtocol(step, state), data)
	if err != nil {
		return nil, err
	}
	state.Result = res
	return map[string]any{
		OutputConsumed:   res.Consumed,
		OutputErrors:     res.ErrorCount(),
		OutputErrorPaths: errorPaths(res.Tree),
		OutputFatal:      res.Fatal != nil,
		OutputInfo:       res.Info,
	}, nil
}

// errorPaths lists every marked node of root as "path@offset: error",
// including those of protocols reached through dispatch tables.
func errorPaths(root *tree.Node) []string {
	var out []string
	for _, n := range root.Errors() {
		out = append(out, fmt.Sprintf("%s@%d: %v", n.Path, n.Offset, n.Err))
	}
	return out
}

func handleSize(_ context.Context, step *loader.Step, state *ExecutionState) (map[string]any, error) {
	data, err := inspect.ParseHex(step.Input)
	if err != nil {
		return nil, err
	}
	n, err := state.Target.Size(stepProtocol(step, state), data)
	if err != nil {
		return nil, err
	}
	return map[string]any{OutputSize: n}, nil
}

func handleDecodeAs(_ context.Context, step *loader.Step, state *ExecutionState) (map[string]any, error) {
	if err := state.Target.SetDecodeAs(step.Table, step.Use); err != nil {
		return nil, err
	}
	return nil, nil
}
