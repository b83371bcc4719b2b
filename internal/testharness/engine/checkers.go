package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dissect-kit/dissect-go/internal/testharness/loader"
	"github.com/dissect-kit/dissect-go/pkg/tree"
)

// ToFloat64 converts various numeric types to float64 for comparison.
func ToFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// checkExpect evaluates every expectation set in exp, in a fixed order.
func checkExpect(exp loader.Expect, state *ExecutionState) []*ExpectResult {
	var out []*ExpectResult

	if exp.Consumed != nil {
		out = append(out, checkOutput(OutputConsumed, *exp.Consumed, state))
	}
	if exp.Size != nil {
		out = append(out, checkOutput(OutputSize, *exp.Size, state))
	}
	if exp.Errors != nil {
		out = append(out, checkOutput(OutputErrors, *exp.Errors, state))
	}
	if exp.Fatal != nil {
		out = append(out, checkOutput(OutputFatal, *exp.Fatal, state))
	}
	if exp.Info != nil {
		out = append(out, checkOutput(OutputInfo, *exp.Info, state))
	}
	if exp.InfoContains != "" {
		out = append(out, checkInfoContains(exp.InfoContains, state))
	}

	paths := make([]string, 0, len(exp.Fields))
	for p := range exp.Fields {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		out = append(out, checkField(p, exp.Fields[p], state))
	}

	for _, p := range exp.Absent {
		out = append(out, checkAbsent(p, state))
	}
	for _, p := range exp.ErrorPaths {
		out = append(out, checkErrorPath(p, state))
	}
	return out
}

// checkOutput compares a recorded step output against expected.
func checkOutput(key string, expected any, state *ExecutionState) *ExpectResult {
	actual, exists := state.Get(key)
	if !exists {
		return &ExpectResult{
			Key:      key,
			Expected: expected,
			Passed:   false,
			Message:  fmt.Sprintf("output key %q not found", key),
		}
	}

	passed := valuesEqual(actual, expected)
	return &ExpectResult{
		Key:      key,
		Expected: expected,
		Actual:   actual,
		Passed:   passed,
		Message:  fmt.Sprintf("%s = %v, expected %v", key, actual, expected),
	}
}

func checkInfoContains(want string, state *ExecutionState) *ExpectResult {
	key := "info_contains"
	actual, _ := state.Get(OutputInfo)
	info, _ := actual.(string)
	passed := strings.Contains(info, want)
	msg := fmt.Sprintf("info %q contains %q", info, want)
	if !passed {
		msg = fmt.Sprintf("info %q does not contain %q", info, want)
	}
	return &ExpectResult{Key: key, Expected: want, Actual: info, Passed: passed, Message: msg}
}

// lastTree returns the tree of the last dissect step, or a failed result.
func lastTree(key string, expected any, state *ExecutionState) (*tree.Node, *ExpectResult) {
	if state.Result == nil || state.Result.Tree == nil {
		return nil, &ExpectResult{
			Key:      key,
			Expected: expected,
			Passed:   false,
			Message:  "no dissection result to check",
		}
	}
	return state.Result.Tree, nil
}

// checkField finds the node at path and matches its value. A node matches
// when its display text equals the expected value, or when both its decoded
// value and the expected value are numbers and equal.
func checkField(path string, expected any, state *ExecutionState) *ExpectResult {
	key := "fields." + path
	root, failed := lastTree(key, expected, state)
	if failed != nil {
		return failed
	}

	n := root.Find(path)
	if n == nil {
		return &ExpectResult{
			Key:      key,
			Expected: expected,
			Passed:   false,
			Message:  fmt.Sprintf("field %s not found", path),
		}
	}

	actual := n.ValueString()
	passed := actual == fmt.Sprint(expected)
	if !passed {
		passed = valuesEqual(n.Value, expected)
	}
	return &ExpectResult{
		Key:      key,
		Expected: expected,
		Actual:   actual,
		Passed:   passed,
		Message:  fmt.Sprintf("%s = %s, expected %v", path, actual, expected),
	}
}

func checkAbsent(path string, state *ExecutionState) *ExpectResult {
	key := "absent." + path
	root, failed := lastTree(key, nil, state)
	if failed != nil {
		return failed
	}
	n := root.Find(path)
	if n != nil {
		return &ExpectResult{Key: key, Actual: n.String(), Passed: false, Message: fmt.Sprintf("field %s present", path)}
	}
	return &ExpectResult{Key: key, Passed: true, Message: fmt.Sprintf("field %s absent", path)}
}

func checkErrorPath(path string, state *ExecutionState) *ExpectResult {
	key := "error_paths." + path
	root, failed := lastTree(key, path, state)
	if failed != nil {
		return failed
	}

	var marked []string
	for _, n := range root.Errors() {
		if n.Path == path {
			return &ExpectResult{Key: key, Expected: path, Actual: n.Err.Error(), Passed: true,
				Message: fmt.Sprintf("%s: %v", path, n.Err)}
		}
		marked = append(marked, n.Path)
	}
	return &ExpectResult{
		Key:      key,
		Expected: path,
		Actual:   marked,
		Passed:   false,
		Message:  fmt.Sprintf("no error at %s (errors at %v)", path, marked),
	}
}

// checkStepError checks that a step failed with an error containing want.
func checkStepError(want string, err error) *ExpectResult {
	key := "error"
	if err == nil {
		return &ExpectResult{Key: key, Expected: want, Passed: false, Message: "step succeeded, expected an error"}
	}
	passed := strings.Contains(err.Error(), want)
	return &ExpectResult{
		Key:      key,
		Expected: want,
		Actual:   err.Error(),
		Passed:   passed,
		Message:  fmt.Sprintf("error %q, expected it to contain %q", err, want),
	}
}

// valuesEqual compares numbers numerically and everything else by its
// formatted form.
func valuesEqual(actual, expected any) bool {
	a, ok1 := ToFloat64(actual)
	b, ok2 := ToFloat64(expected)
	if ok1 && ok2 {
		return a == b
	}
	if ok1 != ok2 {
		return false
	}
	return fmt.Sprint(actual) == fmt.Sprint(expected)
}
