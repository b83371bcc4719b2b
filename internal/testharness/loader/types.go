// Package loader provides YAML packet case loading for the dissection test
// harness.
package loader

// Step actions.
const (
	ActionDissect  = "dissect"
	ActionSize     = "size"
	ActionDecodeAs = "decode_as"
)

// TestCase is a packet test case loaded from YAML.
//
// A case either carries a single input with its expectations, or a list of
// steps. The single form is normalized into one dissect step.
type TestCase struct {
	// ID is the unique test case identifier (e.g., "TC-UDP-001").
	ID string `yaml:"id"`

	// Name is a human-readable name for the test.
	Name string `yaml:"name"`

	// Description explains what the test validates.
	Description string `yaml:"description"`

	// Protocol is the filter name of the protocol under test.
	Protocol string `yaml:"protocol"`

	// Input is the packet as hex, for single-packet cases.
	Input string `yaml:"input,omitempty"`

	// Expect holds the expectations for Input.
	Expect *Expect `yaml:"expect,omitempty"`

	// DecodeAs selects protocols on decode-as tables before the steps run.
	DecodeAs map[string]string `yaml:"decode_as,omitempty"`

	// Steps are the actions to execute in order.
	Steps []Step `yaml:"steps"`

	// Skip marks the test to be skipped.
	Skip bool `yaml:"skip,omitempty"`

	// SkipReason explains why the test is skipped.
	SkipReason string `yaml:"skip_reason,omitempty"`

	// Tags for categorizing tests.
	Tags []string `yaml:"tags,omitempty"`
}

// Step is a single action in a test case.
type Step struct {
	// Action is the action to perform: dissect, size or decode_as.
	Action string `yaml:"action"`

	// Protocol overrides the case protocol for this step.
	Protocol string `yaml:"protocol,omitempty"`

	// Input is the packet as hex.
	Input string `yaml:"input,omitempty"`

	// Table and Use select a protocol on a decode-as table.
	Table string `yaml:"table,omitempty"`
	Use   string `yaml:"use,omitempty"`

	// Expect defines expected outcomes after the action.
	Expect Expect `yaml:"expect,omitempty"`

	// Description explains what this step does.
	Description string `yaml:"description,omitempty"`
}

// Expect lists the outcomes checked after a step. Unset entries are not
// checked.
type Expect struct {
	// Consumed is the number of bytes the protocol consumed.
	Consumed *int `yaml:"consumed,omitempty"`

	// Size is the result of a size step.
	Size *int `yaml:"size,omitempty"`

	// Errors is the number of error markers in the tree.
	Errors *int `yaml:"errors,omitempty"`

	// Fatal expects strict variant resolution to have stopped dissection.
	Fatal *bool `yaml:"fatal,omitempty"`

	// Info is the exact info column text.
	Info *string `yaml:"info,omitempty"`

	// InfoContains is a substring of the info column text.
	InfoContains string `yaml:"info_contains,omitempty"`

	// Fields maps field paths to their expected display value.
	Fields map[string]any `yaml:"fields,omitempty"`

	// Absent lists field paths that must not appear in the tree.
	Absent []string `yaml:"absent,omitempty"`

	// ErrorPaths lists field paths that must carry an error marker.
	ErrorPaths []string `yaml:"error_paths,omitempty"`

	// Error is a substring of the step error, for steps expected to fail.
	Error string `yaml:"error,omitempty"`
}

// Empty reports whether e checks nothing.
func (e Expect) Empty() bool {
	return e.Consumed == nil && e.Size == nil && e.Errors == nil && e.Fatal == nil &&
		e.Info == nil && e.InfoContains == "" && len(e.Fields) == 0 &&
		len(e.Absent) == 0 && len(e.ErrorPaths) == 0 && e.Error == ""
}

// TestSuite is a collection of test cases sharing a protocol.
type TestSuite struct {
	// Name of the test suite.
	Name string `yaml:"name"`

	// Description of what this suite tests.
	Description string `yaml:"description"`

	// Protocol is the default protocol of the cases.
	Protocol string `yaml:"protocol"`

	// Cases are the test cases in this suite.
	Cases []*TestCase `yaml:"cases"`
}

// LoadError provides details about a test case loading error.
type LoadError struct {
	// File is the path to the file that failed to load.
	File string

	// Case is the ID of the case that failed validation, if known.
	Case string

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Case != "" {
		msg = e.Case + ": " + msg
	}
	if e.File != "" {
		msg = e.File + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}
