package loader

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseTestCase parses a single test case from YAML bytes.
func ParseTestCase(data []byte) (*TestCase, error) {
	var tc TestCase
	if err := yaml.Unmarshal(data, &tc); err != nil {
		return nil, &LoadError{
			Message: "failed to parse YAML",
			Cause:   err,
		}
	}
	if err := tc.normalize(""); err != nil {
		return nil, err
	}
	return &tc, nil
}

// ParseFile parses a file holding either a single test case or a suite
// with a cases list.
func ParseFile(data []byte) ([]*TestCase, error) {
	var head struct {
		Cases yaml.Node `yaml:"cases"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return nil, &LoadError{Message: "failed to parse YAML", Cause: err}
	}
	if head.Cases.Kind == 0 {
		tc, err := ParseTestCase(data)
		if err != nil {
			return nil, err
		}
		return []*TestCase{tc}, nil
	}

	suite, err := ParseSuite(data)
	if err != nil {
		return nil, err
	}
	return suite.Cases, nil
}

// ParseSuite parses a test suite from YAML bytes. Cases without a protocol
// inherit the suite's.
func ParseSuite(data []byte) (*TestSuite, error) {
	var suite TestSuite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, &LoadError{Message: "failed to parse YAML", Cause: err}
	}
	if len(suite.Cases) == 0 {
		return nil, &LoadError{Message: "suite must have at least one case"}
	}
	for _, tc := range suite.Cases {
		if err := tc.normalize(suite.Protocol); err != nil {
			return nil, err
		}
	}
	return &suite, nil
}

// normalize validates the case and folds the single-input form into a
// dissect step.
func (tc *TestCase) normalize(protocol string) error {
	if tc.ID == "" {
		return &LoadError{Message: "test case ID is required"}
	}
	if tc.Protocol == "" {
		tc.Protocol = protocol
	}
	if tc.Name == "" {
		tc.Name = tc.ID
	}

	if tc.Input != "" {
		step := Step{Action: ActionDissect, Input: tc.Input}
		if tc.Expect != nil {
			step.Expect = *tc.Expect
		}
		tc.Steps = append([]Step{step}, tc.Steps...)
		tc.Input, tc.Expect = "", nil
	}
	if len(tc.Steps) == 0 {
		return &LoadError{Case: tc.ID, Message: "test case must have an input or at least one step"}
	}

	for i := range tc.Steps {
		s := &tc.Steps[i]
		if s.Action == "" {
			s.Action = ActionDissect
		}
		switch s.Action {
		case ActionDissect, ActionSize:
			if s.Protocol == "" && tc.Protocol == "" {
				return &LoadError{Case: tc.ID, Message: stepError(i, "protocol is required")}
			}
		case ActionDecodeAs:
			if s.Table == "" || s.Use == "" {
				return &LoadError{Case: tc.ID, Message: stepError(i, "decode_as needs table and use")}
			}
		default:
			return &LoadError{Case: tc.ID, Message: stepError(i, "unknown action "+s.Action)}
		}
	}
	return nil
}

func stepError(i int, msg string) string {
	return "step " + strconv.Itoa(i+1) + ": " + msg
}

// LoadFile loads the test cases of a file.
func LoadFile(path string) ([]*TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{
			File:    path,
			Message: "failed to read file",
			Cause:   err,
		}
	}

	cases, err := ParseFile(data)
	if err != nil {
		if le, ok := err.(*LoadError); ok {
			le.File = path
			return nil, le
		}
		return nil, &LoadError{File: path, Message: err.Error()}
	}
	return cases, nil
}

// LoadDirectory loads all test cases from a directory and its
// subdirectories. Only files with .yaml or .yml extensions are loaded, in
// lexical order. Duplicate IDs are rejected.
func LoadDirectory(dir string) ([]*TestCase, error) {
	var cases []*TestCase
	seen := make(map[string]string)

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		loaded, err := LoadFile(path)
		if err != nil {
			return err
		}
		for _, tc := range loaded {
			if prev, ok := seen[tc.ID]; ok {
				return &LoadError{File: path, Case: tc.ID, Message: "duplicate test case ID (first in " + prev + ")"}
			}
			seen[tc.ID] = path
		}
		cases = append(cases, loaded...)
		return nil
	})
	if err != nil {
		if _, ok := err.(*LoadError); ok {
			return nil, err
		}
		return nil, &LoadError{File: dir, Message: "failed to read directory", Cause: err}
	}

	return cases, nil
}

// Filter returns the cases whose ID matches pattern, either as a glob or
// as a substring, and that carry all of tags. An empty pattern matches all
// cases.
func Filter(cases []*TestCase, pattern string, tags ...string) []*TestCase {
	var out []*TestCase
	for _, tc := range cases {
		if pattern != "" {
			ok, _ := path.Match(pattern, tc.ID)
			if !ok && !strings.Contains(tc.ID, pattern) {
				continue
			}
		}
		if !hasTags(tc, tags) {
			continue
		}
		out = append(out, tc)
	}
	return out
}

func hasTags(tc *TestCase, tags []string) bool {
	for _, want := range tags {
		found := false
		for _, t := range tc.Tags {
			if t == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// SortByID orders cases by ID.
func SortByID(cases []*TestCase) {
	sort.SliceStable(cases, func(i, j int) bool { return cases[i].ID < cases[j].ID })
}
