// Package reporter renders the outcome of a packet case run.
package reporter

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dissect-kit/dissect-go/internal/testharness/engine"
)

// Reporter writes a suite result.
type Reporter interface {
	ReportSuite(result *engine.SuiteResult)
}

// Dissection is what a case's dissect and size steps produced. Values come
// from the last step that reported them.
type Dissection struct {
	Consumed   *int     `json:"consumed,omitempty"`
	Size       *int     `json:"size,omitempty"`
	Errors     int      `json:"errors"`
	Fatal      bool     `json:"fatal,omitempty"`
	ErrorPaths []string `json:"error_paths,omitempty"`
}

// Summarize collects the dissection outputs of a case.
func Summarize(tr *engine.TestResult) Dissection {
	var d Dissection
	for _, sr := range tr.StepResults {
		out := sr.Output
		if n, ok := out[engine.OutputConsumed].(int); ok {
			d.Consumed = &n
			d.Errors, _ = out[engine.OutputErrors].(int)
			d.Fatal, _ = out[engine.OutputFatal].(bool)
			d.ErrorPaths, _ = out[engine.OutputErrorPaths].([]string)
		}
		if n, ok := out[engine.OutputSize].(int); ok {
			d.Size = &n
		}
	}
	return d
}

func (d Dissection) String() string {
	var parts []string
	if d.Consumed != nil {
		parts = append(parts, fmt.Sprintf("consumed=%d", *d.Consumed))
	}
	if d.Size != nil {
		parts = append(parts, fmt.Sprintf("size=%d", *d.Size))
	}
	if d.Consumed != nil {
		parts = append(parts, fmt.Sprintf("errors=%d", d.Errors))
	}
	if d.Fatal {
		parts = append(parts, "fatal")
	}
	return strings.Join(parts, " ")
}

func status(tr *engine.TestResult) string {
	switch {
	case tr.Skipped:
		return "SKIP"
	case tr.Passed:
		return "PASS"
	default:
		return "FAIL"
	}
}

func outcome(tr *engine.TestResult) string {
	switch {
	case tr.Skipped:
		return "skipped"
	case tr.Passed:
		return "passed"
	default:
		return "failed"
	}
}

// failedExpectations lists the expectations that did not hold.
func failedExpectations(tr *engine.TestResult) []*engine.ExpectResult {
	var out []*engine.ExpectResult
	for _, sr := range tr.StepResults {
		for _, er := range sr.ExpectResults {
			if !er.Passed {
				out = append(out, er)
			}
		}
	}
	return out
}

// TextReporter writes one line per case followed by its decode errors.
type TextReporter struct {
	writer  io.Writer
	verbose bool
}

// NewTextReporter creates a text reporter. Verbose output lists every
// expectation, not just the failed ones.
func NewTextReporter(w io.Writer, verbose bool) *TextReporter {
	return &TextReporter{writer: w, verbose: verbose}
}

// ReportSuite writes every case and a summary.
func (r *TextReporter) ReportSuite(result *engine.SuiteResult) {
	w := r.writer
	fmt.Fprintf(w, "\n=== Suite: %s ===\n\n", result.SuiteName)

	decodeErrors := 0
	for _, tr := range result.Results {
		decodeErrors += r.reportCase(tr)
	}

	fmt.Fprintf(w, "\n--- Summary ---\n")
	fmt.Fprintf(w, "Total:   %d\n", len(result.Results))
	fmt.Fprintf(w, "Passed:  %d\n", result.PassCount)
	fmt.Fprintf(w, "Failed:  %d\n", result.FailCount)
	fmt.Fprintf(w, "Skipped: %d\n", result.SkipCount)
	fmt.Fprintf(w, "Decode errors: %d\n", decodeErrors)
	fmt.Fprintf(w, "Duration: %s\n", result.Duration.Round(time.Millisecond))
}

func (r *TextReporter) reportCase(tr *engine.TestResult) int {
	w := r.writer
	tc := tr.TestCase
	fmt.Fprintf(w, "[%s] %s - %s", status(tr), tc.ID, tc.Name)
	if tc.Protocol != "" {
		fmt.Fprintf(w, " [%s]", tc.Protocol)
	}
	if tr.Skipped {
		fmt.Fprintln(w)
		if tr.SkipReason != "" {
			fmt.Fprintf(w, "       Skip reason: %s\n", tr.SkipReason)
		}
		return 0
	}

	d := Summarize(tr)
	if s := d.String(); s != "" {
		fmt.Fprintf(w, " %s", s)
	}
	fmt.Fprintln(w)

	for _, p := range d.ErrorPaths {
		fmt.Fprintf(w, "       ! %s\n", p)
	}
	if !tr.Passed && tr.Error != nil {
		fmt.Fprintf(w, "       Error: %v\n", tr.Error)
	}

	if r.verbose {
		for _, sr := range tr.StepResults {
			for _, er := range sr.ExpectResults {
				mark := "ok"
				if !er.Passed {
					mark = "FAILED"
				}
				fmt.Fprintf(w, "       step %d %-6s %s: %s\n", sr.StepIndex+1, mark, er.Key, er.Message)
			}
		}
	}
	return d.Errors
}

// JSONReporter writes the suite as one indented JSON document.
type JSONReporter struct {
	writer io.Writer
}

// NewJSONReporter creates a JSON reporter.
func NewJSONReporter(w io.Writer) *JSONReporter {
	return &JSONReporter{writer: w}
}

// JSONSuite is the JSON form of a suite run.
type JSONSuite struct {
	Suite    string     `json:"suite"`
	Duration string     `json:"duration"`
	Total    int        `json:"total"`
	Passed   int        `json:"passed"`
	Failed   int        `json:"failed"`
	Skipped  int        `json:"skipped"`
	Cases    []JSONCase `json:"cases"`
}

// JSONCase is the JSON form of one packet case.
type JSONCase struct {
	ID           string            `json:"id"`
	Name         string            `json:"name,omitempty"`
	Protocol     string            `json:"protocol,omitempty"`
	Status       string            `json:"status"`
	Error        string            `json:"error,omitempty"`
	SkipReason   string            `json:"skip_reason,omitempty"`
	Dissection   Dissection        `json:"dissection"`
	Expectations []JSONExpectation `json:"expectations,omitempty"`
}

// JSONExpectation is one checked expectation. Field expectations carry the
// rendered value of the node they matched.
type JSONExpectation struct {
	Step     int    `json:"step"`
	Key      string `json:"key"`
	Passed   bool   `json:"passed"`
	Expected any    `json:"expected,omitempty"`
	Actual   any    `json:"actual,omitempty"`
	Message  string `json:"message,omitempty"`
}

// ReportSuite writes the suite.
func (r *JSONReporter) ReportSuite(result *engine.SuiteResult) {
	js := JSONSuite{
		Suite:    result.SuiteName,
		Duration: result.Duration.Round(time.Millisecond).String(),
		Total:    len(result.Results),
		Passed:   result.PassCount,
		Failed:   result.FailCount,
		Skipped:  result.SkipCount,
		Cases:    make([]JSONCase, 0, len(result.Results)),
	}
	for _, tr := range result.Results {
		js.Cases = append(js.Cases, caseToJSON(tr))
	}

	data, err := json.MarshalIndent(js, "", "  ")
	if err != nil {
		fmt.Fprintf(r.writer, "{\"error\": %q}\n", err.Error())
		return
	}
	fmt.Fprintln(r.writer, string(data))
}

func caseToJSON(tr *engine.TestResult) JSONCase {
	tc := tr.TestCase
	jc := JSONCase{
		ID:         tc.ID,
		Name:       tc.Name,
		Protocol:   tc.Protocol,
		Status:     outcome(tr),
		SkipReason: tr.SkipReason,
		Dissection: Summarize(tr),
	}
	if tr.Error != nil {
		jc.Error = tr.Error.Error()
	}
	for _, sr := range tr.StepResults {
		for _, er := range sr.ExpectResults {
			jc.Expectations = append(jc.Expectations, JSONExpectation{
				Step:     sr.StepIndex + 1,
				Key:      er.Key,
				Passed:   er.Passed,
				Expected: er.Expected,
				Actual:   er.Actual,
				Message:  er.Message,
			})
		}
	}
	return jc
}

// JUnitReporter writes JUnit XML for CI. Each case becomes a testcase
// classed by its protocol; a failure lists the expectations that did not
// hold and the decode error paths of the packet.
type JUnitReporter struct {
	writer io.Writer
}

// NewJUnitReporter creates a JUnit reporter.
func NewJUnitReporter(w io.Writer) *JUnitReporter {
	return &JUnitReporter{writer: w}
}

type junitSuite struct {
	XMLName  xml.Name    `xml:"testsuite"`
	Name     string      `xml:"name,attr"`
	Tests    int         `xml:"tests,attr"`
	Failures int         `xml:"failures,attr"`
	Skipped  int         `xml:"skipped,attr"`
	Time     string      `xml:"time,attr"`
	Cases    []junitCase `xml:"testcase"`
}

type junitCase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      string        `xml:"time,attr"`
	Skipped   *junitSkipped `xml:"skipped"`
	Failure   *junitFailure `xml:"failure"`
	SystemOut string        `xml:"system-out,omitempty"`
}

type junitSkipped struct {
	Message string `xml:"message,attr"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Text    string `xml:",cdata"`
}

// ReportSuite writes the suite.
func (r *JUnitReporter) ReportSuite(result *engine.SuiteResult) {
	js := junitSuite{
		Name:     result.SuiteName,
		Tests:    len(result.Results),
		Failures: result.FailCount,
		Skipped:  result.SkipCount,
		Time:     seconds(result.Duration),
	}
	for _, tr := range result.Results {
		js.Cases = append(js.Cases, caseToJUnit(tr))
	}

	data, err := xml.MarshalIndent(js, "", "  ")
	if err != nil {
		fmt.Fprintf(r.writer, "<!-- %v -->\n", err)
		return
	}
	fmt.Fprint(r.writer, xml.Header)
	fmt.Fprintln(r.writer, string(data))
}

func caseToJUnit(tr *engine.TestResult) junitCase {
	tc := tr.TestCase
	jc := junitCase{
		Name:      tc.ID + " " + tc.Name,
		Classname: "dissect." + tc.Protocol,
		Time:      seconds(tr.Duration),
	}
	if tc.Protocol == "" {
		jc.Classname = "dissect"
	}
	if tr.Skipped {
		jc.Skipped = &junitSkipped{Message: tr.SkipReason}
		return jc
	}

	d := Summarize(tr)
	jc.SystemOut = d.String()
	if tr.Passed {
		return jc
	}

	var b strings.Builder
	for _, er := range failedExpectations(tr) {
		fmt.Fprintf(&b, "%s: %s\n", er.Key, er.Message)
	}
	if len(d.ErrorPaths) > 0 {
		b.WriteString("decode errors:\n")
		for _, p := range d.ErrorPaths {
			fmt.Fprintf(&b, "  %s\n", p)
		}
	}
	msg := "failed"
	if tr.Error != nil {
		msg = tr.Error.Error()
	}
	jc.Failure = &junitFailure{Message: msg, Text: b.String()}
	return jc
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
