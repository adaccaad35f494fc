// internal/testing/reporters.go
package testing

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"
)

// TextReporter outputs human-readable test results
type TextReporter struct {
	w       io.Writer
	verbose bool
	color   bool
	indent  int
}

func NewTextReporter(w io.Writer, verbose, color bool) *TextReporter {
	return &TextReporter{w: w, verbose: verbose, color: color}
}

func (r *TextReporter) paint(code, s string) string {
	if !r.color {
		return s
	}
	return code + s + "\033[0m"
}

func (r *TextReporter) StartSuite(suite *TestSuite) {
	fmt.Fprintf(r.w, "\n%s (%d programs)\n", suite.Dir, len(suite.Tests))
	r.indent = 2
}

func (r *TextReporter) EndSuite(suite *TestSuite) {
	if r.verbose {
		fmt.Fprintf(r.w, "%scompleted in %v\n", strings.Repeat(" ", r.indent), suite.EndTime.Sub(suite.StartTime).Round(time.Millisecond))
	}
	r.indent = 0
}

func (r *TextReporter) TestPassed(result TestResult) {
	pad := strings.Repeat(" ", r.indent)
	fmt.Fprintf(r.w, "%s%s %s", pad, r.paint("\033[32m", "PASS"), result.Name)
	if r.verbose {
		fmt.Fprintf(r.w, " (%v)", result.Duration.Round(time.Microsecond))
	}
	fmt.Fprintln(r.w)
}

func (r *TextReporter) TestFailed(result TestResult) {
	pad := strings.Repeat(" ", r.indent)
	fmt.Fprintf(r.w, "%s%s %s\n", pad, r.paint("\033[31m", "FAIL"), result.Name)

	if result.Error != nil {
		fmt.Fprintf(r.w, "%s  error: %v\n", pad, result.Error)
	}
	if result.Message != "" {
		for _, line := range strings.Split(result.Message, "\n") {
			fmt.Fprintf(r.w, "%s  %s\n", pad, line)
		}
	}
}

func (r *TextReporter) TestSkipped(result TestResult) {
	pad := strings.Repeat(" ", r.indent)
	fmt.Fprintf(r.w, "%s%s %s (%s)\n", pad, r.paint("\033[33m", "SKIP"), result.Name, result.Message)
}

func (r *TextReporter) Summary(stats *TestStats) {
	fmt.Fprintf(r.w, "\n%d passed, %d failed, %d skipped in %d suites (%v)\n",
		stats.PassedTests, stats.FailedTests, stats.SkippedTests, stats.Suites,
		stats.TotalTime.Round(time.Millisecond))
	if stats.OK() {
		fmt.Fprintln(r.w, r.paint("\033[32m", "ok"))
	} else {
		fmt.Fprintln(r.w, r.paint("\033[31m", "FAIL"))
	}
}

// JSONReporter outputs test results in JSON format
type JSONReporter struct {
	w       io.Writer
	results []JSONTestResult
}

type JSONTestResult struct {
	Suite    string        `json:"suite"`
	Test     string        `json:"test"`
	File     string        `json:"file"`
	Passed   bool          `json:"passed"`
	Failed   bool          `json:"failed"`
	Skipped  bool          `json:"skipped"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
	Message  string        `json:"message,omitempty"`
}

type JSONSummary struct {
	Results      []JSONTestResult `json:"results"`
	TotalTests   int              `json:"total_tests"`
	PassedTests  int              `json:"passed_tests"`
	FailedTests  int              `json:"failed_tests"`
	SkippedTests int              `json:"skipped_tests"`
	TotalTime    time.Duration    `json:"total_time"`
}

func NewJSONReporter(w io.Writer) *JSONReporter {
	return &JSONReporter{w: w, results: make([]JSONTestResult, 0)}
}

func (r *JSONReporter) StartSuite(suite *TestSuite) {}

// EndSuite stamps the suite name on the results it produced.
func (r *JSONReporter) EndSuite(suite *TestSuite) {
	for i := len(r.results) - len(suite.Results); i < len(r.results); i++ {
		r.results[i].Suite = suite.Dir
	}
}

func (r *JSONReporter) record(result TestResult) {
	out := JSONTestResult{
		Test:     result.Name,
		File:     result.File,
		Passed:   result.Passed,
		Failed:   result.Failed,
		Skipped:  result.Skipped,
		Duration: result.Duration,
		Message:  result.Message,
	}
	if result.Error != nil {
		out.Error = result.Error.Error()
	}
	r.results = append(r.results, out)
}

func (r *JSONReporter) TestPassed(result TestResult)  { r.record(result) }
func (r *JSONReporter) TestFailed(result TestResult)  { r.record(result) }
func (r *JSONReporter) TestSkipped(result TestResult) { r.record(result) }

func (r *JSONReporter) Summary(stats *TestStats) {
	summary := JSONSummary{
		Results:      r.results,
		TotalTests:   stats.TotalTests,
		PassedTests:  stats.PassedTests,
		FailedTests:  stats.FailedTests,
		SkippedTests: stats.SkippedTests,
		TotalTime:    stats.TotalTime,
	}

	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		fmt.Fprintf(r.w, "Error generating JSON output: %v\n", err)
	}
}

// JUnitReporter outputs test results in JUnit XML format
type JUnitReporter struct {
	w          io.Writer
	testSuites []JUnitTestSuite
}

type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

type JUnitTestSuite struct {
	XMLName   xml.Name        `xml:"testsuite"`
	Name      string          `xml:"name,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Skipped   int             `xml:"skipped,attr"`
	Time      float64         `xml:"time,attr"`
	TestCases []JUnitTestCase `xml:"testcase"`
}

type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Skipped   *JUnitSkipped `xml:"skipped,omitempty"`
}

type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Content string `xml:",chardata"`
}

type JUnitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

func NewJUnitReporter(w io.Writer) *JUnitReporter {
	return &JUnitReporter{w: w, testSuites: make([]JUnitTestSuite, 0)}
}

func (r *JUnitReporter) StartSuite(suite *TestSuite) {}

func (r *JUnitReporter) EndSuite(suite *TestSuite) {
	junitSuite := JUnitTestSuite{
		Name:      suite.Dir,
		Tests:     len(suite.Results),
		Time:      suite.EndTime.Sub(suite.StartTime).Seconds(),
		TestCases: make([]JUnitTestCase, 0, len(suite.Results)),
	}

	for _, result := range suite.Results {
		testCase := JUnitTestCase{
			Name:      result.Name,
			ClassName: suite.Name,
			Time:      result.Duration.Seconds(),
		}
		if result.Failed {
			junitSuite.Failures++
			testCase.Failure = &JUnitFailure{Type: "OutputMismatch", Content: result.Message}
			if result.Error != nil {
				testCase.Failure.Type = "Error"
				testCase.Failure.Message = result.Error.Error()
			}
		} else if result.Skipped {
			junitSuite.Skipped++
			testCase.Skipped = &JUnitSkipped{Message: result.Message}
		}
		junitSuite.TestCases = append(junitSuite.TestCases, testCase)
	}

	r.testSuites = append(r.testSuites, junitSuite)
}

// Results are collected per suite in EndSuite.
func (r *JUnitReporter) TestPassed(result TestResult)  {}
func (r *JUnitReporter) TestFailed(result TestResult)  {}
func (r *JUnitReporter) TestSkipped(result TestResult) {}

func (r *JUnitReporter) Summary(stats *TestStats) {
	output, err := xml.MarshalIndent(JUnitTestSuites{TestSuites: r.testSuites}, "", "  ")
	if err != nil {
		fmt.Fprintf(r.w, "Error generating JUnit XML output: %v\n", err)
		return
	}
	fmt.Fprint(r.w, xml.Header)
	fmt.Fprintln(r.w, string(output))
}
