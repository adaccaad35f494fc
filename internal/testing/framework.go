// internal/testing/framework.go
//
// Package testing runs golden tests for LOLCODE programs. A test is a .lol
// file next to a .out file holding the expected output, one line per
// VISIBLE line followed by one line per diagnostic. An optional .in file
// supplies GIMMEH answers, one per line.
package testing

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rogpeppe/go-internal/diff"

	"lolcode/internal/driver"
	lolerrors "lolcode/internal/errors"
	"lolcode/internal/interpreter"
	"lolcode/internal/parser"
)

const (
	SourceExt   = ".lol"
	ExpectedExt = ".out"
	InputExt    = ".in"
)

// TestResult represents the result of a single test
type TestResult struct {
	Name     string
	File     string
	Passed   bool
	Failed   bool
	Skipped  bool
	Duration time.Duration
	Error    error
	Message  string
}

// TestSuite groups the tests found in one directory.
type TestSuite struct {
	Name      string
	Dir       string
	Tests     []TestCase
	Results   []TestResult
	StartTime time.Time
	EndTime   time.Time
}

// TestCase is one program with its golden files. Expected is empty when
// the program has no .out file, and such a case is skipped.
type TestCase struct {
	Name     string
	Source   string
	Expected string
	Input    string
}

// TestRunner manages test execution
type TestRunner struct {
	suites   []*TestSuite
	config   *TestConfig
	reporter TestReporter
	stats    *TestStats
}

// TestConfig holds configuration for test execution
type TestConfig struct {
	Verbose      bool
	Filter       string
	FailFast     bool
	OutputFormat string // "text", "json", "junit"
	Color        bool
	Parser       parser.Options
	Run          interpreter.Options
}

// TestStats tracks overall test statistics
type TestStats struct {
	TotalTests   int
	PassedTests  int
	FailedTests  int
	SkippedTests int
	TotalTime    time.Duration
	Suites       int
}

// OK reports whether no test failed.
func (s *TestStats) OK() bool {
	return s.FailedTests == 0
}

// TestReporter interface for different output formats
type TestReporter interface {
	StartSuite(suite *TestSuite)
	EndSuite(suite *TestSuite)
	TestPassed(result TestResult)
	TestFailed(result TestResult)
	TestSkipped(result TestResult)
	Summary(stats *TestStats)
}

// NewTestRunner creates a runner whose reporter writes to w.
func NewTestRunner(config *TestConfig, w io.Writer) *TestRunner {
	if config == nil {
		config = &TestConfig{OutputFormat: "text"}
	}

	var reporter TestReporter
	switch config.OutputFormat {
	case "json":
		reporter = NewJSONReporter(w)
	case "junit":
		reporter = NewJUnitReporter(w)
	default:
		reporter = NewTextReporter(w, config.Verbose, config.Color)
	}

	return &TestRunner{
		config:   config,
		reporter: reporter,
		stats:    &TestStats{},
	}
}

// AddSuite adds a test suite to the runner
func (r *TestRunner) AddSuite(suite *TestSuite) {
	r.suites = append(r.suites, suite)
}

// Run executes all test suites
func (r *TestRunner) Run() *TestStats {
	startTime := time.Now()

	for _, suite := range r.suites {
		r.runSuite(suite)
		if r.config.FailFast && r.stats.FailedTests > 0 {
			break
		}
	}

	r.stats.TotalTime = time.Since(startTime)
	r.reporter.Summary(r.stats)
	return r.stats
}

func (r *TestRunner) runSuite(suite *TestSuite) {
	suite.StartTime = time.Now()
	r.reporter.StartSuite(suite)

	for _, test := range suite.Tests {
		if r.config.Filter != "" && !strings.Contains(test.Name, r.config.Filter) {
			continue
		}
		result := r.runTest(test)
		suite.Results = append(suite.Results, result)

		switch {
		case result.Skipped:
			r.stats.SkippedTests++
			r.reporter.TestSkipped(result)
		case result.Passed:
			r.stats.PassedTests++
			r.reporter.TestPassed(result)
		default:
			r.stats.FailedTests++
			r.reporter.TestFailed(result)
		}
		r.stats.TotalTests++

		if r.config.FailFast && result.Failed {
			break
		}
	}

	suite.EndTime = time.Now()
	r.reporter.EndSuite(suite)
	r.stats.Suites++
}

func (r *TestRunner) runTest(test TestCase) (result TestResult) {
	result = TestResult{Name: test.Name, File: test.Source}
	if test.Expected == "" {
		result.Skipped = true
		result.Message = "no " + ExpectedExt + " file"
		return result
	}

	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	want, err := os.ReadFile(test.Expected)
	if err != nil {
		result.Failed = true
		result.Error = errors.Wrap(err, "read expected output")
		return result
	}
	got, err := r.Actual(test)
	if err != nil {
		result.Failed = true
		result.Error = err
		return result
	}

	if normalize(string(want)) == got {
		result.Passed = true
		return result
	}
	result.Failed = true
	result.Message = strings.TrimRight(string(diff.Diff("want", want, "got", []byte(got))), "\n")
	return result
}

// Actual runs the test program and renders what it printed and reported,
// in the same shape as a .out file.
func (r *TestRunner) Actual(test TestCase) (string, error) {
	src, err := driver.ReadSource(test.Source)
	if err != nil {
		return "", err
	}
	opts := r.config.Run
	if test.Input != "" {
		inputs, err := readInputs(test.Input)
		if err != nil {
			return "", err
		}
		opts.Inputs = inputs
	}

	res := driver.Run(src, r.config.Parser, opts)
	if res.Status == interpreter.StatusSuspended {
		return "", errors.Errorf("program waits for input on line %d with no answer left", res.Continuation.Line)
	}

	lines := append([]string{}, res.Output...)
	if res.Pending != "" {
		lines = append(lines, res.Pending)
	}
	lines = append(lines, lolerrors.Messages(res.Errors)...)
	return normalize(strings.Join(lines, "\n")), nil
}

func readInputs(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read inputs")
	}
	text := strings.TrimRight(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	if text == "" {
		return nil, nil
	}
	return strings.Split(text, "\n"), nil
}

func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return ""
	}
	return s + "\n"
}

// DiscoverTests finds every .lol file below dir and groups them into one
// suite per directory. A file argument yields a single suite.
func DiscoverTests(dir string) ([]*TestSuite, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrap(err, "discover tests")
	}

	byDir := make(map[string]*TestSuite)
	add := func(path string) {
		d := filepath.Dir(path)
		suite, ok := byDir[d]
		if !ok {
			suite = &TestSuite{Name: filepath.Base(d), Dir: d}
			byDir[d] = suite
		}
		suite.Tests = append(suite.Tests, caseFor(path))
	}

	if !info.IsDir() {
		add(dir)
	} else {
		err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && filepath.Ext(path) == SourceExt {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, errors.Wrap(err, "discover tests")
		}
	}

	suites := make([]*TestSuite, 0, len(byDir))
	for _, s := range byDir {
		sort.Slice(s.Tests, func(i, j int) bool { return s.Tests[i].Name < s.Tests[j].Name })
		suites = append(suites, s)
	}
	sort.Slice(suites, func(i, j int) bool { return suites[i].Dir < suites[j].Dir })
	return suites, nil
}

func caseFor(path string) TestCase {
	base := strings.TrimSuffix(path, SourceExt)
	tc := TestCase{Name: filepath.Base(base), Source: path}
	if exists(base + ExpectedExt) {
		tc.Expected = base + ExpectedExt
	}
	if exists(base + InputExt) {
		tc.Input = base + InputExt
	}
	return tc
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
