// Package grader runs every rubric entry as a gtest subprocess and scores
// the results.
package grader

import (
	"context"
	"errors"
	"log"
	"path/filepath"
	"strings"
	"time"

	"autograder/internal/rubric"
)

// Defaults matching the autolab layout.
const (
	DefaultBuildDir   = "build/test"
	DefaultFilterFlag = "--gtest_filter"
)

// ExitFailure is the process exit code of a run with a failed subtest.
const ExitFailure = 1

// Runner starts one test executable and reports its exit status.
// A non-nil error means the process could not be run or waited for.
type Runner interface {
	Run(ctx context.Context, path string, args []string) (int, error)
}

// Options tune a Grader.
type Options struct {
	// BuildDir holds the test executables named by the rubric.
	BuildDir string
	// FilterFlag is the flag that restricts a binary to one test case.
	FilterFlag string
	// FailOnAnySubtestFailure makes ExitCode report ExitFailure when any
	// subtest failed. Without it every run exits 0.
	FailOnAnySubtestFailure bool
	// Timeout bounds each subtest when positive. A timed-out subtest fails.
	Timeout time.Duration
}

// Outcome is the result of running one rubric entry.
type Outcome struct {
	Entry    rubric.Entry
	Passed   bool
	ExitCode int
}

// Result is the outcome of a whole run.
type Result struct {
	Report    Report
	AllPassed bool
	Outcomes  []Outcome
}

// Grader runs rubric entries one at a time.
type Grader struct {
	runner Runner
	opts   Options
}

// New returns a Grader that starts processes through r.
func New(r Runner, opts Options) *Grader {
	if opts.BuildDir == "" {
		opts.BuildDir = DefaultBuildDir
	}
	if opts.FilterFlag == "" {
		opts.FilterFlag = DefaultFilterFlag
	}
	return &Grader{runner: r, opts: opts}
}

// Grade loads the rubric at path and runs it.
func (g *Grader) Grade(ctx context.Context, path string) (*Result, error) {
	entries, err := rubric.Load(path)
	if err != nil {
		return nil, err
	}
	return g.Run(ctx, entries), nil
}

// Run executes entries in order. Failures of individual subtests never
// abort the run; they are scored 0. An exec that is not a plain file name
// in the build dir fails without running.
func (g *Grader) Run(ctx context.Context, entries []rubric.Entry) *Result {
	res := &Result{Report: make(Report, len(entries)), AllPassed: true}
	for _, e := range entries {
		o := g.runEntry(ctx, e)
		if o.Passed {
			res.Report[e.Subtest] = e.Score
		} else {
			res.Report[e.Subtest] = Zero
			res.AllPassed = false
		}
		res.Outcomes = append(res.Outcomes, o)
	}
	return res
}

// ExitCode returns the process exit code for a run.
func (g *Grader) ExitCode(allPassed bool) int {
	if !allPassed && g.opts.FailOnAnySubtestFailure {
		return ExitFailure
	}
	return 0
}

// Command returns the executable path and arguments used for e.
func (g *Grader) Command(e rubric.Entry) (string, []string) {
	path := filepath.Join(g.opts.BuildDir, e.Exec)
	// Keep relative paths explicit so the binary is never searched on PATH.
	if !filepath.IsAbs(path) && !strings.HasPrefix(path, ".") {
		path = "." + string(filepath.Separator) + path
	}
	return path, []string{g.opts.FilterFlag + "=" + e.Selector()}
}

// plainName reports whether exec names a file directly inside the build dir.
func plainName(exec string) bool {
	return exec != "" && exec != "." && exec != ".." && filepath.Base(exec) == exec
}

func (g *Grader) runEntry(ctx context.Context, e rubric.Entry) Outcome {
	path, args := g.Command(e)
	if !plainName(e.Exec) {
		log.Printf("grader: %s: executable %q is outside %s", e.Selector(), e.Exec, g.opts.BuildDir)
		return Outcome{Entry: e, Passed: false, ExitCode: -1}
	}
	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}
	code, err := g.runner.Run(ctx, path, args)
	passed := err == nil && code == 0
	switch {
	case passed:
	case err != nil && g.opts.Timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded):
		log.Printf("grader: %s %s timed out after %v", path, e.Selector(), g.opts.Timeout)
	case err != nil:
		log.Printf("grader: %s %s: %v", path, e.Selector(), err)
	default:
		log.Printf("grader: %s %s exited with %d", path, e.Selector(), code)
	}
	return Outcome{Entry: e, Passed: passed, ExitCode: code}
}
