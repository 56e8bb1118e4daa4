package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"autograder/internal/config"
	"autograder/internal/grader"
	"autograder/internal/rubric"
)

type passAll struct{ calls int }

func (p *passAll) Run(ctx context.Context, path string, args []string) (int, error) {
	p.calls++
	return 0, nil
}

func TestGradeDefaultRubric(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p1-rubric.csv")
	if err := os.WriteFile(path, []byte("exec,test,subtest,score\nt1,S,A,1\nt1,S,B,2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Rubric = path
	r := &passAll{}
	a := &App{Config: cfg, Grader: grader.New(r, Options(cfg)), Rubrics: &rubric.Resolver{}}

	res, err := a.Grade(context.Background(), "")
	if err != nil {
		t.Fatal("Grade failed: ", err)
	}
	if !res.AllPassed || len(res.Report) != 2 || r.calls != 2 {
		t.Errorf("Grade = %+v after %d runs; want 2 passing subtests", res, r.calls)
	}
	if code := a.ExitCode(res.AllPassed); code != 0 {
		t.Errorf("ExitCode = %d; want 0", code)
	}
}

func TestGradeLoadError(t *testing.T) {
	r := &passAll{}
	cfg := config.Default()
	a := &App{Config: cfg, Grader: grader.New(r, Options(cfg)), Rubrics: &rubric.Resolver{}}
	_, err := a.Grade(context.Background(), "db:p1")
	var le *rubric.LoadError
	if !errors.As(err, &le) {
		t.Errorf("Grade returned %v; want *rubric.LoadError", err)
	}
	if r.calls != 0 {
		t.Errorf("%d subtests ran despite the load error", r.calls)
	}
}

func TestNewExecOnly(t *testing.T) {
	cfg := config.Default()
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatal("New failed: ", err)
	}
	if a.DB != nil || a.Rubrics.Objects != nil || a.Rubrics.Store != nil {
		t.Error("New connected backends that were not configured")
	}
	if err := a.Close(); err != nil {
		t.Error("Close failed: ", err)
	}
}
