// Package app wires configuration into a ready grading service shared by
// the CLI, the HTTP API and the queue worker.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/jmoiron/sqlx"

	"autograder/internal/config"
	"autograder/internal/db"
	"autograder/internal/grader"
	"autograder/internal/rubric"
	"autograder/internal/runner"
	"autograder/internal/storage"
)

// App grades rubrics one at a time.
type App struct {
	Config  config.Config
	Grader  *grader.Grader
	Rubrics *rubric.Resolver
	DB      *sqlx.DB

	mu      sync.Mutex // serializes gradings
	closers []func() error
}

// New connects the backends cfg names. Object storage and the database are
// optional; without them s3:// and db: rubric references fail to load.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{Config: cfg, Rubrics: &rubric.Resolver{}}

	r, closeRunner, err := runner.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeRunner)
	a.Grader = grader.New(r, Options(cfg))

	if cfg.S3.Bucket != "" {
		s3c, err := storage.New(ctx, cfg.S3)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("object storage: %w", err)
		}
		a.Rubrics.Objects = s3c
	}
	if cfg.DatabaseURL != "" {
		dbx, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("database: %w", err)
		}
		a.DB = dbx
		a.Rubrics.Store = &db.Store{DB: dbx}
		a.closers = append(a.closers, dbx.Close)
	}
	return a, nil
}

// Options translates cfg into grader options.
func Options(cfg config.Config) grader.Options {
	return grader.Options{
		BuildDir:                cfg.BuildDir,
		FilterFlag:              cfg.FilterFlag,
		FailOnAnySubtestFailure: cfg.FailOnAnySubtestFailure,
		Timeout:                 cfg.Timeout,
	}
}

// Grade loads the rubric ref (the configured rubric when empty) and runs
// it. Concurrent callers wait for each other.
func (a *App) Grade(ctx context.Context, ref string) (*grader.Result, error) {
	if ref == "" {
		ref = a.Config.Rubric
	}
	entries, err := a.Rubrics.Load(ctx, ref)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	log.Printf("grader: running %d subtests from %s", len(entries), ref)
	res := a.Grader.Run(ctx, entries)
	s := grader.Summarize(res)
	log.Printf("grader: %s: %g/%g points, %d passed, %d failed", ref, s.Earned, s.Possible, s.Passed, s.Failed)
	return res, nil
}

// ExitCode returns the process exit code for a run.
func (a *App) ExitCode(allPassed bool) int {
	return a.Grader.ExitCode(allPassed)
}

// Close releases every backend.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
