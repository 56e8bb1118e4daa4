package runner

import (
	"context"

	"autograder/internal/config"
	"autograder/internal/grader"
)

// New builds the runner selected by cfg. The returned close function
// releases whatever the runner holds.
func New(ctx context.Context, cfg config.Config) (grader.Runner, func() error, error) {
	if cfg.Runner == config.RunnerDocker {
		d, err := NewDocker(ctx, cfg.DockerImage, cfg.Workdir)
		if err != nil {
			return nil, nil, err
		}
		return d, d.Close, nil
	}
	dir := cfg.Workdir
	if dir == "." {
		dir = ""
	}
	return &Exec{Dir: dir}, func() error { return nil }, nil
}
