// Package runner starts test executables for the grader, either as local
// child processes or inside a docker container.
package runner

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
)

// Exec runs executables as child processes of the grader.
type Exec struct {
	// Dir is the working directory of the child. Empty means the grader's.
	Dir string
	// Stdout and Stderr default to the grader's own streams.
	Stdout io.Writer
	Stderr io.Writer
}

// Run starts path with args and waits for it. A process that ran and
// exited non-zero is not an error; only failures to start or wait are.
func (r *Exec) Run(ctx context.Context, path string, args []string) (int, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = r.Dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = orDefault(r.Stdout, os.Stdout)
	cmd.Stderr = orDefault(r.Stderr, os.Stderr)

	err := cmd.Run()
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		if ctx.Err() != nil {
			return ee.ExitCode(), ctx.Err()
		}
		return ee.ExitCode(), nil
	}
	if err != nil {
		return -1, err
	}
	return 0, nil
}

func orDefault(w, def io.Writer) io.Writer {
	if w == nil {
		return def
	}
	return w
}
