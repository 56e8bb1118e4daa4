package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"

	"github.com/google/subcommands"

	"autograder/internal/app"
	"autograder/internal/rubric"
)

// gradeCmd implements subcommands.Command to run a rubric.
type gradeCmd struct {
	cfg    configFlags
	stdout io.Writer // where the JSON report goes
}

var _ = subcommands.Command(&gradeCmd{})

func newGradeCmd(stdout io.Writer) *gradeCmd {
	return &gradeCmd{stdout: stdout}
}

func (*gradeCmd) Name() string     { return "grade" }
func (*gradeCmd) Synopsis() string { return "run a rubric and print scores" }
func (*gradeCmd) Usage() string {
	return `Usage: grade [flag]... [rubric]

Description:
    Runs every subtest listed in the rubric as
    <builddir>/<exec> --gtest_filter=<test>.<subtest>
    and prints {"scores": {<subtest>: <points>, ...}} as one JSON line.
    A subtest that exits non-zero scores 0.

Rubric:
    A CSV file with exec, test, subtest and score columns, an
    s3://bucket/key object or db:<name>. Defaults to
    ./autolab_scripts/p1-rubric.csv.

Exit status:
    1 if any subtest failed and -failonfailure is true, 2 if the rubric
    could not be loaded, 0 otherwise.

Flag:
`
}

func (gc *gradeCmd) SetFlags(f *flag.FlagSet) {
	gc.cfg.SetFlags(f)
}

func (gc *gradeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() > 1 {
		log.Print("Too many arguments.\n\n" + gc.Usage())
		return subcommands.ExitUsageError
	}
	cfg, err := gc.cfg.load()
	if err != nil {
		log.Print("Bad configuration: ", err)
		return subcommands.ExitUsageError
	}
	if f.NArg() == 1 {
		cfg.Rubric = f.Arg(0)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Print("ERROR: ", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	res, err := a.Grade(ctx, cfg.Rubric)
	if err != nil {
		log.Print("ERROR: ", err)
		var le *rubric.LoadError
		if errors.As(err, &le) {
			return subcommands.ExitUsageError
		}
		return subcommands.ExitFailure
	}
	if err := res.Report.Write(gc.stdout); err != nil {
		log.Print("Failed to write report: ", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitStatus(a.ExitCode(res.AllPassed))
}
