package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"text/tabwriter"

	"github.com/google/subcommands"

	"autograder/internal/app"
	"autograder/internal/config"
	"autograder/internal/rubric"
)

// checkCmd implements subcommands.Command to validate a rubric without
// running anything.
type checkCmd struct {
	cfg    configFlags
	stdout io.Writer
}

func newCheckCmd(stdout io.Writer) *checkCmd {
	return &checkCmd{stdout: stdout}
}

func (*checkCmd) Name() string     { return "check" }
func (*checkCmd) Synopsis() string { return "validate a rubric and list its commands" }
func (*checkCmd) Usage() string {
	return `Usage: check [flag]... [rubric]

Description:
    Loads the rubric and prints the command each row would run with its
    points, followed by the total. No test is executed.

Flag:
`
}

func (cc *checkCmd) SetFlags(f *flag.FlagSet) {
	cc.cfg.SetFlags(f)
}

func (cc *checkCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() > 1 {
		log.Print("Too many arguments.\n\n" + cc.Usage())
		return subcommands.ExitUsageError
	}
	cfg, err := cc.cfg.load()
	if err != nil {
		log.Print("Bad configuration: ", err)
		return subcommands.ExitUsageError
	}
	if f.NArg() > 0 {
		cfg.Rubric = f.Arg(0)
	}
	// Only rubric backends are needed; never start a docker client here.
	cfg.Runner = config.RunnerExec

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Print("ERROR: ", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	entries, err := a.Rubrics.Load(ctx, cfg.Rubric)
	if err != nil {
		log.Print("ERROR: ", err)
		return subcommands.ExitFailure
	}
	if err := printEntries(cc.stdout, a, entries); err != nil {
		log.Print("Failed to write entries: ", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func printEntries(w io.Writer, a *app.App, entries []rubric.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	// Repeated subtest names count once, with their last score.
	last := make(map[string]float64)
	for _, e := range entries {
		path, args := a.Grader.Command(e)
		fmt.Fprintf(tw, "%s\t%s %s\t%s\n", e.Subtest, path, args[0], e.Score)
		pts, _ := e.Score.Float64()
		last[e.Subtest] = pts
	}
	var total float64
	for _, pts := range last {
		total += pts
	}
	fmt.Fprintf(tw, "total\t%d subtests\t%g\n", len(last), total)
	return tw.Flush()
}
