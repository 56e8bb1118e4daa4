// Package main implements the grader executable, which runs gtest subtests
// listed in a rubric and prints a JSON score report.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/google/subcommands"
)

func doMain() int {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(newGradeCmd(os.Stdout), "")
	subcommands.Register(newCheckCmd(os.Stdout), "")
	subcommands.Register(&importCmd{}, "database")
	subcommands.Register(&migrateCmd{}, "database")

	flag.Parse()
	return int(subcommands.Execute(context.Background()))
}

func main() {
	os.Exit(doMain())
}
