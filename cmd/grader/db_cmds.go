package main

import (
	"context"
	"flag"
	"log"

	"github.com/google/subcommands"

	"autograder/internal/config"
	"autograder/internal/db"
	"autograder/internal/migrations"
	"autograder/internal/rubric"
)

// importCmd implements subcommands.Command to copy a CSV rubric into
// Postgres, where "db:<name>" references find it.
type importCmd struct {
	configPath string
	name       string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "store a rubric in the database" }
func (*importCmd) Usage() string {
	return `Usage: import -name <name> [flag]... <rubric.csv>

Description:
    Validates the rubric and replaces the database rubric <name> with its
    rows. Requires DATABASE_URL.

Flag:
`
}

func (ic *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&ic.configPath, "config", "", "YAML config file")
	f.StringVar(&ic.name, "name", "", "rubric name used in db:<name>")
}

func (ic *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if ic.name == "" || f.NArg() != 1 {
		log.Print("Need -name and one rubric file.\n\n" + ic.Usage())
		return subcommands.ExitUsageError
	}
	cfg, err := config.Load(ic.configPath)
	if err != nil {
		log.Print("Bad configuration: ", err)
		return subcommands.ExitUsageError
	}
	if cfg.DatabaseURL == "" {
		log.Print("DATABASE_URL is not set")
		return subcommands.ExitUsageError
	}
	entries, err := rubric.Load(f.Arg(0))
	if err != nil {
		log.Print("ERROR: ", err)
		return subcommands.ExitFailure
	}
	dbx, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Print("ERROR: ", err)
		return subcommands.ExitFailure
	}
	defer dbx.Close()

	store := &db.Store{DB: dbx}
	if err := store.ReplaceRubric(ctx, ic.name, entries); err != nil {
		log.Print("ERROR: ", err)
		return subcommands.ExitFailure
	}
	log.Printf("imported %d rows as %s%s", len(entries), rubric.DBPrefix, ic.name)
	return subcommands.ExitSuccess
}

// migrateCmd implements subcommands.Command to create the rubric schema.
type migrateCmd struct {
	configPath string
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply database migrations" }
func (*migrateCmd) Usage() string {
	return `Usage: migrate [flag]...

Description:
    Applies the embedded schema migrations to DATABASE_URL.

Flag:
`
}

func (mc *migrateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&mc.configPath, "config", "", "YAML config file")
}

func (mc *migrateCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load(mc.configPath)
	if err != nil {
		log.Print("Bad configuration: ", err)
		return subcommands.ExitUsageError
	}
	if err := migrations.Run(cfg.DatabaseURL); err != nil {
		log.Print("ERROR: ", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
