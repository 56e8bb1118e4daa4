package main

import (
	"flag"
	"fmt"
	"strconv"
	"time"

	"autograder/internal/config"
)

// configFlags holds the flags shared by every subcommand that reads a
// rubric. Flags left unset keep the value from the config file or the
// environment.
type configFlags struct {
	path string

	buildDir   string
	filterFlag string
	runner     string
	image      string
	workdir    string
	failOnAny  boolFlag
	timeout    string
}

// boolFlag remembers whether it was set so it can override config.
type boolFlag struct {
	set bool
	val bool
}

func (b *boolFlag) String() string   { return fmt.Sprint(b.val) }
func (b *boolFlag) IsBoolFlag() bool { return true }
func (b *boolFlag) Set(s string) error {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	b.set, b.val = true, v
	return nil
}

func (c *configFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.path, "config", "", "YAML config file")
	f.StringVar(&c.buildDir, "builddir", "", "directory holding the test executables (default build/test)")
	f.StringVar(&c.filterFlag, "filterflag", "", "flag selecting one test case (default --gtest_filter)")
	f.StringVar(&c.runner, "runner", "", `where tests run: "exec" or "docker"`)
	f.StringVar(&c.image, "image", "", "docker image for -runner=docker")
	f.StringVar(&c.workdir, "workdir", "", "working directory of the tests")
	f.Var(&c.failOnAny, "failonfailure", "exit 1 when any subtest fails (default true)")
	f.StringVar(&c.timeout, "timeout", "", "per-subtest timeout, e.g. 2m (default none)")
}

// load reads the config and applies flags on top of it.
func (c *configFlags) load() (config.Config, error) {
	cfg, err := config.Load(c.path)
	if err != nil {
		return cfg, err
	}
	for dst, v := range map[*string]string{
		&cfg.BuildDir:    c.buildDir,
		&cfg.FilterFlag:  c.filterFlag,
		&cfg.Runner:      c.runner,
		&cfg.DockerImage: c.image,
		&cfg.Workdir:     c.workdir,
	} {
		if v != "" {
			*dst = v
		}
	}
	if c.failOnAny.set {
		cfg.FailOnAnySubtestFailure = c.failOnAny.val
	}
	if c.timeout != "" {
		d, err := time.ParseDuration(c.timeout)
		if err != nil {
			return cfg, fmt.Errorf("-timeout: %w", err)
		}
		cfg.Timeout = d
	}
	return cfg, cfg.Validate()
}
