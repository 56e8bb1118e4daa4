// Package config holds grader settings. Values come from built-in defaults,
// then an optional YAML file, then environment variables; commands apply
// their flags last.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

// Runner kinds.
const (
	RunnerExec   = "exec"
	RunnerDocker = "docker"
)

// DefaultRubric is where autolab places the project rubric.
const DefaultRubric = "./autolab_scripts/p1-rubric.csv"

// Config is the full set of grader settings.
type Config struct {
	Rubric                  string        `yaml:"rubric"`
	BuildDir                string        `yaml:"build_dir"`
	FilterFlag              string        `yaml:"filter_flag"`
	FailOnAnySubtestFailure bool          `yaml:"fail_on_any_subtest_failure"`
	Timeout                 time.Duration `yaml:"timeout"`

	Runner      string `yaml:"runner"`
	DockerImage string `yaml:"docker_image"`
	Workdir     string `yaml:"workdir"`

	ListenAddr  string `yaml:"listen_addr"`
	APIToken    string `yaml:"api_token"`
	DatabaseURL string `yaml:"database_url"`
	RedisAddr   string `yaml:"redis_addr"`
	S3          S3     `yaml:"s3"`
}

// S3 locates the object store holding rubrics.
type S3 struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		Rubric:                  DefaultRubric,
		BuildDir:                "build/test",
		FilterFlag:              "--gtest_filter",
		FailOnAnySubtestFailure: true,
		Runner:                  RunnerExec,
		Workdir:                 ".",
		ListenAddr:              ":8000",
		S3:                      S3{Region: "us-east-1"},
	}
}

// Load returns the defaults overlaid with the YAML file at path (skipped
// when path is empty) and then with the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.UnmarshalStrict(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	switch c.Runner {
	case RunnerExec:
	case RunnerDocker:
		if c.DockerImage == "" {
			return fmt.Errorf("runner %q needs docker_image", c.Runner)
		}
	default:
		return fmt.Errorf("unknown runner %q", c.Runner)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("negative timeout %v", c.Timeout)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"GRADER_RUBRIC":       &c.Rubric,
		"GRADER_BUILD_DIR":    &c.BuildDir,
		"GRADER_FILTER_FLAG":  &c.FilterFlag,
		"GRADER_RUNNER":       &c.Runner,
		"GRADER_DOCKER_IMAGE": &c.DockerImage,
		"GRADER_WORKDIR":      &c.Workdir,
		"GRADER_LISTEN_ADDR":  &c.ListenAddr,
		"API_TOKEN":           &c.APIToken,
		"DATABASE_URL":        &c.DatabaseURL,
		"REDIS_ADDR":          &c.RedisAddr,
		"MINIO_ENDPOINT":      &c.S3.Endpoint,
		"MINIO_BUCKET":        &c.S3.Bucket,
		"MINIO_ACCESS_KEY":    &c.S3.AccessKey,
		"MINIO_SECRET_KEY":    &c.S3.SecretKey,
	}
	for k, p := range strs {
		if v, ok := lookup(k); ok && v != "" {
			*p = v
		}
	}
	if v, ok := lookup("GRADER_FAIL_ON_ANY_SUBTEST_FAILURE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("GRADER_FAIL_ON_ANY_SUBTEST_FAILURE: %w", err)
		}
		c.FailOnAnySubtestFailure = b
	}
	if v, ok := lookup("GRADER_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("GRADER_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	return nil
}
