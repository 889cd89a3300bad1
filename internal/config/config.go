package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"seqplan/internal/emit"
)

// Config holds all seqplan configuration. The run settings at the top are
// normally set from command-line flags; the sections below come from the
// YAML file.
type Config struct {
	// Run settings
	Instance       string `yaml:"instance,omitempty"`
	AssignmentFile string `yaml:"assignment_file,omitempty"`
	Parallel       bool   `yaml:"parallel"`
	Debug          bool   `yaml:"debug"`
	FileOutput     bool   `yaml:"file_output"`
	Benchmark      bool   `yaml:"benchmark"`
	Verify         bool   `yaml:"verify"`

	// Solver engine
	Solver SolverConfig `yaml:"solver"`

	// Planning encodings
	Encodings EncodingsConfig `yaml:"encodings"`

	// Benchmark side-channel
	Bench BenchConfig `yaml:"bench"`

	// Input watcher
	Watch WatchConfig `yaml:"watch"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// SolverConfig configures the clingo process.
type SolverConfig struct {
	Binary    string            `yaml:"binary"`
	Args      []string          `yaml:"args"`
	Constants map[string]string `yaml:"constants"` // passed as -c name=value, override #const
}

// EncodingsConfig names the two planning encodings.
type EncodingsConfig struct {
	Sequential string `yaml:"sequential"`
	Parallel   string `yaml:"parallel"`
}

// BenchConfig configures benchmark output.
type BenchConfig struct {
	TimeFile   string `yaml:"time_file"`
	LengthFile string `yaml:"length_file"`
	HistoryDB  string `yaml:"history_db"` // optional sqlite run history
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Solver: SolverConfig{
			Binary: "clingo",
			Args:   []string{"-Wnone"},
		},
		Encodings: EncodingsConfig{
			Sequential: "./sequential_encodings/encoding.lp",
			Parallel:   "./parallel_encodings/encoding.lp",
		},
		Bench: BenchConfig{
			TimeFile:   "./time.txt",
			LengthFile: "./length.txt",
		},
		Watch: WatchConfig{
			Debounce: "500ms",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, &ConfigError{Path: path, Reason: "failed to parse config", Err: err}
			}
		case os.IsNotExist(err):
			// defaults
		default:
			return nil, &ConfigError{Path: path, Reason: "failed to read config", Err: err}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if bin := os.Getenv("SEQPLAN_CLINGO"); bin != "" {
		c.Solver.Binary = bin
	}
	if path := os.Getenv("SEQPLAN_SEQUENTIAL_ENCODING"); path != "" {
		c.Encodings.Sequential = path
	}
	if path := os.Getenv("SEQPLAN_PARALLEL_ENCODING"); path != "" {
		c.Encodings.Parallel = path
	}
	if path := os.Getenv("SEQPLAN_HISTORY_DB"); path != "" {
		c.Bench.HistoryDB = path
	}
}

// Mode returns "parallel" or "sequential".
func (c *Config) Mode() string {
	if c.Parallel {
		return "parallel"
	}
	return "sequential"
}

// AssignmentPath returns the order assignment source. Without an explicit
// file, the instance's extension is replaced by "o.lp": foo.lp -> fooo.lp.
func (c *Config) AssignmentPath() string {
	if c.AssignmentFile != "" {
		return c.AssignmentFile
	}
	return DerivedAssignmentPath(c.Instance)
}

// DerivedAssignmentPath is the default assignment file for instance.
func DerivedAssignmentPath(instance string) string {
	return strings.TrimSuffix(instance, filepath.Ext(instance)) + "o.lp"
}

// OutputPath is the plan file written with --file-output.
func (c *Config) OutputPath() string {
	return emit.OutputPath(c.Instance, c.Parallel)
}

// Encoding returns the encoding for the configured mode.
func (c *Config) Encoding() string {
	if c.Parallel {
		return c.Encodings.Parallel
	}
	return c.Encodings.Sequential
}

// WatchDebounce parses the watch debounce interval.
func (c *Config) WatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// Validate checks that every input the run needs is readable. It runs before
// any solving.
func (c *Config) Validate() error {
	if c.Instance == "" {
		return &ConfigError{Reason: "instance path required"}
	}
	if err := checkReadable(c.Instance, "instance"); err != nil {
		return err
	}
	if err := checkReadable(c.Encoding(), c.Mode()+" encoding"); err != nil {
		return err
	}
	if !c.Parallel {
		if err := checkReadable(c.AssignmentPath(), "order assignment"); err != nil {
			return err
		}
	}
	if c.Solver.Binary == "" {
		return &ConfigError{Reason: "solver binary not configured"}
	}
	if _, err := time.ParseDuration(c.Watch.Debounce); c.Watch.Debounce != "" && err != nil {
		return &ConfigError{Reason: "invalid watch debounce", Err: err}
	}
	return nil
}

func checkReadable(path, what string) error {
	f, err := os.Open(path)
	if err != nil {
		return &ConfigError{Path: path, Reason: what + " not readable", Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return &ConfigError{Path: path, Reason: what + " not readable", Err: err}
	}
	if info.IsDir() {
		return &ConfigError{Path: path, Reason: what + " is a directory"}
	}
	return nil
}

// ConfigError is a missing or unreadable input, or an invalid setting.
type ConfigError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := e.Reason
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return "configuration: " + msg
}

func (e *ConfigError) Unwrap() error { return e.Err }
