// Package config parses and validates hypbound's configuration. Values come
// from command-line flags, then HYPBOUND_* environment variables, then the
// defaults below. Batch files of named problems are loaded from YAML or TOML.
package config

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	apperrors "github.com/agbru/hypbound/internal/errors"
	"github.com/agbru/hypbound/internal/hypgeom"
	"github.com/agbru/hypbound/internal/logging"
	"github.com/agbru/hypbound/internal/mag"
)

// EnvPrefix prefixes every environment variable read by hypbound.
const EnvPrefix = "HYPBOUND_"

// Default configuration values.
const (
	DefaultR           = 1
	DefaultZ           = "1"
	DefaultTK          = "1"
	DefaultTol         = 53
	DefaultTimeout     = time.Minute
	DefaultPort        = "8080"
	DefaultLogLevel    = "warn"
	DefaultCacheSize   = 1024
	DefaultConcurrency = 4
)

// AppConfig holds every setting of a hypbound run.
type AppConfig struct {
	// K, A, B and R are the series constants; see hypgeom.Shape.
	K, A, B int64
	R       int
	// Z is the decimal text of the evaluation point bound |z|.
	Z string
	// TK is the decimal text of the bound on |T(K)|.
	TK string
	// Tol is the binary tolerance exponent.
	Tol int64
	// MaxIterations caps the solver's refinement steps.
	MaxIterations int64
	// Timeout limits a whole CLI or batch run.
	Timeout time.Duration

	JSONOutput bool
	Quiet      bool
	NoColor    bool

	// BatchFile names a YAML or TOML file of problems to solve concurrently.
	BatchFile string
	// Concurrency bounds the number of problems solved at once in batch mode.
	Concurrency int

	ServerMode bool
	Port       string
	// CacheSize is the number of results the server keeps; 0 disables caching.
	CacheSize int

	LogLevel string
	// Completion names a shell to print a completion script for.
	Completion string
}

// Shape returns the series constants as a hypgeom.Shape.
func (c AppConfig) Shape() hypgeom.Shape {
	return hypgeom.Shape{K: c.K, A: c.A, B: c.B, R: c.R}
}

// Problem converts the single-problem settings into a hypgeom.Problem. Z and
// TK are rounded up.
func (c AppConfig) Problem() (hypgeom.Problem, error) {
	z, err := mag.ParseDecimal(c.Z)
	if err != nil {
		return hypgeom.Problem{}, apperrors.NewConfigError("invalid -z value: %v", err)
	}
	tk, err := mag.ParseDecimal(c.TK)
	if err != nil {
		return hypgeom.Problem{}, apperrors.NewConfigError("invalid -tk value: %v", err)
	}
	return hypgeom.Problem{Shape: c.Shape(), TK: tk, Z: z, Tol: c.Tol}, nil
}

// SolverOptions returns the hypgeom options implied by the configuration.
func (c AppConfig) SolverOptions() []hypgeom.Option {
	return []hypgeom.Option{hypgeom.WithMaxIterations(c.MaxIterations)}
}

// Validate checks the settings that do not depend on the series itself.
// Shape constraints are left to the solver, which reports them as
// precondition errors.
func (c AppConfig) Validate() error {
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout value must be strictly positive")
	}
	if c.MaxIterations <= 0 {
		return apperrors.NewConfigError("iteration ceiling must be strictly positive: %d", c.MaxIterations)
	}
	if c.Concurrency <= 0 {
		return apperrors.NewConfigError("concurrency must be strictly positive: %d", c.Concurrency)
	}
	if c.CacheSize < 0 {
		return apperrors.NewConfigError("cache size cannot be negative: %d", c.CacheSize)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return apperrors.NewConfigError("%v", err)
	}
	if c.BatchFile == "" && !c.ServerMode {
		if _, err := c.Problem(); err != nil {
			return err
		}
	}
	return nil
}

// ParseConfig parses args (without the program name) into an AppConfig,
// applies environment overrides and validates the result. Usage and parse
// errors are written to errorWriter. A validation failure is returned as an
// apperrors.ConfigError.
func ParseConfig(programName string, args []string, errorWriter io.Writer) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)

	config := AppConfig{}
	fs.Int64Var(&config.K, "K", 0, "Index of the term whose bound is known.")
	fs.Int64Var(&config.A, "A", 0, "Shift A of the rising-factorial ratio.")
	fs.Int64Var(&config.B, "B", 0, "Shift B of the rising-factorial ratio.")
	fs.IntVar(&config.R, "r", DefaultR, "Power r of the factorial in the term denominator.")
	fs.StringVar(&config.Z, "z", DefaultZ, "Upper bound on |z| (decimal, fraction or 'inf').")
	fs.StringVar(&config.TK, "tk", DefaultTK, "Upper bound on |T(K)|.")
	fs.Int64Var(&config.Tol, "tol", DefaultTol, "Binary tolerance: the tail must be below 2^-tol.")
	fs.Int64Var(&config.MaxIterations, "max-iter", hypgeom.DefaultMaxIterations, "Maximum number of refinement steps.")
	fs.DurationVar(&config.Timeout, "timeout", DefaultTimeout, "Maximum execution time.")
	fs.BoolVar(&config.JSONOutput, "json", false, "Output results in JSON format.")
	fs.BoolVar(&config.Quiet, "quiet", false, "Print only the term count and the bound.")
	fs.BoolVar(&config.Quiet, "q", false, "Quiet mode (shorthand).")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colored output (also respects NO_COLOR env var).")
	fs.StringVar(&config.BatchFile, "batch", "", "YAML or TOML file of named problems to solve.")
	fs.IntVar(&config.Concurrency, "concurrency", DefaultConcurrency, "Number of batch problems solved at once.")
	fs.BoolVar(&config.ServerMode, "server", false, "Start in HTTP server mode.")
	fs.StringVar(&config.Port, "port", DefaultPort, "Port to listen on in server mode.")
	fs.IntVar(&config.CacheSize, "cache-size", DefaultCacheSize, "Number of results cached by the server (0 disables).")
	fs.StringVar(&config.LogLevel, "log-level", DefaultLogLevel, "Log level: debug, info, warn or error.")
	fs.StringVar(&config.Completion, "completion", "", "Generate shell completion script (bash, zsh, fish, powershell).")

	setCustomUsage(fs)

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}

	applyEnvOverrides(&config, fs)

	config.LogLevel = strings.ToLower(config.LogLevel)
	if err := config.Validate(); err != nil {
		fmt.Fprintln(errorWriter, "Configuration error:", err)
		fs.Usage()
		return AppConfig{}, err
	}
	return config, nil
}
