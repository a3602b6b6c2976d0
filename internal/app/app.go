package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/agbru/hypbound/internal/batch"
	"github.com/agbru/hypbound/internal/cli"
	"github.com/agbru/hypbound/internal/config"
	apperrors "github.com/agbru/hypbound/internal/errors"
	"github.com/agbru/hypbound/internal/hypgeom"
	"github.com/agbru/hypbound/internal/logging"
	"github.com/agbru/hypbound/internal/server"
	"github.com/agbru/hypbound/internal/ui"
)

// logEvery is how many term indices pass between refinement log lines.
const logEvery = 1000

// Application is one hypbound invocation: a parsed configuration plus the
// writers it reports to.
type Application struct {
	// Config holds the parsed application configuration.
	Config config.AppConfig
	// ErrWriter receives diagnostics and log output (typically os.Stderr).
	ErrWriter io.Writer

	logger *logging.ZerologAdapter
}

// New parses args (args[0] is the program name) and returns a ready
// Application. Parse and validation failures are returned as is; use
// IsHelpError to tell a -help request apart.
func New(args []string, errWriter io.Writer) (*Application, error) {
	programName := "hypbound"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter)
	if err != nil {
		return nil, err
	}
	return &Application{Config: cfg, ErrWriter: errWriter}, nil
}

// Run dispatches to completion, server, batch or single-problem mode and
// returns the process exit code.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	if a.Config.Completion != "" {
		return a.runCompletion(out)
	}
	a.initLogger()
	ui.InitTheme(a.Config.NoColor, out)

	switch {
	case a.Config.ServerMode:
		return a.runServer()
	case a.Config.BatchFile != "":
		return a.runBatch(ctx, out)
	}
	return a.runBound(ctx, out)
}

func (a *Application) initLogger() {
	if a.logger != nil {
		return
	}
	level, err := logging.ParseLevel(a.Config.LogLevel)
	if err != nil {
		level, _ = logging.ParseLevel(config.DefaultLogLevel)
	}
	a.logger = logging.NewLogger(a.ErrWriter, "hypbound", level)
}

// solverOptions adds logging and step observers to the configured options.
func (a *Application) solverOptions() []hypgeom.Option {
	return append(a.Config.SolverOptions(), hypgeom.WithLogger(a.logger.Zerolog()))
}

func (a *Application) observers() hypgeom.Observer {
	subject := hypgeom.NewSubject()
	subject.Register(hypgeom.NewLoggingObserver(a.logger.Zerolog(), logEvery))
	subject.Register(hypgeom.NewMetricsObserver())
	return subject
}

// batchBounder solves each batch problem with its own observers, so that
// the logging throttle of one problem never suppresses another's steps.
func (a *Application) batchBounder() batch.Bounder {
	opts := a.solverOptions()
	return batch.BounderFunc(func(ctx context.Context, p hypgeom.Problem) (hypgeom.Result, error) {
		solver := hypgeom.NewSolver(append(opts[:len(opts):len(opts)], hypgeom.WithObserver(a.observers()))...)
		return solver.Bound(ctx, p)
	})
}

func (a *Application) runCompletion(out io.Writer) int {
	if err := cli.GenerateCompletion(out, a.Config.Completion); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error generating completion: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	return apperrors.ExitSuccess
}

func (a *Application) runServer() int {
	srv, err := server.NewServer(a.Config, server.WithLogger(a.logger))
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Server error: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	if err := srv.Start(); err != nil {
		fmt.Fprintf(a.ErrWriter, "Server error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// runBound solves the single problem described by the flags.
func (a *Application) runBound(ctx context.Context, out io.Writer) int {
	p, err := a.Config.Problem()
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "%v\n", err)
		return apperrors.ExitErrorConfig
	}

	ctx, lifecycle := SetupLifecycle(ctx, a.Config.Timeout)
	defer lifecycle.Cleanup()

	verbose := !a.Config.JSONOutput && !a.Config.Quiet
	if verbose {
		cli.PrintExecutionConfig(a.Config, p, out)
	}
	// The progress bar redraws in place, so it is only shown on a terminal.
	var progressOut io.Writer
	if verbose && ui.IsTerminal(out) {
		progressOut = out
	}

	res, duration, err := cli.Solve(ctx, p, progressOut, a.observers(), a.solverOptions()...)

	if a.Config.JSONOutput {
		if werr := cli.WriteJSON(out, cli.NewJSONResult("", p, res, duration, err)); werr != nil {
			fmt.Fprintf(a.ErrWriter, "Error writing JSON: %v\n", werr)
			return apperrors.ExitErrorGeneric
		}
		return exitCode(err)
	}
	if err != nil {
		errOut := out
		if a.Config.Quiet {
			errOut = a.ErrWriter
		}
		return apperrors.HandleBoundError(err, duration, errOut, cli.CLIColorProvider{})
	}
	if a.Config.Quiet {
		cli.DisplayQuietResult(out, res)
	} else {
		cli.DisplayResult(out, p, res, duration)
	}
	return apperrors.ExitSuccess
}

// runBatch solves every problem of the batch file concurrently.
func (a *Application) runBatch(ctx context.Context, out io.Writer) int {
	problems, err := config.LoadProblems(a.Config.BatchFile)
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "%v\n", err)
		return apperrors.ExitErrorConfig
	}

	ctx, lifecycle := SetupLifecycle(ctx, a.Config.Timeout)
	defer lifecycle.Cleanup()

	a.logger.Debug("batch started",
		logging.String("file", a.Config.BatchFile),
		logging.Int("problems", len(problems)),
		logging.Int("concurrency", a.Config.Concurrency))
	outcomes := batch.Run(ctx, a.batchBounder(), problems, a.Config.Concurrency)

	if !a.Config.JSONOutput {
		return batch.Summarize(outcomes, out)
	}
	if err := cli.WriteJSON(out, batch.JSONResults(outcomes)); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error writing JSON: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	for _, o := range outcomes {
		if o.Err != nil {
			return exitCode(o.Err)
		}
	}
	return apperrors.ExitSuccess
}

// exitCode maps err to an exit code without printing anything.
func exitCode(err error) int {
	return apperrors.HandleBoundError(err, 0, io.Discard, nil)
}

// IsHelpError reports whether err comes from a -help request, which
// should end the process successfully.
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
