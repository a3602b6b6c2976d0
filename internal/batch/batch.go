// Package batch solves many independent tail-bound problems concurrently
// and reports their outcomes side by side.
package batch

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agbru/hypbound/internal/cli"
	"github.com/agbru/hypbound/internal/config"
	apperrors "github.com/agbru/hypbound/internal/errors"
	"github.com/agbru/hypbound/internal/hypgeom"
	"github.com/agbru/hypbound/internal/ui"
)

// Bounder computes one tail bound. *hypgeom.Solver implements it.
type Bounder interface {
	Bound(ctx context.Context, p hypgeom.Problem) (hypgeom.Result, error)
}

// BounderFunc adapts a function to Bounder.
type BounderFunc func(ctx context.Context, p hypgeom.Problem) (hypgeom.Result, error)

// Bound calls f(ctx, p).
func (f BounderFunc) Bound(ctx context.Context, p hypgeom.Problem) (hypgeom.Result, error) {
	return f(ctx, p)
}

// Outcome is the result of one problem of a batch.
type Outcome struct {
	Name     string
	Problem  hypgeom.Problem
	Result   hypgeom.Result
	Duration time.Duration
	Err      error
}

// Run solves every problem with b, at most limit at a time (limit <= 0
// means no limit). Outcomes are returned in input order. A failing problem
// never cancels the others; only ctx does.
func Run(ctx context.Context, b Bounder, problems []config.NamedProblem, limit int) []Outcome {
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	outcomes := make([]Outcome, len(problems))
	for i, np := range problems {
		g.Go(func() error {
			start := time.Now()
			res, err := b.Bound(ctx, np.Problem)
			outcomes[i] = Outcome{
				Name: np.Name, Problem: np.Problem, Result: res, Duration: time.Since(start), Err: err,
			}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// Summarize writes a table of outcomes to out and returns the exit code:
// success when every problem converged, otherwise the code of the first
// failure in input order.
func Summarize(outcomes []Outcome, out io.Writer) int {
	var firstErr error
	var failed int

	fmt.Fprintf(out, "\n--- Batch Summary ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "%sProblem%s\t%sShape%s\t%sTerms%s\t%sBound%s\t%sDuration%s\t%sStatus%s\n",
		ui.Under(), ui.Reset(), ui.Under(), ui.Reset(), ui.Under(), ui.Reset(),
		ui.Under(), ui.Reset(), ui.Under(), ui.Reset(), ui.Under(), ui.Reset())

	for _, o := range outcomes {
		terms, bound := "-", "-"
		var status string
		if o.Err != nil {
			failed++
			if firstErr == nil {
				firstErr = o.Err
			}
			color := ui.Bad()
			if apperrors.IsRetriable(o.Err) {
				color = ui.Warn()
			}
			status = fmt.Sprintf("%sFailure (%v)%s", color, o.Err, ui.Reset())
		} else {
			terms = fmt.Sprintf("%d", o.Result.N)
			bound = cli.FormatBound(o.Result.Error)
			status = fmt.Sprintf("%sConverged%s", ui.Good(), ui.Reset())
		}
		duration := cli.FormatExecutionDuration(o.Duration)
		if o.Duration == 0 {
			duration = "< 1µs"
		}
		fmt.Fprintf(tw, "%s%s%s\t%s\t%s%s%s\t%s\t%s%s%s\t%s\n",
			ui.Accent(), o.Name, ui.Reset(),
			o.Problem.Shape,
			ui.Value(), terms, ui.Reset(),
			bound,
			ui.Warn(), duration, ui.Reset(),
			status)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(out, "Warning: failed to flush tabwriter: %v\n", err)
	}

	if firstErr != nil {
		fmt.Fprintf(out, "\nGlobal Status: Failure. %d of %d problems did not converge.\n", failed, len(outcomes))
		return apperrors.HandleBoundError(firstErr, 0, out, cli.CLIColorProvider{})
	}
	fmt.Fprintf(out, "\nGlobal Status: Success. All %d problems converged.\n", len(outcomes))
	return apperrors.ExitSuccess
}

// JSONResults converts outcomes to their JSON form, in order.
func JSONResults(outcomes []Outcome) []cli.JSONResult {
	out := make([]cli.JSONResult, len(outcomes))
	for i, o := range outcomes {
		out[i] = cli.NewJSONResult(o.Name, o.Problem, o.Result, o.Duration, o.Err)
	}
	return out
}
