package cli

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/agbru/hypbound/internal/config"
	"github.com/agbru/hypbound/internal/hypgeom"
	"github.com/agbru/hypbound/internal/ui"
)

// ProgressBufferSize is the capacity of the channel between the solver and
// the progress display. Updates beyond it are dropped, never blocking the
// solver.
const ProgressBufferSize = 64

// PrintExecutionConfig displays the problem and the run limits.
func PrintExecutionConfig(cfg config.AppConfig, p hypgeom.Problem, out io.Writer) {
	fmt.Fprintf(out, "--- Execution Configuration ---\n")
	fmt.Fprintf(out, "Bounding the tail of %s%s%s with |z| <= %s%s%s, |T(K)| <= %s%s%s.\n",
		ui.Accent(), p.Shape, ui.Reset(),
		ui.Accent(), FormatBound(p.Z), ui.Reset(),
		ui.Accent(), FormatBound(p.TK), ui.Reset())
	fmt.Fprintf(out, "Target: tail below %s2^-%d%s, at most %s%d%s steps, timeout %s%s%s.\n",
		ui.Value(), p.Tol, ui.Reset(),
		ui.Muted(), cfg.MaxIterations, ui.Reset(),
		ui.Warn(), cfg.Timeout, ui.Reset())
	fmt.Fprintf(out, "Environment: Go %s%s%s on %s/%s.\n",
		ui.Muted(), runtime.Version(), ui.Reset(), runtime.GOOS, runtime.GOARCH)
}

// Solve runs a solver built from opts on p, notifying observer (which may
// be nil) of every step. When progressOut is non-nil a spinner with a
// convergence bar is drawn on it while the solver runs.
func Solve(ctx context.Context, p hypgeom.Problem, progressOut io.Writer, observer hypgeom.Observer, opts ...hypgeom.Option) (hypgeom.Result, time.Duration, error) {
	if progressOut == nil {
		if observer != nil {
			opts = append(opts, hypgeom.WithObserver(observer))
		}
		start := time.Now()
		res, err := hypgeom.NewSolver(opts...).Bound(ctx, p)
		return res, time.Since(start), err
	}

	updates := make(chan hypgeom.ProgressUpdate, ProgressBufferSize)
	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go DisplayProgress(&displayWg, updates, p.Tol, progressOut)

	observers := hypgeom.NewSubject()
	observers.Register(hypgeom.NewChannelObserver(updates))
	if observer != nil {
		observers.Register(observer)
	}
	opts = append(opts, hypgeom.WithObserver(observers))

	start := time.Now()
	res, err := hypgeom.NewSolver(opts...).Bound(ctx, p)
	duration := time.Since(start)

	close(updates)
	displayWg.Wait()
	return res, duration, err
}
