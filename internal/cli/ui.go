// Package cli renders tail-bound computations for the terminal: the
// execution banner, a spinner with a convergence bar while the solver runs,
// and the final report in text, quiet or JSON form.
package cli

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/hypbound/internal/hypgeom"
)

// FormatExecutionDuration shows microseconds below a millisecond,
// milliseconds below a second and time.Duration's own form otherwise.
//
// Parameters:
//   - d: The elapsed time.
//
// Returns:
//   - string: The duration, e.g. "850µs", "12ms" or "1.5s".
func FormatExecutionDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	} else if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.String()
}

const (
	// ProgressRefreshRate is how often the spinner suffix is redrawn.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth is the width in characters of the convergence bar.
	ProgressBarWidth = 40
)

// Spinner abstracts the terminal spinner so DisplayProgress can be tested.
type Spinner interface {
	Start()
	Stop()
	UpdateSuffix(suffix string)
}

// realSpinner adapts *spinner.Spinner to Spinner.
type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start() { rs.s.Start() }
func (rs *realSpinner) Stop()  { rs.s.Stop() }

func (rs *realSpinner) UpdateSuffix(suffix string) {
	rs.s.Lock()
	rs.s.Suffix = suffix
	rs.s.Unlock()
}

var newSpinner = func(options ...spinner.Option) Spinner {
	s := spinner.New(spinner.CharSets[11], ProgressRefreshRate, options...)
	return &realSpinner{s}
}

// progressBar renders progress in [0, 1] as a bar of the given length.
func progressBar(progress float64, length int) string {
	progress = min(max(progress, 0), 1)
	count := int(progress * float64(length))
	var builder strings.Builder
	builder.Grow(length * 3)
	for i := 0; i < length; i++ {
		if i < count {
			builder.WriteRune('█')
		} else {
			builder.WriteRune('░')
		}
	}
	return builder.String()
}

// convergence maps a tail estimate to the fraction of the way from 1 down
// to the target 2^-tol, on a log scale.
func convergence(tail float64, tol int64) float64 {
	if tail <= 0 {
		return 1
	}
	if tol <= 0 {
		if math.Log2(tail) < float64(-tol) {
			return 1
		}
		return 0
	}
	return min(max(-math.Log2(tail)/float64(tol), 0), 1)
}

// DisplayProgress shows a spinner and a convergence bar fed by updates until
// the channel is closed, then prints a final line. It is meant to run in
// its own goroutine and calls wg.Done on return.
//
// Parameters:
//   - wg: Signalled when the display has finished.
//   - updates: Refinement steps from a ChannelObserver.
//   - tol: The requested tolerance exponent, used to scale the bar.
//   - out: Where the progress line is drawn.
func DisplayProgress(wg *sync.WaitGroup, updates <-chan hypgeom.ProgressUpdate, tol int64, out io.Writer) {
	defer wg.Done()

	s := newSpinner(spinner.WithWriter(out))
	s.Start()
	stopped := false
	defer func() {
		if !stopped {
			s.Stop()
		}
	}()

	ticker := time.NewTicker(ProgressRefreshRate)
	defer ticker.Stop()

	var last hypgeom.ProgressUpdate
	seen := false
	for {
		select {
		case u, ok := <-updates:
			if !ok {
				s.Stop()
				stopped = true
				if seen {
					fmt.Fprintf(out, "Converging: [%s] n=%d\n", progressBar(convergence(last.Tail, tol), ProgressBarWidth), last.N)
				}
				return
			}
			last, seen = u, true
		case <-ticker.C:
			if !seen {
				continue
			}
			p := convergence(last.Tail, tol)
			s.UpdateSuffix(fmt.Sprintf(" Converging: %6.2f%% [%s] n=%d", p*100, progressBar(p, ProgressBarWidth), last.N))
		}
	}
}
