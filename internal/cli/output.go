package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/agbru/hypbound/internal/hypgeom"
	"github.com/agbru/hypbound/internal/mag"
	"github.com/agbru/hypbound/internal/ui"
)

// JSONResult is the machine-readable form of one computation. Error holds
// the exact bound in the magnitude text encoding; ErrorApprox is a
// six-digit decimal rendering for humans.
type JSONResult struct {
	Name        string   `json:"name,omitempty"`
	Shape       string   `json:"shape"`
	Tol         int64    `json:"tol"`
	N           int64    `json:"n,omitempty"`
	Error       *mag.Mag `json:"error,omitempty"`
	ErrorApprox string   `json:"error_approx,omitempty"`
	Seed        int64    `json:"seed,omitempty"`
	Iterations  int64    `json:"iterations,omitempty"`
	Duration    string   `json:"duration"`
	Failure     string   `json:"failure,omitempty"`
}

// NewJSONResult builds the JSON form of a computation. On failure only the
// inputs, the duration and the failure text are set.
func NewJSONResult(name string, p hypgeom.Problem, res hypgeom.Result, d time.Duration, err error) JSONResult {
	jr := JSONResult{
		Name:     name,
		Shape:    p.Shape.String(),
		Tol:      p.Tol,
		Duration: d.String(),
	}
	if err != nil {
		jr.Failure = err.Error()
		return jr
	}
	e := res.Error
	jr.N = res.N
	jr.Error = &e
	jr.ErrorApprox = FormatBound(e)
	jr.Seed = res.Seed
	jr.Iterations = res.Iterations
	return jr
}

// WriteJSON writes v as indented JSON.
func WriteJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// FormatBound renders a magnitude as a short decimal. Values outside
// float64's range are shown as a power of two.
func FormatBound(m mag.Mag) string {
	switch {
	case m.IsInf():
		return "inf"
	case m.IsZero():
		return "0"
	case m.Exp() < -1000 || m.Exp() > 1000:
		return fmt.Sprintf("<= 2^%d", m.Exp())
	}
	return strconv.FormatFloat(m.Float64(), 'g', 6, 64)
}

// DisplayQuietResult prints "n bound" on one line, for scripts.
func DisplayQuietResult(out io.Writer, res hypgeom.Result) {
	fmt.Fprintf(out, "%d %s\n", res.N, FormatBound(res.Error))
}

// DisplayResult prints the full report of a successful computation.
func DisplayResult(out io.Writer, p hypgeom.Problem, res hypgeom.Result, duration time.Duration) {
	fmt.Fprintf(out, "\n%s--- Tail bound ---%s\n", ui.Strong(), ui.Reset())
	fmt.Fprintf(out, "Terms to sum      : %s%d%s\n", ui.Value(), res.N, ui.Reset())
	fmt.Fprintf(out, "Tail bound        : %s%s%s (below 2^-%d)\n", ui.Good(), FormatBound(res.Error), ui.Reset(), p.Tol)
	fmt.Fprintf(out, "Starting index    : %s%d%s\n", ui.Muted(), res.Seed, ui.Reset())
	fmt.Fprintf(out, "Refinement steps  : %s%d%s\n", ui.Muted(), res.Iterations, ui.Reset())
	d := FormatExecutionDuration(duration)
	if duration == 0 {
		d = "< 1µs"
	}
	fmt.Fprintf(out, "Computation time  : %s%s%s\n", ui.Warn(), d, ui.Reset())
}
