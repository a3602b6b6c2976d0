package hypgeom

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	apperrors "github.com/agbru/hypbound/internal/errors"
	"github.com/agbru/hypbound/internal/mag"
)

const (
	// DefaultMaxIterations is the default ceiling on refinement steps.
	DefaultMaxIterations = 1 << 20
	// DefaultMaxTerms is the default ceiling on the term index.
	DefaultMaxTerms = math.MaxInt64 / 4
	// cancelCheckInterval is how many refinement steps run between context
	// checks.
	cancelCheckInterval = 256
)

var (
	solvesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hypbound_solves_total",
			Help: "Total number of tail bound computations by outcome",
		},
		[]string{"status"},
	)
	solveIterations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hypbound_solve_iterations",
			Help:    "Refinement steps taken by successful tail bound computations",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)
)

// Result is a sound tail bound: the terms T(k) for k >= N sum to at most
// Error in absolute value, and Error < 2^-Tol.
type Result struct {
	// N is the number of leading terms to sum explicitly.
	N int64
	// Error bounds the tail from term N onward.
	Error mag.Mag
	// Seed is the starting index chosen before refinement.
	Seed int64
	// Iterations counts refinement steps.
	Iterations int64
}

// Solver computes tail bounds. A Solver holds only configuration and may
// be used from several goroutines at once.
type Solver struct {
	estimator     Estimator
	maxIterations int64
	maxTerms      int64
	logger        zerolog.Logger
	observer      Observer
}

// Option configures a Solver.
type Option func(*Solver)

// WithEstimator replaces the starting-index estimator.
func WithEstimator(e Estimator) Option {
	return func(s *Solver) {
		if e != nil {
			s.estimator = e
		}
	}
}

// WithMaxIterations sets the refinement step ceiling. Non-positive values
// keep the default.
func WithMaxIterations(n int64) Option {
	return func(s *Solver) {
		if n > 0 {
			s.maxIterations = n
		}
	}
}

// WithMaxTerms sets the largest term index the solver may reach.
// Non-positive values keep the default.
func WithMaxTerms(n int64) Option {
	return func(s *Solver) {
		if n > 0 {
			s.maxTerms = n
		}
	}
}

// WithLogger sets the logger for solver events.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Solver) { s.logger = l }
}

// WithObserver sets the observer notified on every refinement step.
func WithObserver(o Observer) Option {
	return func(s *Solver) {
		if o != nil {
			s.observer = o
		}
	}
}

// NewSolver creates a Solver with the asymptotic estimator, the default
// ceilings, a disabled logger and no observer.
func NewSolver(opts ...Option) *Solver {
	s := &Solver{
		estimator:     AsymptoticEstimator{},
		maxIterations: DefaultMaxIterations,
		maxTerms:      DefaultMaxTerms,
		logger:        zerolog.Nop(),
		observer:      NoOpObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bound is a convenience wrapper running a default Solver.
func Bound(ctx context.Context, shape Shape, tk, z mag.Mag, tol int64) (Result, error) {
	return NewSolver().Bound(ctx, Problem{Shape: shape, TK: tk, Z: z, Tol: tol})
}

// Bound finds a term count n and a sound bound on the tail from term n
// onward that is below 2^-p.Tol.
//
// The search starts at the largest of the estimator's guess, K+1 and
// RootBound(z, r), so that z^k/(k!)^r is non-increasing from there on. At
// each index n the ratio T(n)/T(n−1) is bounded by an upper-rounded
// numerator over a lower-rounded denominator. The tail from n on is bounded by the geometric series
// T(n)/(1−q), where q bounds every later ratio: the shift factors are
// non-increasing for positive A and B and bounded by 1 for negative ones
// (see tailRatio). The search stops once 1−q is soundly positive and the
// series is below the tolerance.
//
// Errors:
//   - *apperrors.PreconditionError for an invalid shape or tolerance.
//   - *apperrors.ConvergenceError when the iteration or term ceiling is
//     reached, when z or TK is infinite, or when the estimator rejects z.
//   - the context error, wrapped, when ctx is done.
func (s *Solver) Bound(ctx context.Context, p Problem) (res Result, err error) {
	ctx, span := otel.Tracer("hypbound/hypgeom").Start(ctx, "hypgeom.Bound")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("K", p.K),
		attribute.Int64("A", p.A),
		attribute.Int64("B", p.B),
		attribute.Int("r", p.R),
		attribute.Int64("tol", p.Tol),
	)

	start := time.Now()
	defer func() {
		status := "success"
		switch {
		case err == nil:
			solveIterations.Observe(float64(res.Iterations))
		case apperrors.IsContextError(err):
			status = "canceled"
		case apperrors.IsRetriable(err):
			status = "not_converged"
		default:
			status = "invalid"
		}
		solvesTotal.WithLabelValues(status).Inc()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			res = Result{}
		}
		s.logger.Debug().
			Str("shape", p.Shape.String()).
			Int64("tol", p.Tol).
			Int64("n", res.N).
			Int64("iterations", res.Iterations).
			Dur("duration", time.Since(start)).
			Str("status", status).
			Msg("tail bound completed")
	}()

	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	if p.Z.IsInf() || p.TK.IsInf() {
		return Result{}, &apperrors.ConvergenceError{Reason: "infinite point or term bound"}
	}
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("tail bound canceled: %w", err)
	}

	n, err := s.seed(p)
	if err != nil {
		return Result{}, err
	}
	s.logger.Debug().Str("shape", p.Shape.String()).Int64("seed", n).Msg("tail bound seeded")

	tn, err := TermBound(p.Shape, p.TK, p.Z, n-1)
	if err != nil {
		return Result{}, err
	}
	return s.refine(ctx, p, n, tn)
}

// seed returns the starting index max(estimate, K+1, RootBound).
func (s *Solver) seed(p Problem) (int64, error) {
	est, err := s.estimator.EstimateTerms(p.Z, p.R, p.Tol)
	if err != nil {
		return 0, err
	}
	n := max(est, p.K+1, RootBound(p.Z, p.R))
	if n > s.maxTerms {
		return 0, &apperrors.ConvergenceError{LastN: n, Reason: fmt.Sprintf("starting index exceeds the term limit %d", s.maxTerms)}
	}
	return n, nil
}

// refine runs the geometric-tail loop from index n with tn bounding T(n−1).
func (s *Solver) refine(ctx context.Context, p Problem, n int64, tn mag.Mag) (Result, error) {
	one := mag.One()
	tol := mag.Mul2Exp(one, -p.Tol)
	seed := n
	r := uint64(p.R)

	for iter := int64(1); ; iter++ {
		if iter > s.maxIterations {
			return Result{}, &apperrors.ConvergenceError{LastN: n, Iterations: iter - 1, Reason: "iteration ceiling reached"}
		}
		if n > s.maxTerms {
			return Result{}, &apperrors.ConvergenceError{LastN: n, Iterations: iter - 1, Reason: "term limit reached"}
		}
		if iter%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return Result{}, fmt.Errorf("tail bound canceled at n=%d: %w", n, err)
			}
		}

		// ratio bound z·n·(n−B) / ((n−A)·(n−2B)·n^r)
		num := mag.MulUint(p.Z, uint64(n))
		num = mag.MulUint(num, uint64(n-p.B))
		den := mag.FromUintLower(uint64(n - p.A))
		den = mag.MulUintLower(den, uint64(n-2*p.B))
		var nr mag.Mag
		if r != 0 {
			nr = mag.PowLower(mag.FromUintLower(uint64(n)), r)
			den = mag.MulLower(den, nr)
		}
		tn = mag.Mul(tn, mag.Div(num, den))

		headroom := mag.SubLower(one, tailRatio(p, n, nr))
		if !headroom.IsZero() {
			tail := mag.Div(tn, headroom)
			s.observer.Update(n, tail.Float64())
			if tail.Less(tol) {
				return Result{N: n, Error: tail, Seed: seed, Iterations: iter}, nil
			}
		}
		n++
	}
}

// tailRatio bounds T(k)/T(k−1) for every k > n. The factors n/(n−A) and
// (n−B)/(n−2B) shrink with n when A > 0 and B > 0 but grow toward 1 when A
// or B is negative, so a negative shift contributes its limit 1 instead.
// nr is the lower bound of n^r, or zero when r = 0.
func tailRatio(p Problem, n int64, nr mag.Mag) mag.Mag {
	num, den := p.Z, mag.One()
	if p.A > 0 {
		num = mag.MulUint(num, uint64(n))
		den = mag.MulUintLower(den, uint64(n-p.A))
	}
	if p.B > 0 {
		num = mag.MulUint(num, uint64(n-p.B))
		den = mag.MulUintLower(den, uint64(n-2*p.B))
	}
	if !nr.IsZero() {
		den = mag.MulLower(den, nr)
	}
	return mag.Div(num, den)
}
