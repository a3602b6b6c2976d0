package hypgeom

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	apperrors "github.com/agbru/hypbound/internal/errors"
	"github.com/agbru/hypbound/internal/mag"
)

// referencePrec is the working precision of the independent tail sum.
const referencePrec = 256

// referenceTail sums the exact recurrence from T(K) = tk at high precision
// over k >= n. It stops once a geometric bound on the remainder falls below
// 2^-60 of the running sum, so the result is a lower bound within that margin.
func referenceTail(p Problem, tk, z *big.Rat, n int64) *big.Float {
	newF := func() *big.Float { return new(big.Float).SetPrec(referencePrec) }
	zf := newF().SetRat(z)
	term := newF().SetRat(tk)
	ratio := func(k int64) *big.Float {
		num := newF().SetInt64(k)
		num.Mul(num, newF().SetInt64(k-p.B))
		num.Mul(num, zf)
		den := newF().SetInt64(k - p.A)
		den.Mul(den, newF().SetInt64(k-2*p.B))
		for i := 0; i < p.R; i++ {
			den.Mul(den, newF().SetInt64(k))
		}
		return num.Quo(num, den)
	}
	// maxRatio bounds every ratio at index >= j
	maxRatio := func(j int64) *big.Float {
		num, den := newF().Set(zf), newF().SetInt64(1)
		if p.A > 0 {
			num.Mul(num, newF().SetInt64(j))
			den.Mul(den, newF().SetInt64(j-p.A))
		}
		if p.B > 0 {
			num.Mul(num, newF().SetInt64(j-p.B))
			den.Mul(den, newF().SetInt64(j-2*p.B))
		}
		for i := 0; i < p.R; i++ {
			den.Mul(den, newF().SetInt64(j))
		}
		return num.Quo(num, den)
	}
	for k := p.K + 1; k <= n; k++ {
		term.Mul(term, ratio(k))
	}
	one := big.NewFloat(1)
	sum := newF()
	for k := n; k < n+200000; k++ {
		if k > n {
			term.Mul(term, ratio(k))
		}
		sum.Add(sum, term)
		q := maxRatio(k + 1)
		if q.Cmp(one) >= 0 {
			continue
		}
		rest := newF().Mul(term, q)
		budget := newF().Sub(one, q)
		budget.Mul(budget, sum)
		budget.SetMantExp(budget, -60)
		if rest.Cmp(budget) < 0 {
			break
		}
	}
	return sum
}

// genProblem draws valid shapes including negative A and B, with K+A >= 0
// and K-2B >= 0, so that shifts growing toward their limit are covered.
func genProblem() gopter.Gen {
	return gopter.CombineGens(
		gen.Int64Range(0, 8),   // K
		gen.Int64Range(0, 100), // A seed
		gen.Int64Range(0, 100), // B seed
		gen.IntRange(0, 3),     // r
		gen.UInt64Range(1, 160),
		gen.UInt64Range(1, 256),
		gen.Int64Range(1, 100),
	).Map(func(v []interface{}) Problem {
		k := v[0].(int64)
		r := v[3].(int)
		zNum := v[4].(uint64)
		var z mag.Mag
		if r == 0 {
			z = mag.FromUint2Exp(1+zNum%58, -6)
		} else {
			z = mag.FromUint2Exp(zNum, -2)
		}
		a := v[1].(int64)%(2*k+1) - k
		b := v[2].(int64)%(k/2+21) - 20
		return Problem{
			Shape: Shape{K: k, A: a, B: b, R: r},
			TK:    mag.FromUint2Exp(v[5].(uint64), -4),
			Z:     z,
			Tol:   v[6].(int64),
		}
	})
}

// TestBoundNegativeShifts checks shapes whose shift factors grow toward 1,
// where the ratio at the stopping index underestimates later ratios.
func TestBoundNegativeShifts(t *testing.T) {
	t.Parallel()
	half := mag.FromUint2Exp(1, -1)
	tests := []struct {
		name  string
		shape Shape
		z     mag.Mag
		tol   int64
	}{
		{"negative B", Shape{K: 0, A: 0, B: -40, R: 0}, half, 20},
		{"negative A", Shape{K: 40, A: -40, B: 0, R: 0}, half, 20},
		{"both negative", Shape{K: 4, A: -2, B: -3, R: 0}, mag.FromUint2Exp(3, -2), 40},
		{"negative A with r=1", Shape{K: 10, A: -10, B: -5, R: 1}, mag.FromUint2Exp(8, 0), 30},
		{"mixed signs", Shape{K: 6, A: 3, B: -20, R: 0}, half, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := Problem{Shape: tt.shape, TK: mag.One(), Z: tt.z, Tol: tt.tol}
			res, err := NewSolver().Bound(context.Background(), p)
			if err != nil {
				t.Fatalf("Bound: %v", err)
			}
			if !res.Error.Less(mag.Mul2Exp(mag.One(), -tt.tol)) {
				t.Errorf("error %v not below 2^-%d", res.Error.Float64(), tt.tol)
			}
			tail, _ := referenceTail(p, ratOf(t, p.TK), ratOf(t, p.Z), res.N).Rat(nil)
			tail.Mul(tail, big.NewRat(1<<50-1, 1<<50))
			if ratOf(t, res.Error).Cmp(tail) < 0 {
				got, _ := ratOf(t, res.Error).Float64()
				want, _ := tail.Float64()
				t.Errorf("N=%d: error %.6e below true tail %.6e", res.N, got, want)
			}
		})
	}
}

// TestBoundSoundness_PropertyBased checks the returned error against an
// independent high-precision tail sum and the requested tolerance.
func TestBoundSoundness_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("error bounds the true tail and meets the tolerance", prop.ForAll(
		func(p Problem) bool {
			res, err := NewSolver().Bound(context.Background(), p)
			if err != nil {
				t.Logf("%v: %v", p.Key(), err)
				return false
			}
			if res.N < p.K+1 || res.N < res.Seed {
				return false
			}
			tol := mag.Mul2Exp(mag.One(), -p.Tol)
			if !res.Error.Less(tol) {
				return false
			}
			tail, _ := referenceTail(p, ratOf(t, p.TK), ratOf(t, p.Z), res.N).Rat(nil)
			// absorb the rounding of the reference sum itself
			tail.Mul(tail, big.NewRat(1<<50-1, 1<<50))
			return ratOf(t, res.Error).Cmp(tail) >= 0
		},
		genProblem(),
	))

	properties.TestingRun(t)
}

// TestBoundMonotonicity_PropertyBased checks that asking for a smaller
// tolerance never yields fewer terms.
func TestBoundMonotonicity_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("tightening tol never decreases n", prop.ForAll(
		func(p Problem, d int64) bool {
			solver := NewSolver()
			loose, err := solver.Bound(context.Background(), p)
			if err != nil {
				return false
			}
			p.Tol += d
			tight, err := solver.Bound(context.Background(), p)
			if err != nil {
				return false
			}
			return tight.N >= loose.N && tight.Error.Less(mag.Mul2Exp(mag.One(), -p.Tol))
		},
		genProblem(),
		gen.Int64Range(1, 60),
	))

	properties.TestingRun(t)
}

// TestRootBound_PropertyBased checks that z^k/(k!)^r is non-increasing from
// the returned index onward, i.e. z <= (k+1)^r for every k >= m.
func TestRootBound_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("z^k/(k!)^r decreases from the root bound", prop.ForAll(
		func(man uint64, exp int64, r int) bool {
			z := mag.FromUint2Exp(man, exp)
			zr := ratOf(t, z)
			m := RootBound(z, r)
			if m < 1 {
				return false
			}
			for k := m; k < m+10; k++ {
				pow := new(big.Int).Exp(big.NewInt(k+1), big.NewInt(int64(r)), nil)
				if zr.Cmp(new(big.Rat).SetInt(pow)) > 0 {
					return false
				}
			}
			return true
		},
		gen.UInt64Range(1, 1<<20),
		gen.Int64Range(-10, 10),
		gen.IntRange(1, 4),
	))

	properties.TestingRun(t)
}

func TestRootBoundValues(t *testing.T) {
	t.Parallel()
	tests := []struct {
		z    mag.Mag
		r    int
		want int64
	}{
		{mag.FromUint(100), 0, 0},
		{mag.FromUint(9), 2, 4},
		{mag.FromUint(8), 3, 3},
		{mag.FromUint2Exp(1, -4), 1, 2},
		{mag.Zero(), 2, 1},
		{mag.FromUint(10), 1, 11},
	}
	for _, tt := range tests {
		if got := RootBound(tt.z, tt.r); got != tt.want {
			t.Errorf("RootBound(%v, %d) = %d, want %d", tt.z, tt.r, got, tt.want)
		}
	}
	if RootBound(mag.Inf(), 1) <= 0 {
		t.Error("infinite z must saturate")
	}
}

func TestBoundExponentialSeries(t *testing.T) {
	t.Parallel()
	// exp(1): T(k) = 1/k!, K = 0, TK = 1, z = 1, r = 1.
	res, err := Bound(context.Background(), Shape{K: 0, A: 0, B: 0, R: 1}, mag.One(), mag.One(), 53)
	if err != nil {
		t.Fatal(err)
	}
	// 1/18! < 2^-53 <= 1/17!, so at least 18 terms are needed.
	if res.N < 18 || res.N > 24 {
		t.Errorf("N = %d, want about 18", res.N)
	}
	if !res.Error.Less(mag.Mul2Exp(mag.One(), -53)) {
		t.Errorf("error %v not below 2^-53", res.Error)
	}
}

func TestBoundDegenerateInputs(t *testing.T) {
	t.Parallel()
	shape := Shape{K: 3, A: 1, B: 1, R: 2}
	res, err := Bound(context.Background(), shape, mag.One(), mag.Zero(), 30)
	if err != nil {
		t.Fatal(err)
	}
	if res.N != shape.K+1 || !res.Error.IsZero() || res.Iterations != 1 {
		t.Errorf("z = 0: got %+v, want N=K+1 with zero error", res)
	}
	res, err = Bound(context.Background(), shape, mag.Zero(), mag.FromUint(5), 30)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Error.IsZero() {
		t.Errorf("TK = 0: error %v, want zero", res.Error)
	}
}

func TestBoundFailures(t *testing.T) {
	t.Parallel()
	alwaysOne := WithEstimator(EstimatorFunc(func(mag.Mag, int, int64) (int64, error) { return 1, nil }))
	slow := Problem{Shape: Shape{K: 0, R: 0}, TK: mag.One(), Z: mag.FromUint2Exp(63, -6), Tol: 200}

	tests := []struct {
		name    string
		solver  *Solver
		problem Problem
		want    error
	}{
		{"invalid shape", NewSolver(), Problem{Shape: Shape{K: 1, A: 2}, TK: mag.One(), Z: mag.One(), Tol: 10}, apperrors.ErrPrecondition},
		{"tolerance out of range", NewSolver(), Problem{Shape: Shape{K: 1, R: 1}, TK: mag.One(), Z: mag.One(), Tol: 1 << 40}, apperrors.ErrPrecondition},
		{"infinite z", NewSolver(), Problem{Shape: Shape{K: 1, R: 1}, TK: mag.One(), Z: mag.Inf(), Tol: 10}, apperrors.ErrNotConverged},
		{"infinite TK", NewSolver(), Problem{Shape: Shape{K: 1, R: 1}, TK: mag.Inf(), Z: mag.One(), Tol: 10}, apperrors.ErrNotConverged},
		{"divergent geometric series", NewSolver(), Problem{Shape: Shape{K: 0, R: 0}, TK: mag.One(), Z: mag.FromUint(2), Tol: 10}, apperrors.ErrNotConverged},
		{"iteration ceiling", NewSolver(alwaysOne, WithMaxIterations(3)), slow, apperrors.ErrNotConverged},
		{"term limit", NewSolver(WithMaxTerms(10)), slow, apperrors.ErrNotConverged},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := tt.solver.Bound(context.Background(), tt.problem)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			if res != (Result{}) {
				t.Errorf("failed call returned a partial result %+v", res)
			}
		})
	}
}

func TestBoundIterationCeilingReportsProgress(t *testing.T) {
	t.Parallel()
	solver := NewSolver(
		WithEstimator(EstimatorFunc(func(mag.Mag, int, int64) (int64, error) { return 1, nil })),
		WithMaxIterations(3),
	)
	_, err := solver.Bound(context.Background(), Problem{Shape: Shape{K: 0}, TK: mag.One(), Z: mag.FromUint2Exp(63, -6), Tol: 200})
	var ce *apperrors.ConvergenceError
	if !errors.As(err, &ce) {
		t.Fatalf("got %v, want *ConvergenceError", err)
	}
	if ce.Iterations != 3 || ce.LastN != 4 {
		t.Errorf("got iterations=%d lastN=%d, want 3 and 4", ce.Iterations, ce.LastN)
	}
	if !apperrors.IsRetriable(err) {
		t.Error("non-convergence must be retriable")
	}
}

type cancelAt struct {
	n      int64
	cancel context.CancelFunc
}

func (c cancelAt) Update(n int64, _ float64) {
	if n >= c.n {
		c.cancel()
	}
}

func TestBoundCancellation(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Bound(ctx, Shape{K: 0, R: 1}, mag.One(), mag.One(), 10); !errors.Is(err, context.Canceled) {
		t.Errorf("pre-canceled context: got %v", err)
	}

	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()
	// z slightly below 1 with an unhelpful estimate keeps the loop busy.
	solver := NewSolver(
		WithEstimator(EstimatorFunc(func(mag.Mag, int, int64) (int64, error) { return 1, nil })),
		WithObserver(cancelAt{n: 300, cancel: cancel}),
	)
	p := Problem{Shape: Shape{K: 0}, TK: mag.One(), Z: mag.FromUint2Exp(1023, -10), Tol: 5000}
	_, err := solver.Bound(ctx, p)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if !apperrors.IsContextError(err) {
		t.Error("cancellation must be classified as a context error")
	}
}

func TestBoundObserverSeesFinalStep(t *testing.T) {
	t.Parallel()
	var rec recorder
	solver := NewSolver(WithObserver(&rec))
	res, err := solver.Bound(context.Background(), Problem{Shape: Shape{K: 2, A: 1, B: 1, R: 1}, TK: mag.One(), Z: mag.FromUint(3), Tol: 40})
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.ns) == 0 || rec.ns[len(rec.ns)-1] != res.N {
		t.Errorf("observer saw %v, want last index %d", rec.ns, res.N)
	}
}

func TestAsymptoticEstimator(t *testing.T) {
	t.Parallel()
	est := AsymptoticEstimator{}
	if n, err := est.EstimateTerms(mag.Zero(), 1, 100); err != nil || n != 1 {
		t.Errorf("z = 0: got %d, %v", n, err)
	}
	// (log(1/2) − 10·log 2)/log(1/2) + 1 = 12
	n, err := est.EstimateTerms(mag.FromUint2Exp(1, -1), 0, 10)
	if err != nil || n < 11 || n > 12 {
		t.Errorf("geometric estimate = %d, %v; want 11 or 12", n, err)
	}
	if _, err := est.EstimateTerms(mag.One(), 0, 10); !errors.Is(err, apperrors.ErrNotConverged) {
		t.Errorf("z = 1, r = 0: got %v", err)
	}
	small, _ := est.EstimateTerms(mag.One(), 1, 20)
	large, _ := est.EstimateTerms(mag.One(), 1, 200)
	if small < 1 || large <= small {
		t.Errorf("estimates must grow with the tolerance: %d then %d", small, large)
	}
}

func TestLambertW0(t *testing.T) {
	t.Parallel()
	tests := []struct{ x, want float64 }{
		{0, 0},
		{1, 0.5671432904097838},
		{2.718281828459045, 1},
		{1e6, 11.383358086140053},
	}
	for _, tt := range tests {
		got := lambertW0(tt.x)
		if d := got - tt.want; d > 1e-12 || d < -1e-12 {
			t.Errorf("W(%g) = %.17g, want %.17g", tt.x, got, tt.want)
		}
	}
}
