package hypgeom

import (
	"math"

	apperrors "github.com/agbru/hypbound/internal/errors"
	"github.com/agbru/hypbound/internal/mag"
)

// Estimator predicts how many terms are needed before the tail of a series
// with point bound z and factorial power r drops below 2^-tol. The solver
// uses the estimate only as a starting index, so its accuracy affects speed
// and never soundness.
type Estimator interface {
	EstimateTerms(z mag.Mag, r int, tol int64) (int64, error)
}

// EstimatorFunc adapts an ordinary function to the Estimator interface.
type EstimatorFunc func(z mag.Mag, r int, tol int64) (int64, error)

// EstimateTerms calls f(z, r, tol).
func (f EstimatorFunc) EstimateTerms(z mag.Mag, r int, tol int64) (int64, error) {
	return f(z, r, tol)
}

// maxEstimate caps estimates so that later index arithmetic cannot overflow.
const maxEstimate = math.MaxInt64 / 2

// AsymptoticEstimator solves the leading-order term asymptotics in double
// precision. For r = 0 the terms behave like t^k and the estimate is
// (log(1−t) − tol·log 2)/log t + 1, which requires t < 1. For r > 0 the
// terms behave like t^k/(k!)^r and the estimate is
// tol·log 2 / (r·W(tol·log 2 / (e·t^(1/r)))) + 1 with W the principal
// branch of the Lambert W function.
type AsymptoticEstimator struct{}

// EstimateTerms implements Estimator.
func (AsymptoticEstimator) EstimateTerms(z mag.Mag, r int, tol int64) (int64, error) {
	t := z.Float64()
	if t == 0 {
		return 1, nil
	}
	if math.IsInf(t, 1) {
		return 0, &apperrors.ConvergenceError{Reason: "point bound is too large to estimate"}
	}
	bits := float64(tol) * math.Ln2
	var y float64
	if r == 0 {
		if t >= 1 {
			return 0, &apperrors.ConvergenceError{Reason: "geometric series with |z| >= 1 does not converge"}
		}
		y = (math.Log1p(-t)-bits)/math.Log(t) + 1
	} else {
		w := lambertW0(bits / (math.E * math.Pow(t, 1/float64(r))))
		y = bits/(w*float64(r)) + 1
	}
	switch {
	case math.IsNaN(y), y < 1:
		return 1, nil
	case y >= maxEstimate:
		return maxEstimate, nil
	}
	return int64(y), nil
}

// lambertW0 returns the principal branch W(x) of the Lambert W function for
// x >= 0, refined by Halley iteration.
func lambertW0(x float64) float64 {
	switch {
	case x == 0:
		return 0
	case math.IsInf(x, 1):
		return math.Inf(1)
	}
	var w float64
	if x < math.E {
		w = math.Log1p(x) * (1 - math.Log1p(math.Log1p(x))/(2+math.Log1p(x)))
	} else {
		l1 := math.Log(x)
		w = l1 - math.Log(l1)
	}
	const (
		maxIt = 80
		tol   = 1e-15
	)
	for i := 0; i < maxIt; i++ {
		e := math.Exp(w)
		f := w*e - x
		den := e*(w+1) - (w+2)*f/(2*(w+1))
		if den == 0 {
			break
		}
		dw := f / den
		w -= dw
		if math.Abs(dw) < tol*(1+math.Abs(w)) {
			break
		}
	}
	return w
}
