package factorial

import (
	"github.com/agbru/hypbound/internal/dfloat"
	apperrors "github.com/agbru/hypbound/internal/errors"
)

// Rational bounds on the constants of the Stirling inequalities, as
// mantissa·2^exp pairs with 30-bit mantissas.
var (
	twoPiLower  = dfloat.FromUint2Exp(843314855, -27) // < 2π
	invELower   = dfloat.FromUint2Exp(197503771, -29) // < 1/e
	invEUpper   = dfloat.FromUint2Exp(197503773, -29) // > 1/e
	eUpperBound = dfloat.FromUint2Exp(364841613, -27) // > e
)

// GammaLower returns a lower bound for Γ(n) = (n−1)! with prec bits.
//
// For n < ExactLimit the exact factorial is rounded down once. Otherwise
// √(2π/n)·(n/e)^n < Γ(n) is evaluated with every step rounded down. A
// result that would overflow the exponent range saturates to the largest
// finite value. n = 0 is a precondition violation.
func GammaLower(n uint64, prec uint) (dfloat.Float, error) {
	if n == 0 {
		return dfloat.Float{}, apperrors.NewPreconditionError("factorial.GammaLower", "gamma is undefined at 0")
	}
	if n < ExactLimit {
		return dfloat.FromBigInt(factorials()[n-1], prec, dfloat.Down), nil
	}
	t := dfloat.DivUint(twoPiLower, n, prec, dfloat.Down)
	t = dfloat.Sqrt(t, prec, dfloat.Down)
	u := dfloat.MulUint(invELower, n, prec, dfloat.Down)
	u = dfloat.PowUint(u, n, prec, dfloat.Down)
	x := dfloat.Mul(t, u, prec, dfloat.Down)
	if x.IsInf() {
		return dfloat.MaxFinite(prec), nil
	}
	return x, nil
}

// GammaUpper returns an upper bound for Γ(n) = (n−1)! with prec bits.
//
// For n < ExactLimit the exact factorial is rounded up once. Otherwise
// Γ(n) < e·(n/e)^n is evaluated with every step rounded up; overflow yields
// +Inf. n = 0 is a precondition violation.
func GammaUpper(n uint64, prec uint) (dfloat.Float, error) {
	if n == 0 {
		return dfloat.Float{}, apperrors.NewPreconditionError("factorial.GammaUpper", "gamma is undefined at 0")
	}
	if n < ExactLimit {
		return dfloat.FromBigInt(factorials()[n-1], prec, dfloat.Up), nil
	}
	u := dfloat.MulUint(invEUpper, n, prec, dfloat.Up)
	u = dfloat.PowUint(u, n, prec, dfloat.Up)
	return dfloat.Mul(eUpperBound, u, prec, dfloat.Up), nil
}
