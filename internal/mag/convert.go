package mag

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/agbru/hypbound/internal/dfloat"
)

// Double conversion saturation thresholds.
const (
	float64MinExp = -1000
	float64MaxExp = 1000
)

// Float returns the exact value of x. INFINITY maps to +Inf.
func (x Mag) Float() dfloat.Float {
	switch {
	case x.inf:
		return dfloat.PosInf()
	case x.IsZero():
		return dfloat.Zero()
	}
	return dfloat.FromUint2Exp(uint64(x.man), int(x.exp-Bits))
}

// Float64 converts x to a float64. Exponents below −1000 map to 2^−1000
// and exponents above 1000 map to +Inf, so the result never underflows to
// zero for a positive x. This is a saturation policy, not a bound.
func (x Mag) Float64() float64 {
	switch {
	case x.inf:
		return math.Inf(1)
	case x.IsZero():
		return 0
	case x.exp < float64MinExp:
		return math.Ldexp(1, float64MinExp)
	case x.exp > float64MaxExp:
		return math.Inf(1)
	}
	return math.Ldexp(float64(x.man), int(x.exp-Bits))
}

// FromFloat returns an upper bound for |f|. NaN yields INFINITY.
func FromFloat(f dfloat.Float) Mag { return fromFloat(f, true) }

// FromFloatLower returns a lower bound for |f|. NaN yields ZERO.
func FromFloatLower(f dfloat.Float) Mag { return fromFloat(f, false) }

// mantissaWindow is the number of leading mantissa bits kept before the
// final rounding; the rest collapse into a sticky bit.
const mantissaWindow = 62

func fromFloat(f dfloat.Float, up bool) Mag {
	switch {
	case f.IsNaN():
		if up {
			return Inf()
		}
		return Zero()
	case f.IsInf():
		return Inf()
	case f.IsZero():
		return Zero()
	}
	man, exp, _ := f.Abs().Int2Exp()
	if n := man.BitLen(); n > mantissaWindow {
		shift := uint(n - mantissaWindow)
		// man is odd, so the dropped bits are never all zero.
		man.Rsh(man, shift).SetBit(man, 0, 1)
		exp += int64(shift)
	}
	return normalize(man.Uint64(), exp+Bits, up)
}

// FromFloat64 returns an upper bound for |x|. NaN yields INFINITY.
func FromFloat64(x float64) Mag { return FromFloat(dfloat.FromFloat64(x)) }

// FromFloat64Lower returns a lower bound for |x|. NaN yields ZERO.
func FromFloat64Lower(x float64) Mag { return FromFloatLower(dfloat.FromFloat64(x)) }

// FromRat returns an upper bound for |r|.
func FromRat(r *big.Rat) Mag {
	a := new(big.Rat).Abs(r)
	return FromFloat(dfloat.FromRat(a, Bits, dfloat.Up))
}

// FromRatLower returns a lower bound for |r|.
func FromRatLower(r *big.Rat) Mag {
	a := new(big.Rat).Abs(r)
	return FromFloatLower(dfloat.FromRat(a, Bits, dfloat.Down))
}

// ParseDecimal returns an upper bound for a nonnegative decimal or
// fractional literal such as "0.25", "1e-30" or "3/7". "inf" denotes
// INFINITY.
func ParseDecimal(s string) (Mag, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "inf", "+inf", "infinity":
		return Inf(), nil
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return Mag{}, fmt.Errorf("mag: cannot parse %q as a number", s)
	}
	if r.Sign() < 0 {
		return Mag{}, fmt.Errorf("%w: %q is negative", ErrNotMagnitude, s)
	}
	return FromRat(r), nil
}
