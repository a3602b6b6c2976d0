package mag

import "github.com/agbru/hypbound/internal/dfloat"

// addShiftLimit is the exponent gap above which the smaller operand is
// below half an ulp of the larger and is folded into a single ulp.
const addShiftLimit = 31

func add(x, y Mag, up bool) Mag {
	if x.exp < y.exp {
		x, y = y, x
	}
	d := x.exp - y.exp
	if d > addShiftLimit {
		if up {
			return normalize(uint64(x.man)+1, x.exp, true)
		}
		return x
	}
	sum := uint64(x.man)<<uint(d) + uint64(y.man)
	return normalize(sum, y.exp, up)
}

// Add returns an upper bound for x+y.
func Add(x, y Mag) Mag {
	switch {
	case x.inf || y.inf:
		return Inf()
	case x.IsZero():
		return y
	case y.IsZero():
		return x
	}
	return add(x, y, true)
}

// AddLower returns a lower bound for x+y.
func AddLower(x, y Mag) Mag {
	switch {
	case x.inf || y.inf:
		return Inf()
	case x.IsZero():
		return y
	case y.IsZero():
		return x
	}
	return add(x, y, false)
}

// Sub returns an upper bound for max(x−y, 0), where x is an upper bound
// and y a lower bound.
func Sub(x, y Mag) Mag {
	switch {
	case y.IsZero():
		return x
	case x.IsZero() || y.inf:
		return Zero()
	case x.inf:
		return Inf()
	}
	t := dfloat.Sub(x.Float(), y.Float(), Bits, dfloat.Up)
	if t.Sgn() <= 0 {
		return Zero()
	}
	return FromFloat(t)
}

// SubLower returns a lower bound for max(x−y, 0), where x is a lower bound
// and y an upper bound. A zero y yields x. A zero x or an infinite y yields
// ZERO. An infinite x with a finite y yields INFINITY.
func SubLower(x, y Mag) Mag {
	switch {
	case y.IsZero():
		return x
	case x.IsZero() || y.inf:
		return Zero()
	case x.inf:
		return Inf()
	}
	t := dfloat.Sub(x.Float(), y.Float(), Bits, dfloat.Down)
	if t.Sgn() <= 0 {
		return Zero()
	}
	return FromFloatLower(t)
}

// Mul returns an upper bound for x·y. A product involving INFINITY is
// INFINITY, even when the other factor is ZERO.
func Mul(x, y Mag) Mag {
	switch {
	case x.inf || y.inf:
		return Inf()
	case x.IsZero() || y.IsZero():
		return Zero()
	}
	return normalize(uint64(x.man)*uint64(y.man), x.exp+y.exp-Bits, true)
}

// MulLower returns a lower bound for x·y. A product involving ZERO is ZERO.
func MulLower(x, y Mag) Mag {
	switch {
	case x.IsZero() || y.IsZero():
		return Zero()
	case x.inf || y.inf:
		return Inf()
	}
	return normalize(uint64(x.man)*uint64(y.man), x.exp+y.exp-Bits, false)
}

// MulUint returns an upper bound for x·n.
func MulUint(x Mag, n uint64) Mag { return Mul(x, FromUint(n)) }

// MulUintLower returns a lower bound for x·n.
func MulUintLower(x Mag, n uint64) Mag { return MulLower(x, FromUintLower(n)) }

// quotient returns the rounded value of x/y for finite positive x and y.
func quotient(x, y Mag, up bool) Mag {
	num := uint64(x.man) << 34
	q := num / uint64(y.man)
	if num%uint64(y.man) != 0 {
		// sticky bit below the kept mantissa
		q |= 1
	}
	return normalize(q, x.exp-y.exp-34+Bits, up)
}

// Div returns an upper bound for x/y, where x is an upper bound and y a
// lower bound. Division by ZERO or of INFINITY yields INFINITY.
func Div(x, y Mag) Mag {
	switch {
	case y.IsZero() || x.inf:
		return Inf()
	case x.IsZero() || y.inf:
		return Zero()
	}
	return quotient(x, y, true)
}

// DivLower returns a lower bound for x/y, where x is a lower bound and y an
// upper bound. A ZERO numerator or an infinite divisor yields ZERO.
func DivLower(x, y Mag) Mag {
	switch {
	case x.IsZero() || y.inf:
		return Zero()
	case y.IsZero() || x.inf:
		return Inf()
	}
	return quotient(x, y, false)
}

// DivUint returns an upper bound for x/n.
func DivUint(x Mag, n uint64) Mag { return Div(x, FromUintLower(n)) }

// Pow returns an upper bound for x^e. x^0 is 1.
func Pow(x Mag, e uint64) Mag { return pow(x, e, Mul) }

// PowLower returns a lower bound for x^e. x^0 is 1.
func PowLower(x Mag, e uint64) Mag { return pow(x, e, MulLower) }

func pow(x Mag, e uint64, mul func(Mag, Mag) Mag) Mag {
	result := One()
	for e > 0 {
		if e&1 == 1 {
			result = mul(result, x)
		}
		e >>= 1
		if e > 0 {
			x = mul(x, x)
		}
	}
	return result
}

// Mul2Exp returns x·2^e. The result is exact unless it leaves the exponent
// range, where it is rounded up.
func Mul2Exp(x Mag, e int64) Mag {
	if x.IsSpecial() {
		return x
	}
	return clamp(x.man, x.exp+e, true)
}
