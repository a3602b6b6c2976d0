// Package mag implements nonnegative magnitude bounds with a fixed 30-bit
// mantissa and paired directed operations.
//
// A Mag is either ZERO, INFINITY or a normalised value man·2^(exp−Bits)
// with 2^(Bits−1) <= man < 2^Bits. Upper operations (Add, Mul, Div, ...)
// never return less than the exact result when their inputs are upper
// bounds; lower operations (AddLower, MulLower, ...) never return more
// than the exact result when their inputs are lower bounds.
//
// Exponents are kept within [MinExp, MaxExp]. An upper result that leaves
// the range overflows to INFINITY or underflows to the smallest positive
// magnitude; a lower result overflows to the largest finite magnitude or
// underflows to ZERO. Either way every result stays a valid bound.
//
// Mag is an immutable value type. The zero value is ZERO.
package mag

import (
	"errors"
	"math/bits"
)

const (
	// Bits is the mantissa width.
	Bits = 30
	// MaxExp is the largest exponent of a finite magnitude.
	MaxExp = 1 << 30
	// MinExp is the smallest exponent of a positive magnitude.
	MinExp = -(1 << 30)
)

const (
	manMin = 1 << (Bits - 1)
	manMax = 1<<Bits - 1
)

// ErrNotMagnitude is returned when decoding a value that is negative,
// negative infinity or NaN.
var ErrNotMagnitude = errors.New("mag: value is not a magnitude")

// Mag is a nonnegative real bound, ZERO or INFINITY.
type Mag struct {
	man uint32
	exp int64
	inf bool
}

// Zero returns ZERO.
func Zero() Mag { return Mag{} }

// One returns 1.
func One() Mag { return Mag{man: manMin, exp: 1} }

// Inf returns INFINITY.
func Inf() Mag { return Mag{inf: true} }

// MaxFinite returns the largest finite magnitude.
func MaxFinite() Mag { return Mag{man: manMax, exp: MaxExp} }

// SmallestPositive returns the smallest positive magnitude.
func SmallestPositive() Mag { return Mag{man: manMin, exp: MinExp} }

// normalize rounds the positive value man·2^(exp−Bits) to a Bits-wide
// mantissa, up or down, and clamps the exponent range.
func normalize(man uint64, exp int64, up bool) Mag {
	if man == 0 {
		return Zero()
	}
	n := bits.Len64(man)
	switch {
	case n > Bits:
		shift := uint(n - Bits)
		rem := man & (1<<shift - 1)
		man >>= shift
		exp += int64(shift)
		if up && rem != 0 {
			man++
			if man > manMax {
				man >>= 1
				exp++
			}
		}
	case n < Bits:
		shift := uint(Bits - n)
		man <<= shift
		exp -= int64(shift)
	}
	return clamp(uint32(man), exp, up)
}

func clamp(man uint32, exp int64, up bool) Mag {
	switch {
	case exp > MaxExp && up:
		return Inf()
	case exp > MaxExp:
		return MaxFinite()
	case exp < MinExp && up:
		return SmallestPositive()
	case exp < MinExp:
		return Zero()
	}
	return Mag{man: man, exp: exp}
}

// FromUint returns an upper bound for n.
func FromUint(n uint64) Mag { return normalize(n, Bits, true) }

// FromUintLower returns a lower bound for n.
func FromUintLower(n uint64) Mag { return normalize(n, Bits, false) }

// FromUint2Exp returns an upper bound for v·2^e.
func FromUint2Exp(v uint64, e int64) Mag { return normalize(v, Bits+e, true) }

// IsZero reports whether x is ZERO.
func (x Mag) IsZero() bool { return x.man == 0 && !x.inf }

// IsInf reports whether x is INFINITY.
func (x Mag) IsInf() bool { return x.inf }

// IsSpecial reports whether x is ZERO or INFINITY.
func (x Mag) IsSpecial() bool { return x.man == 0 || x.inf }

// Exp returns the exponent e with 2^(e−1) <= x < 2^e, or 0 for specials.
func (x Mag) Exp() int64 {
	if x.IsSpecial() {
		return 0
	}
	return x.exp
}

// Cmp compares x and y and returns -1, 0 or +1.
func (x Mag) Cmp(y Mag) int {
	switch {
	case x.inf && y.inf, x.IsZero() && y.IsZero():
		return 0
	case x.inf, y.IsZero():
		return 1
	case y.inf, x.IsZero():
		return -1
	case x.exp != y.exp:
		if x.exp < y.exp {
			return -1
		}
		return 1
	case x.man != y.man:
		if x.man < y.man {
			return -1
		}
		return 1
	}
	return 0
}

// Less reports whether x < y.
func (x Mag) Less(y Mag) bool { return x.Cmp(y) < 0 }

// Equal reports whether x and y are the same magnitude.
func (x Mag) Equal(y Mag) bool { return x.Cmp(y) == 0 }

// Max returns the larger of x and y.
func Max(x, y Mag) Mag {
	if x.Less(y) {
		return y
	}
	return x
}

// String formats x in decimal.
func (x Mag) String() string {
	switch {
	case x.inf:
		return "inf"
	case x.IsZero():
		return "0"
	}
	return x.Float().String()
}
