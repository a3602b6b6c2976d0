// Package dfloat implements an arbitrary-precision signed binary float whose
// every operation takes an explicit bit precision and rounding direction.
//
// It is a thin, immutable layer over math/big.Float, which already rounds
// correctly in all four directed modes. The layer adds what big.Float lacks
// for rigorous bound computations: a NaN value instead of panics, directed
// integer conversion, a verified k-th root, and a compact text encoding.
//
// Values are immutable: every operation returns a fresh Float and never
// mutates its operands, so Floats may be shared freely between goroutines.
// The zero value is +0.
package dfloat

import (
	"errors"
	"math"
	"math/big"
)

var (
	// ErrNaN is returned when a NaN is converted to a type that cannot hold it.
	ErrNaN = errors.New("dfloat: NaN")
	// ErrRange is returned when a value does not fit the destination type
	// or the exponent range of big.Float.
	ErrRange = errors.New("dfloat: value out of range")
	// ErrSyntax is returned when decoding malformed text.
	ErrSyntax = errors.New("dfloat: invalid syntax")
)

// MaxPrec is the largest supported precision in bits.
const MaxPrec = big.MaxPrec

// Float is an immutable arbitrary-precision binary floating-point number
// with special values ±0, ±Inf and NaN.
type Float struct {
	v   *big.Float // nil means +0 unless nan is set
	nan bool
}

// Zero returns +0.
func Zero() Float { return Float{} }

// PosInf returns +Inf.
func PosInf() Float { return Float{v: new(big.Float).SetInf(false)} }

// NegInf returns -Inf.
func NegInf() Float { return Float{v: new(big.Float).SetInf(true)} }

// NaN returns a not-a-number value.
func NaN() Float { return Float{nan: true} }

// FromInt64 returns the exact value of x.
func FromInt64(x int64) Float { return Float{v: new(big.Float).SetInt64(x)} }

// FromUint64 returns the exact value of x.
func FromUint64(x uint64) Float { return Float{v: new(big.Float).SetUint64(x)} }

// FromFloat64 returns the exact value of x. NaN maps to NaN.
func FromFloat64(x float64) Float {
	if math.IsNaN(x) {
		return NaN()
	}
	return Float{v: new(big.Float).SetFloat64(x)}
}

// FromUint2Exp returns the exact value v·2^e.
func FromUint2Exp(v uint64, e int) Float {
	f := new(big.Float).SetUint64(v)
	return Float{v: f.SetMantExp(f, e)}
}

// FromBigInt rounds x to prec bits in direction rnd.
func FromBigInt(x *big.Int, prec uint, rnd Round) Float {
	return Float{v: newBig(prec, rnd).SetInt(x)}
}

// FromRat rounds the rational x to prec bits in direction rnd.
func FromRat(x *big.Rat, prec uint, rnd Round) Float {
	return Float{v: newBig(prec, rnd).SetRat(x)}
}

// FromInt2Exp returns the exact value man·2^exp. It fails with ErrRange
// when the result exponent does not fit big.Float.
func FromInt2Exp(man *big.Int, exp int64) (Float, error) {
	if man.Sign() == 0 {
		return Zero(), nil
	}
	top := exp + int64(man.BitLen())
	if top > big.MaxExp || top < big.MinExp {
		return Float{}, ErrRange
	}
	prec := uint(man.BitLen())
	f := new(big.Float).SetPrec(prec).SetInt(man)
	return Float{v: f.SetMantExp(f, int(exp))}, nil
}

// newBig returns a zero big.Float configured with prec and rnd.
func newBig(prec uint, rnd Round) *big.Float {
	if prec == 0 {
		prec = 1
	}
	if prec > MaxPrec {
		prec = MaxPrec
	}
	return new(big.Float).SetPrec(prec).SetMode(rnd.Mode())
}

// bf returns the underlying value, never nil. Callers must not mutate it.
func (x Float) bf() *big.Float {
	if x.v == nil {
		return new(big.Float)
	}
	return x.v
}

// IsNaN reports whether x is NaN.
func (x Float) IsNaN() bool { return x.nan }

// IsInf reports whether x is +Inf or -Inf.
func (x Float) IsInf() bool { return !x.nan && x.v != nil && x.v.IsInf() }

// IsZero reports whether x is ±0.
func (x Float) IsZero() bool { return !x.nan && (x.v == nil || x.v.Sign() == 0) }

// IsSpecial reports whether x is zero, infinite or NaN.
func (x Float) IsSpecial() bool { return x.nan || x.IsZero() || x.IsInf() }

// Sgn returns -1, 0 or +1 depending on the sign of x. NaN yields 0.
func (x Float) Sgn() int {
	if x.nan || x.v == nil {
		return 0
	}
	return x.v.Sign()
}

// Cmp compares x and y and returns -1, 0 or +1. NaN is unordered: if either
// operand is NaN the result is 0, so callers that may see NaN must check
// IsNaN first.
func (x Float) Cmp(y Float) int {
	if x.nan || y.nan {
		return 0
	}
	return x.bf().Cmp(y.bf())
}

// Less reports whether x < y. It is false whenever an operand is NaN.
func (x Float) Less(y Float) bool {
	return !x.nan && !y.nan && x.bf().Cmp(y.bf()) < 0
}

// Prec returns the precision in bits of x's mantissa (0 for specials).
func (x Float) Prec() uint {
	if x.IsSpecial() {
		return 0
	}
	return x.v.MinPrec()
}

// Exp returns the binary exponent e such that x = m·2^e with 0.5 <= |m| < 1.
// It returns 0 for special values.
func (x Float) Exp() int {
	if x.IsSpecial() {
		return 0
	}
	return x.v.MantExp(nil)
}

// Int2Exp decomposes a finite x into an odd integer mantissa and a binary
// exponent with x = man·2^exp. Zero yields (0, 0). It fails for Inf and NaN.
func (x Float) Int2Exp() (*big.Int, int64, error) {
	switch {
	case x.nan:
		return nil, 0, ErrNaN
	case x.IsInf():
		return nil, 0, ErrRange
	case x.IsZero():
		return new(big.Int), 0, nil
	}
	exp := x.v.MantExp(nil) - int(x.v.MinPrec())
	scaled := new(big.Float).SetMantExp(x.v, -exp)
	man, _ := scaled.Int(nil)
	return man, int64(exp), nil
}

// Rat returns the exact rational value of a finite x.
func (x Float) Rat() (*big.Rat, error) {
	switch {
	case x.nan:
		return nil, ErrNaN
	case x.IsInf():
		return nil, ErrRange
	}
	r, _ := x.bf().Rat(nil)
	return r, nil
}

// Float64 returns the nearest float64 to x.
func (x Float) Float64() float64 {
	if x.nan {
		return math.NaN()
	}
	f, _ := x.bf().Float64()
	return f
}

// Int64 converts x to an integer rounded in direction rnd.
// It fails with ErrNaN or ErrRange when the result is not representable.
func (x Float) Int64(rnd Round) (int64, error) {
	switch {
	case x.nan:
		return 0, ErrNaN
	case x.IsInf():
		return 0, ErrRange
	case x.IsZero():
		return 0, nil
	}
	sign := x.v.Sign()
	e := x.v.MantExp(nil)
	if e > 64 {
		return 0, ErrRange
	}
	if e < -64 {
		// 0 < |x| < 2^-64: only the direction decides.
		switch {
		case rnd == Up, rnd == Ceil && sign > 0, rnd == Floor && sign < 0:
			return int64(sign), nil
		}
		return 0, nil
	}
	r, _ := x.v.Rat(nil)
	num, den := new(big.Int).Set(r.Num()), r.Denom()
	if rnd == Nearest {
		// floor(x + 1/2)
		num.Mul(num, big.NewInt(2)).Add(num, den)
		den = new(big.Int).Mul(den, big.NewInt(2))
		sign = num.Sign()
		rnd = Floor
	}
	q, m := new(big.Int).QuoRem(num, den, new(big.Int))
	if m.Sign() != 0 {
		switch {
		case rnd == Up && sign > 0, rnd == Ceil && sign > 0:
			q.Add(q, big.NewInt(1))
		case rnd == Up && sign < 0, rnd == Floor && sign < 0:
			q.Sub(q, big.NewInt(1))
		}
	}
	if !q.IsInt64() {
		return 0, ErrRange
	}
	return q.Int64(), nil
}

// String formats x with up to 20 significant decimal digits.
func (x Float) String() string {
	switch {
	case x.nan:
		return "nan"
	case x.IsInf() && x.v.Signbit():
		return "-inf"
	case x.IsInf():
		return "+inf"
	}
	return x.bf().Text('g', 20)
}

// MaxFinite returns the largest finite value with prec bits, just below
// 2^big.MaxExp. Lower bounds that overflow big.Float saturate to it.
func MaxFinite(prec uint) Float {
	f := newBig(prec, Down)
	p := f.Prec()
	m := new(big.Int).Lsh(big.NewInt(1), p)
	m.Sub(m, big.NewInt(1))
	f.SetInt(m)
	return Float{v: f.SetMantExp(f, big.MaxExp-int(p))}
}
