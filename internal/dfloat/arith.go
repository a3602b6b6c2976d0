package dfloat

import "math/big"

// Add returns x+y rounded to prec bits in direction rnd.
// Inf + (-Inf) is NaN.
func Add(x, y Float, prec uint, rnd Round) Float {
	switch {
	case x.nan || y.nan:
		return NaN()
	case x.IsInf() && y.IsInf() && x.v.Signbit() != y.v.Signbit():
		return NaN()
	case x.IsInf():
		return x
	case y.IsInf():
		return y
	}
	return Float{v: newBig(prec, rnd).Add(x.bf(), y.bf())}
}

// Sub returns x-y rounded to prec bits in direction rnd.
func Sub(x, y Float, prec uint, rnd Round) Float {
	return Add(x, y.Neg(), prec, rnd)
}

// Mul returns x·y rounded to prec bits in direction rnd.
// 0·Inf is NaN.
func Mul(x, y Float, prec uint, rnd Round) Float {
	switch {
	case x.nan || y.nan:
		return NaN()
	case x.IsInf() || y.IsInf():
		if x.IsZero() || y.IsZero() {
			return NaN()
		}
		return signedInf(x.Sgn()*y.Sgn() < 0)
	}
	return Float{v: newBig(prec, rnd).Mul(x.bf(), y.bf())}
}

// Div returns x/y rounded to prec bits in direction rnd.
// 0/0 and Inf/Inf are NaN; a nonzero value divided by zero is a signed Inf.
func Div(x, y Float, prec uint, rnd Round) Float {
	switch {
	case x.nan || y.nan:
		return NaN()
	case x.IsInf() && y.IsInf(), x.IsZero() && y.IsZero():
		return NaN()
	case x.IsInf():
		return signedInf(x.Sgn()*signOf(y) < 0)
	case y.IsZero():
		return signedInf(x.Sgn()*signOf(y) < 0)
	case y.IsInf():
		return Zero()
	}
	return Float{v: newBig(prec, rnd).Quo(x.bf(), y.bf())}
}

// AddUint returns x+n rounded to prec bits in direction rnd.
func AddUint(x Float, n uint64, prec uint, rnd Round) Float {
	return Add(x, FromUint64(n), prec, rnd)
}

// MulUint returns x·n rounded to prec bits in direction rnd.
func MulUint(x Float, n uint64, prec uint, rnd Round) Float {
	return Mul(x, FromUint64(n), prec, rnd)
}

// DivUint returns x/n rounded to prec bits in direction rnd.
func DivUint(x Float, n uint64, prec uint, rnd Round) Float {
	return Div(x, FromUint64(n), prec, rnd)
}

// Round returns x rounded to prec bits in direction rnd.
func (x Float) Round(prec uint, rnd Round) Float {
	if x.IsSpecial() {
		return x
	}
	return Float{v: newBig(prec, rnd).Set(x.v)}
}

// Neg returns -x exactly.
func (x Float) Neg() Float {
	if x.nan {
		return x
	}
	return Float{v: new(big.Float).Neg(x.bf())}
}

// Abs returns |x| exactly.
func (x Float) Abs() Float {
	if x.nan {
		return x
	}
	return Float{v: new(big.Float).Abs(x.bf())}
}

// Mul2Exp returns x·2^e exactly.
func (x Float) Mul2Exp(e int) Float {
	if x.IsSpecial() {
		return x
	}
	return Float{v: new(big.Float).SetMantExp(x.v, e)}
}

// PowUint returns x^n computed by binary powering with every product
// rounded to prec bits in direction rnd. With rnd Up or Down the result
// bounds |x|^n from the corresponding side for any sign of x; with Floor or
// Ceil this holds for x >= 0. 0^0 is 1.
func PowUint(x Float, n uint64, prec uint, rnd Round) Float {
	if n == 0 {
		if x.nan {
			return x
		}
		return FromUint64(1)
	}
	if x.nan {
		return x
	}
	if x.IsZero() {
		return Zero()
	}
	if x.IsInf() {
		return signedInf(x.Sgn() < 0 && n%2 == 1)
	}
	result := Float{}
	have := false
	base := x
	for {
		if n&1 == 1 {
			if have {
				result = Mul(result, base, prec, rnd)
			} else {
				result = base.Round(prec, rnd)
				have = true
			}
		}
		n >>= 1
		if n == 0 {
			return result
		}
		base = Mul(base, base, prec, rnd)
	}
}

func signedInf(neg bool) Float {
	if neg {
		return NegInf()
	}
	return PosInf()
}

// signOf returns the sign of x, treating -0 as negative.
func signOf(x Float) int {
	if x.v != nil && x.v.Signbit() {
		return -1
	}
	return 1
}
