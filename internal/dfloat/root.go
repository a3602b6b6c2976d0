package dfloat

import (
	"math"
	"math/big"
)

// maxRootFixups bounds the number of one-ulp corrections applied after the
// Newton iteration. Newton already lands within an ulp or two.
const maxRootFixups = 64

// Sqrt returns the square root of x rounded to prec bits in direction rnd.
// Negative inputs yield NaN.
func Sqrt(x Float, prec uint, rnd Round) Float {
	return Root(x, 2, prec, rnd)
}

// Root returns the k-th root of x rounded to prec bits in direction rnd.
// The direction is guaranteed: for Up/Ceil the result r satisfies r^k >= x,
// for Down/Floor r^k <= x, checked by exact powering. Negative x and k = 0
// yield NaN.
func Root(x Float, k uint, prec uint, rnd Round) Float {
	switch {
	case x.nan || k == 0 || x.Sgn() < 0:
		return NaN()
	case x.IsZero(), x.IsInf():
		return x
	case k == 1:
		return x.Round(prec, rnd)
	}
	if prec == 0 {
		prec = 1
	}
	y := newtonRoot(x.v, k, prec+32)
	r := newBig(prec, rnd).Set(y)
	if rnd == Nearest {
		return Float{v: r}
	}
	up := rnd.raisesMagnitude()
	for i := 0; i < maxRootFixups; i++ {
		c := cmpPow(r, k, x.v)
		if up && c >= 0 || !up && c <= 0 {
			break
		}
		if up {
			r = nextUp(r, prec)
		} else {
			r = nextDown(r, prec)
		}
	}
	return Float{v: r}
}

// newtonRoot approximates x^(1/k) for x > 0 at the given working precision.
func newtonRoot(x *big.Float, k uint, work uint) *big.Float {
	mant := new(big.Float)
	exp := x.MantExp(mant)
	q := floorDiv(exp, int(k))
	rem := exp - q*int(k)
	m, _ := mant.Float64()
	guess := math.Pow(m, 1/float64(k)) * math.Exp2(float64(rem)/float64(k))

	y := new(big.Float).SetPrec(work).SetFloat64(guess)
	y.SetMantExp(y, q)

	kf := new(big.Float).SetPrec(work).SetUint64(uint64(k))
	km1 := new(big.Float).SetPrec(work).SetUint64(uint64(k - 1))
	iters := 3
	for p := uint(48); p < work; p *= 2 {
		iters++
	}
	for i := 0; i < iters; i++ {
		// y = ((k-1)·y + x/y^(k-1)) / k
		pow := powExact(y, k-1, work)
		t := new(big.Float).SetPrec(work).Quo(x, pow)
		s := new(big.Float).SetPrec(work).Mul(km1, y)
		s.Add(s, t)
		y = new(big.Float).SetPrec(work).Quo(s, kf)
	}
	return y
}

// cmpPow compares r^k with x exactly.
func cmpPow(r *big.Float, k uint, x *big.Float) int {
	if r.Sign() == 0 {
		return -x.Sign()
	}
	need := r.MinPrec() * k
	if need > MaxPrec {
		need = MaxPrec
	}
	return powExact(r, k, need).Cmp(x)
}

// powExact returns r^k computed at precision prec by binary powering.
// When prec is at least k times r's mantissa length the result is exact.
func powExact(r *big.Float, k uint, prec uint) *big.Float {
	result := new(big.Float).SetPrec(prec).SetUint64(1)
	base := new(big.Float).SetPrec(prec).Set(r)
	for k > 0 {
		if k&1 == 1 {
			result.Mul(result, base)
		}
		k >>= 1
		if k > 0 {
			base.Mul(base, base)
		}
	}
	return result
}

// nextUp returns the smallest prec-bit value above the positive r.
func nextUp(r *big.Float, prec uint) *big.Float {
	ulp := new(big.Float).SetMantExp(big.NewFloat(1), r.MantExp(nil)-int(prec))
	return new(big.Float).SetPrec(prec).SetMode(big.AwayFromZero).Add(r, ulp)
}

// nextDown returns a prec-bit value below the positive r, floored at zero.
func nextDown(r *big.Float, prec uint) *big.Float {
	ulp := new(big.Float).SetMantExp(big.NewFloat(1), r.MantExp(nil)-int(prec))
	d := new(big.Float).SetPrec(prec).SetMode(big.ToZero).Sub(r, ulp)
	if d.Sign() < 0 {
		return new(big.Float).SetPrec(prec)
	}
	return d
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && (a < 0) != (b < 0) {
		q--
	}
	return q
}
