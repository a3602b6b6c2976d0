package hypgeom

import (
	apperrors "github.com/agbru/hypbound/internal/errors"
	"github.com/agbru/hypbound/internal/mag"
)

// TermBound returns an upper bound for |T(n)| given tk bounding |T(K)| and
// z bounding the evaluation point. With m = n−K,
//
//	T(n) = T(K)·z^m · (K+A)!(K−2B)!(K−B+m)! / ((K−B)!(K−A+m)!(K−2B+m)!)
//	       · ((K+m)!/K!)^(1−r)
//
// For r >= 2 the last factor is evaluated as (K!/(K+m)!)^(r−1) so that no
// small bound is ever inverted. The leading factorial uses K+|A|, which is
// the exact factor for A <= 0 and an upper bound for A > 0.
//
// n < K is a precondition violation.
func TermBound(s Shape, tk, z mag.Mag, n int64) (mag.Mag, error) {
	if err := s.Validate(); err != nil {
		return mag.Mag{}, err
	}
	if n < s.K {
		return mag.Mag{}, apperrors.NewPreconditionError("hypgeom.TermBound", "term index %d is below K=%d", n, s.K)
	}
	m := uint64(n - s.K)
	K := uint64(s.K)
	absA := s.A
	if absA < 0 {
		absA = -absA
	}

	num := mag.Mul(tk, mag.Pow(z, m))

	// (K+|A|)! (K−2B)! (K−B+m)!
	num = mag.Mul(num, mag.Fac(uint64(s.K+absA)))
	num = mag.Mul(num, mag.Fac(uint64(s.K-2*s.B)))
	num = mag.Mul(num, mag.Fac(uint64(s.K-s.B)+m))

	// 1 / ((K−B)! (K−A+m)! (K−2B+m)!)
	num = mag.Mul(num, mag.RFac(uint64(s.K-s.B)))
	num = mag.Mul(num, mag.RFac(uint64(s.K-s.A)+m))
	num = mag.Mul(num, mag.RFac(uint64(s.K-2*s.B)+m))

	switch {
	case s.R == 0:
		num = mag.Mul(num, mag.Fac(K+m))
		num = mag.Mul(num, mag.RFac(K))
	case s.R >= 2:
		t := mag.Mul(mag.Fac(K), mag.RFac(K+m))
		num = mag.Mul(num, mag.Pow(t, uint64(s.R-1)))
	}
	return num, nil
}
