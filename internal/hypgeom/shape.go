// Package hypgeom bounds the truncation error of hypergeometric-type power
// series. Given the structural constants of a series whose term ratio is a
// rising-factorial quotient, a bound on one known term and a bound on the
// evaluation point, it decides how many leading terms must be summed so that
// the remaining tail is provably below 2^-tol.
//
// All arithmetic is carried out in directed magnitude arithmetic (package
// mag): every quantity that appears in a numerator is rounded up and every
// quantity in a denominator is rounded down, so the reported tail never
// underestimates the true one.
package hypgeom

import (
	"fmt"

	apperrors "github.com/agbru/hypbound/internal/errors"
	"github.com/agbru/hypbound/internal/mag"
)

// Shape holds the integer constants of the term recurrence
//
//	T(k)/T(k−1) = z·k·(k−B) / ((k−A)·(k−2B)·k^R)
//
// together with the index K of the term whose bound is known.
type Shape struct {
	K int64 `json:"K" yaml:"K" toml:"K"`
	A int64 `json:"A" yaml:"A" toml:"A"`
	B int64 `json:"B" yaml:"B" toml:"B"`
	R int   `json:"r" yaml:"r" toml:"r"`
}

// Validate checks that every factorial argument reached from term K onward
// is nonnegative. A violation is a precondition error.
func (s Shape) Validate() error {
	const op = "hypgeom.Shape"
	switch {
	case s.K < 0:
		return apperrors.NewPreconditionError(op, "K must be nonnegative, got %d", s.K)
	case s.R < 0:
		return apperrors.NewPreconditionError(op, "r must be nonnegative, got %d", s.R)
	case s.K+s.A < 0:
		return apperrors.NewPreconditionError(op, "K+A must be nonnegative, got %d", s.K+s.A)
	case s.K-s.A < 0:
		return apperrors.NewPreconditionError(op, "K-A must be nonnegative, got %d", s.K-s.A)
	case s.K-s.B < 0:
		return apperrors.NewPreconditionError(op, "K-B must be nonnegative, got %d", s.K-s.B)
	case s.K-2*s.B < 0:
		return apperrors.NewPreconditionError(op, "K-2B must be nonnegative, got %d", s.K-2*s.B)
	}
	return nil
}

// String returns a compact form such as "K=5 A=1 B=0 r=1".
func (s Shape) String() string {
	return fmt.Sprintf("K=%d A=%d B=%d r=%d", s.K, s.A, s.B, s.R)
}

// Problem is one tail-bound request.
type Problem struct {
	Shape
	// TK bounds |T(K)|.
	TK mag.Mag
	// Z bounds |z|.
	Z mag.Mag
	// Tol is the binary tolerance exponent: the tail must be below 2^-Tol.
	Tol int64
}

// maxTol keeps 2^-Tol inside the magnitude exponent range.
const maxTol = mag.MaxExp - 1

// Validate checks the shape and the tolerance range.
func (p Problem) Validate() error {
	if err := p.Shape.Validate(); err != nil {
		return err
	}
	if p.Tol > maxTol || p.Tol < -maxTol {
		return apperrors.NewPreconditionError("hypgeom.Problem", "tolerance exponent %d out of range", p.Tol)
	}
	return nil
}

// Key returns a canonical text form of p, suitable as a cache key.
func (p Problem) Key() string {
	tk, _ := p.TK.MarshalText()
	z, _ := p.Z.MarshalText()
	return fmt.Sprintf("%s tk=%s z=%s tol=%d", p.Shape, tk, z, p.Tol)
}
