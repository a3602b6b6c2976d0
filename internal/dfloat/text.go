package dfloat

import (
	"fmt"
	"math/big"
	"strings"
)

// Text encoding
//
// A finite nonzero value is written as two lowercase hexadecimal integers
// separated by a single space: an odd mantissa and a binary exponent, so
// that the value is man·2^exp. Negative numbers carry a leading '-'.
// Special values use a zero mantissa with a sentinel exponent:
//
//	0 0    zero
//	0 -1   +inf
//	0 -2   -inf
//	0 -3   nan
//
// The encoding is exact and round-trips every value except the sign of
// zero.

// MarshalText implements encoding.TextMarshaler.
func (x Float) MarshalText() ([]byte, error) {
	switch {
	case x.nan:
		return []byte("0 -3"), nil
	case x.IsInf() && x.v.Signbit():
		return []byte("0 -2"), nil
	case x.IsInf():
		return []byte("0 -1"), nil
	case x.IsZero():
		return []byte("0 0"), nil
	}
	man, exp, err := x.Int2Exp()
	if err != nil {
		return nil, err
	}
	e := big.NewInt(exp)
	return []byte(man.Text(16) + " " + e.Text(16)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (x *Float) UnmarshalText(text []byte) error {
	f, err := Parse(string(text))
	if err != nil {
		return err
	}
	*x = f
	return nil
}

// Parse decodes the text encoding produced by MarshalText.
func Parse(s string) (Float, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Float{}, fmt.Errorf("%w: %q: want two fields", ErrSyntax, s)
	}
	man, ok := new(big.Int).SetString(fields[0], 16)
	if !ok {
		return Float{}, fmt.Errorf("%w: bad mantissa %q", ErrSyntax, fields[0])
	}
	exp, ok := new(big.Int).SetString(fields[1], 16)
	if !ok {
		return Float{}, fmt.Errorf("%w: bad exponent %q", ErrSyntax, fields[1])
	}
	if man.Sign() == 0 {
		if !exp.IsInt64() {
			return Float{}, fmt.Errorf("%w: unknown special %q", ErrSyntax, s)
		}
		switch exp.Int64() {
		case 0:
			return Zero(), nil
		case -1:
			return PosInf(), nil
		case -2:
			return NegInf(), nil
		case -3:
			return NaN(), nil
		}
		return Float{}, fmt.Errorf("%w: unknown special %q", ErrSyntax, s)
	}
	if !exp.IsInt64() {
		return Float{}, ErrRange
	}
	return FromInt2Exp(man, exp.Int64())
}
