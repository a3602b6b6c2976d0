package mag

import (
	"math"

	"github.com/agbru/hypbound/internal/factorial"
)

// Fac returns an upper bound for n!.
func Fac(n uint64) Mag {
	if n == math.MaxUint64 {
		return Inf()
	}
	g, err := factorial.GammaUpper(n+1, Bits)
	if err != nil {
		return Inf()
	}
	return FromFloat(g)
}

// FacLower returns a lower bound for n!.
func FacLower(n uint64) Mag {
	if n == math.MaxUint64 {
		return MaxFinite()
	}
	g, err := factorial.GammaLower(n+1, Bits)
	if err != nil {
		return Zero()
	}
	return FromFloatLower(g)
}

// RFac returns an upper bound for 1/n!.
func RFac(n uint64) Mag { return Div(One(), FacLower(n)) }

// RFacLower returns a lower bound for 1/n!.
func RFacLower(n uint64) Mag { return DivLower(One(), Fac(n)) }
