package dfloat

import "math/big"

// Round selects the direction in which an inexact result is rounded.
type Round uint8

const (
	// Down rounds toward zero.
	Down Round = iota
	// Up rounds away from zero.
	Up
	// Floor rounds toward negative infinity.
	Floor
	// Ceil rounds toward positive infinity.
	Ceil
	// Nearest rounds to the nearest value, ties to even.
	Nearest
)

// Mode returns the math/big rounding mode implementing r.
func (r Round) Mode() big.RoundingMode {
	switch r {
	case Down:
		return big.ToZero
	case Up:
		return big.AwayFromZero
	case Floor:
		return big.ToNegativeInf
	case Ceil:
		return big.ToPositiveInf
	default:
		return big.ToNearestEven
	}
}

// String returns the name of the rounding direction.
func (r Round) String() string {
	switch r {
	case Down:
		return "down"
	case Up:
		return "up"
	case Floor:
		return "floor"
	case Ceil:
		return "ceil"
	case Nearest:
		return "nearest"
	}
	return "unknown"
}

// Opposite returns the direction that bounds from the other side for
// nonnegative values: Up <-> Down, Ceil <-> Floor.
func (r Round) Opposite() Round {
	switch r {
	case Down:
		return Up
	case Up:
		return Down
	case Floor:
		return Ceil
	case Ceil:
		return Floor
	}
	return r
}

// raisesMagnitude reports whether r never decreases the magnitude of a
// positive result.
func (r Round) raisesMagnitude() bool {
	return r == Up || r == Ceil
}
