package mag

import (
	"fmt"

	"github.com/agbru/hypbound/internal/dfloat"
)

// MarshalText implements encoding.TextMarshaler using the dfloat text
// encoding of the exact value, with "0 -1" for INFINITY.
func (x Mag) MarshalText() ([]byte, error) {
	return x.Float().MarshalText()
}

// UnmarshalText implements encoding.TextUnmarshaler. Values that do not
// fit the mantissa are rounded up. Negative values, negative infinity and
// NaN are rejected with ErrNotMagnitude.
func (x *Mag) UnmarshalText(text []byte) error {
	f, err := dfloat.Parse(string(text))
	if err != nil {
		return err
	}
	if f.IsNaN() || f.Sgn() < 0 {
		return fmt.Errorf("%w: %q", ErrNotMagnitude, text)
	}
	*x = FromFloat(f)
	return nil
}
