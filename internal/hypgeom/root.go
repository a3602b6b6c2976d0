package hypgeom

import (
	"math"

	"github.com/agbru/hypbound/internal/dfloat"
	"github.com/agbru/hypbound/internal/mag"
)

// RootBound returns an index m from which z^k/(k!)^r is non-increasing in
// k, computed as ⌈z^(1/r)⌉+1 with the root rounded up. It is 0 for r = 0
// and saturates at math.MaxInt64 for an infinite or huge z.
func RootBound(z mag.Mag, r int) int64 {
	if r <= 0 {
		return 0
	}
	if z.IsInf() {
		return math.MaxInt64
	}
	t := dfloat.Root(z.Float(), uint(r), mag.Bits, dfloat.Up)
	t = dfloat.AddUint(t, 1, mag.Bits, dfloat.Up)
	v, err := t.Int64(dfloat.Ceil)
	if err != nil {
		return math.MaxInt64
	}
	return v
}
