//go:build gmp

// This file builds the factorial table with GMP, conditionally compiled
// with the "gmp" build tag (go build -tags=gmp, requires libgmp).

package factorial

import (
	"math/big"

	"github.com/ncw/gmp"
)

// buildTable computes k! for 0 <= k < size with GMP and converts each entry
// to a standard library big.Int.
func buildTable(size int) []*big.Int {
	t := make([]*big.Int, size)
	acc := gmp.NewInt(1)
	t[0] = big.NewInt(1)
	for k := 1; k < size; k++ {
		acc.MulUint32(acc, uint32(k))
		t[k] = gmpToStdBigInt(acc)
	}
	return t
}

// gmpToStdBigInt converts a nonnegative gmp.Int to a standard library big.Int.
func gmpToStdBigInt(g *gmp.Int) *big.Int {
	return new(big.Int).SetBytes(g.Bytes())
}
