//go:build !gmp

package factorial

import "math/big"

// buildTable computes k! for 0 <= k < size with math/big.
func buildTable(size int) []*big.Int {
	t := make([]*big.Int, size)
	t[0] = big.NewInt(1)
	for k := 1; k < size; k++ {
		t[k] = new(big.Int).Mul(t[k-1], big.NewInt(int64(k)))
	}
	return t
}
