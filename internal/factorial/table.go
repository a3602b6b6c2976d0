// Package factorial provides exact factorials for small arguments and
// rigorous directed bounds on Γ(n) = (n−1)! for every positive integer n.
//
// Bounds for n < ExactLimit round the exact factorial once, so they tighten
// to the exact value as the precision grows. Larger arguments use Stirling
// type inequalities evaluated with pre-verified rational bounds for 2π, e
// and 1/e, so no transcendental constant is ever computed to the working
// precision.
package factorial

import (
	"math/big"
	"sync"
)

// ExactLimit is the smallest n for which Γ(n) is bounded analytically
// instead of through the exact factorial table.
const ExactLimit = 250

var (
	tableOnce sync.Once
	table     []*big.Int
)

// factorials returns the shared table of k! for 0 <= k < ExactLimit.
// The table is built on first use; its entries must not be mutated.
func factorials() []*big.Int {
	tableOnce.Do(func() {
		table = buildTable(ExactLimit)
	})
	return table
}

// Exact returns n! as a freshly allocated integer. Arguments below
// ExactLimit are served from the shared table.
func Exact(n uint64) *big.Int {
	if n < ExactLimit {
		return new(big.Int).Set(factorials()[n])
	}
	t := factorials()
	r := new(big.Int).MulRange(ExactLimit, int64(n))
	return r.Mul(r, t[ExactLimit-1])
}
