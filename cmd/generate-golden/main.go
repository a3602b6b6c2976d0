// Command generate-golden writes exact rational values of the hypergeometric
// term T(n) for a fixed set of shapes. The hypgeom tests check TermBound
// against them.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	"github.com/agbru/hypbound/internal/factorial"
)

// goldenCase is one entry of term_golden.json.
type goldenCase struct {
	K     int64  `json:"K"`
	A     int64  `json:"A"`
	B     int64  `json:"B"`
	R     int    `json:"r"`
	Z     string `json:"z"`
	TK    string `json:"tk"`
	N     int64  `json:"n"`
	Exact string `json:"exact"`
}

type goldenFile struct {
	Cases []goldenCase `json:"cases"`
}

// targets cover r from 0 to 4, negative A and B, z below and above 1 and
// n = K.
var targets = []goldenCase{
	{K: 5, A: 1, B: 0, R: 1, Z: "1", TK: "1", N: 10},
	{K: 0, A: 0, B: 0, R: 0, Z: "1/2", TK: "1", N: 6},
	{K: 3, A: 2, B: 1, R: 0, Z: "3/4", TK: "3/8", N: 9},
	{K: 4, A: -2, B: 2, R: 1, Z: "5/2", TK: "1", N: 12},
	{K: 2, A: 0, B: -1, R: 2, Z: "3", TK: "1", N: 8},
	{K: 6, A: 3, B: 3, R: 3, Z: "7/4", TK: "5", N: 15},
	{K: 1, A: 1, B: 0, R: 2, Z: "1/3", TK: "1", N: 20},
	{K: 7, A: 0, B: 0, R: 4, Z: "10", TK: "1/16", N: 7},
	{K: 8, A: -4, B: -2, R: 1, Z: "2", TK: "9", N: 30},
	{K: 10, A: 5, B: 5, R: 2, Z: "9/8", TK: "1", N: 40},
}

func main() {
	outputDir := flag.String("out", "internal/hypgeom/testdata", "Output directory for the golden file")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	var golden goldenFile
	for _, c := range targets {
		v, err := exactTerm(c)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error evaluating K=%d A=%d B=%d r=%d n=%d: %v\n", c.K, c.A, c.B, c.R, c.N, err)
			os.Exit(1)
		}
		c.Exact = v.RatString()
		golden.Cases = append(golden.Cases, c)
		fmt.Printf("Generated K=%d A=%d B=%d r=%d n=%d\n", c.K, c.A, c.B, c.R, c.N)
	}

	data, err := json.MarshalIndent(golden, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding golden data: %v\n", err)
		os.Exit(1)
	}
	filename := filepath.Join(*outputDir, "term_golden.json")
	if err := os.WriteFile(filename, append(data, '\n'), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", filename, err)
		os.Exit(1)
	}
	fmt.Printf("Golden file written to %s\n", filename)
}

// exactTerm evaluates
//
//	T(n) = T(K) z^m (K+|A|)! (K−2B)! (K−B+m)! / ((K−B)! (K−A+m)! (K−2B+m)!) · ((K+m)!/K!)^(1−r)
//
// with m = n−K, in exact rational arithmetic.
func exactTerm(c goldenCase) (*big.Rat, error) {
	z, ok := new(big.Rat).SetString(c.Z)
	if !ok {
		return nil, fmt.Errorf("bad z %q", c.Z)
	}
	tk, ok := new(big.Rat).SetString(c.TK)
	if !ok {
		return nil, fmt.Errorf("bad tk %q", c.TK)
	}
	m := c.N - c.K
	if m < 0 {
		return nil, fmt.Errorf("n is below K")
	}
	absA := c.A
	if absA < 0 {
		absA = -absA
	}
	for _, arg := range []int64{c.K + absA, c.K - 2*c.B, c.K - c.B, c.K - c.A} {
		if arg < 0 {
			return nil, fmt.Errorf("negative factorial argument %d", arg)
		}
	}
	fac := func(k int64) *big.Rat { return new(big.Rat).SetInt(factorial.Exact(uint64(k))) }

	v := new(big.Rat).Set(tk)
	v.Mul(v, new(big.Rat).SetFrac(
		new(big.Int).Exp(z.Num(), big.NewInt(m), nil),
		new(big.Int).Exp(z.Denom(), big.NewInt(m), nil),
	))
	v.Mul(v, fac(c.K+absA))
	v.Mul(v, fac(c.K-2*c.B))
	v.Mul(v, fac(c.K-c.B+m))
	v.Quo(v, fac(c.K-c.B))
	v.Quo(v, fac(c.K-c.A+m))
	v.Quo(v, fac(c.K-2*c.B+m))

	base := new(big.Rat).Quo(fac(c.K+m), fac(c.K))
	for e := 1 - c.R; e != 0; {
		if e > 0 {
			v.Mul(v, base)
			e--
		} else {
			v.Quo(v, base)
			e++
		}
	}
	return v, nil
}
