// Package service is the application layer between the HTTP server and the
// solver: it enforces request limits and memoises results.
package service

import (
	"context"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apperrors "github.com/agbru/hypbound/internal/errors"
	"github.com/agbru/hypbound/internal/hypgeom"
)

// Service computes tail bounds for untrusted callers.
type Service interface {
	Bound(ctx context.Context, p hypgeom.Problem) (hypgeom.Result, error)
}

// Limits bounds the work a single request may ask for. Zero fields mean no
// limit.
type Limits struct {
	// MaxK caps K, A and B in absolute value.
	MaxK int64
	// MaxTol caps the tolerance exponent in absolute value.
	MaxTol int64
	// MaxR caps the factorial power.
	MaxR int
}

// DefaultLimits keeps requests within what a solver finishes in well under
// a second.
func DefaultLimits() Limits {
	return Limits{MaxK: 1 << 20, MaxTol: 1 << 16, MaxR: 64}
}

var cacheLookups = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "hypbound_cache_lookups_total",
		Help: "Result cache lookups by outcome",
	},
	[]string{"result"},
)

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Size   int   `json:"size"`
}

// BoundService validates requests against Limits, answers repeated problems
// from an LRU cache and delegates the rest to a solver.
type BoundService struct {
	solver *hypgeom.Solver
	limits Limits
	cache  *lru.Cache[string, hypgeom.Result]
	hits   atomic.Int64
	misses atomic.Int64
}

var _ Service = (*BoundService)(nil)

// NewBoundService creates a service. cacheSize <= 0 disables caching. A nil
// solver means hypgeom.NewSolver().
func NewBoundService(solver *hypgeom.Solver, cacheSize int, limits Limits) (*BoundService, error) {
	if solver == nil {
		solver = hypgeom.NewSolver()
	}
	s := &BoundService{solver: solver, limits: limits}
	if cacheSize > 0 {
		c, err := lru.New[string, hypgeom.Result](cacheSize)
		if err != nil {
			return nil, apperrors.WrapError(err, "creating result cache")
		}
		s.cache = c
	}
	return s, nil
}

// CheckLimits reports the first limit p exceeds as a ValidationError.
func (s *BoundService) CheckLimits(p hypgeom.Problem) error {
	l := s.limits
	if l.MaxK > 0 {
		for _, f := range []struct {
			name string
			v    int64
		}{{"K", p.K}, {"A", p.A}, {"B", p.B}} {
			if f.v > l.MaxK || f.v < -l.MaxK {
				return apperrors.NewValidationError(f.name, "exceeds the maximum magnitude allowed", f.v)
			}
		}
	}
	if l.MaxTol > 0 && (p.Tol > l.MaxTol || p.Tol < -l.MaxTol) {
		return apperrors.NewValidationError("tol", "exceeds the maximum magnitude allowed", p.Tol)
	}
	if l.MaxR > 0 && p.R > l.MaxR {
		return apperrors.NewValidationError("r", "exceeds the maximum allowed", p.R)
	}
	return nil
}

// Bound checks the limits, then returns a cached result for p if one
// exists and otherwise runs the solver. Only successful results are cached.
func (s *BoundService) Bound(ctx context.Context, p hypgeom.Problem) (hypgeom.Result, error) {
	if err := s.CheckLimits(p); err != nil {
		return hypgeom.Result{}, err
	}
	key := p.Key()
	if s.cache != nil {
		if res, ok := s.cache.Get(key); ok {
			s.hits.Add(1)
			cacheLookups.WithLabelValues("hit").Inc()
			return res, nil
		}
		s.misses.Add(1)
		cacheLookups.WithLabelValues("miss").Inc()
	}
	res, err := s.solver.Bound(ctx, p)
	if err != nil {
		return hypgeom.Result{}, err
	}
	if s.cache != nil {
		s.cache.Add(key, res)
	}
	return res, nil
}

// Stats returns the cache counters.
func (s *BoundService) Stats() CacheStats {
	st := CacheStats{Hits: s.hits.Load(), Misses: s.misses.Load()}
	if s.cache != nil {
		st.Size = s.cache.Len()
	}
	return st
}
