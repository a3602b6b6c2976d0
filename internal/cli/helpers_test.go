package cli

import (
	"sync/atomic"
	"time"

	"github.com/agbru/hypbound/internal/config"
)

func testConfig() config.AppConfig {
	return config.AppConfig{R: 1, Z: "1", TK: "1", Tol: 30, MaxIterations: 1000, Timeout: time.Minute}
}

type countingObserver struct{ n atomic.Int64 }

func (c *countingObserver) Update(int64, float64) { c.n.Add(1) }

func (c *countingObserver) count() int64 { return c.n.Load() }
