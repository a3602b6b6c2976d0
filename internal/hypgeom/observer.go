package hypgeom

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// ─────────────────────────────────────────────────────────────────────────────
// Observer Pattern Interfaces
// ─────────────────────────────────────────────────────────────────────────────

// Observer receives the state of the refinement loop each time a tail bound
// is available.
type Observer interface {
	// Update is called with the current term index and the tail bound from
	// that index onward, converted to a float64 for display.
	Update(n int64, tail float64)
}

// Subject fans refinement updates out to registered observers.
// Subject is safe for concurrent use.
type Subject struct {
	observers []Observer
	mu        sync.RWMutex
}

// NewSubject creates a subject with no observers.
func NewSubject() *Subject {
	return &Subject{}
}

// Register adds an observer. Observers are notified in registration order.
// A nil observer is ignored.
func (s *Subject) Register(o Observer) {
	if o == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Unregister removes an observer. Unknown observers are ignored.
func (s *Subject) Unregister(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.observers {
		if cur == o {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}

// Update implements Observer by notifying every registered observer.
func (s *Subject) Update(n int64, tail float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.observers {
		o.Update(n, tail)
	}
}

// Count returns the number of registered observers.
func (s *Subject) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observers)
}

// ─────────────────────────────────────────────────────────────────────────────
// Channel Observer
// ─────────────────────────────────────────────────────────────────────────────

// ProgressUpdate is one refinement step as seen by a ChannelObserver.
type ProgressUpdate struct {
	N    int64
	Tail float64
}

// ChannelObserver forwards updates to a channel without blocking. Updates
// are dropped while the channel is full.
type ChannelObserver struct {
	channel chan<- ProgressUpdate
}

// NewChannelObserver creates an observer that sends updates to ch. A nil
// channel discards every update.
func NewChannelObserver(ch chan<- ProgressUpdate) *ChannelObserver {
	return &ChannelObserver{channel: ch}
}

// Update implements Observer.
func (o *ChannelObserver) Update(n int64, tail float64) {
	if o.channel == nil {
		return
	}
	select {
	case o.channel <- ProgressUpdate{N: n, Tail: tail}:
	default:
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Logging Observer
// ─────────────────────────────────────────────────────────────────────────────

// LoggingObserver logs refinement steps at debug level, at most once every
// `every` term indices.
type LoggingObserver struct {
	logger zerolog.Logger
	every  int64
	last   int64
	mu     sync.Mutex
}

// NewLoggingObserver creates an observer that logs through logger. A
// non-positive every defaults to 100.
func NewLoggingObserver(logger zerolog.Logger, every int64) *LoggingObserver {
	if every <= 0 {
		every = 100
	}
	return &LoggingObserver{logger: logger, every: every, last: -1}
}

// Update implements Observer.
func (o *LoggingObserver) Update(n int64, tail float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.last >= 0 && n-o.last < o.every {
		return
	}
	o.last = n
	o.logger.Debug().
		Int64("n", n).
		Float64("tail", tail).
		Msg("tail bound refinement")
}

// ─────────────────────────────────────────────────────────────────────────────
// Metrics Observer (Prometheus)
// ─────────────────────────────────────────────────────────────────────────────

var currentTermGauge = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "hypbound_current_term",
	Help: "Term index most recently examined by the tail bound solver",
})

// MetricsObserver exports the current term index to Prometheus.
type MetricsObserver struct {
	gauge prometheus.Gauge
}

// NewMetricsObserver creates an observer backed by the shared gauge.
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{gauge: currentTermGauge}
}

// Update implements Observer.
func (o *MetricsObserver) Update(n int64, _ float64) {
	o.gauge.Set(float64(n))
}

// ─────────────────────────────────────────────────────────────────────────────
// No-Op Observer
// ─────────────────────────────────────────────────────────────────────────────

// NoOpObserver discards all updates.
type NoOpObserver struct{}

// Update implements Observer.
func (NoOpObserver) Update(int64, float64) {}
