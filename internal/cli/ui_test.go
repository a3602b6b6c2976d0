package cli

import (
	"bytes"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/hypbound/internal/hypgeom"
)

// MockSpinner records the calls made by DisplayProgress.
type MockSpinner struct {
	mu       sync.Mutex
	started  bool
	stopped  bool
	suffixes []string
}

func (m *MockSpinner) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = true
}

func (m *MockSpinner) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

func (m *MockSpinner) UpdateSuffix(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suffixes = append(m.suffixes, s)
}

func TestFormatExecutionDuration(t *testing.T) {
	t.Parallel()
	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Microsecond, "500µs"},
		{0, "0µs"},
		{1500 * time.Microsecond, "1ms"},
		{250 * time.Millisecond, "250ms"},
		{1500 * time.Millisecond, "1.5s"},
		{2 * time.Minute, "2m0s"},
	}
	for _, tt := range tests {
		if got := FormatExecutionDuration(tt.d); got != tt.want {
			t.Errorf("FormatExecutionDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestProgressBar(t *testing.T) {
	t.Parallel()
	tests := []struct {
		progress float64
		want     string
	}{
		{0, "░░░░░░░░░░"},
		{0.5, "█████░░░░░"},
		{1, "██████████"},
		{1.7, "██████████"},
		{-0.2, "░░░░░░░░░░"},
	}
	for _, tt := range tests {
		if got := progressBar(tt.progress, 10); got != tt.want {
			t.Errorf("progressBar(%v) = %q, want %q", tt.progress, got, tt.want)
		}
	}
}

func TestConvergence(t *testing.T) {
	t.Parallel()
	tests := []struct {
		tail float64
		tol  int64
		want float64
	}{
		{1, 10, 0},
		{math.Ldexp(1, -5), 10, 0.5},
		{math.Ldexp(1, -20), 10, 1},
		{4, 10, 0},
		{0, 10, 1},
		{0.5, 0, 1},
		{2, 0, 0},
	}
	for _, tt := range tests {
		if got := convergence(tt.tail, tt.tol); got != tt.want {
			t.Errorf("convergence(%v, %d) = %v, want %v", tt.tail, tt.tol, got, tt.want)
		}
	}
}

// TestDisplayProgress feeds updates for longer than a refresh period and
// checks that the spinner ran and the final line was printed.
func TestDisplayProgress(t *testing.T) {
	original := newSpinner
	t.Cleanup(func() { newSpinner = original })
	mock := &MockSpinner{}
	newSpinner = func(...spinner.Option) Spinner { return mock }

	var wg sync.WaitGroup
	wg.Add(1)
	updates := make(chan hypgeom.ProgressUpdate)
	var out bytes.Buffer

	go DisplayProgress(&wg, updates, 10, &out)
	for i := 1; i <= 5; i++ {
		updates <- hypgeom.ProgressUpdate{N: int64(i), Tail: math.Ldexp(1, -2*i)}
		time.Sleep(60 * time.Millisecond)
	}
	close(updates)
	wg.Wait()

	mock.mu.Lock()
	defer mock.mu.Unlock()
	if !mock.started || !mock.stopped {
		t.Errorf("spinner started=%v stopped=%v", mock.started, mock.stopped)
	}
	if len(mock.suffixes) == 0 {
		t.Error("expected at least one suffix refresh")
	}
	if got := out.String(); !strings.Contains(got, "n=5") || !strings.Contains(got, progressBar(1, ProgressBarWidth)) {
		t.Errorf("final line = %q", got)
	}
}

func TestDisplayProgressWithoutUpdates(t *testing.T) {
	original := newSpinner
	t.Cleanup(func() { newSpinner = original })
	newSpinner = func(...spinner.Option) Spinner { return &MockSpinner{} }

	var wg sync.WaitGroup
	wg.Add(1)
	updates := make(chan hypgeom.ProgressUpdate)
	close(updates)
	var out bytes.Buffer
	DisplayProgress(&wg, updates, 10, &out)
	if out.Len() != 0 {
		t.Errorf("no updates must print nothing, got %q", out.String())
	}
}

func TestRealSpinner(t *testing.T) {
	t.Parallel()
	s := newSpinner(spinner.WithWriter(&bytes.Buffer{}))
	s.UpdateSuffix(" working")
	rs, ok := s.(*realSpinner)
	if !ok {
		t.Fatalf("newSpinner returned %T", s)
	}
	if rs.s.Suffix != " working" {
		t.Errorf("suffix = %q", rs.s.Suffix)
	}
}
