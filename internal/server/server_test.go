package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/agbru/hypbound/internal/config"
	apperrors "github.com/agbru/hypbound/internal/errors"
	"github.com/agbru/hypbound/internal/hypgeom"
	"github.com/agbru/hypbound/internal/logging"
	"github.com/agbru/hypbound/internal/mag"
	"github.com/agbru/hypbound/internal/service"
	"github.com/agbru/hypbound/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeService returns a canned answer and records the last problem.
type fakeService struct {
	res  hypgeom.Result
	err  error
	last hypgeom.Problem
}

func (f *fakeService) Bound(_ context.Context, p hypgeom.Problem) (hypgeom.Result, error) {
	f.last = p
	return f.res, f.err
}

func testConfig() config.AppConfig {
	return config.AppConfig{Port: "0", MaxIterations: hypgeom.DefaultMaxIterations, CacheSize: 16}
}

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	opts = append([]Option{WithLogger(logging.NewLogger(io.Discard, "server", zerolog.InfoLevel))}, opts...)
	s, err := NewServer(testConfig(), opts...)
	require.NoError(t, err)
	return s
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandleBoundEndToEnd(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := get(t, s, "/bound?r=1&z=1&tol=40")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	var resp BoundResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Positive(t, resp.N)
	require.NotNil(t, resp.Error)
	assert.True(t, resp.Error.Less(mag.Mul2Exp(mag.One(), -40)))
	assert.Equal(t, "K=0 A=0 B=0 r=1", resp.Shape)
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, resp.RequestID, rec.Header().Get(RequestIDHeader))
}

func TestHandleBoundStatusCodes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		query  string
		err    error
		status int
	}{
		{"missing tol", "z=1", nil, http.StatusBadRequest},
		{"missing z", "tol=3", nil, http.StatusBadRequest},
		{"bad K", "K=x&z=1&tol=3", nil, http.StatusBadRequest},
		{"negative z", "z=-1&tol=3", nil, http.StatusBadRequest},
		{"negative r", "r=-1&z=1&tol=3", nil, http.StatusBadRequest},
		{"limit", "z=1&tol=3", apperrors.NewValidationError("K", "too large", 1), http.StatusBadRequest},
		{"precondition", "z=1&tol=3", apperrors.NewPreconditionError("hypgeom.Shape", "K-A must be nonnegative"), http.StatusUnprocessableEntity},
		{"deadline", "z=1&tol=3", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"internal", "z=1&tol=3", errors.New("disk on fire"), http.StatusInternalServerError},
		{"not converged", "z=1&tol=3", &apperrors.ConvergenceError{Reason: "iteration ceiling reached"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := newTestServer(t, WithService(&fakeService{err: tt.err}))
			rec := get(t, s, "/bound?"+tt.query)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status != http.StatusOK {
				var e ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
				assert.Equal(t, http.StatusText(tt.status), e.Error)
				assert.NotEmpty(t, e.RequestID)
			}
		})
	}
}

func TestHandleBoundNotConvergedBody(t *testing.T) {
	t.Parallel()
	fake := &fakeService{err: &apperrors.ConvergenceError{LastN: 9, Reason: "iteration ceiling reached"}}
	s := newTestServer(t, WithService(fake))
	rec := get(t, s, "/bound?K=4&A=1&B=2&r=0&z=1/2&tk=3&tol=8")

	var resp BoundResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Failure, "iteration ceiling reached")
	assert.Nil(t, resp.Error)

	want := hypgeom.Shape{K: 4, A: 1, B: 2, R: 0}
	assert.Equal(t, want, fake.last.Shape)
	assert.EqualValues(t, 8, fake.last.Tol)
	assert.True(t, fake.last.Z.Equal(testutil.MustMag(t, "0.5")))
	assert.True(t, fake.last.TK.Equal(testutil.MustMag(t, "3")))
}

func TestRequestIDPropagation(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, WithService(&fakeService{}))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "trace-42")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "trace-42", rec.Header().Get(RequestIDHeader))
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	get(t, s, "/bound?z=1&tol=10")
	get(t, s, "/bound?z=1&tol=10")

	rec := get(t, s, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status string             `json:"status"`
		Cache  service.CacheStats `json:"cache"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.EqualValues(t, 1, body.Cache.Hits)
	assert.EqualValues(t, 1, body.Cache.Misses)
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, WithService(&fakeService{}))
	for _, path := range []string{"/bound", "/health", "/metrics"} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, path)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	get(t, s, "/bound?z=1&tol=5")
	rec := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "hypbound_http_requests_total")
	assert.Contains(t, body, "hypbound_solves_total")
}

func TestRequestLogging(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	s := newTestServer(t, WithService(&fakeService{}), WithLogger(logging.NewLogger(&buf, "server", zerolog.InfoLevel)))
	get(t, s, "/health")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "request completed", entry["message"])
	assert.Equal(t, "/health", entry["path"])
	assert.EqualValues(t, http.StatusOK, entry["status"])
	assert.NotEmpty(t, entry["request_id"])
}

func TestServeGracefulShutdown(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, WithService(&fakeService{res: hypgeom.Result{N: 3, Error: mag.One()}}))
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}, Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + ln.Addr().String() + "/bound?z=1&tol=1")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), `"n":3`), string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
