package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/agbru/hypbound/internal/cli"
	"github.com/agbru/hypbound/internal/config"
	apperrors "github.com/agbru/hypbound/internal/errors"
	"github.com/agbru/hypbound/internal/hypgeom"
	"github.com/agbru/hypbound/internal/logging"
	"github.com/agbru/hypbound/internal/service"
)

// handleHealth reports liveness and, when available, cache statistics.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	response := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	}
	if st, ok := s.service.(interface{ Stats() service.CacheStats }); ok {
		response["cache"] = st.Stats()
	}
	s.writeJSONResponse(w, http.StatusOK, response)
}

// handleBound answers GET /bound?K=&A=&B=&r=&z=&tk=&tol=.
//
// Malformed or over-limit parameters give 400, precondition violations 422
// and an expired request deadline 504. A search that did not converge is a
// 200 whose body carries the failure text.
func (s *Server) handleBound(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	p, err := parseBoundParams(r.URL.Query())
	if err != nil {
		s.writeErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeouts.RequestTimeout)
	defer cancel()

	start := time.Now()
	res, err := s.service.Bound(ctx, p)
	duration := time.Since(start)

	var vErr apperrors.ValidationError
	switch {
	case err == nil, errors.Is(err, apperrors.ErrNotConverged):
	case errors.As(err, &vErr):
		s.writeErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, apperrors.ErrPrecondition):
		s.writeErrorResponse(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	case errors.Is(err, context.DeadlineExceeded):
		s.writeErrorResponse(w, r, http.StatusGatewayTimeout, "the computation exceeded the request deadline")
		return
	default:
		s.logger.Error("bound failed", err, logging.String("request_id", RequestID(r.Context())))
		s.writeErrorResponse(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	s.writeJSONResponse(w, http.StatusOK, BoundResponse{
		JSONResult: cli.NewJSONResult("", p, res, duration, err),
		RequestID:  RequestID(r.Context()),
	})
}

// parseBoundParams reads a problem from query parameters. z and tol are
// required; K, A and B default to 0, r to 1 and tk to 1.
func parseBoundParams(q url.Values) (hypgeom.Problem, error) {
	ints := map[string]int64{"K": 0, "A": 0, "B": 0, "r": config.DefaultR}
	for name := range ints {
		if v := q.Get(name); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return hypgeom.Problem{}, paramError{name, "must be an integer"}
			}
			ints[name] = n
		}
	}
	if ints["r"] < 0 || ints["r"] > 1<<20 {
		return hypgeom.Problem{}, paramError{"r", "out of range"}
	}

	tolText := q.Get("tol")
	if tolText == "" {
		return hypgeom.Problem{}, paramError{"tol", "missing"}
	}
	tol, err := strconv.ParseInt(tolText, 10, 64)
	if err != nil {
		return hypgeom.Problem{}, paramError{"tol", "must be an integer"}
	}

	if q.Get("z") == "" {
		return hypgeom.Problem{}, paramError{"z", "missing"}
	}
	tk := q.Get("tk")
	if tk == "" {
		tk = config.DefaultTK
	}
	ps := config.ProblemSpec{K: ints["K"], A: ints["A"], B: ints["B"], Z: q.Get("z"), TK: tk}
	r := int(ints["r"])
	ps.R, ps.Tol = &r, &tol
	p, err := ps.ToProblem()
	if err != nil {
		var vErr apperrors.ValidationError
		if errors.As(err, &vErr) {
			return hypgeom.Problem{}, paramError{vErr.Field, vErr.Message}
		}
		return hypgeom.Problem{}, err
	}
	return p, nil
}

func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encoding JSON response", err)
	}
}

func (s *Server) writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	s.writeJSONResponse(w, statusCode, ErrorResponse{
		Error:     http.StatusText(statusCode),
		Message:   message,
		RequestID: RequestID(r.Context()),
	})
}
