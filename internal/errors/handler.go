package apperrors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ColorProvider supplies the highlight codes used in failure messages.
// The cli package provides the themed implementation.
type ColorProvider interface {
	Yellow() string
	Reset() string
}

// DefaultColorProvider highlights nothing.
type DefaultColorProvider struct{}

func (DefaultColorProvider) Yellow() string { return "" }
func (DefaultColorProvider) Reset() string  { return "" }

// HandleBoundError prints a one-line status for a failed computation to out
// and returns its exit code. A nil err prints nothing and returns
// ExitSuccess; a nil colors prints without highlighting.
func HandleBoundError(err error, duration time.Duration, out io.Writer, colors ColorProvider) int {
	if err == nil {
		return ExitSuccess
	}

	if colors == nil {
		colors = DefaultColorProvider{}
	}

	msgSuffix := ""
	if duration > 0 {
		msgSuffix = fmt.Sprintf(" after %s%s%s", colors.Yellow(), duration, colors.Reset())
	}

	var cfgErr ConfigError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		fmt.Fprintf(out, "Status: Failure (Timeout). The execution limit was reached%s.\n", msgSuffix)
		return ExitErrorTimeout
	case errors.Is(err, context.Canceled):
		fmt.Fprintf(out, "%sStatus: Canceled%s.%s\n", colors.Yellow(), msgSuffix, colors.Reset())
		return ExitErrorCanceled
	case errors.Is(err, ErrNotConverged):
		fmt.Fprintf(out, "Status: Failure (Not converged)%s: %v\n", msgSuffix, err)
		return ExitErrorNotConverged
	case errors.Is(err, ErrPrecondition):
		fmt.Fprintf(out, "Status: Failure (Invalid parameters): %v\n", err)
		return ExitErrorPrecondition
	case errors.As(err, &cfgErr):
		fmt.Fprintf(out, "Status: Failure (Configuration): %v\n", err)
		return ExitErrorConfig
	}
	fmt.Fprintf(out, "Status: Failure. An unexpected error occurred: %v\n", err)
	return ExitErrorGeneric
}
