package app

import (
	"context"
	"os/signal"
	"syscall"
	"time"
)

// SetupContext bounds ctx by timeout.
//
// Parameters:
//   - ctx: The parent context.
//   - timeout: How long the search may run before it is abandoned.
//
// Returns:
//   - context.Context: ctx with the deadline attached.
//   - context.CancelFunc: Releases the timer; defer it.
func SetupContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

// SetupSignals returns a context canceled on SIGINT or SIGTERM, so an
// interrupted search ends with a canceled status instead of being killed.
//
// Parameters:
//   - ctx: The parent context.
//
// Returns:
//   - context.Context: ctx, canceled on the first termination signal.
//   - context.CancelFunc: Stops signal delivery; defer it.
func SetupSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}

// SetupLifecycle applies both the computation timeout and signal handling.
// Call Cleanup on the returned CancelFuncs when the computation ends.
//
// Parameters:
//   - ctx: The parent context.
//   - timeout: The computation budget, as for SetupContext.
//
// Returns:
//   - context.Context: ctx, done at the deadline or on a signal.
//   - *CancelFuncs: Both release functions, for Cleanup.
func SetupLifecycle(ctx context.Context, timeout time.Duration) (context.Context, *CancelFuncs) {
	ctx, cancelTimeout := SetupContext(ctx, timeout)
	ctx, stopSignals := SetupSignals(ctx)
	return ctx, &CancelFuncs{CancelTimeout: cancelTimeout, StopSignals: stopSignals}
}

// CancelFuncs releases what SetupLifecycle acquired.
type CancelFuncs struct {
	CancelTimeout context.CancelFunc
	StopSignals   context.CancelFunc
}

// Cleanup stops signal delivery, then cancels the timeout. Nil fields are
// skipped, so a partially built CancelFuncs is safe to clean up. Calling
// Cleanup twice is harmless.
func (c *CancelFuncs) Cleanup() {
	if c.StopSignals != nil {
		c.StopSignals()
	}
	if c.CancelTimeout != nil {
		c.CancelTimeout()
	}
}
