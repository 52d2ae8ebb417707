package wait

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benedictaitor/uiprobe/internal/driver"
)

// DefaultInterval is the poll cadence used when Options.Interval is zero.
const DefaultInterval = 500 * time.Millisecond

// Options configures a single WaitUntil call.
type Options struct {
	// Timeout is the total budget for the wait. Required.
	Timeout time.Duration

	// Interval is the poll cadence. Zero means DefaultInterval.
	Interval time.Duration
}

// TimeoutError reports that a condition never became true within budget.
//
// It is distinguishable (via errors.As) from any error the predicate itself
// raised while evaluating; those are swallowed and retried until the
// deadline, with the last one preserved in LastErr for diagnostics.
type TimeoutError struct {
	Condition Condition
	Elapsed   time.Duration
	LastErr   error
}

func (e *TimeoutError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("timed out after %s waiting for %s (last error: %v)", e.Elapsed.Round(time.Millisecond), e.Condition, e.LastErr)
	}
	return fmt.Sprintf("timed out after %s waiting for %s", e.Elapsed.Round(time.Millisecond), e.Condition)
}

func (e *TimeoutError) Unwrap() error { return e.LastErr }

// IsTimeout reports whether err is a poller timeout, unwrapping as needed.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// WaitUntil repeatedly evaluates the condition until it holds or the
// timeout elapses.
//
// The first evaluation happens immediately; subsequent ones at the poll
// interval. On success WaitUntil returns right away, never sleeping out the
// remainder of an interval. Evaluation errors (element not found yet,
// navigation in progress) are treated as "condition not yet true" and
// retried; only the deadline converts them into a failure.
//
// Each call is independent: no timer state is shared between waits, and a
// cancelled ctx ends the wait with ctx.Err().
func WaitUntil(ctx context.Context, d driver.Driver, cond Condition, opts Options) error {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	start := time.Now()
	deadline := start.Add(opts.Timeout)

	var lastErr error
	for {
		ok, err := cond.Eval(ctx, d)
		if err == nil && ok {
			return nil
		}
		if err != nil {
			// A dead session will never recover; everything else is
			// assumed transient and retried.
			if errors.Is(err, driver.ErrStaleSession) {
				return fmt.Errorf("waiting for %s: %w", cond, err)
			}
			lastErr = err
		}

		if !time.Now().Before(deadline) {
			return &TimeoutError{Condition: cond, Elapsed: time.Since(start), LastErr: lastErr}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
