// Package scenario defines the unit of verification the runner executes:
// a named step function run against the shared session, in registration
// order.
//
// Classification is explicit at each assertion site: steps return an
// *AssertionError (via Fail/Failf) when an expectation about the UI is
// false, and any other error when something broke. The runner maps the
// former to FAIL and the latter to ERROR.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/benedictaitor/uiprobe/internal/config"
	"github.com/benedictaitor/uiprobe/internal/driver"
	"github.com/benedictaitor/uiprobe/internal/mockrec"
	"github.com/benedictaitor/uiprobe/internal/session"
	"github.com/benedictaitor/uiprobe/internal/wait"
)

// Scenario is one named, ordered unit of verification.
type Scenario struct {
	Name string
	Step func(t *T) error
}

// AssertionError marks an expectation about the UI that turned out false.
// Distinct from generic errors so callers can tell "the assertion was
// false" apart from "something broke".
type AssertionError struct {
	Msg string
}

func (e *AssertionError) Error() string { return e.Msg }

// Fail builds an assertion failure.
func Fail(msg string) error { return &AssertionError{Msg: msg} }

// Failf builds a formatted assertion failure.
func Failf(format string, args ...any) error {
	return &AssertionError{Msg: fmt.Sprintf(format, args...)}
}

// IsAssertion reports whether err is an assertion failure, unwrapping as
// needed.
func IsAssertion(err error) bool {
	var ae *AssertionError
	return errors.As(err, &ae)
}

// T is the context handed to a scenario step. It carries the session, the
// run configuration and convenience helpers; it also tracks mock recorders
// created by the step so the runner can guarantee their timers die at
// scenario end.
type T struct {
	Ctx     context.Context
	Session *session.Session
	Cfg     config.Config
	Logger  *slog.Logger

	recorders []*mockrec.Recorder
	seed      int64
}

// NewT builds a step context. The seed fixes mock recorder randomness for
// reproducible runs.
func NewT(ctx context.Context, sess *session.Session, cfg config.Config, logger *slog.Logger, seed int64) *T {
	if logger == nil {
		logger = slog.Default()
	}
	return &T{Ctx: ctx, Session: sess, Cfg: cfg, Logger: logger, seed: seed}
}

// Driver returns the session's automation driver.
func (t *T) Driver() driver.Driver { return t.Session.Driver }

// Navigate loads a URL in the session browser.
func (t *T) Navigate(url string) error {
	t.Logger.Debug("navigate", "url", url)
	if err := t.Driver().Navigate(t.Ctx, url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// WaitFor polls the condition with the configured default timeout.
func (t *T) WaitFor(cond wait.Condition) error {
	return t.WaitForWithin(cond, t.Cfg.DefaultTimeout)
}

// WaitForWithin polls the condition with an explicit timeout.
func (t *T) WaitForWithin(cond wait.Condition, timeout time.Duration) error {
	return wait.WaitUntil(t.Ctx, t.Driver(), cond, wait.Options{
		Timeout:  timeout,
		Interval: t.Cfg.PollInterval,
	})
}

// RequirePresent asserts an element appears within the timeout, converting
// a poller timeout into an assertion failure with a readable description.
func (t *T) RequirePresent(selector, desc string, timeout time.Duration) error {
	err := t.WaitForWithin(wait.ElementPresent(selector), timeout)
	if err == nil {
		return nil
	}
	if wait.IsTimeout(err) {
		return Failf("%s not found (selector %q)", desc, selector)
	}
	return err
}

// Click finds the element and clicks it.
func (t *T) Click(selector string) error {
	id, err := t.Driver().FindElement(t.Ctx, selector)
	if err != nil {
		return fmt.Errorf("find %q: %w", selector, err)
	}
	if err := t.Driver().Click(t.Ctx, id); err != nil {
		return fmt.Errorf("click %q: %w", selector, err)
	}
	return nil
}

// NewRecorder creates a mock capture recorder bound to this scenario. The
// runner closes every recorder created here before the next scenario
// starts, so a step may leave one recording without leaking its timer.
func (t *T) NewRecorder(cb mockrec.Callbacks) *mockrec.Recorder {
	r := mockrec.New(t.Driver(), t.Logger, t.seed, cb)
	t.recorders = append(t.recorders, r)
	return r
}

// Close stops any recorders the step left live. Called by the runner after
// every scenario regardless of outcome.
func (t *T) Close() {
	for _, r := range t.recorders {
		r.Close()
	}
	t.recorders = nil
}
