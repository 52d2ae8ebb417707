// Package driver defines the browser automation interface the harness
// drives, plus a thin W3C WebDriver wire client.
//
// The harness core never talks to a browser directly; everything goes
// through the Driver interface so tests can substitute a scripted double
// and backends can provide local or remote-grid implementations.
package driver

import (
	"context"
	"errors"
)

// ElementID identifies an element within the current page, as returned by
// FindElement. IDs are only valid for the session that produced them.
type ElementID string

// ErrNoSuchElement is returned by FindElement when no element matches the
// selector. Callers polling for UI readiness treat this as "not there yet"
// rather than a protocol fault.
var ErrNoSuchElement = errors.New("no such element")

// ErrStaleSession is returned when the underlying automation session has
// been closed or lost.
var ErrStaleSession = errors.New("stale session")

// Driver is the automation protocol consumed by the harness.
//
// All methods take a context because every call is a network or IPC round
// trip to the browser backend. Implementations must be safe for use from a
// single goroutine at a time; the harness never issues concurrent calls
// against one driver.
type Driver interface {
	// Navigate loads the given URL in the browser.
	Navigate(ctx context.Context, url string) error

	// Title returns the current page title.
	Title(ctx context.Context) (string, error)

	// FindElement locates the first element matching the CSS selector.
	// Returns ErrNoSuchElement if nothing matches.
	FindElement(ctx context.Context, selector string) (ElementID, error)

	// GetAttribute reads an attribute from an element. A missing attribute
	// yields an empty string and no error (matching the wire protocol's
	// null-attribute behavior).
	GetAttribute(ctx context.Context, id ElementID, name string) (string, error)

	// Text returns the visible text content of an element.
	Text(ctx context.Context, id ElementID) (string, error)

	// Click clicks an element.
	Click(ctx context.Context, id ElementID) error

	// SelectOption selects the option with the given value inside the
	// <select> element matching the selector.
	SelectOption(ctx context.Context, selector, value string) error

	// EvaluateScript runs JavaScript synchronously in the page context and
	// returns the JSON-decoded result.
	EvaluateScript(ctx context.Context, script string, args ...any) (any, error)

	// Screenshot captures the current viewport as PNG bytes.
	Screenshot(ctx context.Context) ([]byte, error)

	// Quit ends the browser session. Safe to call more than once.
	Quit(ctx context.Context) error
}
