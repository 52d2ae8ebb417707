// Package testutil provides deterministic test doubles for the harness.
//
// FakeDriver is a scripted in-memory implementation of driver.Driver used
// across package tests: elements can be registered up front or scheduled to
// appear after a delay, clicks can mutate page state, and every script
// evaluation is recorded for inspection.
package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/benedictaitor/uiprobe/internal/driver"
)

// FakeElement is one element in the fake page.
type FakeElement struct {
	TextContent string
	Attributes  map[string]string
}

// FakeDriver implements driver.Driver against an in-memory page model.
//
// Element IDs are the registering selector, which keeps lookups trivial and
// failure messages readable. All methods are safe for concurrent use; the
// mock recorder's emission goroutine evaluates scripts while a scenario
// polls.
type FakeDriver struct {
	mu sync.Mutex

	PageTitle string

	elements map[string]*FakeElement
	appearAt map[string]time.Time

	// Navigations records every Navigate URL in order.
	Navigations []string

	// Scripts records every evaluated script in order.
	Scripts []string

	// ScriptResult is returned by EvaluateScript when ScriptFunc is nil.
	ScriptResult any

	// ScriptFunc, when set, handles script evaluation.
	ScriptFunc func(script string, args []any) (any, error)

	// OnClick, keyed by selector, runs page mutations when an element is
	// clicked. The fake's lock is held during the callback.
	OnClick map[string]func(d *FakeDriver)

	// ScreenshotPNG and ScreenshotErr control Screenshot behavior.
	ScreenshotPNG []byte
	ScreenshotErr error

	// NavigateErr, when set, fails every Navigate call.
	NavigateErr error

	QuitCount int
}

// NewFakeDriver returns an empty fake page with a placeholder screenshot.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{
		elements:      make(map[string]*FakeElement),
		appearAt:      make(map[string]time.Time),
		OnClick:       make(map[string]func(d *FakeDriver)),
		ScreenshotPNG: []byte("\x89PNG\r\n\x1a\nfake"),
	}
}

// AddElement registers an element visible immediately.
func (f *FakeDriver) AddElement(selector string, el FakeElement) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addElementLocked(selector, el)
}

// AddElementAfter registers an element that becomes visible after delay,
// simulating late-rendering UI.
func (f *FakeDriver) AddElementAfter(selector string, el FakeElement, delay time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addElementLocked(selector, el)
	f.appearAt[selector] = time.Now().Add(delay)
}

func (f *FakeDriver) addElementLocked(selector string, el FakeElement) {
	stored := el
	if stored.Attributes == nil {
		stored.Attributes = make(map[string]string)
	}
	f.elements[selector] = &stored
}

// SetAttribute mutates an attribute on a registered element. Useful inside
// OnClick callbacks, which already hold the lock.
func (f *FakeDriver) SetAttribute(selector, name, value string) {
	if el, ok := f.elements[selector]; ok {
		el.Attributes[name] = value
	}
}

// SetText mutates the text content of a registered element.
func (f *FakeDriver) SetText(selector, text string) {
	if el, ok := f.elements[selector]; ok {
		el.TextContent = text
	}
}

func (f *FakeDriver) lookup(selector string) (*FakeElement, bool) {
	el, ok := f.elements[selector]
	if !ok {
		return nil, false
	}
	if at, pending := f.appearAt[selector]; pending && time.Now().Before(at) {
		return nil, false
	}
	return el, true
}

func (f *FakeDriver) Navigate(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.NavigateErr != nil {
		return f.NavigateErr
	}
	f.Navigations = append(f.Navigations, url)
	return nil
}

func (f *FakeDriver) Title(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.PageTitle, nil
}

func (f *FakeDriver) FindElement(_ context.Context, selector string) (driver.ElementID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.lookup(selector); !ok {
		return "", driver.ErrNoSuchElement
	}
	return driver.ElementID(selector), nil
}

func (f *FakeDriver) GetAttribute(_ context.Context, id driver.ElementID, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	el, ok := f.lookup(string(id))
	if !ok {
		return "", driver.ErrNoSuchElement
	}
	return el.Attributes[name], nil
}

func (f *FakeDriver) Text(_ context.Context, id driver.ElementID) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	el, ok := f.lookup(string(id))
	if !ok {
		return "", driver.ErrNoSuchElement
	}
	return el.TextContent, nil
}

func (f *FakeDriver) Click(_ context.Context, id driver.ElementID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.lookup(string(id)); !ok {
		return driver.ErrNoSuchElement
	}
	if fn, ok := f.OnClick[string(id)]; ok {
		fn(f)
	}
	return nil
}

func (f *FakeDriver) SelectOption(_ context.Context, selector, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	el, ok := f.lookup(selector)
	if !ok {
		return driver.ErrNoSuchElement
	}
	el.Attributes["value"] = value
	return nil
}

func (f *FakeDriver) EvaluateScript(_ context.Context, script string, args ...any) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Scripts = append(f.Scripts, script)
	if f.ScriptFunc != nil {
		return f.ScriptFunc(script, args)
	}
	return f.ScriptResult, nil
}

func (f *FakeDriver) Screenshot(_ context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ScreenshotErr != nil {
		return nil, f.ScreenshotErr
	}
	return f.ScreenshotPNG, nil
}

func (f *FakeDriver) Quit(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.QuitCount++
	return nil
}

// ScriptEvaluated reports whether any evaluated script contains substr.
func (f *FakeDriver) ScriptEvaluated(substr string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.Scripts {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}
