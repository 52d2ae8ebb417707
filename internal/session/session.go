// Package session acquires and releases browser automation sessions
// against an ordered list of backend provisioning strategies.
//
// A run owns exactly one Session for its whole duration; the manager
// guarantees release happens once on every exit path.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/benedictaitor/uiprobe/internal/driver"
)

// Session is a live handle to one automation backend instance. It is
// exclusively owned by the runner for a run's duration and never shared
// across concurrent scenarios.
type Session struct {
	ID      string
	Backend string
	Driver  driver.Driver

	teardown Teardown

	mu       sync.Mutex
	released bool
}

// Manager tries backends in order and returns the first that succeeds.
type Manager struct {
	backends []Backend
	logger   *slog.Logger
}

// NewManager creates a manager over the given fallback chain.
func NewManager(backends []Backend, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{backends: backends, logger: logger}
}

// Acquire provisions a session from the first backend that succeeds.
// On exhaustion it returns a ProvisioningError carrying every attempt,
// which is fatal to the run.
func (m *Manager) Acquire(ctx context.Context) (*Session, error) {
	var attempts []Attempt

	for _, backend := range m.backends {
		m.logger.Info("provisioning session", "backend", backend.Name())
		d, teardown, err := backend.Provision(ctx)
		if err != nil {
			m.logger.Warn("backend failed", "backend", backend.Name(), "error", err)
			attempts = append(attempts, Attempt{Backend: backend.Name(), Err: err})
			continue
		}

		sess := &Session{
			ID:       uuid.NewString(),
			Backend:  backend.Name(),
			Driver:   d,
			teardown: teardown,
		}
		m.logger.Info("session acquired", "backend", backend.Name(), "session_id", sess.ID)
		return sess, nil
	}

	return nil, &ProvisioningError{Attempts: attempts}
}

// Release ends the session and tears down backend resources. It runs
// exactly once per acquired session; repeated calls are no-ops. Errors are
// logged rather than propagated since there is no meaningful recovery at
// teardown time.
func (m *Manager) Release(ctx context.Context, sess *Session) {
	if sess == nil {
		return
	}
	sess.mu.Lock()
	if sess.released {
		sess.mu.Unlock()
		return
	}
	sess.released = true
	sess.mu.Unlock()

	if err := sess.Driver.Quit(ctx); err != nil {
		m.logger.Warn("error quitting driver", "session_id", sess.ID, "error", err)
	}
	if sess.teardown != nil {
		if err := sess.teardown(ctx); err != nil {
			m.logger.Warn("error tearing down backend", "session_id", sess.ID, "error", err)
		}
	}
	m.logger.Info("session released", "session_id", sess.ID)
}
