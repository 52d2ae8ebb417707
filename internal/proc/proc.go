// Package proc manages the application server process for full
// end-to-end runs.
//
// The handle is created and owned by the caller and passed into the run
// explicitly; there is no package-level process slot.
package proc

import (
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// Handle controls one spawned application server process.
type Handle struct {
	command []string
	logger  *slog.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	stopped bool
}

// NewHandle builds a handle for the given command line (e.g. "npm",
// "run", "dev"). Nothing is started yet.
func NewHandle(command []string, logger *slog.Logger) (*Handle, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("server command is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handle{command: command, logger: logger}, nil
}

// Start launches the server in its own process group so Stop can signal
// the whole tree, then gives it a moment to come up. Starting twice is an
// error.
func (h *Handle) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cmd != nil {
		return fmt.Errorf("server already started")
	}

	cmd := exec.Command(h.command[0], h.command[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	h.cmd = cmd
	h.stopped = false
	h.logger.Info("server started", "pid", cmd.Process.Pid, "command", h.command[0])

	// The app has no readiness endpoint we can rely on; give it a grace
	// period before the first navigation, matching prior practice.
	time.Sleep(5 * time.Second)
	return nil
}

// Stop signals the process group and reaps the process. Idempotent; Stop
// before Start is a no-op.
func (h *Handle) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cmd == nil || h.stopped {
		return nil
	}
	h.stopped = true

	pid := h.cmd.Process.Pid
	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil {
		// Group signal can fail if the process died early; fall back to
		// the process itself.
		if killErr := h.cmd.Process.Kill(); killErr != nil {
			return fmt.Errorf("stop server: %w", killErr)
		}
	}
	_ = h.cmd.Wait()
	h.logger.Info("server stopped", "pid", pid)
	return nil
}
