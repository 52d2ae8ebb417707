// Package mockrec simulates a hardware audio capture device inside the
// page under test.
//
// The recorder is a finite-state machine driven from the harness side.
// Install patches the page's device-acquisition entry points so that
// "request microphone access" succeeds synchronously with a fake device,
// and Start/Stop/Pause/Resume drive a synthetic chunk stream that exercises
// the application's event-handling paths without real hardware.
//
// State transitions:
//
//	Idle --Install--> Armed --Start--> Recording --Stop--> Stopped
//	Stopped --Start--> Recording (reusable)
//	Recording --Pause--> Paused --Resume--> Recording
package mockrec

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/benedictaitor/uiprobe/internal/driver"
)

// State is the recorder lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateArmed     State = "armed"
	StateRecording State = "recording"
	StatePaused    State = "paused"
	StateStopped   State = "stopped"
)

// Chunk is one synthetic data emission. Payload content is irrelevant to
// the consumer under test; only cadence and delivery matter, so chunks
// carry a sequence number and a pseudo-random byte length.
type Chunk struct {
	Seq    int
	Length int
}

// Chunk length bounds, matching the shape of real encoder output the
// application expects per timeslice.
const (
	minChunkLen = 5000
	maxChunkLen = 15000
)

// Callbacks receive recorder notifications. All callbacks are optional.
// OnChunk is invoked from the emission goroutine; OnStarted and OnStopped
// fire on the goroutine calling Start and Stop. Keep them fast.
type Callbacks struct {
	OnStarted func()
	OnChunk   func(Chunk)
	OnStopped func()
}

// Recorder is the mock capture device. Exactly one emission timer may be
// live per instance; Start while already recording refuses rather than
// leaking a second timer.
type Recorder struct {
	d      driver.Driver
	logger *slog.Logger
	cb     Callbacks
	rng    *rand.Rand

	mu     sync.Mutex
	state  State
	paused bool
	seq    int
	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates an Idle recorder bound to a driver. The seed fixes the chunk
// length sequence so runs are reproducible.
func New(d driver.Driver, logger *slog.Logger, seed int64, cb Callbacks) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		d:      d,
		logger: logger,
		cb:     cb,
		rng:    rand.New(rand.NewSource(seed)),
		state:  StateIdle,
	}
}

// State returns the current lifecycle state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// ChunkCount returns the number of chunks emitted so far.
func (r *Recorder) ChunkCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seq
}

// Install patches the page context so device acquisition succeeds with a
// deterministic fake descriptor. Idle only; installing twice is an error.
func (r *Recorder) Install(ctx context.Context) error {
	r.mu.Lock()
	if r.state != StateIdle {
		state := r.state
		r.mu.Unlock()
		return fmt.Errorf("install: recorder is %s, want %s", state, StateIdle)
	}
	r.mu.Unlock()

	if _, err := r.d.EvaluateScript(ctx, patchScript); err != nil {
		return fmt.Errorf("install capture mock: %w", err)
	}

	r.mu.Lock()
	r.state = StateArmed
	r.mu.Unlock()
	r.logger.Debug("capture mock installed")
	return nil
}

// Start begins emitting synthetic chunks at the given interval until Stop.
//
// Starting while already Recording logs and no-ops instead of erroring:
// the page-side contract treats a redundant start as harmless, but a
// second concurrent timer would double-emit, so it is refused outright.
func (r *Recorder) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("start: interval must be positive, got %s", interval)
	}

	r.mu.Lock()
	if r.state == StateRecording || r.state == StatePaused {
		r.mu.Unlock()
		r.logger.Warn("start ignored: already recording")
		return nil
	}
	r.state = StateRecording
	r.paused = false
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	stopCh, doneCh := r.stopCh, r.doneCh
	r.mu.Unlock()

	// Started notification fires exactly once per Start.
	r.dispatch(ctx, "recording-started", 0)
	if r.cb.OnStarted != nil {
		r.cb.OnStarted()
	}
	r.logger.Debug("recording started", "interval", interval)

	go r.emit(interval, stopCh, doneCh)
	return nil
}

// emit is the single live timer for this recorder instance.
func (r *Recorder) emit(interval time.Duration, stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			r.mu.Lock()
			if r.paused {
				r.mu.Unlock()
				continue
			}
			r.seq++
			chunk := Chunk{Seq: r.seq, Length: minChunkLen + r.rng.Intn(maxChunkLen-minChunkLen)}
			r.mu.Unlock()

			// Page delivery is best-effort; the local callback is the
			// authoritative observation point for tests.
			r.dispatch(context.Background(), "audio-chunk", chunk.Length)
			if r.cb.OnChunk != nil {
				r.cb.OnChunk(chunk)
			}
		}
	}
}

// Stop cancels the emission timer and fires the stopped notification
// exactly once. Idempotent: stopping an Idle, Armed or already Stopped
// recorder is a no-op.
func (r *Recorder) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.state != StateRecording && r.state != StatePaused {
		r.mu.Unlock()
		return nil
	}
	r.state = StateStopped
	r.paused = false
	close(r.stopCh)
	doneCh := r.doneCh
	r.mu.Unlock()

	<-doneCh

	r.dispatch(ctx, "recording-stopped", 0)
	if r.cb.OnStopped != nil {
		r.cb.OnStopped()
	}
	r.logger.Debug("recording stopped", "chunks", r.ChunkCount())
	return nil
}

// Pause suspends emission without tearing down the timer.
func (r *Recorder) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateRecording {
		return fmt.Errorf("pause: recorder is %s, want %s", r.state, StateRecording)
	}
	r.state = StatePaused
	r.paused = true
	return nil
}

// Resume restarts emission after Pause.
func (r *Recorder) Resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StatePaused {
		return fmt.Errorf("resume: recorder is %s, want %s", r.state, StatePaused)
	}
	r.state = StateRecording
	r.paused = false
	return nil
}

// Close stops the recorder if it is still emitting. Scenario teardown and
// session teardown both call Close; the recorder must never outlive its
// session.
func (r *Recorder) Close() {
	_ = r.Stop(context.Background())
}

// dispatch delivers a recorder event into the page context. Failures are
// logged and swallowed: the page may not listen for every event, and page
// delivery must not perturb the state machine.
func (r *Recorder) dispatch(ctx context.Context, event string, length int) {
	script := fmt.Sprintf(
		"document.dispatchEvent(new CustomEvent('mock-recorder', {detail: {event: %q, length: %d}}));",
		event, length,
	)
	if _, err := r.d.EvaluateScript(ctx, script); err != nil {
		r.logger.Debug("page dispatch failed", "event", event, "error", err)
	}
}
