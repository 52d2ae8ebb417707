// Package runner sequences scenarios against a session, isolating
// failures per scenario and feeding outcomes to the result aggregator.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/benedictaitor/uiprobe/internal/config"
	"github.com/benedictaitor/uiprobe/internal/report"
	"github.com/benedictaitor/uiprobe/internal/scenario"
	"github.com/benedictaitor/uiprobe/internal/session"
	"github.com/benedictaitor/uiprobe/internal/wait"
)

// Runner executes a registry's scenarios strictly in registration order,
// one at a time, against a single exclusively-owned session.
type Runner struct {
	cfg    config.Config
	logger *slog.Logger

	// Filter is a glob over scenario names; non-matching scenarios are
	// recorded as skipped without executing. Empty means run everything.
	Filter string

	// Seed fixes mock recorder randomness. Zero picks a fixed default.
	Seed int64
}

// New creates a runner.
func New(cfg config.Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{cfg: cfg, logger: logger}
}

// Run executes every registered scenario and returns the finalized report.
//
// Every scenario produces exactly one result regardless of outcome: an
// assertion failure or condition timeout classifies as FAIL, any other
// error or panic as ERROR, and neither aborts the remaining queue. A
// screenshot is captured after each executed scenario; artifact failures
// are logged but never change the classification.
func (r *Runner) Run(ctx context.Context, reg *scenario.Registry, sess *session.Session) (*report.Report, error) {
	agg := report.NewAggregator()
	seed := r.Seed
	if seed == 0 {
		seed = 1
	}

	for _, sc := range reg.All() {
		if r.Filter != "" {
			matched, err := filepath.Match(r.Filter, sc.Name)
			if err != nil {
				return nil, fmt.Errorf("invalid filter pattern %q: %w", r.Filter, err)
			}
			if !matched {
				r.logger.Info("scenario skipped", "scenario", sc.Name, "filter", r.Filter)
				agg.Record(report.ScenarioResult{
					Name:    sc.Name,
					Status:  report.StatusSkip,
					Message: fmt.Sprintf("excluded by filter %q", r.Filter),
				})
				continue
			}
		}

		result := r.runOne(ctx, sc, sess, seed)
		agg.Record(result)

		switch result.Status {
		case report.StatusPass:
			r.logger.Info("scenario passed", "scenario", sc.Name)
		case report.StatusFail:
			r.logger.Warn("scenario failed", "scenario", sc.Name, "reason", result.Message)
		case report.StatusError:
			r.logger.Error("scenario errored", "scenario", sc.Name, "error", result.Message)
		}
	}

	return agg.Finalize()
}

// runOne executes a single scenario with full failure isolation.
func (r *Runner) runOne(ctx context.Context, sc scenario.Scenario, sess *session.Session, seed int64) report.ScenarioResult {
	t := scenario.NewT(ctx, sess, r.cfg, r.logger.With("scenario", sc.Name), seed)

	err := r.invoke(sc, t)

	// Recorders must not outlive the scenario that created them, and they
	// must be gone before the capture below: a live emission goroutine
	// would hit the session concurrently with Screenshot.
	t.Close()

	result := report.ScenarioResult{Name: sc.Name, Status: classify(err)}
	if err != nil {
		result.Message = err.Error()
	}

	// Artifact capture happens regardless of outcome and before the next
	// scenario may touch the session.
	if path, capErr := r.capture(ctx, sc.Name, sess); capErr != nil {
		r.logger.Warn("screenshot failed", "scenario", sc.Name, "error", capErr)
	} else {
		result.ArtifactPath = path
	}

	return result
}

// invoke calls the step, converting panics into errors so a broken step
// can never take down the queue.
func (r *Runner) invoke(sc scenario.Scenario, t *scenario.T) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("scenario panicked: %v", rec)
		}
	}()
	return sc.Step(t)
}

// capture writes the session screenshot to <artifacts>/<scenario>.png,
// creating the directory on first use and overwriting prior runs.
func (r *Runner) capture(ctx context.Context, name string, sess *session.Session) (string, error) {
	png, err := sess.Driver.Screenshot(ctx)
	if err != nil {
		return "", fmt.Errorf("capture: %w", err)
	}
	if err := os.MkdirAll(r.cfg.ArtifactsDir, 0755); err != nil {
		return "", fmt.Errorf("create artifacts dir: %w", err)
	}
	path := filepath.Join(r.cfg.ArtifactsDir, name+".png")
	if err := os.WriteFile(path, png, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// classify maps a step error to its report status. Assertion failures and
// condition timeouts mean the expectation was false; everything else means
// something broke.
func classify(err error) report.Status {
	switch {
	case err == nil:
		return report.StatusPass
	case scenario.IsAssertion(err), wait.IsTimeout(err):
		return report.StatusFail
	default:
		return report.StatusError
	}
}
