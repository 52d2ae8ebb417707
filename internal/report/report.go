// Package report accumulates per-scenario outcomes into the run's final
// JSON report.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Status classifies a scenario outcome. Fail means an explicit assertion
// was false; Error means something broke before the assertions could be
// judged. Skip is reserved for scenarios excluded by a selection filter.
type Status string

const (
	StatusPass  Status = "PASS"
	StatusFail  Status = "FAIL"
	StatusError Status = "ERROR"
	StatusSkip  Status = "SKIP"
)

// ScenarioResult is the outcome of one scenario.
type ScenarioResult struct {
	Name         string
	Status       Status
	Message      string
	ArtifactPath string
}

// Detail is one non-passing entry in the report.
type Detail struct {
	Name    string
	Status  Status
	Message string
}

// Report is the immutable run summary. Details preserve registration
// order and contain only non-passing scenarios; Results keeps every
// outcome (passes included) for callers that narrate the run, and stays
// out of the JSON.
type Report struct {
	TestsRun int
	Failures int
	Errors   int
	Skipped  int
	Success  bool
	Details  []Detail
	Results  []ScenarioResult
}

// MarshalJSON emits the report schema with test_details as an object whose
// keys iterate in registration order.
func (r *Report) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	fmt.Fprintf(&buf, `"tests_run":%d,"failures":%d,"errors":%d,"skipped":%d,"success":%t,"test_details":{`,
		r.TestsRun, r.Failures, r.Errors, r.Skipped, r.Success)
	for i, d := range r.Details {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(d.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(struct {
			Status  Status `json:"status"`
			Message string `json:"message"`
		}{d.Status, d.Message})
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

// Aggregator maintains the running tally. Record during the run, Finalize
// exactly once at the end.
type Aggregator struct {
	results   []ScenarioResult
	finalized bool
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Record appends one scenario outcome. Recording after Finalize is a
// programming error and panics.
func (a *Aggregator) Record(result ScenarioResult) {
	if a.finalized {
		panic("report: Record after Finalize")
	}
	a.results = append(a.results, result)
}

// Results returns the recorded outcomes in registration order.
func (a *Aggregator) Results() []ScenarioResult {
	return a.results
}

// Finalize produces the immutable Report. It may be called only once per
// run; a second call errors.
func (a *Aggregator) Finalize() (*Report, error) {
	if a.finalized {
		return nil, fmt.Errorf("report already finalized")
	}
	a.finalized = true

	r := &Report{Results: a.results}
	for _, res := range a.results {
		switch res.Status {
		case StatusSkip:
			r.Skipped++
			continue
		case StatusFail:
			r.Failures++
			r.Details = append(r.Details, Detail{res.Name, res.Status, res.Message})
		case StatusError:
			r.Errors++
			r.Details = append(r.Details, Detail{res.Name, res.Status, res.Message})
		}
		r.TestsRun++
	}
	r.Success = r.Failures == 0 && r.Errors == 0
	return r, nil
}

// WriteFile persists the report as indented JSON. A failure here loses the
// whole run's output, so it surfaces as a harness-level error rather than
// being swallowed like other artifact I/O.
func (r *Report) WriteFile(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
