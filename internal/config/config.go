// Package config loads harness configuration from YAML with environment
// overrides for deployment-specific values (base URL, grid credentials).
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend names accepted in the fallback order.
const (
	BackendLocal   = "local"
	BackendManaged = "managed"
	BackendGrid    = "grid"
)

// Capabilities describes the browser negotiated with a remote grid.
type Capabilities struct {
	BrowserName    string `yaml:"browser_name"`
	BrowserVersion string `yaml:"browser_version"`
	OS             string `yaml:"os"`
	Resolution     string `yaml:"resolution"`
}

// Config holds every knob the harness accepts.
type Config struct {
	// BaseURL is the application under test. Routes are appended to it.
	BaseURL      string `yaml:"base_url"`
	TeacherRoute string `yaml:"teacher_route"`
	StudentRoute string `yaml:"student_route"`

	// DefaultTimeout bounds each condition wait; PollInterval is the
	// poller cadence.
	DefaultTimeout time.Duration `yaml:"default_timeout"`
	PollInterval   time.Duration `yaml:"poll_interval"`

	// ArtifactsDir receives one screenshot per scenario; ReportPath is
	// the final JSON report.
	ArtifactsDir string `yaml:"artifacts_dir"`
	ReportPath   string `yaml:"report_path"`

	// Backends is the session provisioning fallback order.
	Backends []string `yaml:"backends"`

	// LocalDriverPath is the bundled driver binary for the local backend.
	LocalDriverPath string `yaml:"local_driver_path"`

	// Grid settings apply when the grid backend is in the order.
	GridURL      string       `yaml:"grid_url"`
	GridUser     string       `yaml:"grid_user"`
	GridKey      string       `yaml:"grid_key"`
	Capabilities Capabilities `yaml:"capabilities"`
}

// Default returns the configuration matching the application's standard
// deployment: teacher/student routes, 30s waits, screenshots directory.
func Default() Config {
	return Config{
		BaseURL:        "http://localhost:3000",
		TeacherRoute:   "/teacher",
		StudentRoute:   "/student",
		DefaultTimeout: 30 * time.Second,
		PollInterval:   500 * time.Millisecond,
		ArtifactsDir:   "screenshots",
		ReportPath:     "test_results.json",
		Backends:       []string{BackendLocal, BackendManaged, BackendGrid},
		Capabilities: Capabilities{
			BrowserName:    "chrome",
			BrowserVersion: "latest",
			OS:             "linux",
			Resolution:     "1280x1024",
		},
	}
}

// Load reads a YAML config file over the defaults. Unknown fields are
// rejected (catches typos), and environment overrides are applied last.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyEnv overrides deployment-specific values from the environment.
// Credentials in particular should never live in the config file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("UIPROBE_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("UIPROBE_GRID_URL"); v != "" {
		cfg.GridURL = v
	}
	if v := os.Getenv("UIPROBE_GRID_USER"); v != "" {
		cfg.GridUser = v
	}
	if v := os.Getenv("UIPROBE_GRID_KEY"); v != "" {
		cfg.GridKey = v
	}
}

// Validate checks required fields and the backend order.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if c.DefaultTimeout <= 0 {
		return fmt.Errorf("default_timeout must be positive")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	if len(c.Backends) == 0 {
		return fmt.Errorf("backends list is required and must be non-empty")
	}
	for i, b := range c.Backends {
		switch b {
		case BackendLocal, BackendManaged, BackendGrid:
		default:
			return fmt.Errorf("backends[%d]: unknown backend %q", i, b)
		}
	}
	return nil
}

// TeacherURL returns the teacher surface URL.
func (c Config) TeacherURL() string { return c.BaseURL + c.TeacherRoute }

// StudentURL returns the student surface URL.
func (c Config) StudentURL() string { return c.BaseURL + c.StudentRoute }
