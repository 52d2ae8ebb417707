package session

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"time"

	"github.com/benedictaitor/uiprobe/internal/config"
	"github.com/benedictaitor/uiprobe/internal/driver"
)

// Teardown releases backend resources (driver processes, grid slots) after
// the wire session is gone.
type Teardown func(ctx context.Context) error

// Backend is one session provisioning strategy.
type Backend interface {
	Name() string
	Provision(ctx context.Context) (driver.Driver, Teardown, error)
}

// headlessArgs is the browser flag set for unattended environments.
var headlessArgs = []string{
	"--headless=new",
	"--no-sandbox",
	"--disable-dev-shm-usage",
	"--disable-gpu",
	"--window-size=1280,1024",
	"--disable-extensions",
}

// BackendsFromConfig builds the fallback chain in the configured order.
func BackendsFromConfig(cfg config.Config) ([]Backend, error) {
	backends := make([]Backend, 0, len(cfg.Backends))
	for _, name := range cfg.Backends {
		switch name {
		case config.BackendLocal:
			backends = append(backends, &LocalBinary{Path: cfg.LocalDriverPath})
		case config.BackendManaged:
			backends = append(backends, &ManagedBinary{})
		case config.BackendGrid:
			backends = append(backends, &RemoteGrid{
				URL:          cfg.GridURL,
				User:         cfg.GridUser,
				Key:          cfg.GridKey,
				Capabilities: cfg.Capabilities,
			})
		default:
			return nil, fmt.Errorf("unknown backend %q", name)
		}
	}
	return backends, nil
}

// LocalBinary provisions from a bundled driver binary at a known path.
type LocalBinary struct {
	Path string
}

func (b *LocalBinary) Name() string { return config.BackendLocal }

func (b *LocalBinary) Provision(ctx context.Context) (driver.Driver, Teardown, error) {
	if b.Path == "" {
		return nil, nil, fmt.Errorf("local driver path not configured")
	}
	return spawnAndConnect(ctx, b.Path)
}

// ManagedBinary provisions by resolving the driver binary from PATH,
// standing in for an environment-managed driver install.
type ManagedBinary struct {
	// Binary overrides the default binary name (chromedriver).
	Binary string
}

func (b *ManagedBinary) Name() string { return config.BackendManaged }

func (b *ManagedBinary) Provision(ctx context.Context) (driver.Driver, Teardown, error) {
	binary := b.Binary
	if binary == "" {
		binary = "chromedriver"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve %s: %w", binary, err)
	}
	return spawnAndConnect(ctx, path)
}

// RemoteGrid provisions against a remote Selenium-compatible grid with
// negotiated capabilities and basic-auth credentials.
type RemoteGrid struct {
	URL          string
	User         string
	Key          string
	Capabilities config.Capabilities
}

func (b *RemoteGrid) Name() string { return config.BackendGrid }

func (b *RemoteGrid) Provision(ctx context.Context) (driver.Driver, Teardown, error) {
	if b.URL == "" {
		return nil, nil, fmt.Errorf("grid URL not configured")
	}

	endpoint := b.URL
	if b.User != "" {
		u, err := url.Parse(b.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse grid URL: %w", err)
		}
		u.User = url.UserPassword(b.User, b.Key)
		endpoint = u.String()
	}

	client, err := driver.NewSession(ctx, endpoint, driver.Capabilities{
		BrowserName:    b.Capabilities.BrowserName,
		BrowserVersion: b.Capabilities.BrowserVersion,
		PlatformName:   b.Capabilities.OS,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("grid session: %w", err)
	}
	return client, func(context.Context) error { return nil }, nil
}

// spawnAndConnect launches a driver binary on a free port, waits for its
// status endpoint, and opens a headless wire session against it.
func spawnAndConnect(ctx context.Context, path string) (driver.Driver, Teardown, error) {
	port, err := freePort()
	if err != nil {
		return nil, nil, fmt.Errorf("allocate port: %w", err)
	}
	endpoint := fmt.Sprintf("http://127.0.0.1:%d", port)

	cmd := exec.CommandContext(ctx, path, fmt.Sprintf("--port=%d", port))
	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("start %s: %w", path, err)
	}

	kill := func(context.Context) error {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		_ = cmd.Wait()
		return nil
	}

	if err := awaitReady(ctx, endpoint); err != nil {
		_ = kill(ctx)
		return nil, nil, fmt.Errorf("driver at %s not ready: %w", endpoint, err)
	}

	client, err := driver.NewSession(ctx, endpoint, driver.Capabilities{
		BrowserName: "chrome",
		Args:        headlessArgs,
	})
	if err != nil {
		_ = kill(ctx)
		return nil, nil, fmt.Errorf("local session: %w", err)
	}
	return client, kill, nil
}

// awaitReady polls the driver's status endpoint until it answers.
func awaitReady(ctx context.Context, endpoint string) error {
	deadline := time.Now().Add(10 * time.Second)
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/status", nil)
		if err != nil {
			return err
		}
		resp, err := http.DefaultClient.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		if time.Now().After(deadline) {
			if err != nil {
				return err
			}
			return fmt.Errorf("status endpoint never became ready")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
