package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/benedictaitor/uiprobe/internal/config"
	"github.com/benedictaitor/uiprobe/internal/proc"
	"github.com/benedictaitor/uiprobe/internal/report"
	"github.com/benedictaitor/uiprobe/internal/runner"
	"github.com/benedictaitor/uiprobe/internal/scenario"
	"github.com/benedictaitor/uiprobe/internal/session"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	ConfigPath string
	Filter     string
	Artifacts  string
	ReportPath string
	Timeout    time.Duration
	ServerCmd  []string
	Seed       int64
}

// RunSummary is the success payload for JSON output.
type RunSummary struct {
	TestsRun int    `json:"tests_run"`
	Failures int    `json:"failures"`
	Errors   int    `json:"errors"`
	Skipped  int    `json:"skipped"`
	Success  bool   `json:"success"`
	Report   string `json:"report"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the verification scenarios against a live app",
		Long: `Run the built-in verification scenarios against a running instance of
the application.

A browser session is provisioned from the configured backends (local
chromedriver binary, managed chromedriver on PATH, remote grid) in order,
the scenarios execute sequentially against it, and the aggregated report
is written as JSON.

Example:
  uiprobe run
  uiprobe run --config uiprobe.yaml --filter '0[14]-*' --verbose
  uiprobe run --server-cmd npm --server-cmd start`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config (defaults apply when omitted)")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "glob over scenario names; non-matching scenarios are skipped")
	cmd.Flags().StringVar(&opts.Artifacts, "artifacts", "", "screenshot directory (overrides config)")
	cmd.Flags().StringVar(&opts.ReportPath, "report", "", "report output path (overrides config)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "default condition timeout (overrides config)")
	cmd.Flags().StringArrayVar(&opts.ServerCmd, "server-cmd", nil, "command to launch the app server before the run (repeat per argument)")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "mock recorder random seed (0 = fixed default)")

	return cmd
}

func runScenarios(opts *RunOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	// Configure logging based on verbose flag. Diagnostics share the
	// formatter's error stream so JSON output stays clean.
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(formatter.GetErrWriter(), &slog.HandlerOptions{
		Level: logLevel,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	cfg, err := loadConfig(opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	// Setup signal handling for graceful shutdown
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	// Optionally spawn the app server for the duration of the run.
	if len(opts.ServerCmd) > 0 {
		handle, err := proc.NewHandle(opts.ServerCmd, logger)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid server command", err)
		}
		logger.Info("starting app server", "command", opts.ServerCmd)
		if err := handle.Start(); err != nil {
			return WrapExitError(ExitCommandError, "failed to start app server", err)
		}
		defer func() {
			if stopErr := handle.Stop(); stopErr != nil {
				logger.Error("error stopping app server", "error", stopErr)
			}
		}()
	}

	// Provision a session from the configured backends, in order.
	backends, err := session.BackendsFromConfig(cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid backend configuration", err)
	}
	mgr := session.NewManager(backends, logger)

	logger.Info("acquiring browser session", "backends", len(backends))
	sess, err := mgr.Acquire(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to provision a browser session", err)
	}
	defer mgr.Release(context.Background(), sess)

	r := runner.New(cfg, logger)
	r.Filter = opts.Filter
	r.Seed = opts.Seed

	rep, err := r.Run(ctx, scenario.BuiltinSuite(), sess)
	if err != nil {
		return WrapExitError(ExitCommandError, "run aborted", err)
	}

	if err := rep.WriteFile(cfg.ReportPath); err != nil {
		return WrapExitError(ExitCommandError, "failed to write report", err)
	}
	logger.Info("report written", "path", cfg.ReportPath)

	if err := printRun(formatter, rep, cfg.ReportPath); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}

	if !rep.Success {
		return NewExitError(ExitFailure, fmt.Sprintf("%d failure(s), %d error(s)", rep.Failures, rep.Errors))
	}
	return nil
}

// loadConfig resolves the effective configuration: file (or defaults),
// then flag overrides.
func loadConfig(opts *RunOptions) (config.Config, error) {
	var cfg config.Config
	var err error
	if opts.ConfigPath != "" {
		cfg, err = config.Load(opts.ConfigPath)
		if err != nil {
			return config.Config{}, err
		}
	} else {
		cfg = config.Default()
	}

	if opts.Artifacts != "" {
		cfg.ArtifactsDir = opts.Artifacts
	}
	if opts.ReportPath != "" {
		cfg.ReportPath = opts.ReportPath
	}
	if opts.Timeout > 0 {
		cfg.DefaultTimeout = opts.Timeout
	}
	return cfg, cfg.Validate()
}

// printRun emits the per-scenario lines plus the summary. Artifact paths
// go through the verbose channel so they never pollute machine output.
func printRun(f *OutputFormatter, rep *report.Report, reportPath string) error {
	for _, res := range rep.Results {
		if res.ArtifactPath != "" {
			f.VerboseLog("artifact %s: %s", res.Name, res.ArtifactPath)
		}
	}

	if f.Format == "json" {
		return f.Success(RunSummary{
			TestsRun: rep.TestsRun,
			Failures: rep.Failures,
			Errors:   rep.Errors,
			Skipped:  rep.Skipped,
			Success:  rep.Success,
			Report:   reportPath,
		})
	}

	for _, res := range rep.Results {
		line := fmt.Sprintf("%-5s %s", res.Status, res.Name)
		if res.Message != "" {
			line += ": " + res.Message
		}
		fmt.Fprintln(f.Writer, line)
	}
	fmt.Fprintf(f.Writer, "\n%d run, %d failures, %d errors, %d skipped\n",
		rep.TestsRun, rep.Failures, rep.Errors, rep.Skipped)
	fmt.Fprintf(f.Writer, "report: %s\n", reportPath)
	return nil
}
