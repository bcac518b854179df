// Package main implements the wirecall command line client.
//
// Every service command builds its client from the shared configuration, so all
// calls made by one invocation share a worker pool, a logger and, when enabled,
// the SQLite call journal.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wirecall/cmd/wirecall/ui"
	"wirecall/internal/config"
	"wirecall/internal/dispatch"
	"wirecall/internal/executor"
	"wirecall/internal/journal"
	"wirecall/internal/logging"
)

var (
	// Global flags
	configPath  string
	region      string
	endpointURL string
	profile     string
	verbose     bool
	timeout     time.Duration
	journalPath string

	// Built by setup for the running command
	cfg          *config.Config
	logger       *zap.Logger
	pool         *executor.Pool
	journalStore *journal.Store
	tally        *callTally
	styles       = ui.DefaultStyles()
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "wirecall",
		Short: "wirecall - typed remote calls against AWS-style services",
		Long: `wirecall sends typed requests to AWS-style web services and prints the
decoded results as JSON.

Calls are signed with SigV4 using credentials from the environment or the
shared credentials file, retried with exponential backoff, and optionally
recorded in a local SQLite journal.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) { cleanup() },
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", filepath.Join(".wirecall", "config.yaml"), "Config file (YAML or TOML)")
	pf.StringVarP(&region, "region", "r", "", "Region (overrides config and AWS_REGION)")
	pf.StringVar(&endpointURL, "endpoint", "", "Endpoint URL for every service")
	pf.StringVarP(&profile, "profile", "p", "", "Shared credentials profile")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	pf.DurationVarP(&timeout, "timeout", "t", 2*time.Minute, "Deadline for the whole command")
	pf.StringVar(&journalPath, "journal", "", "Record calls in the SQLite journal at this path")

	root.AddCommand(
		newSTSCmd(),
		newIAMCmd(),
		newElastiCacheCmd(),
		newECSCmd(),
		newCognitoSyncCmd(),
		newSecurityHubCmd(),
		newJournalCmd(),
		newEnumsCmd(),
	)
	return root
}

// setup loads configuration, applies flag overrides and builds the shared
// logger, pool and journal.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = loaded

	flags := cmd.Flags()
	if flags.Changed("region") {
		cfg.Region = region
	}
	if flags.Changed("endpoint") {
		cfg.Endpoint = endpointURL
	}
	if flags.Changed("profile") {
		cfg.Profile = profile
	}
	if journalPath != "" {
		cfg.Journal.Enabled = true
		cfg.Journal.Path = journalPath
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err = logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	pool = executor.New(cfg.GetMaxWorkers(), logging.For(logger, logging.CategoryExecutor))
	tally = &callTally{}

	if cfg.Journal.Enabled {
		if _, err := openJournal(cmd.Context()); err != nil {
			return err
		}
	}
	logging.For(logger, logging.CategoryCLI).Debug("command starting",
		zap.String("command", cmd.CommandPath()),
		zap.String("region", cfg.Region),
		zap.String("endpoint", cfg.Endpoint))
	return nil
}

// openJournal opens the configured journal once per command.
func openJournal(ctx context.Context) (*journal.Store, error) {
	if journalStore != nil {
		return journalStore, nil
	}
	s, err := journal.Open(cfg.Journal.Path, logging.For(logger, logging.CategoryJournal))
	if err != nil {
		return nil, err
	}
	if err := s.Init(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	journalStore = s
	return s, nil
}

// cleanup releases what setup built. It is safe to call more than once.
func cleanup() {
	if pool != nil {
		pool.Close()
		pool = nil
	}
	if journalStore != nil {
		if err := journalStore.Close(); err != nil && logger != nil {
			logger.Warn("failed to close journal", zap.Error(err))
		}
		journalStore = nil
	}
	if tally != nil && logger != nil && tally.calls.Load() > 0 {
		logging.For(logger, logging.CategoryCLI).Debug("command finished",
			zap.Int64("calls", tally.calls.Load()),
			zap.Int64("failures", tally.failures.Load()))
	}
	tally = nil
	if logger != nil {
		_ = logger.Sync()
		logger = nil
	}
}

// dispatchOptions wires the shared pool, logger and call monitors into a client.
func dispatchOptions() []dispatch.Option {
	return []dispatch.Option{
		dispatch.WithLogger(logger),
		dispatch.WithExecutor(pool),
		dispatch.WithMonitor(callMonitor()),
	}
}

// callTally counts the calls one command makes.
type callTally struct {
	calls    atomic.Int64
	failures atomic.Int64
}

func (t *callTally) ObserveCall(ev dispatch.CallEvent) {
	t.calls.Add(1)
	if !ev.OK() {
		t.failures.Add(1)
	}
}

// callMonitor feeds the tally and, when it is open, the journal.
func callMonitor() dispatch.Monitor {
	var monitors []dispatch.Monitor
	if tally != nil {
		monitors = append(monitors, tally)
	}
	if journalStore != nil {
		monitors = append(monitors, journalStore)
	}
	return dispatch.MultiMonitor(monitors...)
}

// commandContext bounds a command by --timeout.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(cmd.Context())
	}
	return context.WithTimeout(cmd.Context(), timeout)
}

// execute runs the command tree with args and always releases shared state.
func execute(root *cobra.Command, args []string) error {
	root.SetArgs(args)
	defer cleanup()
	return root.Execute()
}

func main() {
	root := newRootCmd()
	if err := execute(root, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, renderError(err))
		os.Exit(1)
	}
}
