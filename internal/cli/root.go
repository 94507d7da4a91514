// Package cli wires the stepchain command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hupe1980/stepchain"
	"github.com/hupe1980/stepchain/config"
	"github.com/hupe1980/stepchain/logging"
	"github.com/hupe1980/stepchain/telemetry"
)

// DefaultLogFile receives run logs unless --log-file says otherwise.
const DefaultLogFile = "logs/system.log"

type rootOptions struct {
	cfgFile       string
	provider      string
	model         string
	summaryModel  string
	maxIterations int
	logLevel      string
	logFormat     string
	logFile       string
	trace         bool

	cfg    *config.Config
	logger logging.Logger
	// closers run after the command, in reverse order.
	closers []func(context.Context) error
}

// Execute is the entry point for the CLI.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCmd wires the cobra tree.
func NewRootCmd() *cobra.Command {
	ro := &rootOptions{}

	root := &cobra.Command{
		Use:           "stepchain",
		Short:         "Sequential multi-agent step-by-step problem solver",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ro.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return ro.teardown(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&ro.cfgFile, "config", "", "Path to a YAML config file")
	flags.StringVar(&ro.provider, "provider", "", "Model provider (openai, anthropic, ollama)")
	flags.StringVar(&ro.model, "model", "", "Model used by the agents")
	flags.StringVar(&ro.summaryModel, "summary-model", "", "Model used for the summary")
	flags.IntVar(&ro.maxIterations, "max-iterations", 0, "Maximum model calls per agent")
	flags.StringVar(&ro.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flags.StringVar(&ro.logFormat, "log-format", "text", "Log format (text, json)")
	flags.StringVar(&ro.logFile, "log-file", DefaultLogFile, "Log destination; '-' for stderr")
	flags.BoolVar(&ro.trace, "trace", false, "Print OpenTelemetry spans to stderr")

	root.AddCommand(
		newSolveCmd(ro),
		newServeCmd(ro),
		newAgentsCmd(ro),
	)
	return root
}

func (ro *rootOptions) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(ro.cfgFile, func(c *config.Config) {
		ro.applyFlags(cmd, c)
	})
	if err != nil {
		return err
	}
	ro.cfg = cfg

	logger, err := ro.openLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	ro.logger = logger

	if ro.trace {
		shutdown, err := telemetry.InitTracing(cmd.ErrOrStderr(), true)
		if err != nil {
			return err
		}
		ro.closers = append(ro.closers, shutdown)
	}
	return nil
}

// applyFlags gives explicitly set flags precedence over file and
// environment.
func (ro *rootOptions) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("provider") {
		cfg.Provider = ro.provider
	}
	if flags.Changed("model") {
		cfg.Model = ro.model
	}
	if flags.Changed("summary-model") {
		cfg.SummaryModel = ro.summaryModel
	}
	if flags.Changed("max-iterations") {
		cfg.MaxIterations = ro.maxIterations
	}
}

func (ro *rootOptions) openLogger(stderr io.Writer) (logging.Logger, error) {
	level, err := logging.ParseLevel(ro.logLevel)
	if err != nil {
		return nil, err
	}

	out := stderr
	if ro.logFile != "" && ro.logFile != "-" {
		if err := os.MkdirAll(filepath.Dir(ro.logFile), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.Create(ro.logFile)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		ro.closers = append(ro.closers, func(context.Context) error { return f.Close() })
		out = f
	}

	return logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    ro.logFormat,
		Output:    out,
		Component: "stepchain",
	}), nil
}

func (ro *rootOptions) teardown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var firstErr error
	for i := len(ro.closers) - 1; i >= 0; i-- {
		if err := ro.closers[i](ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	ro.closers = nil
	return firstErr
}

// newChain builds the façade from the loaded configuration.
func (ro *rootOptions) newChain() (*stepchain.Chain, error) {
	gw, err := newGateway(ro.cfg, ro.cfg.Model, ro.logger)
	if err != nil {
		return nil, err
	}
	summaryGW, err := newGateway(ro.cfg, ro.cfg.SummaryModelName(), ro.logger)
	if err != nil {
		return nil, err
	}
	metrics, err := telemetry.NewMetrics()
	if err != nil {
		return nil, err
	}

	return stepchain.New(gw, func(o *stepchain.Options) {
		o.Agents = ro.cfg.Agents
		o.MaxIterations = ro.cfg.MaxIterations
		o.CodeLanguage = ro.cfg.CodeLanguage
		o.SummaryGateway = summaryGW
		o.Logger = ro.logger
		o.Metrics = metrics
	})
}
