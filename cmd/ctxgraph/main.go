// Command ctxgraph indexes a corpus of self-describing documents and
// resolves an entry document into a dependency-ordered context bundle.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ctxgraph/internal/config"
	"ctxgraph/internal/logging"
	"ctxgraph/internal/metrics"
	"ctxgraph/internal/system"
)

// options holds the global flags and the configuration they produce.
type options struct {
	configPath  string
	workspace   string
	verbose     bool
	timeout     time.Duration
	metricsFile string

	cfg *config.Config
}

func newRootCmd() (*cobra.Command, *options) {
	opts := &options{}

	root := &cobra.Command{
		Use:   "ctxgraph",
		Short: "Knowledge graph navigator for context resolution",
		Long: `ctxgraph scans a corpus of documents whose headers declare what they
require and what they can optionally pull in, and resolves an entry
document into a dependency-ordered context bundle.

The index is cached after the first scan. Run "ctxgraph index" after
editing documents, or keep "ctxgraph watch" running.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Config file (default: $CTXGRAPH_CONFIG or ~/.ctxgraph/config.yaml)")
	pf.StringVar(&opts.workspace, "workspace", "", "Workspace directory (default: from config, else current)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	pf.DurationVar(&opts.timeout, "timeout", 2*time.Minute, "Operation timeout")
	pf.StringVar(&opts.metricsFile, "metrics-file", "", "Write prometheus metrics to this textfile on exit")

	root.AddCommand(
		newIndexCmd(opts),
		newResolveCmd(opts),
		newSummaryCmd(opts),
		newShowCmd(opts),
		newExportCmd(opts),
		newWatchCmd(opts),
	)
	return root, opts
}

// run executes root and then flushes logs and writes the metrics textfile,
// whether or not the command failed. cobra skips post-run hooks on error.
func run(root *cobra.Command, opts *options) error {
	err := root.Execute()
	logging.Sync()
	if opts.cfg != nil {
		if werr := metrics.WriteTextfile(opts.cfg.Metrics.Textfile); werr != nil {
			err = errors.Join(err, werr)
		}
	}
	return err
}

// setup loads configuration, applies flag overrides and starts logging.
func (o *options) setup() error {
	path := o.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if o.workspace != "" {
		cfg.Workspace = o.workspace
	}
	if o.verbose {
		cfg.Logging.Level = "debug"
	}
	if o.metricsFile != "" {
		cfg.Metrics.Textfile = o.metricsFile
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := logging.Initialize(cfg.Logging.ForLogger()); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logging.SetRunID(logging.NewRunID())
	logging.BootDebug("Config loaded from %s", path)

	o.cfg = cfg
	return nil
}

// context returns a context bounded by --timeout and cancelled on SIGINT
// or SIGTERM.
func (o *options) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	if o.timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func (o *options) engine(ctx context.Context) (*system.Engine, error) {
	return system.Boot(ctx, o.cfg)
}

func main() {
	err := run(newRootCmd())
	logging.CloseAll()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
