package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ctxgraph/internal/watch"
)

func newWatchCmd(opts *options) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the index whenever the corpus changes",
		Long: `Performs a full rebuild and saves the snapshot after every settled burst of
changes under the corpus roots. Runs until interrupted; --timeout does not
apply.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			e, err := opts.engine(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			out := cmd.OutOrStdout()
			ix, _, err := e.Rebuild(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Indexed %d nodes\n", ix.Len())

			w, err := watch.New(e.Roots, opts.cfg.Extensions, func(ctx context.Context) (int, error) {
				ix, _, err := e.Rebuild(ctx)
				if err != nil {
					return 0, err
				}
				fmt.Fprintf(out, "Reindexed %d nodes\n", ix.Len())
				return ix.Len(), nil
			}, debounce)
			if err != nil {
				return fmt.Errorf("failed to create watcher: %w", err)
			}
			if err := w.Start(ctx); err != nil {
				return err
			}
			defer w.Stop()

			fmt.Fprintf(out, "Watching %d roots (Ctrl+C to stop)\n", len(e.Roots))
			<-w.Done()
			return nil
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period before a rebuild")
	return cmd
}
