package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newIndexCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Rebuild the graph index from the corpus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			e, err := opts.engine(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Scanning knowledge files...")
			ix, report, err := e.Rebuild(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Indexed %d nodes\n", ix.Len())
			fmt.Fprintf(out, "Types: %s\n", strings.Join(ix.Types(), ", "))
			fmt.Fprintf(out, "Cache: %s\n", e.Store.Path())

			for _, c := range report.Collisions {
				fmt.Fprintf(out, "Collision: id %q from %s replaced %s\n", c.ID, c.Winner, c.Loser)
			}
			for _, s := range report.Skipped {
				fmt.Fprintf(out, "Skipped: %s (%s)\n", s.Path, s.Reason)
			}
			return nil
		},
	}
}
