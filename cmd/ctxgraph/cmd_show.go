package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ctxgraph/internal/render"
)

func newShowCmd(opts *options) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "show <entry>",
		Short: "Show the graph reachable from an entry",
		Long:  `Lists every node reachable from the entry, optional references included, dependencies first.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context(cmd)
			defer cancel()

			e, err := opts.engine(ctx)
			if err != nil {
				return err
			}
			defer e.Close()

			r, err := e.Resolver(ctx)
			if err != nil {
				return err
			}

			theme := render.PlainTheme()
			if out, ok := cmd.OutOrStdout().(*os.File); ok && !plain && out == os.Stdout {
				theme = render.DefaultTheme()
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), render.Show(r, args[0], theme))
			return err
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "Disable styling")
	return cmd
}
