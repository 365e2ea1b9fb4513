package main

import (
	"github.com/spf13/cobra"

	"ctxgraph/internal/render"
)

func newSummaryCmd(opts *options) *cobra.Command {
	var pretty bool

	cmd := &cobra.Command{
		Use:   "summary [entry]",
		Short: "Print a lightweight capability index",
		Long: `Without an entry, lists specialists, domains, routines and every other
node type. With an entry, shows what it always loads, the optional
references it can pull in and what it provides.`,
		Args: cobra.MaximumNArgs(1),
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

			text := render.Overview(r.Index())
			if len(args) == 1 {
				text = render.Summary(r, args[0])
			}
			return printMarkdown(cmd.OutOrStdout(), text, pretty)
		},
	}

	cmd.Flags().BoolVar(&pretty, "pretty", false, "Render markdown output for the terminal")
	return cmd
}
