package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"ctxgraph/internal/facts"
	"ctxgraph/internal/graph"
)

// Export formats.
const (
	formatMangle  = "mangle"
	formatJSON    = "json"
	formatClosure = "closure"
)

func newExportCmd(opts *options) *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the index as Mangle facts, JSON or a dependency closure",
		Long: `Formats:
  mangle   Datalog facts: node/3, title/2, requires/2, optional/3, provides/2, edge/2
  json     the index snapshot document
  closure  one line per node listing every id it transitively requires`,
		Args: cobra.NoArgs,
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

			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			return export(w, r, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatMangle, "Output format: mangle, json or closure")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}

func export(w io.Writer, r *graph.Resolver, format string) error {
	switch format {
	case formatMangle:
		return facts.Write(w, r)
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r.Index())
	case formatClosure:
		closure, err := facts.Closure(r)
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(closure))
		for id := range closure {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			if _, err := fmt.Fprintf(w, "%s: %s\n", id, strings.Join(closure[id], ", ")); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown export format %q (valid: mangle, json, closure)", format)
	}
}
