package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"ctxgraph/internal/assemble"
	"ctxgraph/internal/render"
)

type resolveOptions struct {
	workflow string
	task     string
	pills    []string
	asJSON   bool
	strict   bool
	pretty   bool
}

func newResolveCmd(opts *options) *cobra.Command {
	ro := &resolveOptions{}

	cmd := &cobra.Command{
		Use:   "resolve <entry>",
		Short: "Resolve the context bundle for an entry",
		Long: `Resolves an entry (id, path or filename) and everything it requires.

With --task the full bundle is printed as a prompt, including optional
references whose predicate matches the task. --pills selects optional
references by filename instead and ignores the predicates.

Examples:
  ctxgraph resolve sre-specialist
  ctxgraph resolve sre-specialist -w deploy-routine -t "deploy the api"
  ctxgraph resolve sre-specialist -p kubernetes -p helm --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, opts, ro, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVarP(&ro.workflow, "workflow", "w", "", "Workflow id whose closure is appended")
	f.StringVarP(&ro.task, "task", "t", "", "Task description")
	f.StringSliceVarP(&ro.pills, "pills", "p", nil, "Optional references to load, by filename substring")
	f.BoolVar(&ro.asJSON, "json", false, "Print ids and entry metadata as JSON")
	f.BoolVar(&ro.strict, "strict", false, "Fail when a required reference cannot be resolved or loaded")
	f.BoolVar(&ro.pretty, "pretty", false, "Render markdown output for the terminal")
	return cmd
}

func runResolve(cmd *cobra.Command, opts *options, ro *resolveOptions, entry string) error {
	ctx, cancel := opts.context(cmd)
	defer cancel()

	e, err := opts.engine(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	a, err := e.Assembler(ctx)
	if err != nil {
		return err
	}

	b, err := a.Assemble(ctx, assemble.Request{
		Entry:    entry,
		Workflow: ro.workflow,
		Task:     ro.task,
		Pills:    ro.pills,
		Strict:   ro.strict,
	})
	if err != nil {
		return err
	}
	reportDiagnostics(cmd.ErrOrStderr(), b)

	out := cmd.OutOrStdout()
	switch {
	case ro.asJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(b.Summary())
	case ro.task != "":
		return printMarkdown(out, render.Format(b, ro.task), ro.pretty)
	default:
		fmt.Fprintf(out, "Resolved %d nodes:\n", len(b.Nodes))
		for _, id := range b.Nodes {
			fmt.Fprintf(out, "  - %s\n", id)
		}
		return nil
	}
}

func reportDiagnostics(w io.Writer, b *assemble.Bundle) {
	if len(b.Unresolved) > 0 {
		fmt.Fprintf(w, "Warning: unresolved references: %s\n", strings.Join(b.Unresolved, ", "))
	}
	if len(b.MissingExternal) > 0 {
		fmt.Fprintf(w, "Warning: external references not loaded: %s\n", strings.Join(b.MissingExternal, ", "))
	}
}

// printMarkdown writes text, rendered for the terminal when pretty is set.
func printMarkdown(w io.Writer, text string, pretty bool) error {
	if pretty {
		rendered, err := render.Pretty(text, "", render.DefaultWrap)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, rendered)
		return err
	}
	_, err := fmt.Fprintln(w, text)
	return err
}
