package main

import (
	"github.com/spf13/cobra"

	"vnmcp/internal/domain"
	"vnmcp/internal/infra/catalog"
	"vnmcp/internal/infra/dispatch"
	"vnmcp/internal/infra/query"
)

// exitNoResult is returned when a catalog tool answered with an error payload.
const exitNoResult = 3

func newQueryCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run catalog tools against a catalog file",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "search <text>",
			Short: "Search names and descriptions",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runQuery(cmd, opts, domain.ToolSearchVisualNovels, map[string]any{"query": args[0]})
			},
		},
		&cobra.Command{
			Use:   "details <name>",
			Short: "Show the full record of a title",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runQuery(cmd, opts, domain.ToolGetVisualNovelDetails, map[string]any{"name": args[0]})
			},
		},
		&cobra.Command{
			Use:   "tags [tag...]",
			Short: "List titles carrying every given tag",
			RunE: func(cmd *cobra.Command, args []string) error {
				tags := make([]any, 0, len(args))
				for _, tag := range args {
					tags = append(tags, tag)
				}
				return runQuery(cmd, opts, domain.ToolSearchVisualNovelsByTags, map[string]any{"tags": tags})
			},
		},
	)
	return cmd
}

func runQuery(cmd *cobra.Command, opts *cliOptions, tool domain.ToolName, args map[string]any) error {
	store, err := catalog.NewLoader(opts.logger).Load(cmd.Context(), opts.catalogPath)
	if err != nil {
		return err
	}
	dispatcher, err := dispatch.NewDispatcher(query.NewEngine(store), dispatch.Options{Logger: opts.logger})
	if err != nil {
		return err
	}

	result, err := dispatcher.Handle(cmd.Context(), string(tool), args)
	if err != nil {
		return err
	}
	if err := writeJSON(cmd.OutOrStdout(), result.Payload); err != nil {
		return err
	}
	if result.Failed() {
		return exitSilent(exitNoResult)
	}
	return nil
}
