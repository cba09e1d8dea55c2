package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vnmcp/internal/infra/catalog"
)

func newPackCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pack <snapshot.db>",
		Short: "Convert the catalog into a bbolt snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _, err := catalog.DetectFormat(args[0])
			if err != nil {
				return err
			}
			if format != catalog.FormatSnapshot {
				return fmt.Errorf("snapshot path must end in .db, .bolt or .bbolt: %s", args[0])
			}

			store, err := catalog.NewLoader(opts.logger).Load(cmd.Context(), opts.catalogPath)
			if err != nil {
				return err
			}
			info, err := catalog.WriteSnapshot(args[0], store)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), info)
		},
	}
}
