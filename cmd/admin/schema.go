package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/2beens/gymlog/internal/db"
)

func newSchemaCmd(opts *rootOptions) *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Create missing tables and indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if printOnly {
				_, err := fmt.Fprint(cmd.OutOrStdout(), db.Schema())
				return err
			}

			ctx := cmd.Context()
			dbPool, err := opts.connect(ctx)
			if err != nil {
				return err
			}
			defer dbPool.Close()

			if err := db.ApplySchema(ctx, dbPool); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}

	cmd.Flags().BoolVar(&printOnly, "print", false, "print the schema script instead of applying it")

	return cmd
}
