package main

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/2beens/gymlog/internal/legacy"
	"github.com/2beens/gymlog/internal/templates"
	"github.com/2beens/gymlog/internal/users"
	"github.com/2beens/gymlog/internal/workouts"
	"github.com/2beens/gymlog/pkg"
)

func newImportLegacyCmd(opts *rootOptions) *cobra.Command {
	var (
		dir        string
		ownerEmail string
	)

	cmd := &cobra.Command{
		Use:   "import-legacy",
		Short: "Import workouts.json and templates.json from the old file based storage",
		Long: `Import workouts.json and templates.json from the old file based storage.

Without --owner-email the rows are stored without an owner and stay hidden
until they are handed to a user with the claim command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			isDir, err := pkg.PathExists(dir, true)
			if err != nil {
				return fmt.Errorf("check dir %s: %w", dir, err)
			}
			if !isDir {
				return errors.New("--dir must point to an existing directory")
			}

			ctx := cmd.Context()
			dbPool, err := opts.connect(ctx)
			if err != nil {
				return err
			}
			defer dbPool.Close()

			owner, err := legacy.ResolveOwner(ctx, users.NewRepo(dbPool), ownerEmail)
			if err != nil {
				return err
			}

			importer := legacy.NewImporter(workouts.NewRepo(dbPool), templates.NewRepo(dbPool))
			summary, err := importer.ImportDir(ctx, dir, owner)
			log.Infof(
				"imported %d workouts, %d exercises, %d templates for owner %s, skipped %d records",
				summary.Workouts, summary.Exercises, summary.Templates, owner, summary.Skipped,
			)
			return err
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "./data", "directory holding the legacy json files")
	cmd.Flags().StringVar(&ownerEmail, "owner-email", "", "assign imported rows to this registered user")

	return cmd
}
