package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/2beens/gymlog/internal/legacy"
	"github.com/2beens/gymlog/internal/templates"
	"github.com/2beens/gymlog/internal/users"
	"github.com/2beens/gymlog/internal/workouts"
)

func newClaimCmd(opts *rootOptions) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "claim",
		Short: "Hand all unowned workouts and templates to a registered user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(email) == "" {
				return errors.New("--email is required")
			}

			ctx := cmd.Context()
			dbPool, err := opts.connect(ctx)
			if err != nil {
				return err
			}
			defer dbPool.Close()

			result, err := legacy.ClaimAll(
				ctx,
				users.NewRepo(dbPool),
				workouts.NewRepo(dbPool),
				templates.NewRepo(dbPool),
				email,
			)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "claimed %d workouts and %d templates\n", result.Workouts, result.Templates)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email of the user receiving the rows")

	return cmd
}
