package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	var rollback bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations to the primary store and the search index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			// Opening the stores applies pending migrations.
			a, err := openApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if rollback {
				if err := a.ds.Rollback(ctx); err != nil {
					return err
				}
			}

			v, err := a.ds.Versions(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "primary store at version %d\nsearch index at version %d\n", v.Primary, v.Index)
			return nil
		},
	}
	cmd.Flags().BoolVar(&rollback, "rollback", false, "revert the latest primary store migration")
	return cmd
}
