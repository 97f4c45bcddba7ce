package main

import (
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the schema and seed roles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.bootstrap(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.repo.Migrate(cmd.Context()); err != nil {
				return err
			}
			a.log.Info("migrated")
			return nil
		},
	}
}
