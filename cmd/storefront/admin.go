package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/storefront/internal/transport"
)

func newCreateAdminCmd(opts *rootOptions) *cobra.Command {
	var in transport.RegisterRequest

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator, or promote an existing user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in.Email == "" || in.Password == "" {
				return errors.New("--email and --password are required")
			}
			a, err := opts.bootstrap(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.repo.Migrate(cmd.Context()); err != nil {
				return err
			}
			view, err := a.auth.EnsureAdmin(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s (id %d) ready\n", view.Email, view.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Email, "email", "", "admin email")
	f.StringVar(&in.Password, "password", "", "admin password")
	f.StringVar(&in.FullName, "name", "Administrator", "full name for a new account")
	f.StringVar(&in.NationalID, "national-id", "000.000.000-00", "national ID for a new account (XXX.XXX.XXX-XX)")
	f.StringVar(&in.BirthDate, "birth-date", "1970-01-01", "birth date for a new account (YYYY-MM-DD)")
	return cmd
}
