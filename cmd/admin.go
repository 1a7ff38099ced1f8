package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mohitbudhwar0786/earning-website/ledger"
)

func newCreateAdminCmd(opts *rootOptions) *cobra.Command {
	var in ledger.AdminInput
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an operator account",
		Long:  "Creates an active admin. The password is read from --password or, if empty, from ADMIN_PASSWORD.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.Password == "" {
				in.Password = os.Getenv("ADMIN_PASSWORD")
			}
			if in.Password == "" {
				return errors.New("password required: use --password or ADMIN_PASSWORD")
			}
			if in.Name == "" {
				in.Name = in.Username
			}
			a, err := newApp(cmd.Context(), opts.cfg, opts.log)
			if err != nil {
				return err
			}
			defer a.Close()

			admin, err := a.ledger.CreateAdmin(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %q created with id %d\n", admin.Username, admin.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Username, "username", "", "admin username")
	cmd.Flags().StringVar(&in.Name, "name", "", "display name (default username)")
	cmd.Flags().StringVar(&in.Password, "password", "", "admin password")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}
