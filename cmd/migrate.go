package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mohitbudhwar0786/earning-website/database"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Connect(cmd.Context(), opts.cfg.DB, opts.log)
			if err != nil {
				return err
			}
			defer database.Close(db)
			if err := database.Migrate(db); err != nil {
				return err
			}
			opts.log.Info("migration completed")
			return nil
		},
	}
}
