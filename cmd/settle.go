package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mohitbudhwar0786/earning-website/models"
)

func newSettleCmd(opts *rootOptions) *cobra.Command {
	var (
		force bool
		date  string
	)
	cmd := &cobra.Command{
		Use:   "settle",
		Short: "Run one settlement pass and print the result",
		Long: "Runs the daily earnings settlement for today (UTC) or --date. " +
			"Without --force, users already settled for the date are skipped; " +
			"with --force their postings are replaced.",
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := parseDay(date, time.Now())
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), opts.cfg, opts.log)
			if err != nil {
				return err
			}
			defer a.Close()

			res, runErr := a.engine.SettleDay(cmd.Context(), day, force)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			return runErr
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace postings already made for the date")
	cmd.Flags().StringVar(&date, "date", "", "settlement date as YYYY-MM-DD (default today, UTC)")
	return cmd
}

// parseDay reads a YYYY-MM-DD date; empty means today in UTC.
func parseDay(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return now.UTC(), nil
	}
	day, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
	}
	return day, nil
}
