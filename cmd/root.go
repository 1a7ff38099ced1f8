// Package cmd is the earnd command line: the HTTP service with its daily
// scheduler, one-off settlement runs and database chores.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mohitbudhwar0786/earning-website/config"
	"github.com/mohitbudhwar0786/earning-website/utils"
)

type rootOptions struct {
	envFile string
	cfg     config.Config
	log     *zap.Logger
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "earnd",
		Short:         "Investment ledger and daily earnings settlement",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.envFile != "" {
				config.LoadDotEnv(opts.envFile)
			} else {
				config.LoadDotEnv()
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := utils.NewLogger(cfg.Env, cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			opts.cfg, opts.log = cfg, log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.log != nil {
				_ = opts.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "dotenv file to load (default .env)")

	root.AddCommand(
		newServeCmd(opts),
		newSettleCmd(opts),
		newMigrateCmd(opts),
		newCreateAdminCmd(opts),
	)
	return root
}

// Execute runs the command line until it finishes or a signal arrives.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
