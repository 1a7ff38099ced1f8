package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mohitbudhwar0786/earning-website/middleware"
	"github.com/mohitbudhwar0786/earning-website/routes"
	"github.com/mohitbudhwar0786/earning-website/scheduler"
	"github.com/mohitbudhwar0786/earning-website/utils"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var noScheduler bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the daily settlement scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.cfg.RequireHTTP(); err != nil {
				return err
			}
			return serve(cmd.Context(), opts, !noScheduler)
		},
	}
	cmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "serve HTTP only; settlement is left to the cron endpoint")
	return cmd
}

func serve(ctx context.Context, opts *rootOptions, withScheduler bool) error {
	cfg, log := opts.cfg, opts.log
	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := scheduler.New(a.engine.Run,
		scheduler.WithSpec(cfg.SettlementCron),
		scheduler.WithTimeout(cfg.SettlementTimeout),
		scheduler.WithLogger(log.Named("scheduler")),
		scheduler.WithTask("expire-pending-investments", cfg.HousekeepingCron, func(ctx context.Context) (int, error) {
			return a.ledger.ExpirePendingInvestments(ctx, time.Now())
		}),
	)
	if err != nil {
		return err
	}
	if withScheduler {
		sched.Start()
		log.Info("scheduler started", zap.String("spec", cfg.SettlementCron), zap.Time("next", sched.Next()))
	}

	router := routes.InitRouter(routes.Deps{
		Ledger:         a.ledger,
		Admins:         a.ledger,
		Expirer:        a.ledger,
		Runner:         sched,
		Tokens:         utils.TokenConfig{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer, Audience: cfg.JWTAudience, TTL: cfg.JWTTTL},
		CronKey:        cfg.CronKey,
		CORSOrigins:    cfg.CORSOrigins,
		TrustedProxies: cfg.TrustedProxies,
		CronRateLimit:  cfg.CronRateLimit,
		Metrics:        a.metrics,
		MetricsHandler: a.metrics.Handler(),
		Ping: func(ctx context.Context) error {
			sqlDB, err := a.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		Log: log.Named("http"),
	})
	defer router.Close()

	// Logging -> Security headers -> Request ID -> Max Body -> Timeout -> Recovery
	handler := middleware.RequestLog(log.Named("http"))(
		middleware.SecurityHeaders(cfg.IsDevelopment(), !cfg.IsDevelopment())(
			middleware.RequestID(
				middleware.MaxBody(middleware.DefaultMaxBody)(
					middleware.Timeout(cfg.SettlementTimeout)(
						middleware.Recovery(log)(router),
					),
				),
			),
		),
	)

	// settlement runs synchronously inside the request, so the write
	// timeout has to cover a full pass
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.SettlementTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	log.Info("shutting down")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		log.Error("scheduler did not stop in time", zap.Error(err))
	}
	log.Info("server exited")
	return nil
}
