package cmd

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mohitbudhwar0786/earning-website/config"
	"github.com/mohitbudhwar0786/earning-website/database"
	"github.com/mohitbudhwar0786/earning-website/ledger"
	"github.com/mohitbudhwar0786/earning-website/lock"
	"github.com/mohitbudhwar0786/earning-website/metrics"
	"github.com/mohitbudhwar0786/earning-website/notify"
	"github.com/mohitbudhwar0786/earning-website/policy"
	"github.com/mohitbudhwar0786/earning-website/report"
	"github.com/mohitbudhwar0786/earning-website/settlement"
	"github.com/mohitbudhwar0786/earning-website/store"
)

// app is the wired service shared by the subcommands.
type app struct {
	cfg     config.Config
	log     *zap.Logger
	db      *gorm.DB
	store   store.Store
	ledger  *ledger.Service
	engine  *settlement.Engine
	metrics *metrics.Collector

	closers []func() error
}

func ledgerConfig(cfg config.Config) ledger.Config {
	lc := ledger.DefaultConfig()
	lc.MinInvestment = cfg.MinInvestment
	lc.MaxTotalInvestment = cfg.MaxTotalInvestment
	lc.MinWithdrawal = cfg.MinWithdrawal
	lc.PendingTTL = cfg.PendingTTL
	return lc
}

// newApp connects to the database and, when configured, Redis, Telegram
// and S3. Optional integrations that fail to start are logged and skipped.
func newApp(ctx context.Context, cfg config.Config, log *zap.Logger) (*app, error) {
	db, err := database.Connect(ctx, cfg.DB, log)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log, db: db, metrics: metrics.New()}
	a.closers = append(a.closers, func() error { return database.Close(db) })

	if cfg.DB.AutoMigrate {
		log.Info("running auto-migration")
		if err := database.Migrate(db); err != nil {
			a.Close()
			return nil, err
		}
	}

	a.store = store.NewGormStore(db)
	a.ledger = ledger.New(a.store, policy.Default, ledgerConfig(cfg), ledger.WithLogger(log.Named("ledger")))

	opts := []settlement.Option{
		settlement.WithLogger(log.Named("settlement")),
		settlement.WithMetrics(a.metrics),
		settlement.WithLocker(a.locker(ctx), cfg.LockTTL),
	}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		if bot, err := notify.NewBot(cfg.TelegramToken); err != nil {
			log.Warn("telegram notifications disabled", zap.Error(err))
		} else {
			opts = append(opts, settlement.WithObserver(notify.NewTelegram(bot, cfg.TelegramChatID, log.Named("notify"))))
		}
	}
	if cfg.S3.Bucket != "" {
		if client, err := report.NewClient(ctx, cfg.S3); err != nil {
			log.Warn("settlement report archive disabled", zap.Error(err))
		} else {
			opts = append(opts, settlement.WithObserver(report.NewS3Archive(client, cfg.S3.Bucket, cfg.S3.Prefix, log.Named("report"))))
		}
	}
	a.engine = settlement.New(a.store, policy.Default, opts...)
	return a, nil
}

// locker prefers Redis so that several instances share per-user locks.
func (a *app) locker(ctx context.Context) lock.Locker {
	if a.cfg.RedisAddr == "" {
		return lock.NewMemory()
	}
	rc, err := lock.NewRedisClient(ctx, a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB)
	if err != nil {
		a.log.Warn("redis unavailable, using in-process locks", zap.String("addr", a.cfg.RedisAddr), zap.Error(err))
		return lock.NewMemory()
	}
	a.closers = append(a.closers, rc.Close)
	return lock.NewRedis(rc, "")
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
