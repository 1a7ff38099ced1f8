package database

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mohitbudhwar0786/earning-website/config"
)

const tlsConfigName = "custom"

// Connect opens the configured database with pooling and retry.
func Connect(ctx context.Context, cfg config.DB, log *zap.Logger) (*gorm.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	dialector, safeDSN, err := dialect(cfg)
	if err != nil {
		return nil, err
	}
	log.Info("connecting to database", zap.String("driver", cfg.Driver), zap.String("dsn", safeDSN))

	gormLogger := logger.Default.LogMode(logger.Silent)
	if cfg.Debug {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	retries := cfg.ConnectRetries
	if retries <= 0 {
		retries = 1
	}
	var db *gorm.DB
	backoff := time.Second
	for attempt := 0; attempt < retries; attempt++ {
		db, err = gorm.Open(dialector, &gorm.Config{Logger: gormLogger, TranslateError: true})
		if err == nil {
			break
		}
		log.Warn("database connect failed", zap.Int("attempt", attempt+1), zap.Error(err))
		if attempt == retries-1 {
			break
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		backoff *= 2
	}
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if cfg.PingOnConnect {
		if err := pingWithTimeout(ctx, sqlDB, 5*time.Second); err != nil {
			return nil, fmt.Errorf("database ping failed: %w", err)
		}
	}
	return db, nil
}

// Close releases the pool behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// dialect builds the GORM dialector and a DSN safe to log.
func dialect(cfg config.DB) (gorm.Dialector, string, error) {
	switch cfg.Driver {
	case "mysql", "":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = mysqlDSN(cfg)
		}
		if strings.Contains(dsn, "tls="+tlsConfigName) {
			if err := registerTLS(cfg); err != nil {
				return nil, "", err
			}
		}
		return gormmysql.Open(dsn), redact(dsn, cfg.Pass), nil
	case "postgres":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = postgresDSN(cfg)
		}
		return postgres.Open(dsn), redact(dsn, cfg.Pass), nil
	default:
		return nil, "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func mysqlDSN(cfg config.DB) string {
	params := cfg.Params
	if params == "" {
		params = "charset=utf8mb4&parseTime=True&loc=UTC"
	}
	if !strings.Contains(params, "tls=") {
		switch cfg.TLS {
		case "verify":
			params += "&tls=" + tlsConfigName
		case "true", "preferred", "skip-verify":
			params += "&tls=" + cfg.TLS
		}
	}
	for _, p := range []string{"timeout", "readTimeout", "writeTimeout"} {
		if !strings.Contains(params, p+"=") {
			params += "&" + p + "=10s"
		}
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s", cfg.User, cfg.Pass, cfg.Host, cfg.Port, cfg.Name, params)
}

func postgresDSN(cfg config.DB) string {
	sslmode := "require"
	switch cfg.TLS {
	case "skip", "false":
		sslmode = "disable"
	case "preferred":
		sslmode = "prefer"
	case "verify":
		sslmode = "verify-full"
	}
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC connect_timeout=10",
		cfg.Host, cfg.Port, cfg.User, cfg.Pass, cfg.Name, sslmode)
	if cfg.TLSCAPath != "" {
		dsn += " sslrootcert=" + cfg.TLSCAPath
	}
	if cfg.Params != "" {
		dsn += " " + cfg.Params
	}
	return dsn
}

// registerTLS makes a strict TLS config available to the mysql driver.
func registerTLS(cfg config.DB) error {
	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if cfg.TLSCAPath != "" {
		caCert, err := os.ReadFile(cfg.TLSCAPath)
		if err != nil {
			return fmt.Errorf("failed reading DB TLS CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return errors.New("failed to append CA certs")
		}
		tlsCfg.RootCAs = pool
	}
	if cfg.TLSClientCert != "" && cfg.TLSClientKey != "" {
		cert, err := tls.LoadX509KeyPair(cfg.TLSClientCert, cfg.TLSClientKey)
		if err != nil {
			return fmt.Errorf("failed to load client cert/key: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}
	return mysqldriver.RegisterTLSConfig(tlsConfigName, tlsCfg)
}

func redact(dsn, pass string) string {
	if pass == "" {
		return dsn
	}
	return strings.Replace(dsn, pass, "******", 1)
}

func pingWithTimeout(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("ping timeout after %s", timeout)
		}
		return err
	}
	return nil
}
