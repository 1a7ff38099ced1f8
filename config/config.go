// Package config reads the service configuration from the environment. A
// .env file, when present, fills in variables that are not already set.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Env      string
	LogLevel string
	Port     string

	DB DB

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	JWTTTL      time.Duration

	CronKey        string
	CORSOrigins    []string
	TrustedProxies []string
	CronRateLimit  int

	SettlementCron    string
	SettlementTimeout time.Duration
	HousekeepingCron  string
	LockTTL           time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MinInvestment      decimal.Decimal
	MaxTotalInvestment decimal.Decimal
	MinWithdrawal      decimal.Decimal
	PendingTTL         time.Duration

	TelegramToken  string
	TelegramChatID int64

	S3 S3
}

type DB struct {
	Driver string // mysql or postgres
	DSN    string
	Host   string
	Port   string
	User   string
	Pass   string
	Name   string
	Params string

	TLS           string // true, preferred, verify or skip
	TLSCAPath     string
	TLSClientCert string
	TLSClientKey  string

	ConnectRetries  int
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingOnConnect   bool
	AutoMigrate     bool
	Debug           bool
}

type S3 struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Prefix    string
}

// LoadDotEnv copies variables from the given files (default .env) into the
// environment without overwriting ones already set. Missing files are
// ignored.
func LoadDotEnv(files ...string) {
	if envMap, err := godotenv.Read(files...); err == nil {
		for k, v := range envMap {
			if os.Getenv(k) == "" {
				os.Setenv(k, v)
			}
		}
	}
}

// Load reads the environment into a Config and checks the database
// settings. HTTP settings are checked separately by RequireHTTP.
func Load() (Config, error) {
	env := strings.ToLower(getenv("ENV", "production"))
	cfg := Config{
		Env:      env,
		LogLevel: getenv("LOG_LEVEL", ""),
		Port:     getenv("PORT", "8080"),
		DB: DB{
			Driver:          strings.ToLower(getenv("DB_DRIVER", "mysql")),
			DSN:             getenv("DB_DSN", ""),
			Host:            getenv("DB_HOST", "127.0.0.1"),
			User:            getenv("DB_USER", ""),
			Pass:            getenv("DB_PASS", ""),
			Name:            getenv("DB_NAME", ""),
			Params:          getenv("DB_PARAMS", ""),
			TLS:             strings.ToLower(getenv("DB_TLS", "true")),
			TLSCAPath:       getenv("DB_TLS_CA_PATH", ""),
			TLSClientCert:   getenv("DB_TLS_CLIENT_CERT", ""),
			TLSClientKey:    getenv("DB_TLS_CLIENT_KEY", ""),
			ConnectRetries:  getenvInt("DB_CONNECT_RETRIES", 5),
			MaxOpenConns:    getenvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getenvInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getenvSeconds("DB_CONN_MAX_LIFETIME", time.Hour),
			PingOnConnect:   getenvBool("DB_PING_ON_CONNECT", true),
			AutoMigrate:     getenvBool("DB_AUTO_MIGRATE", env == "development"),
			Debug:           env == "development",
		},
		JWTSecret:          getenv("JWT_SECRET", ""),
		JWTIssuer:          getenv("JWT_ISS", ""),
		JWTAudience:        getenv("JWT_AUD", ""),
		JWTTTL:             getenvSeconds("JWT_TTL_SECONDS", 6*time.Hour),
		CronKey:            getenv("CRON_KEY", ""),
		CORSOrigins:        splitList(getenv("CORS_ORIGINS", "")),
		TrustedProxies:     splitList(getenv("TRUSTED_PROXIES", "")),
		CronRateLimit:      getenvInt("RATE_CRON_PER_MINUTE", 10),
		SettlementCron:     getenv("SETTLEMENT_CRON", "0 0 * * *"),
		SettlementTimeout:  getenvSeconds("SETTLEMENT_TIMEOUT_SECONDS", 30*time.Minute),
		HousekeepingCron:   getenv("HOUSEKEEPING_CRON", "@hourly"),
		LockTTL:            getenvSeconds("SETTLEMENT_LOCK_TTL_SECONDS", 2*time.Minute),
		RedisAddr:          strings.ReplaceAll(getenv("REDIS_ADDR", ""), " ", ""),
		RedisPassword:      getenv("REDIS_PASS", ""),
		RedisDB:            getenvInt("REDIS_DB", 0),
		PendingTTL:         getenvSeconds("PENDING_INVESTMENT_TTL_SECONDS", 24*time.Hour),
		TelegramToken:      getenv("TELEGRAM_BOT_TOKEN", ""),
		S3: S3{
			Bucket:    getenv("S3_BUCKET", ""),
			Region:    getenv("S3_REGION", "auto"),
			Endpoint:  getenv("S3_ENDPOINT", ""),
			AccessKey: getenv("S3_ACCESS_KEY", ""),
			SecretKey: getenv("S3_SECRET_KEY", ""),
			Prefix:    getenv("S3_REPORT_PREFIX", "settlements"),
		},
	}

	var err error
	if cfg.MinInvestment, err = getenvDecimal("MIN_INVESTMENT", "500"); err != nil {
		return Config{}, err
	}
	if cfg.MaxTotalInvestment, err = getenvDecimal("MAX_TOTAL_INVESTMENT", "2000"); err != nil {
		return Config{}, err
	}
	if cfg.MinWithdrawal, err = getenvDecimal("MIN_WITHDRAWAL", "100"); err != nil {
		return Config{}, err
	}
	if s := getenv("TELEGRAM_CHAT_ID", ""); s != "" {
		if cfg.TelegramChatID, err = strconv.ParseInt(s, 10, 64); err != nil {
			return Config{}, fmt.Errorf("TELEGRAM_CHAT_ID: %w", err)
		}
	}
	switch cfg.DB.Driver {
	case "mysql":
		cfg.DB.Port = getenv("DB_PORT", "3306")
	case "postgres":
		cfg.DB.Port = getenv("DB_PORT", "5432")
	default:
		return Config{}, fmt.Errorf("DB_DRIVER must be mysql or postgres, got %q", cfg.DB.Driver)
	}

	if cfg.DB.DSN == "" {
		for _, kv := range [][2]string{{"DB_USER", cfg.DB.User}, {"DB_NAME", cfg.DB.Name}} {
			if kv[1] == "" {
				return Config{}, fmt.Errorf("required environment variable %s is not set", kv[0])
			}
		}
	}
	return cfg, nil
}

// RequireHTTP checks the variables the HTTP server cannot run without.
func (c Config) RequireHTTP() error {
	var missing []string
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.CronKey == "" {
		missing = append(missing, "CRON_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must be at least 16 characters")
	}
	return nil
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getenvInt(key string, def int) int {
	if v, err := strconv.Atoi(getenv(key, "")); err == nil {
		return v
	}
	return def
}

func getenvSeconds(key string, def time.Duration) time.Duration {
	if v, err := strconv.Atoi(getenv(key, "")); err == nil && v > 0 {
		return time.Duration(v) * time.Second
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v, err := strconv.ParseBool(getenv(key, "")); err == nil {
		return v
	}
	return def
}

func getenvDecimal(key, def string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(getenv(key, def))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", key, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
