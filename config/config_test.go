package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("DB_USER", "earnd")
	t.Setenv("DB_NAME", "earnd")
	t.Setenv("ENV", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.DB.Driver)
	assert.Equal(t, "3306", cfg.DB.Port)
	assert.Equal(t, "0 0 * * *", cfg.SettlementCron)
	assert.Equal(t, "2000", cfg.MaxTotalInvestment.String())
	assert.Equal(t, "500", cfg.MinInvestment.String())
	assert.Equal(t, 24*time.Hour, cfg.PendingTTL)
	assert.False(t, cfg.DB.AutoMigrate, "production never auto-migrates by default")
	assert.False(t, cfg.IsDevelopment())
}

func TestLoadPostgresAndOverrides(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_DSN", "postgres://u:p@localhost/earnd")
	t.Setenv("MAX_TOTAL_INVESTMENT", "0")
	t.Setenv("SETTLEMENT_CRON", "30 1 * * *")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "5432", cfg.DB.Port)
	assert.True(t, cfg.DB.AutoMigrate)
	assert.True(t, cfg.MaxTotalInvestment.IsZero())
	assert.Equal(t, "30 1 * * *", cfg.SettlementCron)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, int64(-100123), cfg.TelegramChatID)
}

func TestLoadRejects(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_NAME", "x")
	_, err := Load()
	assert.ErrorContains(t, err, "DB_USER")

	t.Setenv("DB_USER", "x")
	t.Setenv("DB_DRIVER", "sqlite")
	_, err = Load()
	assert.ErrorContains(t, err, "DB_DRIVER")

	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("MIN_WITHDRAWAL", "-1")
	_, err = Load()
	assert.ErrorContains(t, err, "MIN_WITHDRAWAL")
}

func TestRequireHTTP(t *testing.T) {
	assert.ErrorContains(t, Config{}.RequireHTTP(), "JWT_SECRET, CRON_KEY")
	assert.Error(t, Config{JWTSecret: "short", CronKey: "k"}.RequireHTTP())
	assert.NoError(t, Config{JWTSecret: "0123456789abcdef", CronKey: "k"}.RequireHTTP())
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("EARND_TEST_A=file\nEARND_TEST_B=file\n"), 0o600))
	t.Setenv("EARND_TEST_A", "env")
	t.Setenv("EARND_TEST_B", "")

	LoadDotEnv(path)
	assert.Equal(t, "env", os.Getenv("EARND_TEST_A"))
	assert.Equal(t, "file", os.Getenv("EARND_TEST_B"))
}
