package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stockledger-api/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.App.Storage)
	assert.Equal(t, 2*time.Second, cfg.Ledger.LockTimeout)
	assert.Equal(t, 3, cfg.Ledger.RetryAttempts)
	assert.Equal(t, 50*time.Millisecond, cfg.Ledger.RetryDelay)
	assert.Equal(t, 90, cfg.Ledger.DeadStockDays)
	assert.Equal(t, 30*time.Second, cfg.Redis.SnapshotTTL)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestLoad_DesdeEntorno(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "Memory")
	t.Setenv("LEDGER_LOCK_TIMEOUT_MS", "250")
	t.Setenv("LEDGER_RETRY_ATTEMPTS", "0")
	t.Setenv("LEDGER_DEAD_STOCK_DAYS", "30")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("DB_AUTO_MIGRATE", "true")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("SEED_FILE", "catalogo.csv")
	t.Setenv("SEED_LATIN1", "true")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.App.Storage)
	assert.Equal(t, 250*time.Millisecond, cfg.Ledger.LockTimeout)
	assert.Equal(t, 1, cfg.Ledger.RetryAttempts, "al menos un intento")
	assert.Equal(t, 30, cfg.Ledger.DeadStockDays)
	assert.False(t, cfg.Metrics.Enabled)
	assert.True(t, cfg.DB.AutoMigrate)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "catalogo.csv", cfg.App.SeedFile)
	assert.True(t, cfg.App.SeedLatin1)
}

func TestLoad_Invalidos(t *testing.T) {
	t.Run("backend desconocido", func(t *testing.T) {
		t.Setenv("STORAGE_BACKEND", "sqlite")
		_, err := config.Load()
		assert.Error(t, err)
	})
	t.Run("production sin secreto", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		t.Setenv("JWT_SECRET", "")
		_, err := config.Load()
		assert.Error(t, err)
	})
	t.Run("umbral negativo", func(t *testing.T) {
		t.Setenv("LEDGER_DEAD_STOCK_DAYS", "-5")
		_, err := config.Load()
		assert.Error(t, err)
	})
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:word", DBName: "ledger", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/ledger?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://override"
	assert.Equal(t, "postgres://override", c.ConnectionString())
}
