package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 24*time.Hour, cfg.Jobs.TierSync)
	assert.Equal(t, time.Hour, cfg.Jobs.ScheduleSync)
	assert.Equal(t, 6*time.Hour, cfg.Jobs.OverdueScan)
	assert.Equal(t, 24*time.Hour, cfg.Jobs.OrphanCleanup)
	assert.Equal(t, "audit.reminders", cfg.Notifications.Topic)
	assert.False(t, cfg.Notifications.DeliveryEnabled)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NotEmpty(t, cfg.Kafka.Brokers)
}

func TestDefaultMySQLDSN(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	dsn, err := mysql.ParseDSN(cfg.MySQL.DSN)
	require.NoError(t, err)
	assert.True(t, dsn.ParseTime)
	assert.True(t, dsn.MultiStatements,
		"the migrate command executes the whole SQL file in one Exec")
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("jobs:\n  overdue_scan: 15m\nnotifications:\n  delivery_enabled: true\n")
	require.NoError(t, os.WriteFile(path, body, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.Jobs.OverdueScan)
	assert.True(t, cfg.Notifications.DeliveryEnabled)
	// untouched keys keep their defaults
	assert.Equal(t, 24*time.Hour, cfg.Jobs.TierSync)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}
