package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/pin-lock/internal/config"
	"github.com/wfunc/pin-lock/internal/models"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

func TestOpenAndMigrate(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver:   "sqlite",
		DSN:      filepath.Join(t.TempDir(), "pin-lock.db"),
		LogLevel: "silent",
	}
	log := zap.NewNop()

	db, err := Open(cfg, log)
	require.NoError(t, err)
	defer CloseDB(db)

	require.NoError(t, AutoMigrate(db, cfg, log))
	assert.True(t, db.Migrator().HasTable(&models.StorageBlock{}))
	assert.True(t, db.Migrator().HasTable(&models.AccessEvent{}))

	// 迁移锁已释放，可以再次迁移
	require.NoError(t, AutoMigrate(db, cfg, log))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(&config.DatabaseConfig{Driver: "oracle"}, zap.NewNop())
	assert.Error(t, err)
}

func TestSqlitePath(t *testing.T) {
	assert.Equal(t, "./data/pin-lock.db", sqlitePath("sqlite", "./data/pin-lock.db"))
	assert.Equal(t, "", sqlitePath("sqlite", ":memory:"))
	assert.Equal(t, "", sqlitePath("sqlite3", "file::memory:?cache=shared"))
	assert.Equal(t, "", sqlitePath("mysql", "user:pass@tcp(localhost:3306)/lock"))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, parseLogLevel("silent"))
	assert.Equal(t, gormlogger.Info, parseLogLevel("info"))
	assert.Equal(t, gormlogger.Warn, parseLogLevel(""))
}
