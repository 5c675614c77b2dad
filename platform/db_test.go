package platform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDBSQLite(t *testing.T) {
	db, err := InitDB(DBConfig{Driver: "sqlite", DSN: "file::memory:", MaxOpenConns: 1, ConnTimeout: time.Second})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
	assert.Equal(t, time.UTC, db.NowFunc().Location())
}

func TestInitDBUnsupportedDriver(t *testing.T) {
	_, err := InitDB(DBConfig{Driver: "oracle"})
	assert.ErrorContains(t, err, "unsupported database driver")
}
