package database

import (
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSNCountsMatchedRows(t *testing.T) {
	cfg, err := mysql.ParseDSN(DSN("app", "p@ss", "db", "3306", "voters"))
	require.NoError(t, err)
	assert.Equal(t, "app", cfg.User)
	assert.Equal(t, "p@ss", cfg.Passwd)
	assert.Equal(t, "db:3306", cfg.Addr)
	assert.Equal(t, "voters", cfg.DBName)
	assert.True(t, cfg.ClientFoundRows)
	assert.True(t, cfg.ParseTime)
	assert.Equal(t, time.UTC, cfg.Loc)
}
