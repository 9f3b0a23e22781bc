package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectSQLite(t *testing.T) {
	gdb, err := Connect("sqlite", "file::memory:")
	require.NoError(t, err)

	var one int
	require.NoError(t, gdb.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}

func TestConnectUnknownDriver(t *testing.T) {
	_, err := Connect("oracle", "x")
	assert.Error(t, err)
}
