package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteDSNAddsMissingSettings(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
		want string
	}{
		{
			name: "bare path",
			dsn:  "file:pgd.db",
			want: "file:pgd.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate",
		},
		{
			name: "existing query",
			dsn:  "file:pgd.db?cache=shared",
			want: "file:pgd.db?cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate",
		},
		{
			name: "settings given by the caller are kept",
			dsn:  "file:pgd.db?_pragma=busy_timeout(100)&_txlock=deferred",
			want: "file:pgd.db?_pragma=busy_timeout(100)&_txlock=deferred&_pragma=foreign_keys(1)",
		},
		{
			name: "trailing separator",
			dsn:  "file:pgd.db?",
			want: "file:pgd.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sqliteDSN(tt.dsn))
		})
	}
}

func TestOpenSQLiteWithDSNEnforcesForeignKeys(t *testing.T) {
	conn, err := Open(Config{DSN: "file:" + filepath.Join(t.TempDir(), "custom.db")})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	var on int
	require.NoError(t, conn.QueryRow("PRAGMA foreign_keys").Scan(&on))
	assert.Equal(t, 1, on)

	var timeout int
	require.NoError(t, conn.QueryRow("PRAGMA busy_timeout").Scan(&timeout))
	assert.Equal(t, 5000, timeout)
}
