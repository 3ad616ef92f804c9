package db

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/pdfchat/internal/config"
)

func TestMigrationsEmbedded(t *testing.T) {
	content, err := fs.ReadFile(migrationsFS, "migrations/0001_init.sql")
	require.NoError(t, err)
	stmts := splitStatements(string(content))
	require.Len(t, stmts, 5)
	require.Contains(t, stmts[0], "CREATE EXTENSION")
	require.Contains(t, stmts[1], "embedding_cache")
	require.Contains(t, stmts[3], "ingest_records")

	files, err := migrationFiles()
	require.NoError(t, err)
	require.Equal(t, []string{"0001_init.sql"}, files)
}

func TestPendingMigrations(t *testing.T) {
	files := []string{"0001_init.sql", "0002_more.sql", "0003_last.sql"}
	require.Equal(t, files, pendingMigrations(files, nil))
	require.Equal(t, []string{"0002_more.sql"},
		pendingMigrations(files, map[string]bool{"0001_init.sql": true, "0003_last.sql": true}))
	require.Empty(t, pendingMigrations(files, map[string]bool{"0001_init.sql": true, "0002_more.sql": true, "0003_last.sql": true}))
}

func TestDSN(t *testing.T) {
	require.Equal(t, "postgres://u@h/db", DSN(config.DatabaseConfig{DSN: "postgres://u@h/db", Host: "ignored"}))
	require.Equal(t, "host=db port=5432 user=u password=p dbname=pdfchat sslmode=disable",
		DSN(config.DatabaseConfig{Host: "db", User: "u", Password: "p", DBName: "pdfchat"}))
	require.Equal(t, "host=db port=6543 user=u password=p dbname=pdfchat sslmode=require",
		DSN(config.DatabaseConfig{Host: "db", Port: 6543, User: "u", Password: "p", DBName: "pdfchat", SSLMode: "require"}))
}
