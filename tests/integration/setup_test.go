package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

// testDSN resolves the test database DSN.
// Skips the test if TEST_DB_DSN is not set.
// You can set TEST_DB_DSN directly, or use individual env vars:
//
//	TEST_DB_HOST, TEST_DB_PORT, TEST_DB_USER, TEST_DB_PASSWORD, TEST_DB_NAME
func testDSN(t *testing.T) string {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn != "" {
		return dsn
	}

	host := os.Getenv("TEST_DB_HOST")
	port := os.Getenv("TEST_DB_PORT")
	user := os.Getenv("TEST_DB_USER")
	password := os.Getenv("TEST_DB_PASSWORD")
	dbname := os.Getenv("TEST_DB_NAME")

	if host == "" || port == "" || user == "" || dbname == "" {
		t.Skip("TEST_DB_DSN or TEST_DB_* environment variables not set, skipping PostgreSQL integration test")
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)
}

// applySchema runs the application migrations through database/sql so the
// pgx repositories have their tables.
func applySchema(t *testing.T, dsn string) {
	t.Helper()

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Ping())

	schema, err := os.ReadFile(filepath.Join("..", "..", "migrations", "schema.sql"))
	require.NoError(t, err)

	_, err = db.Exec(string(schema))
	require.NoError(t, err)
}

// setupTestPool prepares the schema and returns a pgx pool on the test
// database.
func setupTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := testDSN(t)
	applySchema(t, dsn)

	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pool.Ping(context.Background()))
	return pool
}
