// Package testing holds helpers shared by integration tests: a lazily
// started database per test binary and per-test scratch databases.
package testing

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edugonzaloalmorox/data-eng-zoomcamp/internal/db"
	"github.com/edugonzaloalmorox/data-eng-zoomcamp/internal/testinfra"
)

var (
	postgresOnce sync.Once
	postgresConn string
	postgresErr  error

	clickhouseOnce sync.Once
	clickhouseAddr string
	clickhouseErr  error
)

func getOrStartPostgres() (string, error) {
	postgresOnce.Do(func() {
		container, err := testinfra.StartPostgres(context.Background())
		if err != nil {
			postgresErr = err
			return
		}
		postgresConn = container.ConnString
	})
	return postgresConn, postgresErr
}

func getOrStartClickHouse() (string, error) {
	clickhouseOnce.Do(func() {
		container, err := testinfra.StartClickHouse(context.Background())
		if err != nil {
			clickhouseErr = err
			return
		}
		clickhouseAddr = container.Addr
	})
	return clickhouseAddr, clickhouseErr
}

// GetTestConnectionString returns the PostgreSQL connection string for tests.
// Priority: INGEST_TEST_CONN env var > auto-started testcontainer > skip test.
func GetTestConnectionString(t *testing.T) string {
	t.Helper()

	if connString := os.Getenv("INGEST_TEST_CONN"); connString != "" {
		return connString
	}

	connString, err := getOrStartPostgres()
	if err != nil {
		t.Skipf("INGEST_TEST_CONN not set and Docker unavailable: %v", err)
	}
	return connString
}

// SkipIfShort skips the test if running in short mode (-short flag).
func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequireDatabase combines SkipIfShort and GetTestConnectionString.
func RequireDatabase(t *testing.T) string {
	t.Helper()

	SkipIfShort(t)
	return GetTestConnectionString(t)
}

// RequireClickHouse returns a ClickHouse native address (host:port).
// Priority: INGEST_TEST_CLICKHOUSE env var > auto-started testcontainer > skip.
// The container's credentials are testinfra.ClickHouseUser and ClickHousePassword.
func RequireClickHouse(t *testing.T) string {
	t.Helper()

	SkipIfShort(t)
	if addr := os.Getenv("INGEST_TEST_CLICKHOUSE"); addr != "" {
		return addr
	}

	addr, err := getOrStartClickHouse()
	if err != nil {
		t.Skipf("INGEST_TEST_CLICKHOUSE not set and Docker unavailable: %v", err)
	}
	return addr
}

// UniqueDBName returns a database name that will not collide across tests.
func UniqueDBName(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, uuid.NewString()[:8])
}

// CreateTestDB creates dbName and registers its removal with t.Cleanup.
func CreateTestDB(t *testing.T, connString, dbName string) {
	t.Helper()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		t.Fatalf("Failed to connect for test DB creation: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{dbName}.Sanitize()); err != nil {
		t.Fatalf("Failed to create test database %s: %v", dbName, err)
	}

	t.Cleanup(func() {
		CleanupTestDB(t, connString, dbName)
	})
}

// CleanupTestDB drops dbName, terminating its sessions first.
// Safe to call multiple times (uses DROP DATABASE IF EXISTS).
func CleanupTestDB(t *testing.T, connString, dbName string) {
	t.Helper()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		t.Logf("Warning: Failed to connect for cleanup: %v", err)
		return
	}
	defer pool.Close()

	terminateQuery := `
		SELECT pg_terminate_backend(pid)
		FROM pg_stat_activity
		WHERE datname = $1 AND pid <> pg_backend_pid()
	`
	if _, err := pool.Exec(ctx, terminateQuery, dbName); err != nil {
		t.Logf("Warning: Failed to terminate connections to %s: %v", dbName, err)
	}

	if _, err := pool.Exec(ctx, "DROP DATABASE IF EXISTS "+pgx.Identifier{dbName}.Sanitize()); err != nil {
		t.Logf("Warning: Failed to drop database %s: %v", dbName, err)
	}
}

// TestDBConnString rewrites connString to point at dbName.
func TestDBConnString(t *testing.T, connString, dbName string) string {
	t.Helper()

	config, err := db.ParseConnectionString(connString)
	if err != nil {
		t.Fatalf("Failed to parse connection string: %v", err)
	}
	config.Database = dbName
	return db.BuildConnectionString(config)
}

// GetTestPool opens a pool on dbName that is closed when the test completes.
func GetTestPool(t *testing.T, connString, dbName string) *pgxpool.Pool {
	t.Helper()

	pool, err := pgxpool.New(context.Background(), TestDBConnString(t, connString, dbName))
	if err != nil {
		t.Fatalf("Failed to create connection pool: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}
