package manager

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/edugonzaloalmorox/data-eng-zoomcamp/pkg/ingest"
)

const queryDatabaseExists = "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)"

// Manager is stateless and safe for concurrent use; thread safety depends on
// the injected DBConnection.
type Manager struct{}

func New() *Manager {
	return &Manager{}
}

// Exists checks if a database exists.
func (m *Manager) Exists(ctx context.Context, conn ingest.DBConnection, dbName string) (bool, error) {
	var exists bool
	if err := conn.QueryRow(ctx, queryDatabaseExists, dbName).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check database existence: %w", err)
	}
	return exists, nil
}

// Create creates an empty database. CREATE DATABASE cannot run inside a
// transaction, so it is issued directly on the connection.
func (m *Manager) Create(ctx context.Context, conn ingest.DBConnection, dbName string) error {
	query := fmt.Sprintf("CREATE DATABASE %s", pgx.Identifier{dbName}.Sanitize())
	if _, err := conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create database %q: %w", dbName, err)
	}
	return nil
}

var _ ingest.DatabaseManager = (*Manager)(nil)
