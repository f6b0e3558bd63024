package ingest

import "context"

// DatabaseManager bootstraps the target database before a load.
// The connection passed in must point at a maintenance database, since a
// database cannot be created from a session connected to itself.
type DatabaseManager interface {
	// Exists checks if a database exists.
	Exists(ctx context.Context, conn DBConnection, dbName string) (bool, error)

	// Create creates a new, empty database.
	Create(ctx context.Context, conn DBConnection, dbName string) error
}
