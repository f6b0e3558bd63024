package ingest

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connector establishes PostgreSQL connection pools.
// Implementations cover password, AWS IAM, Azure Entra ID and Cloud SQL IAM auth.
type Connector interface {
	// Connect establishes a connection pool to the database.
	// The returned pool should be closed by the caller when done.
	Connect(ctx context.Context) (*pgxpool.Pool, error)
}

// ConnectorFactory builds a Connector for a resolved connection configuration.
type ConnectorFactory func(config *ConnectionConfig) (Connector, error)
