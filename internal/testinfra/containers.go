// Package testinfra starts disposable database servers for integration tests.
package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcclickhouse "github.com/testcontainers/testcontainers-go/modules/clickhouse"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	PostgresImage    = "postgres:16-alpine"
	PostgresUser     = "root"
	PostgresPassword = "root"
	PostgresDB       = "postgres"

	ClickHouseImage    = "clickhouse/clickhouse-server:24.3-alpine"
	ClickHouseUser     = "default"
	ClickHousePassword = "clickhouse"
	ClickHouseDB       = "default"
)

type PostgresContainer struct {
	*postgres.PostgresContainer
	ConnString string
}

// StartPostgres runs PostgresImage with password auth and no TLS.
func StartPostgres(ctx context.Context) (*PostgresContainer, error) {
	ctr, err := postgres.Run(ctx,
		PostgresImage,
		postgres.WithUsername(PostgresUser),
		postgres.WithPassword(PostgresPassword),
		postgres.WithDatabase(PostgresDB),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get connection string: %w", err)
	}

	return &PostgresContainer{PostgresContainer: ctr, ConnString: connStr}, nil
}

type ClickHouseContainer struct {
	*tcclickhouse.ClickHouseContainer
	// Addr is host:port of the native protocol.
	Addr string
}

// StartClickHouse runs ClickHouseImage and returns its native address.
func StartClickHouse(ctx context.Context) (*ClickHouseContainer, error) {
	ctr, err := tcclickhouse.Run(ctx,
		ClickHouseImage,
		tcclickhouse.WithUsername(ClickHouseUser),
		tcclickhouse.WithPassword(ClickHousePassword),
		tcclickhouse.WithDatabase(ClickHouseDB),
	)
	if err != nil {
		return nil, fmt.Errorf("start clickhouse: %w", err)
	}

	addr, err := ctr.ConnectionHost(ctx)
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get clickhouse address: %w", err)
	}

	return &ClickHouseContainer{ClickHouseContainer: ctr, Addr: addr}, nil
}
