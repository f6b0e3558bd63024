package db

import (
	"context"
	"fmt"
	"net"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edugonzaloalmorox/data-eng-zoomcamp/pkg/ingest"
)

// CloudSQLConnector connects to Google Cloud SQL through the Cloud SQL
// connector with automatic IAM database authentication. The dialer handles
// TLS, so the DSN disables it.
type CloudSQLConnector struct {
	config   *ingest.ConnectionConfig
	instance string
	dialer   *cloudsqlconn.Dialer
}

func NewCloudSQLConnector(config *ingest.ConnectionConfig, instance string) *CloudSQLConnector {
	return &CloudSQLConnector{config: config, instance: instance}
}

func (c *CloudSQLConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	dialer, err := cloudsqlconn.NewDialer(ctx, cloudsqlconn.WithIAMAuthN())
	if err != nil {
		return nil, fmt.Errorf("failed to create Cloud SQL dialer: %w: %w", err, ingest.ErrConnectionFailed)
	}

	dsn := fmt.Sprintf("host=%s user=%s dbname=%s sslmode=disable", c.instance, c.config.Username, c.config.Database)
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		dialer.Close()
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}
	poolConfig.ConnConfig.DialFunc = func(ctx context.Context, _, _ string) (net.Conn, error) {
		return dialer.Dial(ctx, c.instance)
	}
	configurePool(poolConfig)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		dialer.Close()
		return nil, wrapConnectionError(err, c.instance, 0, c.config.Database)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		dialer.Close()
		return nil, wrapConnectionError(err, c.instance, 0, c.config.Database)
	}

	c.dialer = dialer
	return pool, nil
}

// Close releases the dialer. Call it after closing the pool.
func (c *CloudSQLConnector) Close() error {
	if c.dialer != nil {
		err := c.dialer.Close()
		c.dialer = nil
		return err
	}
	return nil
}
