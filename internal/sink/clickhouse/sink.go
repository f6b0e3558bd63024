// Package clickhouse implements the ClickHouse sink over database/sql and
// the clickhouse-go driver. Each chunk is sent as one batch insert, which the
// driver flushes on commit.
package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	// registers the "clickhouse" database/sql driver
	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/edugonzaloalmorox/data-eng-zoomcamp/internal/retry"
	"github.com/edugonzaloalmorox/data-eng-zoomcamp/internal/schema"
	"github.com/edugonzaloalmorox/data-eng-zoomcamp/internal/sink"
	"github.com/edugonzaloalmorox/data-eng-zoomcamp/pkg/ingest"
)

// DriverName is the database/sql driver used by Open.
const DriverName = "clickhouse"

// Sink writes chunks to ClickHouse and owns its *sql.DB.
type Sink struct {
	db     *sql.DB
	logger ingest.Logger
}

// New wraps an open database. Panics if db or logger is nil.
func New(db *sql.DB, logger ingest.Logger) *Sink {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Sink{db: db, logger: logger}
}

// Port returns the port Open dials: cfg.Port, or ingest.DefaultClickHousePort
// when it is zero.
func Port(cfg *ingest.ConnectionConfig) int {
	if cfg.Port == 0 {
		return ingest.DefaultClickHousePort
	}
	return cfg.Port
}

// DSN renders cfg as a clickhouse:// URL for the native protocol.
func DSN(cfg *ingest.ConnectionConfig) string {
	u := &url.URL{
		Scheme: "clickhouse",
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(Port(cfg))),
		Path:   "/" + cfg.Database,
	}
	switch {
	case cfg.Username != "" && cfg.Password != "":
		u.User = url.UserPassword(cfg.Username, cfg.Password)
	case cfg.Username != "":
		u.User = url.User(cfg.Username)
	}

	query := url.Values{}
	for key, value := range cfg.AdditionalParams {
		query.Set(key, value)
	}
	if cfg.ConnectTimeout > 0 {
		query.Set("dial_timeout", cfg.ConnectTimeout.String())
	}
	if cfg.SSLMode == "require" || cfg.SSLMode == "verify-ca" || cfg.SSLMode == "verify-full" {
		query.Set("secure", "true")
	}
	u.RawQuery = query.Encode()
	return u.String()
}

// Open connects to the server described by cfg, retrying transient failures.
func Open(ctx context.Context, cfg *ingest.ConnectionConfig, logger ingest.Logger) (*Sink, error) {
	db, err := sql.Open(DriverName, DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open clickhouse connection: %w: %w", err, ingest.ErrInvalidConfig)
	}

	executor := retry.NewExecutor(
		retry.NewClickHouseErrorClassifier(),
		retry.NewExponentialBackoff(ingest.DefaultRetryMaxAttempts,
			retry.WithInitialDelay(ingest.DefaultRetryInitialDelay),
			retry.WithMaxDelay(ingest.DefaultRetryMaxDelay),
		),
	).WithOnRetry(func(attempt int, err error, delay time.Duration) {
		logger.Verbose("ClickHouse ping failed (attempt %d): %v; retrying in %v", attempt+1, err, delay)
	})

	if err := executor.Execute(ctx, db.PingContext); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to clickhouse at %s:%d: %w: %w", cfg.Host, Port(cfg), ingest.ErrConnectionFailed, err)
	}

	logger.Verbose("Connected to ClickHouse at %s:%d", cfg.Host, Port(cfg))
	return New(db, logger), nil
}

// CreateTable drops tableName if it exists and recreates it from sch.
// ClickHouse DDL is not transactional, so the two statements run in sequence.
func (s *Sink) CreateTable(ctx context.Context, tableName string, sch *arrow.Schema) error {
	ddl, err := schema.ClickHouseCreateTableSQL(tableName, sch)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, schema.ClickHouseDropTableSQL(tableName)); err != nil {
		return fmt.Errorf("failed to drop %s: %w", tableName, err)
	}
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create %s: %w", tableName, err)
	}

	s.logger.Verbose("Created table %s with %d columns", tableName, sch.NumFields())
	return nil
}

// Append inserts chunk as a single batch.
func (s *Sink) Append(ctx context.Context, tableName string, chunk arrow.Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin batch: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, schema.ClickHouseInsertSQL(tableName, chunk.Schema()))
	if err != nil {
		return fmt.Errorf("failed to prepare batch for %s: %w", tableName, err)
	}
	defer stmt.Close()

	rows := sink.NewRows(sink.ClickHouse, chunk)
	defer rows.Release()

	var n int64
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, vals...); err != nil {
			return fmt.Errorf("failed to append row %d to batch: %w", n, err)
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to send batch of %d rows to %s: %w", n, tableName, err)
	}
	return nil
}

// Close closes the database handle.
func (s *Sink) Close() error {
	return s.db.Close()
}

var _ ingest.SinkCloser = (*Sink)(nil)
