package services

import (
	"context"
	"errors"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edugonzaloalmorox/data-eng-zoomcamp/internal/sink/memory"
	"github.com/edugonzaloalmorox/data-eng-zoomcamp/pkg/ingest"
)

type mockConnector struct {
	pool *pgxpool.Pool
	err  error
}

func (m *mockConnector) Connect(_ context.Context) (*pgxpool.Pool, error) {
	return m.pool, m.err
}

func mockConnectorFactory(err error) ingest.ConnectorFactory {
	return func(*ingest.ConnectionConfig) (ingest.Connector, error) {
		return &mockConnector{err: err}, nil
	}
}

// mockFetcher runs fn for every Fetch and records the arguments.
type mockFetcher struct {
	mu    sync.Mutex
	calls []string
	fn    func(ctx context.Context, url, dest string) (*ingest.FetchResult, error)
}

func (m *mockFetcher) Fetch(ctx context.Context, url, dest string) (*ingest.FetchResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, dest)
	m.mu.Unlock()
	return m.fn(ctx, url, dest)
}

func (m *mockFetcher) factory() FetcherFactory {
	return func(ingest.DownloadMethod, string) (ingest.Fetcher, error) {
		return m, nil
	}
}

type mockVerifier struct {
	err    error
	called bool
}

func (m *mockVerifier) Verify(_, _ string) error {
	m.called = true
	return m.err
}

type mockDatabaseManager struct {
	existsResult bool
	existsErr    error
	createErr    error
	created      []string
}

func (m *mockDatabaseManager) Exists(_ context.Context, _ ingest.DBConnection, _ string) (bool, error) {
	return m.existsResult, m.existsErr
}

func (m *mockDatabaseManager) Create(_ context.Context, _ ingest.DBConnection, dbName string) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, dbName)
	return nil
}

// flakySink is a memory sink whose CreateTable or selected appends fail.
type flakySink struct {
	*memory.Sink
	createErr error
	failOn    map[int]bool
	appends   int
}

func (f *flakySink) CreateTable(ctx context.Context, tableName string, schema *arrow.Schema) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.Sink.CreateTable(ctx, tableName, schema)
}

func (f *flakySink) Append(ctx context.Context, tableName string, chunk arrow.Table) error {
	f.appends++
	if f.failOn[f.appends] {
		return errors.New("connection reset by peer")
	}
	return f.Sink.Append(ctx, tableName, chunk)
}

var errStop = errors.New("mock stop")
