package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/edugonzaloalmorox/data-eng-zoomcamp/internal/db"
	"github.com/edugonzaloalmorox/data-eng-zoomcamp/internal/fetch"
	"github.com/edugonzaloalmorox/data-eng-zoomcamp/internal/loader"
	"github.com/edugonzaloalmorox/data-eng-zoomcamp/internal/sink/clickhouse"
	"github.com/edugonzaloalmorox/data-eng-zoomcamp/internal/sink/memory"
	"github.com/edugonzaloalmorox/data-eng-zoomcamp/internal/sink/postgres"
	"github.com/edugonzaloalmorox/data-eng-zoomcamp/internal/source"
	"github.com/edugonzaloalmorox/data-eng-zoomcamp/pkg/ingest"
)

// FetcherFactory picks the Fetcher for a download method and URL.
type FetcherFactory func(method ingest.DownloadMethod, url string) (ingest.Fetcher, error)

// ChecksumVerifier compares a file against an expected digest.
type ChecksumVerifier interface {
	Verify(path, expected string) error
}

type managementDBConnFunc func(ctx context.Context, connConfig *ingest.ConnectionConfig, dbName string) (ingest.DBConnection, func(), error)

type sinkOpenFunc func(ctx context.Context, config ingest.IngestConfig) (ingest.TableSink, func(), error)

type sourceReadFunc func(ctx context.Context, path string, format ingest.SourceFormat) (arrow.Table, error)

// IngestionService implements ingest.Ingester.
// Thread-Safety: NOT safe for concurrent Ingest() calls on the same instance.
type IngestionService struct {
	fetcherFactory   FetcherFactory
	connectorFactory ingest.ConnectorFactory
	dbManager        ingest.DatabaseManager
	verifier         ChecksumVerifier
	logger           ingest.Logger
	mgmtConnector    managementDBConnFunc
	openSink         sinkOpenFunc
	readSource       sourceReadFunc
}

// NewIngestionService creates an IngestionService with all dependencies
// injected. Panics on nil dependencies; runtime failures are returned as
// errors from Ingest.
func NewIngestionService(
	fetcherFactory FetcherFactory,
	connectorFactory ingest.ConnectorFactory,
	dbManager ingest.DatabaseManager,
	verifier ChecksumVerifier,
	logger ingest.Logger,
) *IngestionService {
	if fetcherFactory == nil {
		panic("fetcherFactory cannot be nil")
	}
	if connectorFactory == nil {
		panic("connectorFactory cannot be nil")
	}
	if dbManager == nil {
		panic("dbManager cannot be nil")
	}
	if verifier == nil {
		panic("verifier cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	svc := &IngestionService{
		fetcherFactory:   fetcherFactory,
		connectorFactory: connectorFactory,
		dbManager:        dbManager,
		verifier:         verifier,
		logger:           logger,
	}
	svc.mgmtConnector = svc.defaultMgmtConnector
	svc.openSink = svc.defaultOpenSink
	svc.readSource = func(ctx context.Context, path string, format ingest.SourceFormat) (arrow.Table, error) {
		return source.Read(ctx, path, format, source.Options{})
	}
	return svc
}

// Ingest downloads the source file, recreates the destination table from its
// schema and appends the rows in chunks.
func (s *IngestionService) Ingest(ctx context.Context, config ingest.IngestConfig) (*ingest.LoadReport, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	path, err := s.download(ctx, config)
	if err != nil {
		return nil, err
	}

	sink, closeSink, err := s.openSink(ctx, config)
	if err != nil {
		return nil, err
	}
	defer closeSink()

	tbl, err := s.readSource(ctx, path, config.Format)
	if err != nil {
		return nil, err
	}
	defer tbl.Release()
	s.logger.Info("Read %d rows and %d columns from %s", tbl.NumRows(), tbl.NumCols(), path)

	if err := sink.CreateTable(ctx, config.TableName, tbl.Schema()); err != nil {
		return nil, fmt.Errorf("failed to create table %s: %w: %w", config.TableName, ingest.ErrSchemaCreation, err)
	}
	s.logger.Verbose("Table %s is ready", config.TableName)

	report, err := loader.New(s.logger, loader.WithRunID(config.RunID)).
		Load(ctx, tbl, sink, config.ChunkSize, config.TableName)
	if err != nil {
		return nil, err
	}

	if config.FailOnChunkError && report.Failed() > 0 {
		return report, fmt.Errorf("%d of %d chunks failed: %w: %w",
			report.Failed(), len(report.Chunks), ingest.ErrPartialLoad, report.Err())
	}
	return report, nil
}

// download fetches config.URL and verifies its checksum when one is given.
func (s *IngestionService) download(ctx context.Context, config ingest.IngestConfig) (string, error) {
	dest := config.OutputPath
	if dest == "" {
		var err error
		if dest, err = fetch.DefaultDestination(config.URL); err != nil {
			return "", err
		}
	}

	fetcher, err := s.fetcherFactory(config.Downloader, config.URL)
	if err != nil {
		return "", err
	}

	s.logger.Info("Downloading %s to %s", config.URL, dest)
	res, err := fetcher.Fetch(ctx, config.URL, dest)
	if err != nil {
		return "", err
	}
	s.logger.Verbose("Downloaded %d bytes in %.2f seconds", res.Bytes, res.Elapsed.Seconds())

	if config.ExpectedSHA256 != "" {
		if err := s.verifier.Verify(res.Path, config.ExpectedSHA256); err != nil {
			if errors.Is(err, ingest.ErrChecksumMismatch) {
				return "", err
			}
			return "", fmt.Errorf("%w: %w", ingest.ErrDownloadFailed, err)
		}
		s.logger.Verbose("Checksum verified for %s", res.Path)
	}
	return res.Path, nil
}

func (s *IngestionService) defaultOpenSink(ctx context.Context, config ingest.IngestConfig) (ingest.TableSink, func(), error) {
	if config.DryRun {
		s.logger.Info("Dry run: loading into memory, no database is touched")
		mem := memory.New()
		return mem, func() { mem.Close() }, nil
	}

	switch config.Target {
	case ingest.TargetClickHouse:
		ch, err := clickhouse.Open(ctx, config.Connection, s.logger)
		if err != nil {
			return nil, nil, err
		}
		return ch, func() { ch.Close() }, nil

	default:
		if config.CreateDatabase {
			if err := s.ensureDatabaseExists(ctx, config); err != nil {
				return nil, nil, fmt.Errorf("failed to ensure database exists: %w", err)
			}
		}

		connector, err := s.connectorFactory(config.Connection)
		if err != nil {
			return nil, nil, err
		}
		pool, err := connector.Connect(ctx)
		if err != nil {
			return nil, nil, err
		}
		s.logger.Verbose("Connected to %s", db.RedactedConnectionString(config.Connection))
		return postgres.New(db.NewPoolAdapter(pool), s.logger), pool.Close, nil
	}
}

func (s *IngestionService) defaultMgmtConnector(ctx context.Context, connConfig *ingest.ConnectionConfig, dbName string) (ingest.DBConnection, func(), error) {
	mgmtConfig := *connConfig
	mgmtConfig.Database = dbName

	connector, err := s.connectorFactory(&mgmtConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connector: %w", err)
	}

	pool, err := connector.Connect(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to management database: %w", err)
	}

	return db.NewPoolAdapter(pool), pool.Close, nil
}

// ensureDatabaseExists creates the target database when it is missing.
func (s *IngestionService) ensureDatabaseExists(ctx context.Context, config ingest.IngestConfig) error {
	managementDB := config.MaintenanceDatabase
	if managementDB == "" {
		managementDB = ingest.DefaultManagementDB
	}
	target := config.Connection.Database

	s.logger.Verbose("Connecting to management database '%s' to check if '%s' exists", managementDB, target)

	dbConn, cleanup, err := s.mgmtConnector(ctx, config.Connection, managementDB)
	if err != nil {
		return err
	}
	defer cleanup()

	exists, err := s.dbManager.Exists(ctx, dbConn, target)
	if err != nil {
		return fmt.Errorf("failed to check if database exists: %w", err)
	}
	if exists {
		s.logger.Verbose("Database '%s' already exists", target)
		return nil
	}

	s.logger.Info("Database '%s' does not exist. Creating...", target)
	if err := s.dbManager.Create(ctx, dbConn, target); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	return nil
}

var _ ingest.Ingester = (*IngestionService)(nil)
