package db

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edugonzaloalmorox/data-eng-zoomcamp/internal/retry"
	"github.com/edugonzaloalmorox/data-eng-zoomcamp/pkg/ingest"
)

// Pool sizing for a single sequential loader plus the occasional
// maintenance query.
const (
	DefaultMaxConns        = 4
	DefaultMinConns        = 1
	DefaultMaxConnIdleTime = 30 * time.Minute
)

// tokenExpiryWarning is how close to expiry a fresh IAM token must be before
// a warning is printed. Loads of large files can outlive it.
const tokenExpiryWarning = 5 * time.Minute

func configurePool(poolConfig *pgxpool.Config) {
	poolConfig.MaxConns = DefaultMaxConns
	poolConfig.MinConns = DefaultMinConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime
}

func newConnectRetrier() *retry.Executor {
	return retry.NewExecutor(
		retry.NewPostgreSQLErrorClassifier(),
		retry.NewExponentialBackoff(ingest.DefaultRetryMaxAttempts,
			retry.WithInitialDelay(ingest.DefaultRetryInitialDelay),
			retry.WithMaxDelay(ingest.DefaultRetryMaxDelay),
		),
	)
}

// PoolConnector opens a pgxpool and pings it, retrying transient failures.
// With a TokenProvider the password is replaced by a fresh token on every
// attempt.
type PoolConnector struct {
	config        *ingest.ConnectionConfig
	tokenProvider TokenProvider
	providerName  string
	retryExecutor *retry.Executor
}

// NewStandardConnector authenticates with the configured username and password.
func NewStandardConnector(config *ingest.ConnectionConfig) *PoolConnector {
	return &PoolConnector{config: config, retryExecutor: newConnectRetrier()}
}

// NewTokenBasedConnector authenticates with tokens from tokenProvider.
// providerName appears in errors and warnings.
func NewTokenBasedConnector(config *ingest.ConnectionConfig, tokenProvider TokenProvider, providerName string) *PoolConnector {
	return &PoolConnector{
		config:        config,
		tokenProvider: tokenProvider,
		providerName:  providerName,
		retryExecutor: newConnectRetrier(),
	}
}

func (c *PoolConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool

	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		cfg := *c.config
		if c.tokenProvider != nil {
			token, expiresOn, err := c.tokenProvider.GetToken(ctx)
			if err != nil {
				return fmt.Errorf("failed to acquire %s token: %w: %w", c.providerName, err, ingest.ErrConnectionFailed)
			}
			if remaining := time.Until(expiresOn); remaining < tokenExpiryWarning {
				fmt.Fprintf(os.Stderr, "Warning: %s token expires in %v\n", c.providerName, remaining.Round(time.Second))
			}
			cfg.Password = token
		}

		poolConfig, err := pgxpool.ParseConfig(BuildConnectionString(&cfg))
		if err != nil {
			return fmt.Errorf("failed to parse connection config: %w: %w", err, ingest.ErrInvalidConfig)
		}
		configurePool(poolConfig)

		p, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return wrapConnectionError(err, cfg.Host, cfg.Port, cfg.Database)
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return wrapConnectionError(err, cfg.Host, cfg.Port, cfg.Database)
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// NewConnector picks a Connector for config.AuthMethod. It satisfies
// ingest.ConnectorFactory.
func NewConnector(config *ingest.ConnectionConfig) (ingest.Connector, error) {
	switch config.AuthMethod {
	case ingest.AuthMethodStandard:
		return NewStandardConnector(config), nil
	case ingest.AuthMethodAWSIAM:
		provider, err := NewAWSIAMTokenProvider(fmt.Sprintf("%s:%d", config.Host, config.Port), config.AWSRegion, config.Username)
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS IAM token provider: %w: %w", err, ingest.ErrInvalidConfig)
		}
		return NewTokenBasedConnector(config, provider, "AWS IAM"), nil
	case ingest.AuthMethodGoogleIAM:
		if config.GoogleInstance == "" {
			return nil, fmt.Errorf("Google Cloud SQL IAM auth requires --google-instance (project:region:instance): %w", ingest.ErrInvalidConfig)
		}
		if config.Username == "" {
			return nil, fmt.Errorf("Google Cloud SQL IAM auth requires --user: %w", ingest.ErrInvalidConfig)
		}
		return NewCloudSQLConnector(config, config.GoogleInstance), nil
	case ingest.AuthMethodAzureEntraID:
		provider, err := NewAzureTokenProvider(config.AzureTenantID, config.AzureClientID, config.AzureClientSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure token provider: %w: %w", err, ingest.ErrInvalidConfig)
		}
		return NewTokenBasedConnector(config, provider, "Azure"), nil
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, ingest.ErrUnsupportedAuthMethod)
	}
}

// wrapConnectionError adds guidance to a raw pgx connection error. The result
// wraps both err and ingest.ErrConnectionFailed.
func wrapConnectionError(err error, host string, port int, database string) error {
	errStr := strings.ToLower(err.Error())
	addr := host
	if port > 0 {
		addr = fmt.Sprintf("%s:%d", host, port)
	}

	var hint string
	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		hint = fmt.Sprintf(`connection refused to %s

Possible causes:
  - PostgreSQL is not running (check: pg_isready -h %s -p %d)
  - Wrong --host or --port
  - The database container is on another docker network`, addr, host, port)

	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		hint = fmt.Sprintf(`cannot resolve host "%s"

Possible causes:
  - Hostname is misspelled
  - The service name only resolves inside its docker network`, host)

	case strings.Contains(errStr, "password authentication failed"):
		hint = fmt.Sprintf(`password authentication failed for database "%s"

Possible causes:
  - Wrong --password (or $PGPASSWORD)
  - Wrong --user`, database)

	case strings.Contains(errStr, "does not exist"):
		hint = fmt.Sprintf(`database "%s" does not exist

Re-run with --create-database to create it first.`, database)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		hint = fmt.Sprintf(`connection timed out to %s

Possible causes:
  - Server is overloaded or unresponsive
  - Firewall silently dropping packets`, addr)

	case strings.Contains(errStr, "ssl") || strings.Contains(errStr, "tls"):
		hint = `SSL/TLS connection error

Possible causes:
  - Server does not support SSL (try --sslmode=disable)
  - Server requires SSL (try --sslmode=require)`

	case strings.Contains(errStr, "too many connections"):
		hint = fmt.Sprintf(`too many connections to database "%s"

The server's max_connections limit has been reached.`, database)

	default:
		return fmt.Errorf("failed to connect to database: %w: %w", ingest.ErrConnectionFailed, err)
	}

	return fmt.Errorf("%s\n\n%w: %w", hint, ingest.ErrConnectionFailed, err)
}

var (
	_ ingest.Connector        = (*PoolConnector)(nil)
	_ ingest.Connector        = (*CloudSQLConnector)(nil)
	_ ingest.ConnectorFactory = NewConnector
)
