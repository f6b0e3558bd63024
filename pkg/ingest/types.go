package ingest

import (
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IngestConfig contains every parameter of one ingestion run.
// The CLI merges flags, environment and ingest.yaml into this value and
// validates it once before any work starts.
type IngestConfig struct {
	// RunID identifies the run in logs and in the load report.
	RunID uuid.UUID

	// URL locates the source file (http, https, s3, gs, file or mem scheme).
	URL string

	// OutputPath is where the download is written. Empty means the URL's base name.
	OutputPath string

	// Format selects the decoder for the downloaded file.
	Format SourceFormat

	// Downloader selects how the file is fetched.
	Downloader DownloadMethod

	// ExpectedSHA256, when set, is compared against the downloaded file.
	ExpectedSHA256 string

	// TableName is the destination table, optionally schema-qualified.
	TableName string

	// ChunkSize is the number of rows per append.
	ChunkSize int64

	// Target selects the destination database engine.
	Target Target

	// Connection holds the resolved destination connection parameters.
	Connection *ConnectionConfig

	// MaintenanceDatabase is used for CREATE DATABASE when CreateDatabase is set.
	MaintenanceDatabase string

	// CreateDatabase creates the target database if it does not exist.
	CreateDatabase bool

	// DryRun loads into an in-memory sink instead of a database.
	DryRun bool

	// FailOnChunkError turns any failed chunk into a fatal ErrPartialLoad.
	FailOnChunkError bool

	// Timeout bounds the entire run. Zero means no deadline.
	Timeout time.Duration

	// Verbose enables detailed logging
	Verbose bool
}

// Validate checks if the IngestConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *IngestConfig) Validate() error {
	var errs []error

	if c.URL == "" {
		errs = append(errs, fmt.Errorf("URL is required: %w", ErrInvalidConfig))
	}

	if c.TableName == "" {
		errs = append(errs, fmt.Errorf("TableName is required: %w", ErrInvalidConfig))
	}

	if c.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("ChunkSize is %d: %w: %w", c.ChunkSize, ErrInvalidChunkSize, ErrInvalidConfig))
	}

	if !c.Target.IsValid() {
		errs = append(errs, fmt.Errorf("unknown target %q: %w", c.Target, ErrInvalidConfig))
	}

	if !c.Format.IsValid() {
		errs = append(errs, fmt.Errorf("unknown source format %q: %w", c.Format, ErrInvalidConfig))
	}

	if !c.Downloader.IsValid() {
		errs = append(errs, fmt.Errorf("unknown downloader %q: %w", c.Downloader, ErrInvalidConfig))
	}

	if c.ExpectedSHA256 != "" {
		if b, err := hex.DecodeString(c.ExpectedSHA256); err != nil || len(b) != 32 {
			errs = append(errs, fmt.Errorf("ExpectedSHA256 must be 64 hex characters: %w", ErrInvalidConfig))
		}
	}

	if !c.DryRun {
		if c.Connection == nil {
			errs = append(errs, fmt.Errorf("Connection is required: %w", ErrInvalidConfig))
		} else if c.Connection.Database == "" {
			errs = append(errs, fmt.Errorf("database name is required: %w", ErrInvalidConfig))
		}
	}

	if c.CreateDatabase && c.Target == TargetClickHouse {
		errs = append(errs, fmt.Errorf("database creation is only supported for postgres: %w", ErrInvalidConfig))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// Azure Entra ID. With tenant, client and secret set, a service principal
	// is used; otherwise the DefaultAzureCredential chain.
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string

	// AWSRegion is required for RDS IAM tokens.
	AWSRegion string

	// GoogleInstance is the Cloud SQL instance connection name (project:region:instance).
	GoogleInstance string
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS RDS IAM token
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Entra ID token
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}

// Target names the destination database engine.
type Target string

const (
	TargetPostgres   Target = "postgres"
	TargetClickHouse Target = "clickhouse"
)

// IsValid reports whether t is a supported target.
func (t Target) IsValid() bool {
	return t == TargetPostgres || t == TargetClickHouse
}

// SourceFormat names the encoding of the downloaded file.
type SourceFormat string

const (
	FormatAuto    SourceFormat = "auto"
	FormatParquet SourceFormat = "parquet"
	FormatCSV     SourceFormat = "csv"
	FormatCSVGzip SourceFormat = "csv.gz"
)

// IsValid reports whether f is a known format.
func (f SourceFormat) IsValid() bool {
	switch f {
	case FormatAuto, FormatParquet, FormatCSV, FormatCSVGzip:
		return true
	}
	return false
}

// DownloadMethod selects the fetch implementation.
type DownloadMethod string

const (
	DownloadAuto DownloadMethod = "auto" // by URL scheme
	DownloadHTTP DownloadMethod = "http"
	DownloadBlob DownloadMethod = "blob"
	DownloadWget DownloadMethod = "wget"
)

// IsValid reports whether d is a known download method.
func (d DownloadMethod) IsValid() bool {
	switch d {
	case DownloadAuto, DownloadHTTP, DownloadBlob, DownloadWget:
		return true
	}
	return false
}
