package retry

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/edugonzaloalmorox/data-eng-zoomcamp/pkg/ingest"
)

// See https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgCodeSerializationFailure = "40001"
	pgCodeDeadlockDetected     = "40P01"
	pgCodeLockNotAvailable     = "55P03"
)

// See https://github.com/ClickHouse/ClickHouse/blob/master/src/Common/ErrorCodes.cpp
var transientClickHouseCodes = map[int32]bool{
	159: true, // TIMEOUT_EXCEEDED
	202: true, // TOO_MANY_SIMULTANEOUS_QUERIES
	209: true, // SOCKET_TIMEOUT
	210: true, // NETWORK_ERROR
	242: true, // TABLE_IS_READ_ONLY
	252: true, // TOO_MANY_PARTS
}

var transientPatterns = []string{
	"connection refused",
	"connection reset",
	"connection timeout",
	"connection failure",
	"no such host",
	"network is unreachable",
	"i/o timeout",
	"broken pipe",
	"too many connections",
	"server closed the connection",
	"unexpected eof",
	"connection pool exhausted",
}

// PostgreSQLErrorClassifier treats connection exceptions (class 08),
// insufficient resources (53), operator intervention (57), serialization
// failures, deadlocks and network failures as transient.
type PostgreSQLErrorClassifier struct{}

func NewPostgreSQLErrorClassifier() *PostgreSQLErrorClassifier {
	return &PostgreSQLErrorClassifier{}
}

func (c *PostgreSQLErrorClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "08"),
			strings.HasPrefix(pgErr.Code, "53"),
			strings.HasPrefix(pgErr.Code, "57"):
			return true
		}
		switch pgErr.Code {
		case pgCodeSerializationFailure, pgCodeDeadlockDetected, pgCodeLockNotAvailable:
			return true
		}
		return false
	}

	return isNetworkError(err) || matchesTransientPattern(err)
}

// ClickHouseErrorClassifier treats server overload, timeouts and network
// failures as transient.
type ClickHouseErrorClassifier struct{}

func NewClickHouseErrorClassifier() *ClickHouseErrorClassifier {
	return &ClickHouseErrorClassifier{}
}

func (c *ClickHouseErrorClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var exception *clickhouse.Exception
	if errors.As(err, &exception) {
		return transientClickHouseCodes[exception.Code]
	}

	return isNetworkError(err) || matchesTransientPattern(err)
}

func isNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() || dnsErr.Timeout()
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return true
		}
		return errors.Is(opErr.Err, syscall.ECONNREFUSED) ||
			errors.Is(opErr.Err, syscall.ECONNRESET) ||
			errors.Is(opErr.Err, syscall.ENETUNREACH) ||
			errors.Is(opErr.Err, syscall.EHOSTUNREACH)
	}
	return false
}

func matchesTransientPattern(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

var (
	_ ingest.ErrorClassifier = (*PostgreSQLErrorClassifier)(nil)
	_ ingest.ErrorClassifier = (*ClickHouseErrorClassifier)(nil)
)
