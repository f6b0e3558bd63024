package logging

import "github.com/edugonzaloalmorox/data-eng-zoomcamp/pkg/ingest"

// NullLogger is a no-op logger that discards all log messages.
type NullLogger struct{}

func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

func (l *NullLogger) Verbose(format string, args ...interface{}) {}

func (l *NullLogger) Info(format string, args ...interface{}) {}

func (l *NullLogger) Error(format string, args ...interface{}) {}

var _ ingest.Logger = (*NullLogger)(nil)
