package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/edugonzaloalmorox/data-eng-zoomcamp/pkg/ingest"
)

// Format selects the log encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat accepts "text" or "json", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown log format %q (use text or json): %w", s, ingest.ErrInvalidConfig)
	}
}

// Options configures a ConsoleLogger.
type Options struct {
	// Out defaults to os.Stdout.
	Out     io.Writer
	Format  Format
	Verbose bool
	// RunID is attached to every line as run_id when set.
	RunID string
}

// ConsoleLogger writes ingest log lines through zerolog. Verbose messages are
// debug level and only emitted in verbose mode.
type ConsoleLogger struct {
	log zerolog.Logger
}

// New builds a ConsoleLogger from opts.
func New(opts Options) *ConsoleLogger {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	var w io.Writer
	if opts.Format == FormatJSON {
		w = zerolog.SyncWriter(out)
	} else {
		w = zerolog.ConsoleWriter{
			Out:        zerolog.SyncWriter(out),
			NoColor:    !isTerminal(out),
			TimeFormat: "2006-01-02 15:04:05",
		}
	}

	level := zerolog.InfoLevel
	if opts.Verbose {
		level = zerolog.DebugLevel
	}

	ctx := zerolog.New(w).Level(level).With().Timestamp()
	if opts.RunID != "" {
		ctx = ctx.Str("run_id", opts.RunID)
	}
	return &ConsoleLogger{log: ctx.Logger()}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Verbose logs detailed diagnostic information if verbose mode is enabled.
func (l *ConsoleLogger) Verbose(format string, args ...interface{}) {
	write(l.log.Debug(), format, args)
}

// Info logs progress messages.
func (l *ConsoleLogger) Info(format string, args ...interface{}) {
	write(l.log.Info(), format, args)
}

// Error logs error messages.
func (l *ConsoleLogger) Error(format string, args ...interface{}) {
	write(l.log.Error(), format, args)
}

// write treats format as a literal message when there are no args.
func write(e *zerolog.Event, format string, args []interface{}) {
	if len(args) == 0 {
		e.Msg(format)
		return
	}
	e.Msgf(format, args...)
}

var _ ingest.Logger = (*ConsoleLogger)(nil)
