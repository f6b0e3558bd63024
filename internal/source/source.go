package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/csv"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/klauspost/compress/gzip"

	"github.com/edugonzaloalmorox/data-eng-zoomcamp/pkg/ingest"
)

// DefaultCSVBlockRows is the number of CSV rows decoded into each record.
const DefaultCSVBlockRows = 65536

// Options tunes decoding. The zero value is ready to use.
type Options struct {
	// Allocator backs the returned table. Defaults to the Go allocator.
	Allocator memory.Allocator

	// CSVBlockRows is the number of rows per decoded CSV record.
	CSVBlockRows int

	// CSVNullValues are the cell values read as null. Defaults to the empty string.
	CSVNullValues []string
}

func (o Options) withDefaults() Options {
	if o.Allocator == nil {
		o.Allocator = memory.NewGoAllocator()
	}
	if o.CSVBlockRows <= 0 {
		o.CSVBlockRows = DefaultCSVBlockRows
	}
	if o.CSVNullValues == nil {
		o.CSVNullValues = []string{""}
	}
	return o
}

// DetectFormat infers the format from the file extension.
func DetectFormat(path string) (ingest.SourceFormat, error) {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(name, ".parquet"), strings.HasSuffix(name, ".pq"):
		return ingest.FormatParquet, nil
	case strings.HasSuffix(name, ".csv.gz"):
		return ingest.FormatCSVGzip, nil
	case strings.HasSuffix(name, ".csv"):
		return ingest.FormatCSV, nil
	default:
		return "", fmt.Errorf("cannot detect format of %q, use --format: %w", path, ingest.ErrSourceParse)
	}
}

// Resolve returns format unless it is FormatAuto, in which case the format is
// detected from path.
func Resolve(format ingest.SourceFormat, path string) (ingest.SourceFormat, error) {
	if format == "" || format == ingest.FormatAuto {
		return DetectFormat(path)
	}
	return format, nil
}

// Read decodes the file at path. The caller must Release the table.
func Read(ctx context.Context, path string, format ingest.SourceFormat, opts Options) (arrow.Table, error) {
	format, err := Resolve(format, path)
	if err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w: %w", path, ingest.ErrSourceParse, err)
	}
	defer f.Close()

	var tbl arrow.Table
	switch format {
	case ingest.FormatParquet:
		tbl, err = readParquet(ctx, f, opts)
	case ingest.FormatCSV:
		tbl, err = readCSV(ctx, f, opts)
	case ingest.FormatCSVGzip:
		var zr *gzip.Reader
		zr, err = gzip.NewReader(f)
		if err != nil {
			break
		}
		defer zr.Close()
		tbl, err = readCSV(ctx, zr, opts)
	default:
		return nil, fmt.Errorf("unsupported source format %q: %w", format, ingest.ErrSourceParse)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read %s as %s: %w: %w", path, format, ingest.ErrSourceParse, err)
	}
	return tbl, nil
}

func readParquet(ctx context.Context, f *os.File, opts Options) (arrow.Table, error) {
	return pqarrow.ReadTable(ctx, f, parquet.NewReaderProperties(opts.Allocator), pqarrow.ArrowReadProperties{}, opts.Allocator)
}

func readCSV(ctx context.Context, r io.Reader, opts Options) (arrow.Table, error) {
	rdr := csv.NewInferringReader(r,
		csv.WithAllocator(opts.Allocator),
		csv.WithHeader(true),
		csv.WithChunk(opts.CSVBlockRows),
		csv.WithNullReader(true, opts.CSVNullValues...),
	)
	defer rdr.Release()

	var recs []arrow.Record
	defer func() {
		for _, rec := range recs {
			rec.Release()
		}
	}()

	for rdr.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec := rdr.Record()
		rec.Retain()
		recs = append(recs, rec)
	}
	if err := rdr.Err(); err != nil {
		return nil, err
	}

	sch := rdr.Schema()
	if sch == nil {
		return nil, errors.New("no header row")
	}
	return array.NewTableFromRecords(sch, recs), nil
}
