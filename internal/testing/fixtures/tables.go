// Package fixtures builds Arrow tables and source files for tests.
package fixtures

import (
	"fmt"
	"os"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// BaseTime anchors generated timestamp columns.
var BaseTime = time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

// TableBuilder provides a fluent API for deterministic in-memory tables.
// Row i of every column is derived from i, so chunk boundaries can be
// checked by value.
//
// Example usage:
//
//	tbl := fixtures.NewTableBuilder(250).
//	    Int64("id").
//	    String("label").
//	    Build()
//	defer tbl.Release()
type TableBuilder struct {
	rows   int
	fields []arrow.Field
	fill   []func(b array.Builder, i int)
}

// NewTableBuilder starts a table with the given number of rows.
func NewTableBuilder(rows int) *TableBuilder {
	return &TableBuilder{rows: rows}
}

// Int64 adds a column holding the row index.
func (b *TableBuilder) Int64(name string) *TableBuilder {
	return b.add(arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Int64}, func(ab array.Builder, i int) {
		ab.(*array.Int64Builder).Append(int64(i))
	})
}

// NullableInt64 adds a row-index column that is null on every nth row.
func (b *TableBuilder) NullableInt64(name string, every int) *TableBuilder {
	return b.add(arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Int64, Nullable: true}, func(ab array.Builder, i int) {
		if every > 0 && i%every == 0 {
			ab.AppendNull()
			return
		}
		ab.(*array.Int64Builder).Append(int64(i))
	})
}

// Float64 adds a column holding half the row index.
func (b *TableBuilder) Float64(name string) *TableBuilder {
	return b.add(arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Float64, Nullable: true}, func(ab array.Builder, i int) {
		ab.(*array.Float64Builder).Append(float64(i) / 2)
	})
}

// String adds a column of "row-<i>" labels.
func (b *TableBuilder) String(name string) *TableBuilder {
	return b.add(arrow.Field{Name: name, Type: arrow.BinaryTypes.String, Nullable: true}, func(ab array.Builder, i int) {
		ab.(*array.StringBuilder).Append(fmt.Sprintf("row-%d", i))
	})
}

// Timestamp adds a microsecond timestamp column, one minute apart from BaseTime.
func (b *TableBuilder) Timestamp(name string) *TableBuilder {
	typ := &arrow.TimestampType{Unit: arrow.Microsecond}
	return b.add(arrow.Field{Name: name, Type: typ, Nullable: true}, func(ab array.Builder, i int) {
		ts, _ := arrow.TimestampFromTime(BaseTime.Add(time.Duration(i)*time.Minute), arrow.Microsecond)
		ab.(*array.TimestampBuilder).Append(ts)
	})
}

func (b *TableBuilder) add(field arrow.Field, fill func(array.Builder, int)) *TableBuilder {
	b.fields = append(b.fields, field)
	b.fill = append(b.fill, fill)
	return b
}

// Build materialises the table. The caller must Release it.
func (b *TableBuilder) Build() arrow.Table {
	schema := arrow.NewSchema(b.fields, nil)
	rb := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer rb.Release()

	for col, fill := range b.fill {
		fb := rb.Field(col)
		fb.Reserve(b.rows)
		for i := 0; i < b.rows; i++ {
			fill(fb, i)
		}
	}

	rec := rb.NewRecord()
	defer rec.Release()
	return array.NewTableFromRecords(schema, []arrow.Record{rec})
}

// TripTable returns a table shaped like a slice of the NYC yellow taxi data.
func TripTable(rows int) arrow.Table {
	return NewTableBuilder(rows).
		Int64("VendorID").
		Timestamp("tpep_pickup_datetime").
		Float64("trip_distance").
		NullableInt64("passenger_count", 7).
		String("store_and_fwd_flag").
		Build()
}

// Int64Column flattens an int64 column across all of the table's chunks.
// Nulls are reported as -1.
func Int64Column(tbl arrow.Table, col int) []int64 {
	out := make([]int64, 0, tbl.NumRows())
	for _, chunk := range tbl.Column(col).Data().Chunks() {
		arr := chunk.(*array.Int64)
		for i := 0; i < arr.Len(); i++ {
			if arr.IsNull(i) {
				out = append(out, -1)
				continue
			}
			out = append(out, arr.Value(i))
		}
	}
	return out
}

// WriteParquet writes tbl to path with the given row group size.
func WriteParquet(path string, tbl arrow.Table, rowGroupSize int64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	// WriteTable closes the file once the footer is written.
	defer f.Close()

	return pqarrow.WriteTable(tbl, f, rowGroupSize, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps())
}
