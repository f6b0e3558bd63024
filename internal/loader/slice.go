package loader

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// SliceTable returns rows [i, j) of tbl as a new table. The slice shares
// buffers with tbl; the caller must Release it.
func SliceTable(tbl arrow.Table, i, j int64) arrow.Table {
	cols := make([]arrow.Column, tbl.NumCols())
	for c := range cols {
		col := tbl.Column(c)
		data := array.NewChunkedSlice(col.Data(), i, j)
		cols[c] = *arrow.NewColumn(col.Field(), data)
		data.Release()
	}

	out := array.NewTable(tbl.Schema(), cols, j-i)
	for c := range cols {
		cols[c].Release()
	}
	return out
}
