package sink

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// Rows walks a table row by row, converting every column with Value.
// Its Next/Values/Err methods satisfy pgx.CopyFromSource.
type Rows struct {
	dialect Dialect
	reader  *array.TableReader
	rec     arrow.Record
	row     int
	values  []any
	err     error
}

// NewRows creates a cursor over tbl. The caller must Release it.
func NewRows(d Dialect, tbl arrow.Table) *Rows {
	return &Rows{
		dialect: d,
		reader:  array.NewTableReader(tbl, 0),
		row:     -1,
		values:  make([]any, tbl.NumCols()),
	}
}

// Next advances to the next row and converts it.
func (r *Rows) Next() bool {
	if r.err != nil {
		return false
	}

	r.row++
	for r.rec == nil || r.row >= int(r.rec.NumRows()) {
		if !r.reader.Next() {
			r.err = r.reader.Err()
			return false
		}
		r.rec = r.reader.Record()
		r.row = 0
	}

	for col := range r.values {
		v, err := Value(r.dialect, r.rec.Column(col), r.row)
		if err != nil {
			r.err = err
			return false
		}
		r.values[col] = v
	}
	return true
}

// Values returns the current row. The slice is reused by the next call to Next.
func (r *Rows) Values() ([]any, error) {
	return r.values, nil
}

// Err returns the first conversion or read error.
func (r *Rows) Err() error {
	return r.err
}

// Release frees the underlying reader.
func (r *Rows) Release() {
	r.reader.Release()
}
