package sink

import (
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edugonzaloalmorox/data-eng-zoomcamp/internal/loader"
	"github.com/edugonzaloalmorox/data-eng-zoomcamp/internal/schema"
	"github.com/edugonzaloalmorox/data-eng-zoomcamp/internal/testing/fixtures"
)

func TestValue_Primitives(t *testing.T) {
	mem := memory.NewGoAllocator()

	i8 := array.NewInt8Builder(mem)
	i8.Append(-3)
	i8Arr := i8.NewArray()
	defer i8Arr.Release()

	u64 := array.NewUint64Builder(mem)
	u64.Append(18446744073709551615)
	u64Arr := u64.NewArray()
	defer u64Arr.Release()

	str := array.NewStringBuilder(mem)
	str.AppendNull()
	str.Append("N")
	strArr := str.NewArray()
	defer strArr.Release()

	v, err := Value(Postgres, i8Arr, 0)
	require.NoError(t, err)
	assert.Equal(t, int16(-3), v, "int8 widens for smallint")

	v, err = Value(ClickHouse, i8Arr, 0)
	require.NoError(t, err)
	assert.Equal(t, int8(-3), v)

	v, err = Value(Postgres, u64Arr, 0)
	require.NoError(t, err)
	n, ok := v.(pgtype.Numeric)
	require.True(t, ok)
	assert.Equal(t, 0, n.Int.Cmp(new(big.Int).SetUint64(18446744073709551615)))

	v, err = Value(ClickHouse, u64Arr, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(18446744073709551615), v)

	v, err = Value(Postgres, strArr, 0)
	require.NoError(t, err)
	assert.Nil(t, v, "nulls become nil")

	v, err = Value(Postgres, strArr, 1)
	require.NoError(t, err)
	assert.Equal(t, "N", v)
}

func TestValue_Temporal(t *testing.T) {
	mem := memory.NewGoAllocator()
	want := time.Date(2023, 1, 1, 0, 18, 38, 0, time.UTC)

	tsb := array.NewTimestampBuilder(mem, &arrow.TimestampType{Unit: arrow.Microsecond})
	ts, err := arrow.TimestampFromTime(want, arrow.Microsecond)
	require.NoError(t, err)
	tsb.Append(ts)
	tsArr := tsb.NewArray()
	defer tsArr.Release()

	v, err := Value(Postgres, tsArr, 0)
	require.NoError(t, err)
	assert.True(t, want.Equal(v.(time.Time)))

	db := array.NewDate32Builder(mem)
	db.Append(arrow.Date32FromTime(want))
	dArr := db.NewArray()
	defer dArr.Release()

	v, err = Value(Postgres, dArr, 0)
	require.NoError(t, err)
	assert.Equal(t, "2023-01-01", v.(time.Time).Format("2006-01-02"))

	tb := array.NewTime64Builder(mem, arrow.FixedWidthTypes.Time64us.(*arrow.Time64Type))
	tb.Append(arrow.Time64((90 * time.Minute).Microseconds()))
	tArr := tb.NewArray()
	defer tArr.Release()

	v, err = Value(Postgres, tArr, 0)
	require.NoError(t, err)
	assert.Equal(t, pgtype.Time{Microseconds: (90 * time.Minute).Microseconds(), Valid: true}, v)

	v, err = Value(ClickHouse, tArr, 0)
	require.NoError(t, err)
	assert.Equal(t, "01:30:00", v)
}

func TestValue_Decimal(t *testing.T) {
	mem := memory.NewGoAllocator()
	b := array.NewDecimal128Builder(mem, &arrow.Decimal128Type{Precision: 10, Scale: 2})
	b.Append(decimal128.FromI64(12345))
	arr := b.NewArray()
	defer arr.Release()

	v, err := Value(Postgres, arr, 0)
	require.NoError(t, err)
	n := v.(pgtype.Numeric)
	f, err := n.Float64Value()
	require.NoError(t, err)
	assert.InDelta(t, 123.45, f.Float64, 1e-9)

	v, err = Value(ClickHouse, arr, 0)
	require.NoError(t, err)
	assert.Equal(t, "123.45", v)
}

func TestValue_Dictionary(t *testing.T) {
	mem := memory.NewGoAllocator()
	dt := &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int8, ValueType: arrow.BinaryTypes.String}
	b := array.NewDictionaryBuilder(mem, dt).(*array.BinaryDictionaryBuilder)
	require.NoError(t, b.AppendString("Y"))
	require.NoError(t, b.AppendString("N"))
	require.NoError(t, b.AppendString("Y"))
	arr := b.NewArray()
	defer arr.Release()

	var got []any
	for i := 0; i < arr.Len(); i++ {
		v, err := Value(Postgres, arr, i)
		require.NoError(t, err)
		got = append(got, v)
	}
	assert.Equal(t, []any{"Y", "N", "Y"}, got)
}

func TestRows_WalksSlicedChunks(t *testing.T) {
	tbl := fixtures.NewTableBuilder(12).Int64("id").String("label").Build()
	defer tbl.Release()

	slice := loader.SliceTable(tbl, 4, 9)
	defer slice.Release()

	rows := NewRows(Postgres, slice)
	defer rows.Release()

	var ids []int64
	var labels []string
	for rows.Next() {
		vals, err := rows.Values()
		require.NoError(t, err)
		require.Len(t, vals, 2)
		ids = append(ids, vals[0].(int64))
		labels = append(labels, vals[1].(string))
	}
	require.NoError(t, rows.Err())

	assert.Equal(t, []int64{4, 5, 6, 7, 8}, ids)
	assert.Equal(t, "row-4", labels[0])
	assert.Equal(t, "row-8", labels[4])
}

func TestRows_EmptyTable(t *testing.T) {
	tbl := fixtures.NewTableBuilder(0).Int64("id").Build()
	defer tbl.Release()

	rows := NewRows(ClickHouse, tbl)
	defer rows.Release()

	assert.False(t, rows.Next())
	assert.NoError(t, rows.Err())
}

// postgresOID resolves a column type from schema.PostgresType to its OID.
func postgresOID(t *testing.T, typ string) uint32 {
	t.Helper()
	if strings.HasPrefix(typ, "numeric(") {
		return pgtype.NumericOID
	}
	oids := map[string]uint32{
		"boolean":          pgtype.BoolOID,
		"smallint":         pgtype.Int2OID,
		"integer":          pgtype.Int4OID,
		"bigint":           pgtype.Int8OID,
		"real":             pgtype.Float4OID,
		"double precision": pgtype.Float8OID,
		"bytea":            pgtype.ByteaOID,
		"date":             pgtype.DateOID,
		"time":             pgtype.TimeOID,
		"timestamp":        pgtype.TimestampOID,
		"timestamptz":      pgtype.TimestamptzOID,
		"text":             pgtype.TextOID,
	}
	oid, ok := oids[typ]
	require.True(t, ok, "no OID for column type %q", typ)
	return oid
}

// arrayOf builds a two-row array holding value (parsed by the builder) and a null.
func arrayOf(t *testing.T, dt arrow.DataType, value string) arrow.Array {
	t.Helper()
	b := array.NewBuilder(memory.NewGoAllocator(), dt)
	defer b.Release()
	require.NoError(t, b.AppendValueFromString(value))
	b.AppendNull()
	return b.NewArray()
}

func TestValue_PostgresEncodesIntoMappedColumnType(t *testing.T) {
	tests := []struct {
		name  string
		dt    arrow.DataType
		value string
	}{
		{"bool", arrow.FixedWidthTypes.Boolean, "true"},
		{"int8", arrow.PrimitiveTypes.Int8, "-3"},
		{"int16", arrow.PrimitiveTypes.Int16, "-300"},
		{"int32", arrow.PrimitiveTypes.Int32, "70000"},
		{"int64", arrow.PrimitiveTypes.Int64, "5000000000"},
		{"uint8", arrow.PrimitiveTypes.Uint8, "255"},
		{"uint16", arrow.PrimitiveTypes.Uint16, "65535"},
		{"uint32", arrow.PrimitiveTypes.Uint32, "4294967295"},
		{"uint64", arrow.PrimitiveTypes.Uint64, "18446744073709551615"},
		{"float16", arrow.FixedWidthTypes.Float16, "1.5"},
		{"float32", arrow.PrimitiveTypes.Float32, "2.5"},
		{"float64", arrow.PrimitiveTypes.Float64, "18.9"},
		{"string", arrow.BinaryTypes.String, "N"},
		{"large string", arrow.BinaryTypes.LargeString, "N"},
		{"binary", arrow.BinaryTypes.Binary, "3q2+7w=="},
		{"large binary", arrow.BinaryTypes.LargeBinary, "3q2+7w=="},
		{"fixed size binary", &arrow.FixedSizeBinaryType{ByteWidth: 4}, "3q2+7w=="},
		{"date32", arrow.FixedWidthTypes.Date32, "2023-01-01"},
		{"date64", arrow.FixedWidthTypes.Date64, "2023-01-01"},
		{"time32", arrow.FixedWidthTypes.Time32ms, "01:30:00"},
		{"time64", arrow.FixedWidthTypes.Time64us, "01:30:00"},
		{"timestamp", &arrow.TimestampType{Unit: arrow.Microsecond}, "2023-01-01T00:18:38"},
		{"timestamp tz", &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}, "2023-01-01T00:18:38"},
		{"decimal128", &arrow.Decimal128Type{Precision: 10, Scale: 2}, "123.45"},
		{"decimal256", &arrow.Decimal256Type{Precision: 40, Scale: 4}, "123.4567"},
	}

	m := pgtype.NewMap()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arr := arrayOf(t, tt.dt, tt.value)
			defer arr.Release()

			oid := postgresOID(t, schema.PostgresType(tt.dt))
			for i := 0; i < arr.Len(); i++ {
				v, err := Value(Postgres, arr, i)
				require.NoError(t, err)
				_, err = m.Encode(oid, pgtype.BinaryFormatCode, v, nil)
				assert.NoError(t, err, "row %d: %T into %s", i, v, schema.PostgresType(tt.dt))
			}
		})
	}
}

func TestValue_DictionaryEncodesAsValueType(t *testing.T) {
	dt := &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int8, ValueType: arrow.BinaryTypes.String}
	b := array.NewDictionaryBuilder(memory.NewGoAllocator(), dt).(*array.BinaryDictionaryBuilder)
	defer b.Release()
	require.NoError(t, b.AppendString("Y"))
	arr := b.NewArray()
	defer arr.Release()

	v, err := Value(Postgres, arr, 0)
	require.NoError(t, err)
	_, err = pgtype.NewMap().Encode(postgresOID(t, schema.PostgresType(dt)), pgtype.BinaryFormatCode, v, nil)
	assert.NoError(t, err)
}

func TestValue_FixedSizeBinary(t *testing.T) {
	arr := arrayOf(t, &arrow.FixedSizeBinaryType{ByteWidth: 4}, "3q2+7w==")
	defer arr.Release()

	v, err := Value(Postgres, arr, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, v)

	v, err = Value(ClickHouse, arr, 0)
	require.NoError(t, err)
	assert.Equal(t, "\xde\xad\xbe\xef", v)
}
