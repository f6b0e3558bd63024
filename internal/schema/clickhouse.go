package schema

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// ClickHouseType maps an Arrow type to a ClickHouse column type, without the
// Nullable wrapper. Decimals are kept as String so no precision is lost.
func ClickHouseType(dt arrow.DataType) string {
	switch t := dt.(type) {
	case *arrow.TimestampType:
		precision := map[arrow.TimeUnit]int{arrow.Second: 0, arrow.Millisecond: 3, arrow.Microsecond: 6, arrow.Nanosecond: 9}[t.Unit]
		if t.TimeZone != "" {
			return fmt.Sprintf("DateTime64(%d, '%s')", precision, strings.ReplaceAll(t.TimeZone, "'", ""))
		}
		return fmt.Sprintf("DateTime64(%d)", precision)
	case *arrow.DictionaryType:
		return ClickHouseType(t.ValueType)
	}

	switch dt.ID() {
	case arrow.BOOL:
		return "Bool"
	case arrow.INT8:
		return "Int8"
	case arrow.INT16:
		return "Int16"
	case arrow.INT32:
		return "Int32"
	case arrow.INT64:
		return "Int64"
	case arrow.UINT8:
		return "UInt8"
	case arrow.UINT16:
		return "UInt16"
	case arrow.UINT32:
		return "UInt32"
	case arrow.UINT64:
		return "UInt64"
	case arrow.FLOAT16, arrow.FLOAT32:
		return "Float32"
	case arrow.FLOAT64:
		return "Float64"
	case arrow.DATE32, arrow.DATE64:
		return "Date32"
	default:
		return "String"
	}
}

// QuoteClickHouse quotes an optionally database-qualified table name.
func QuoteClickHouse(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = quoteClickHouseIdent(p)
	}
	return strings.Join(parts, ".")
}

func quoteClickHouseIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "\\`") + "`"
}

// ClickHouseCreateTableSQL renders a MergeTree table for schema.
func ClickHouseCreateTableSQL(table string, schema *arrow.Schema) (string, error) {
	if schema == nil || schema.NumFields() == 0 {
		return "", fmt.Errorf("schema for %s has no columns", table)
	}

	cols := make([]string, schema.NumFields())
	for i, f := range schema.Fields() {
		typ := ClickHouseType(f.Type)
		if f.Nullable {
			typ = "Nullable(" + typ + ")"
		}
		cols[i] = "\t" + quoteClickHouseIdent(f.Name) + " " + typ
	}
	return fmt.Sprintf("CREATE TABLE %s (\n%s\n) ENGINE = MergeTree ORDER BY tuple()",
		QuoteClickHouse(table), strings.Join(cols, ",\n")), nil
}

// ClickHouseDropTableSQL renders DROP TABLE IF EXISTS.
func ClickHouseDropTableSQL(table string) string {
	return "DROP TABLE IF EXISTS " + QuoteClickHouse(table)
}

// ClickHouseInsertSQL renders the statement prepared for a batch insert.
func ClickHouseInsertSQL(table string, schema *arrow.Schema) string {
	cols := make([]string, schema.NumFields())
	for i, f := range schema.Fields() {
		cols[i] = quoteClickHouseIdent(f.Name)
	}
	return fmt.Sprintf("INSERT INTO %s (%s)", QuoteClickHouse(table), strings.Join(cols, ", "))
}
