// Package schema derives destination DDL from the Arrow schema embedded in a
// source file. Column names and order come from the file unchanged.
package schema

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/jackc/pgx/v5"
)

// ParseTableName splits an optionally schema-qualified name ("trips" or
// "staging.trips") into a pgx identifier.
func ParseTableName(name string) (pgx.Identifier, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("table name is empty")
	}

	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("table name %q has more than one schema qualifier", name)
	}
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("table name %q has an empty part", name)
		}
	}
	return pgx.Identifier(parts), nil
}

// PostgresType maps an Arrow type to the PostgreSQL column type that holds it
// without loss. Types with no natural equivalent are stored as text.
func PostgresType(dt arrow.DataType) string {
	switch t := dt.(type) {
	case *arrow.TimestampType:
		if t.TimeZone != "" {
			return "timestamptz"
		}
		return "timestamp"
	case *arrow.Decimal128Type:
		return fmt.Sprintf("numeric(%d,%d)", t.Precision, t.Scale)
	case *arrow.Decimal256Type:
		return fmt.Sprintf("numeric(%d,%d)", t.Precision, t.Scale)
	case *arrow.DictionaryType:
		return PostgresType(t.ValueType)
	}

	switch dt.ID() {
	case arrow.BOOL:
		return "boolean"
	case arrow.INT8, arrow.INT16, arrow.UINT8:
		return "smallint"
	case arrow.INT32, arrow.UINT16:
		return "integer"
	case arrow.INT64, arrow.UINT32:
		return "bigint"
	case arrow.UINT64:
		return "numeric(20,0)"
	case arrow.FLOAT16, arrow.FLOAT32:
		return "real"
	case arrow.FLOAT64:
		return "double precision"
	case arrow.BINARY, arrow.LARGE_BINARY, arrow.FIXED_SIZE_BINARY:
		return "bytea"
	case arrow.DATE32, arrow.DATE64:
		return "date"
	case arrow.TIME32, arrow.TIME64:
		return "time"
	default:
		return "text"
	}
}

// CreateTableSQL renders CREATE TABLE for schema. Non-nullable Arrow fields
// become NOT NULL columns.
func CreateTableSQL(table pgx.Identifier, schema *arrow.Schema) (string, error) {
	if schema == nil || schema.NumFields() == 0 {
		return "", fmt.Errorf("schema for %s has no columns", table.Sanitize())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", table.Sanitize())
	for i, f := range schema.Fields() {
		fmt.Fprintf(&b, "\t%s %s", pgx.Identifier{f.Name}.Sanitize(), PostgresType(f.Type))
		if !f.Nullable {
			b.WriteString(" NOT NULL")
		}
		if i < schema.NumFields()-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(")")
	return b.String(), nil
}

// DropTableSQL renders DROP TABLE IF EXISTS.
func DropTableSQL(table pgx.Identifier) string {
	return "DROP TABLE IF EXISTS " + table.Sanitize()
}

// ColumnNames returns the field names of schema in order.
func ColumnNames(schema *arrow.Schema) []string {
	names := make([]string, schema.NumFields())
	for i, f := range schema.Fields() {
		names[i] = f.Name
	}
	return names
}
