// Package sink holds what the database sinks share: conversion of Arrow
// values into driver arguments and a row cursor over a chunk.
package sink

import (
	"fmt"
	"math/big"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/jackc/pgx/v5/pgtype"
)

// Dialect selects how values are shaped for a driver.
type Dialect int

const (
	// Postgres values suit pgx COPY into the columns from schema.PostgresType.
	Postgres Dialect = iota
	// ClickHouse values suit clickhouse-go for the columns from schema.ClickHouseType.
	ClickHouse
)

// Value returns row i of arr as a Go value the dialect's driver can encode.
// Nulls become nil.
func Value(d Dialect, arr arrow.Array, i int) (any, error) {
	if arr.IsNull(i) {
		return nil, nil
	}

	switch a := arr.(type) {
	case *array.Boolean:
		return a.Value(i), nil
	case *array.Int8:
		if d == Postgres {
			return int16(a.Value(i)), nil
		}
		return a.Value(i), nil
	case *array.Int16:
		return a.Value(i), nil
	case *array.Int32:
		return a.Value(i), nil
	case *array.Int64:
		return a.Value(i), nil
	case *array.Uint8:
		if d == Postgres {
			return int16(a.Value(i)), nil
		}
		return a.Value(i), nil
	case *array.Uint16:
		if d == Postgres {
			return int32(a.Value(i)), nil
		}
		return a.Value(i), nil
	case *array.Uint32:
		if d == Postgres {
			return int64(a.Value(i)), nil
		}
		return a.Value(i), nil
	case *array.Uint64:
		if d == Postgres {
			return pgtype.Numeric{Int: new(big.Int).SetUint64(a.Value(i)), Valid: true}, nil
		}
		return a.Value(i), nil
	case *array.Float16:
		return a.Value(i).Float32(), nil
	case *array.Float32:
		return a.Value(i), nil
	case *array.Float64:
		return a.Value(i), nil
	case *array.String:
		return a.Value(i), nil
	case *array.LargeString:
		return a.Value(i), nil
	case *array.Binary:
		if d == ClickHouse {
			return string(a.Value(i)), nil
		}
		return a.Value(i), nil
	case *array.LargeBinary:
		if d == ClickHouse {
			return string(a.Value(i)), nil
		}
		return a.Value(i), nil
	case *array.FixedSizeBinary:
		if d == ClickHouse {
			return string(a.Value(i)), nil
		}
		return a.Value(i), nil
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(i).ToTime(unit), nil
	case *array.Date32:
		return a.Value(i).ToTime(), nil
	case *array.Date64:
		return a.Value(i).ToTime(), nil
	case *array.Time32:
		return timeOfDay(d, time.Duration(a.Value(i))*a.DataType().(*arrow.Time32Type).Unit.Multiplier()), nil
	case *array.Time64:
		return timeOfDay(d, time.Duration(a.Value(i))*a.DataType().(*arrow.Time64Type).Unit.Multiplier()), nil
	case *array.Decimal128, *array.Decimal256:
		if d == ClickHouse {
			return arr.ValueStr(i), nil
		}
		var n pgtype.Numeric
		if err := n.Scan(arr.ValueStr(i)); err != nil {
			return nil, fmt.Errorf("decimal %q: %w", arr.ValueStr(i), err)
		}
		return n, nil
	case *array.Dictionary:
		return Value(d, a.Dictionary(), a.GetValueIndex(i))
	default:
		return arr.ValueStr(i), nil
	}
}

func timeOfDay(d Dialect, since time.Duration) any {
	if d == Postgres {
		return pgtype.Time{Microseconds: since.Microseconds(), Valid: true}
	}
	return (time.Time{}).Add(since).Format("15:04:05.999999")
}
