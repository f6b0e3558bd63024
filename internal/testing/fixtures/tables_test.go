package fixtures

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableBuilder_Build(t *testing.T) {
	tbl := NewTableBuilder(10).
		Int64("id").
		NullableInt64("maybe", 3).
		String("label").
		Build()
	defer tbl.Release()

	require.EqualValues(t, 10, tbl.NumRows())
	require.EqualValues(t, 3, tbl.NumCols())
	assert.Equal(t, "id", tbl.Schema().Field(0).Name)
	assert.Equal(t, []int64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, Int64Column(tbl, 0))
	assert.Equal(t, []int64{-1, 1, 2, -1, 4, 5, -1, 7, 8, -1}, Int64Column(tbl, 1))
}

func TestTripTable(t *testing.T) {
	tbl := TripTable(5)
	defer tbl.Release()

	assert.EqualValues(t, 5, tbl.NumRows())
	assert.Equal(t, "tpep_pickup_datetime", tbl.Schema().Field(1).Name)
}

func TestWriteParquet(t *testing.T) {
	tbl := TripTable(20)
	defer tbl.Release()

	path := t.TempDir() + "/trips.parquet"
	require.NoError(t, WriteParquet(path, tbl, 8))
	assert.FileExists(t, path)
}
