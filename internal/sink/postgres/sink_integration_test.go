package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edugonzaloalmorox/data-eng-zoomcamp/internal/db"
	"github.com/edugonzaloalmorox/data-eng-zoomcamp/internal/loader"
	"github.com/edugonzaloalmorox/data-eng-zoomcamp/internal/logging"
	testhelpers "github.com/edugonzaloalmorox/data-eng-zoomcamp/internal/testing"
	"github.com/edugonzaloalmorox/data-eng-zoomcamp/internal/testing/fixtures"
)

func TestSink_Integration_ReplaceAndAppend(t *testing.T) {
	connString := testhelpers.RequireDatabase(t)
	dbName := testhelpers.UniqueDBName("sink_pg")
	testhelpers.CreateTestDB(t, connString, dbName)
	pool := testhelpers.GetTestPool(t, connString, dbName)

	ctx := context.Background()
	s := New(db.NewPoolAdapter(pool), logging.NewNullLogger())

	tbl := fixtures.TripTable(10)
	defer tbl.Release()

	require.NoError(t, s.CreateTable(ctx, "yellow_taxi_data", tbl.Schema()))

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM yellow_taxi_data`).Scan(&count))
	assert.Zero(t, count, "created table must be empty")

	first := loader.SliceTable(tbl, 0, 6)
	defer first.Release()
	second := loader.SliceTable(tbl, 6, 10)
	defer second.Release()

	require.NoError(t, s.Append(ctx, "yellow_taxi_data", first))
	require.NoError(t, s.Append(ctx, "yellow_taxi_data", second))

	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM yellow_taxi_data`).Scan(&count))
	assert.Equal(t, 10, count)

	var nulls int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM yellow_taxi_data WHERE passenger_count IS NULL`).Scan(&nulls))
	assert.Equal(t, 2, nulls, "rows 0 and 7")

	var pickup time.Time
	require.NoError(t, pool.QueryRow(ctx, `SELECT tpep_pickup_datetime FROM yellow_taxi_data WHERE "VendorID" = 9`).Scan(&pickup))
	assert.True(t, pickup.Equal(fixtures.BaseTime.Add(9*time.Minute)), "got %v", pickup)

	// Recreating replaces the table and its rows.
	require.NoError(t, s.CreateTable(ctx, "yellow_taxi_data", tbl.Schema()))
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM yellow_taxi_data`).Scan(&count))
	assert.Zero(t, count)
}

func TestSink_Integration_FailedChunkLeavesNoRows(t *testing.T) {
	connString := testhelpers.RequireDatabase(t)
	dbName := testhelpers.UniqueDBName("sink_pg")
	testhelpers.CreateTestDB(t, connString, dbName)
	pool := testhelpers.GetTestPool(t, connString, dbName)

	ctx := context.Background()
	s := New(db.NewPoolAdapter(pool), logging.NewNullLogger())

	good := fixtures.NewTableBuilder(5).Int64("id").Build()
	defer good.Release()
	require.NoError(t, s.CreateTable(ctx, "t", good.Schema()))

	// A nullable column cannot be copied into the NOT NULL id column.
	bad := fixtures.NewTableBuilder(5).NullableInt64("id", 3).Build()
	defer bad.Release()
	require.Error(t, s.Append(ctx, "t", bad))

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM t`).Scan(&count))
	assert.Zero(t, count)
}
