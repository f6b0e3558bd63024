package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/edugonzaloalmorox/data-eng-zoomcamp/internal/checksum"
	"github.com/edugonzaloalmorox/data-eng-zoomcamp/internal/db"
	"github.com/edugonzaloalmorox/data-eng-zoomcamp/internal/db/manager"
	"github.com/edugonzaloalmorox/data-eng-zoomcamp/internal/fetch"
	"github.com/edugonzaloalmorox/data-eng-zoomcamp/internal/logging"
	testhelpers "github.com/edugonzaloalmorox/data-eng-zoomcamp/internal/testing"
	"github.com/edugonzaloalmorox/data-eng-zoomcamp/internal/testing/fixtures"
	"github.com/edugonzaloalmorox/data-eng-zoomcamp/pkg/ingest"
)

func TestIngest_Integration_PostgresEndToEnd(t *testing.T) {
	connString := testhelpers.RequireDatabase(t)

	srcDir := t.TempDir()
	tbl := fixtures.TripTable(2500)
	defer tbl.Release()
	if err := fixtures.WriteParquet(filepath.Join(srcDir, "yellow_tripdata_2021-01.parquet"), tbl, 1000); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.FileServer(http.Dir(srcDir)))
	defer srv.Close()

	connConfig, err := db.ParseConnectionString(connString)
	if err != nil {
		t.Fatal(err)
	}
	maintenanceDB := connConfig.Database
	connConfig.Database = testhelpers.UniqueDBName("ingest_e2e")
	t.Cleanup(func() { testhelpers.CleanupTestDB(t, connString, connConfig.Database) })

	svc := NewIngestionService(fetch.New, db.NewConnector, manager.New(), checksum.New(), logging.NewNullLogger())

	cfg := ingest.IngestConfig{
		RunID:               uuid.New(),
		URL:                 srv.URL + "/yellow_tripdata_2021-01.parquet",
		OutputPath:          filepath.Join(t.TempDir(), "download.parquet"),
		Format:              ingest.FormatParquet,
		Downloader:          ingest.DownloadAuto,
		TableName:           "yellow_taxi_data",
		ChunkSize:           1000,
		Target:              ingest.TargetPostgres,
		Connection:          connConfig,
		MaintenanceDatabase: maintenanceDB,
		CreateDatabase:      true,
	}

	// Run twice: the table is replaced, so the row count does not double.
	for run := 1; run <= 2; run++ {
		report, err := svc.Ingest(context.Background(), cfg)
		if err != nil {
			t.Fatalf("run %d: Ingest: %v", run, err)
		}
		if report.Failed() != 0 || len(report.Chunks) != 3 {
			t.Fatalf("run %d: chunks = %d, failed = %d; want 3, 0", run, len(report.Chunks), report.Failed())
		}
	}

	pool := testhelpers.GetTestPool(t, connString, connConfig.Database)
	var count, nulls int64
	if err := pool.QueryRow(context.Background(),
		`SELECT count(*), count(*) FILTER (WHERE passenger_count IS NULL) FROM yellow_taxi_data`,
	).Scan(&count, &nulls); err != nil {
		t.Fatal(err)
	}
	if count != 2500 {
		t.Errorf("count = %d, want 2500", count)
	}
	if want := int64(2500/7 + 1); nulls != want {
		t.Errorf("null passenger_count = %d, want %d", nulls, want)
	}

	if _, err := os.Stat(cfg.OutputPath); err != nil {
		t.Errorf("download not kept at %s: %v", cfg.OutputPath, err)
	}
}
