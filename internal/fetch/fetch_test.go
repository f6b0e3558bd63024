package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gocloud.dev/blob/memblob"

	"github.com/edugonzaloalmorox/data-eng-zoomcamp/pkg/ingest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// started by the blob drivers' metrics registration
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
	)
}

func TestHTTPFetcher_Success(t *testing.T) {
	payload := []byte("PAR1 not really parquet PAR1")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/trip-data/yellow_tripdata_2021-01.parquet", r.URL.Path)
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(payload)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "yellow_tripdata_2021-01.parquet")
	res, err := NewHTTPFetcher(0).Fetch(context.Background(), srv.URL+"/trip-data/yellow_tripdata_2021-01.parquet", dest)
	require.NoError(t, err)

	assert.Equal(t, dest, res.Path)
	assert.Equal(t, int64(len(payload)), res.Bytes)
	assert.Equal(t, "application/octet-stream", res.ContentType)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestHTTPFetcher_StatusErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{status: http.StatusNotFound, want: ErrNotFound},
		{status: http.StatusForbidden, want: ErrForbidden},
		{status: http.StatusUnauthorized, want: ErrUnauthorized},
		{status: http.StatusBadGateway, want: ErrServerError},
		{status: http.StatusTeapot},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			dir := t.TempDir()
			dest := filepath.Join(dir, "out.parquet")
			_, err := NewHTTPFetcher(0).Fetch(context.Background(), srv.URL+"/out.parquet", dest)

			require.Error(t, err)
			assert.ErrorIs(t, err, ingest.ErrDownloadFailed)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
			assert.Equal(t, ingest.ExitDownloadFailed, ingest.ExitCodeForError(err))

			entries, _ := os.ReadDir(dir)
			assert.Empty(t, entries, "no partial or temporary file is left behind")
		})
	}
}

func TestHTTPFetcher_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHTTPFetcher(0).Fetch(ctx, srv.URL+"/f.csv", filepath.Join(t.TempDir(), "f.csv"))
	assert.ErrorIs(t, err, ingest.ErrDownloadFailed)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBlobFetcher_FileURL(t *testing.T) {
	srcDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "zones.csv"), []byte("LocationID,Borough\n1,EWR\n"), 0o644))

	dest := filepath.Join(t.TempDir(), "zones.csv")
	res, err := NewBlobFetcher().Fetch(context.Background(), "file://"+filepath.ToSlash(srcDir)+"/zones.csv", dest)
	require.NoError(t, err)
	assert.Equal(t, int64(25), res.Bytes)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "LocationID,Borough\n1,EWR\n", string(got))
}

func TestBlobFetcher_Bucket(t *testing.T) {
	ctx := context.Background()
	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()
	require.NoError(t, bucket.WriteAll(ctx, "raw/2021/trips.csv", []byte("a,b\n1,2\n"), nil))

	f := NewBucketFetcher(bucket)
	dest := filepath.Join(t.TempDir(), "trips.csv")

	res, err := f.Fetch(ctx, "mem://ignored/raw/2021/trips.csv", dest)
	require.NoError(t, err)
	assert.Equal(t, int64(8), res.Bytes)

	_, err = f.Fetch(ctx, "mem://ignored/raw/2021/missing.csv", filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, ingest.ErrDownloadFailed)
}

func TestSplitObjectURL(t *testing.T) {
	tests := []struct {
		in         string
		wantBucket string
		wantKey    string
		wantErr    bool
	}{
		{in: "s3://nyc-tlc/trip data/yellow.parquet?region=us-east-1", wantBucket: "s3://nyc-tlc?region=us-east-1", wantKey: "trip data/yellow.parquet"},
		{in: "gs://bucket/key.csv.gz", wantBucket: "gs://bucket", wantKey: "key.csv.gz"},
		{in: "file:///data/raw/trips.parquet", wantBucket: "file:///data/raw", wantKey: "trips.parquet"},
		{in: "file:///trips.parquet", wantBucket: "file:///", wantKey: "trips.parquet"},
		{in: "s3://bucket", wantErr: true},
		{in: "file:///data/raw/", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			bucket, key, err := SplitObjectURL(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}

func TestCommandFetcher(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	t.Run("success", func(t *testing.T) {
		f := &CommandFetcher{
			Name: "sh",
			Args: func(url, dest string) []string {
				return []string{"-c", `printf '%s' "$1" > "$2"`, "sh", url, dest}
			},
		}
		dest := filepath.Join(t.TempDir(), "out.txt")

		res, err := f.Fetch(context.Background(), "hello", dest)
		require.NoError(t, err)
		assert.Equal(t, int64(5), res.Bytes)
	})

	t.Run("failure carries stderr", func(t *testing.T) {
		f := &CommandFetcher{
			Name: "sh",
			Args: func(url, dest string) []string {
				return []string{"-c", `: > "$1"; echo "404 Not Found" >&2; exit 8`, "sh", dest}
			},
		}
		dest := filepath.Join(t.TempDir(), "out.txt")

		_, err := f.Fetch(context.Background(), "http://example.invalid/x", dest)
		require.Error(t, err)
		assert.ErrorIs(t, err, ingest.ErrDownloadFailed)
		assert.Contains(t, err.Error(), "404 Not Found")
		assert.NoFileExists(t, dest)
	})
}

func TestNew(t *testing.T) {
	tests := []struct {
		method  ingest.DownloadMethod
		url     string
		want    any
		wantErr bool
	}{
		{method: ingest.DownloadAuto, url: "https://d37ci6vzurychx.cloudfront.net/trip-data/x.parquet", want: &HTTPFetcher{}},
		{method: ingest.DownloadAuto, url: "s3://bucket/x.parquet", want: &BlobFetcher{}},
		{method: ingest.DownloadHTTP, url: "s3://bucket/x.parquet", want: &HTTPFetcher{}},
		{method: ingest.DownloadBlob, url: "gs://bucket/x.parquet", want: &BlobFetcher{}},
		{method: ingest.DownloadWget, url: "https://example.com/x.csv", want: &CommandFetcher{}},
		{method: "ftp", url: "ftp://example.com/x.csv", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.method)+" "+tt.url, func(t *testing.T) {
			got, err := New(tt.method, tt.url)
			if tt.wantErr {
				assert.ErrorIs(t, err, ingest.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, got)
		})
	}
}

func TestDefaultDestination(t *testing.T) {
	got, err := DefaultDestination("https://github.com/DataTalksClub/nyc-tlc-data/releases/download/yellow/yellow_tripdata_2021-01.csv.gz")
	require.NoError(t, err)
	assert.Equal(t, "yellow_tripdata_2021-01.csv.gz", got)

	_, err = DefaultDestination("https://example.com/")
	assert.ErrorIs(t, err, ingest.ErrInvalidConfig)
}
