package fetch

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"gocloud.dev/blob"
	// drivers for the supported object-store schemes
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/edugonzaloalmorox/data-eng-zoomcamp/pkg/ingest"
)

// BlobFetcher copies an object from a gocloud.dev bucket.
type BlobFetcher struct {
	bucket *blob.Bucket
}

// NewBlobFetcher opens the bucket named by each URL on every Fetch.
func NewBlobFetcher() *BlobFetcher {
	return &BlobFetcher{}
}

// NewBucketFetcher reads keys from an already open bucket, which stays owned
// by the caller. The URL passed to Fetch then only supplies the key.
func NewBucketFetcher(bucket *blob.Bucket) *BlobFetcher {
	if bucket == nil {
		panic("bucket cannot be nil")
	}
	return &BlobFetcher{bucket: bucket}
}

// SplitObjectURL separates a URL such as s3://bucket/path/key?region=x into
// the bucket URL and the object key. For file:// URLs the bucket is the
// containing directory.
func SplitObjectURL(rawURL string) (bucketURL, key string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid object URL %q: %w", rawURL, err)
	}

	if strings.EqualFold(u.Scheme, "file") {
		dir, file := path.Split(u.Path)
		if file == "" {
			return "", "", fmt.Errorf("object URL %q has no key", rawURL)
		}
		bucket := url.URL{Scheme: u.Scheme, Path: strings.TrimSuffix(dir, "/"), RawQuery: u.RawQuery}
		if bucket.Path == "" {
			bucket.Path = "/"
		}
		return bucket.String(), file, nil
	}

	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("object URL %q has no key", rawURL)
	}
	bucket := url.URL{Scheme: u.Scheme, Host: u.Host, RawQuery: u.RawQuery}
	return bucket.String(), key, nil
}

// Fetch implements ingest.Fetcher.
func (f *BlobFetcher) Fetch(ctx context.Context, rawURL, destPath string) (*ingest.FetchResult, error) {
	start := time.Now()

	bucketURL, key, err := SplitObjectURL(rawURL)
	if err != nil {
		return nil, downloadError(rawURL, err)
	}

	bucket := f.bucket
	if bucket == nil {
		bucket, err = blob.OpenBucket(ctx, bucketURL)
		if err != nil {
			return nil, downloadError(rawURL, fmt.Errorf("open bucket %s: %w", bucketURL, err))
		}
		defer bucket.Close()
	}

	r, err := bucket.NewReader(ctx, key, nil)
	if err != nil {
		return nil, downloadError(rawURL, fmt.Errorf("open object %s: %w", key, err))
	}
	defer r.Close()

	n, err := writeAtomically(ctx, destPath, r)
	if err != nil {
		return nil, downloadError(rawURL, err)
	}

	return &ingest.FetchResult{
		Path:        destPath,
		Bytes:       n,
		ContentType: r.ContentType(),
		Elapsed:     time.Since(start),
	}, nil
}

var _ ingest.Fetcher = (*BlobFetcher)(nil)
