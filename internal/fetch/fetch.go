package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/edugonzaloalmorox/data-eng-zoomcamp/pkg/ingest"
)

// Status errors returned by HTTPFetcher, always alongside ingest.ErrDownloadFailed.
var (
	ErrNotFound     = errors.New("fetch: resource not found")
	ErrForbidden    = errors.New("fetch: access forbidden")
	ErrUnauthorized = errors.New("fetch: unauthorized")
	ErrServerError  = errors.New("fetch: server error")
)

var objectStoreSchemes = map[string]bool{
	"s3":   true,
	"gs":   true,
	"file": true,
	"mem":  true,
}

// IsObjectStoreURL reports whether rawURL is served by BlobFetcher.
func IsObjectStoreURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return objectStoreSchemes[strings.ToLower(u.Scheme)]
}

// New returns the fetcher for method. DownloadAuto picks BlobFetcher for
// object-store URLs and HTTPFetcher otherwise.
func New(method ingest.DownloadMethod, rawURL string) (ingest.Fetcher, error) {
	switch method {
	case ingest.DownloadAuto, "":
		if IsObjectStoreURL(rawURL) {
			return NewBlobFetcher(), nil
		}
		return NewHTTPFetcher(0), nil
	case ingest.DownloadHTTP:
		return NewHTTPFetcher(0), nil
	case ingest.DownloadBlob:
		return NewBlobFetcher(), nil
	case ingest.DownloadWget:
		return NewWgetFetcher(), nil
	default:
		return nil, fmt.Errorf("unknown download method %q: %w", method, ingest.ErrInvalidConfig)
	}
}

// DefaultDestination is the base name of the URL path, in the working directory.
func DefaultDestination(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", rawURL, ingest.ErrInvalidConfig)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("URL %q has no file name, use --output: %w", rawURL, ingest.ErrInvalidConfig)
	}
	return name, nil
}

func downloadError(rawURL string, err error) error {
	return fmt.Errorf("failed to download %s: %w: %w", rawURL, ingest.ErrDownloadFailed, err)
}

// writeAtomically streams r into a temporary file beside destPath and
// renames it into place when the copy succeeds.
func writeAtomically(ctx context.Context, destPath string, r io.Reader) (int64, error) {
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(destPath)+".*.part")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	n, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: r})
	if err != nil {
		return n, err
	}
	if err := tmp.Close(); err != nil {
		return n, err
	}
	if err := os.Rename(tmpName, destPath); err != nil {
		return n, err
	}
	committed = true
	return n, nil
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
