package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/edugonzaloalmorox/data-eng-zoomcamp/pkg/ingest"
)

// Calculator computes hex-encoded checksums.
type Calculator interface {
	// CalculateRaw hashes an in-memory buffer.
	CalculateRaw(content []byte) string

	// CalculateReader hashes everything r yields.
	CalculateReader(r io.Reader) (string, error)

	// CalculateFile streams the file at path through the hash.
	CalculateFile(path string) (string, error)
}

// SHA256 is a zero-size type; pass it by value.
type SHA256 struct{}

func New() SHA256 {
	return SHA256{}
}

func (c SHA256) CalculateRaw(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

func (c SHA256) CalculateReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (c SHA256) CalculateFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	sum, err := c.CalculateReader(f)
	if err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return sum, nil
}

// Verify hashes the file at path and compares it with expected, ignoring
// case. A mismatch wraps ingest.ErrChecksumMismatch.
func (c SHA256) Verify(path, expected string) error {
	actual, err := c.CalculateFile(path)
	if err != nil {
		return err
	}
	if !strings.EqualFold(actual, strings.TrimSpace(expected)) {
		return fmt.Errorf("%s: expected sha256 %s, got %s: %w", path, strings.ToLower(expected), actual, ingest.ErrChecksumMismatch)
	}
	return nil
}

var _ Calculator = SHA256{}
