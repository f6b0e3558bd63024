package fetch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/edugonzaloalmorox/data-eng-zoomcamp/pkg/ingest"
)

// CommandFetcher runs an external program that writes the download itself.
type CommandFetcher struct {
	// Name is the program to execute, looked up in PATH.
	Name string

	// Args builds the argument list for one download.
	Args func(url, destPath string) []string
}

// NewWgetFetcher runs `wget <url> -O <dest>`.
func NewWgetFetcher() *CommandFetcher {
	return &CommandFetcher{
		Name: "wget",
		Args: func(url, destPath string) []string {
			return []string{"--quiet", url, "-O", destPath}
		},
	}
}

// Fetch implements ingest.Fetcher. On failure the destination is removed,
// since downloaders like wget truncate it before the transfer starts.
func (f *CommandFetcher) Fetch(ctx context.Context, url, destPath string) (*ingest.FetchResult, error) {
	start := time.Now()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.Name, f.Args(url, destPath)...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(destPath)
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%s: %w: %s", f.Name, err, msg)
		} else {
			err = fmt.Errorf("%s: %w", f.Name, err)
		}
		return nil, downloadError(url, err)
	}

	info, err := os.Stat(destPath)
	if err != nil {
		return nil, downloadError(url, fmt.Errorf("%s produced no file: %w", f.Name, err))
	}

	return &ingest.FetchResult{
		Path:    destPath,
		Bytes:   info.Size(),
		Elapsed: time.Since(start),
	}, nil
}

var _ ingest.Fetcher = (*CommandFetcher)(nil)
