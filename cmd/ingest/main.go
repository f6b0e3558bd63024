package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/edugonzaloalmorox/data-eng-zoomcamp/internal/cli"
	"github.com/edugonzaloalmorox/data-eng-zoomcamp/pkg/ingest"
)

func main() {
	// Recover from panics to ensure graceful exits with stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(ingest.ExitPanic)
		}
	}()

	if os.Getenv("INGEST_TEST_PANIC") == "1" {
		panic("intentional test panic")
	}

	if err := cli.Execute(); err != nil {
		os.Exit(ingest.ExitCodeForError(err))
	}
}
