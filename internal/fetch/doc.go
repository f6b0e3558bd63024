// Package fetch downloads the source file to local disk.
//
// Three implementations share the ingest.Fetcher interface:
//
//   - HTTPFetcher issues a single GET and maps error statuses to sentinel errors.
//   - BlobFetcher reads s3://, gs://, file:// and mem:// objects through
//     gocloud.dev/blob.
//   - CommandFetcher shells out to an external downloader such as wget.
//
// Every failure wraps ingest.ErrDownloadFailed. Downloads are written next to
// the destination under a temporary name and renamed into place once complete,
// so a failed fetch never leaves a truncated file at the destination path.
// Nothing is retried.
package fetch
