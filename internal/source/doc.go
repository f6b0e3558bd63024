// Package source decodes a downloaded file into an in-memory Arrow table.
//
// Parquet files keep the names and types of their embedded schema. CSV files
// (plain or gzip-compressed) are read with a header row and column types
// inferred from the data. Every decoding failure wraps ingest.ErrSourceParse.
//
// # Example Usage
//
//	format, err := source.Resolve(ingest.FormatAuto, "yellow_tripdata_2021-01.parquet")
//	tbl, err := source.Read(ctx, path, format, source.Options{})
//	defer tbl.Release()
package source
