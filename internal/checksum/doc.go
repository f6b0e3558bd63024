// Package checksum hashes downloaded source files so a run can refuse a file
// that does not match a published SHA-256.
//
//	calculator := checksum.New()
//	sum, err := calculator.CalculateFile("yellow_tripdata_2021-01.parquet")
//	err = calculator.Verify("yellow_tripdata_2021-01.parquet", expected)
//
// SHA256 is safe for concurrent use by multiple goroutines.
package checksum
