//go:build cgo

package dataset

import _ "github.com/marcboeker/go-duckdb/v2" // registers the "duckdb" driver
