// SQL dialects for the supported dataset stores
// Dialects differ only in driver, DSN, bind placeholders, and snapshot options
package dataset

import (
	"database/sql"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "modernc.org/sqlite"             // registers the "sqlite" driver
)

type dialect struct {
	name        string // db.system attribute value
	driver      string
	txOptions   *sql.TxOptions
	placeholder func(n int) string
	fileBacked  bool
}

func question(int) string { return "?" }

func dollar(n int) string { return "$" + strconv.Itoa(n) }

var (
	sqliteDialect = dialect{
		name:        "sqlite",
		driver:      "sqlite",
		placeholder: question,
		fileBacked:  true,
	}
	postgresDialect = dialect{
		name:        "postgresql",
		driver:      "pgx",
		txOptions:   &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true},
		placeholder: dollar,
	}
	duckdbDialect = dialect{
		name:        "duckdb",
		driver:      "duckdb",
		placeholder: question,
		fileBacked:  true,
	}
)

func isPostgresDSN(source string) bool {
	return strings.HasPrefix(source, "postgres://") || strings.HasPrefix(source, "postgresql://")
}

// detectDialect picks a dialect from the source and returns the DSN to open.
// File-backed stores are always opened read-only.
func detectDialect(source string) (dialect, string) {
	switch {
	case isPostgresDSN(source):
		return postgresDialect, source
	case strings.EqualFold(filepath.Ext(source), ".duckdb"):
		return duckdbDialect, source + "?access_mode=read_only"
	default:
		return sqliteDialect, source + "?_pragma=query_only(1)"
	}
}

// displayName returns a short, credential-free name for a source.
func displayName(source string) string {
	if isPostgresDSN(source) {
		u, err := url.Parse(source)
		if err != nil {
			return "postgres"
		}
		return u.Host + u.Path
	}
	return filepath.Base(source)
}
