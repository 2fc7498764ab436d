package catalog

import (
	"fmt"
	"strings"
)

const busyTimeoutMS = 5000

// dataSource turns a catalog path into a sqlite DSN with WAL and busy timeout pragmas.
// Paths already in file: or :memory: form are kept and only missing pragmas are added.
func dataSource(path string) string {
	dsn := path
	lower := strings.ToLower(path)
	if dsn != ":memory:" && !strings.HasPrefix(lower, "file:") {
		dsn = "file:" + path
	}
	return ensurePragmas(dsn, true, busyTimeoutMS)
}

// ensurePragmas appends pragmas to dsn when missing; in-memory databases are left alone.
func ensurePragmas(dsn string, wal bool, busyTimeout int) string {
	lower := strings.ToLower(dsn)
	if dsn == ":memory:" || strings.HasPrefix(lower, "file::memory:") {
		return dsn
	}
	if busyTimeout > 0 && !strings.Contains(lower, "_pragma=busy_timeout") {
		dsn = addPragma(dsn, fmt.Sprintf("busy_timeout(%d)", busyTimeout))
	}
	if wal && !strings.Contains(lower, "_pragma=journal_mode") {
		dsn = addPragma(dsn, "journal_mode(WAL)")
	}
	return dsn
}

func addPragma(dsn, pragma string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=" + pragma
}
