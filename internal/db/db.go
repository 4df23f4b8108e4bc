package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// connParams are applied by the driver to every pooled connection.
// _txlock=immediate makes BeginTx take the write lock up front so two
// writers racing on the same row serialize instead of failing on upgrade.
const connParams = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"

// Open opens a SQLite database connection and configures pragmas.
func Open(path string) (*sql.DB, error) {
	dsn := path
	if !strings.Contains(path, ":memory:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		dsn = path + sep + connParams
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	return db, nil
}
