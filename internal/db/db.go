// Package db opens the database backing the validation run log.
package db

import (
	"database/sql"
	"fmt"

	// Registers the "libsql" driver with database/sql. Handles remote URLs
	// (libsql://, https://, wss://).
	_ "github.com/tursodatabase/libsql-client-go/libsql"

	// Pure-Go SQLite driver; libsql-client-go delegates file: URLs to it.
	_ "modernc.org/sqlite"
)

// driverName is the database/sql driver to use. Package-level so tests can
// exercise the unknown-driver path; production always uses "libsql".
var driverName = "libsql"

// Open opens the run-log database and verifies it with a ping.
//
// Supported URL schemes:
//
//	Local file:   "file:specgate.db"
//	Remote Turso: "libsql://[db-name].turso.io?authToken=[token]"
func Open(dbURL string) (*sql.DB, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("database URL must not be empty")
	}

	conn, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, fmt.Errorf("open run-log database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("connect to run-log database: %w", err)
	}

	return conn, nil
}
