// Package db reads legacy SQLite context databases so their events can be
// replayed into the append-only log. It never writes to SQLite.
package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"

	_ "modernc.org/sqlite"

	"github.com/hpungsan/tally/internal/errors"
)

// EventsTable is the legacy table holding structured event rows.
const EventsTable = "events"

// OpenLegacy opens the SQLite database at path read-only.
// query_only rejects writes on every pooled connection.
func OpenLegacy(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.NewInvalidRequest("database path is required")
	}
	info, err := os.Stat(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.NewNotFound(path)
		}
		return nil, errors.NewIO("stat", err)
	}
	if info.IsDir() {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("%s is a directory", path))
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=query_only(1)"
	database, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.NewIO("open", err)
	}

	ok, err := hasTable(ctx, database, EventsTable)
	if err != nil {
		database.Close()
		return nil, errors.NewIO("open", err)
	}
	if !ok {
		database.Close()
		return nil, errors.NewInvalidRequest(fmt.Sprintf("%s has no %q table", path, EventsTable))
	}

	return database, nil
}

// hasTable reports whether a table named name exists.
func hasTable(ctx context.Context, database *sql.DB, name string) (bool, error) {
	var n int
	err := database.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to inspect schema: %w", err)
	}
	return n > 0, nil
}
