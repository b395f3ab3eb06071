// Package index implements the SQLite-backed per-dataset index of
// spec §4.4: per-attribute sub-indices, an aggregate table over the
// indexed attribute combination, and a content table with one row per
// stored datum.
package index

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/qustavo/sqlhooks/v2"

	"github.com/arkimet-go/arkimet/internal/arkierr"
	"github.com/arkimet-go/arkimet/pkg/log"
)

var driverRegistered bool

// openDB opens path with the pragmas spec §4.4 requires (WAL mode,
// synchronous=NORMAL, page_size, configurable cache_size), wrapping
// the sqlite3 driver with query-logging hooks exactly as
// internal/repository does for the job database.
func openDB(path string, cacheSizePages int) (*sqlx.DB, error) {
	if !driverRegistered {
		sql.Register("sqlite3_arkimet", sqlhooks.Wrap(&sqlite3.SQLiteDriver{}, &queryHooks{}))
		driverRegistered = true
	}
	db, err := sqlx.Open("sqlite3_arkimet", fmt.Sprintf("%s?_foreign_keys=on", path))
	if err != nil {
		return nil, arkierr.IO(err, "opening index database %s", path)
	}
	// SQLite does not benefit from multiple connections; concurrent
	// writers would just contend on the same file lock (spec §4.4:
	// "every mutation is wrapped in BEGIN IMMEDIATE … COMMIT").
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA page_size=4096",
		fmt.Sprintf("PRAGMA cache_size=%d", cacheSizePages),
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, arkierr.IO(err, "applying %q to %s", p, path)
		}
	}
	return db, nil
}

// newStmtCache wraps db for repeated prepared-statement reuse, the
// same squirrel StmtCache idiom internal/repository.JobRepository
// uses for every query.
func newStmtCache(db *sqlx.DB) *sq.StmtCache {
	return sq.NewStmtCache(db)
}

type queryHooks struct{}

func (queryHooks) Before(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	log.Debugf("index SQL: %s %q", query, args)
	return ctx, nil
}

func (queryHooks) After(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	return ctx, nil
}
