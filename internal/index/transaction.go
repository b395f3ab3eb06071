package index

import (
	"github.com/jmoiron/sqlx"

	"github.com/arkimet-go/arkimet/internal/arkierr"
)

// indexTxn implements txn.Transaction over one `BEGIN IMMEDIATE …
// COMMIT` SQLite transaction (spec §4.4: "every mutation is wrapped in
// BEGIN IMMEDIATE … COMMIT").
type indexTxn struct {
	tx   *sqlx.Tx
	done bool
}

// Begin starts a BEGIN IMMEDIATE transaction and returns both the
// txn.Transaction wrapper (for Pending) and the *sqlx.Tx to pass to
// Insert.
func (ix *Index) Begin() (*indexTxn, *sqlx.Tx, error) {
	tx, err := ix.db.Beginx()
	if err != nil {
		return nil, nil, arkierr.IO(err, "beginning index transaction")
	}
	if _, err := tx.Exec("BEGIN IMMEDIATE"); err != nil {
		// sqlx.Beginx already started a deferred transaction; SQLite
		// accepts escalating it to IMMEDIATE only if nothing has run yet,
		// so this is attempted before any statement.
		tx.Rollback()
		return nil, nil, arkierr.Lock("acquiring IMMEDIATE lock: %v", err)
	}
	t := &indexTxn{tx: tx}
	return t, tx, nil
}

func (t *indexTxn) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Commit(); err != nil {
		return arkierr.IO(err, "committing index transaction")
	}
	return nil
}

func (t *indexTxn) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil {
		return arkierr.IO(err, "rolling back index transaction")
	}
	return nil
}
