package index

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/arkimet-go/arkimet/internal/arkierr"
	"github.com/arkimet-go/arkimet/pkg/types"
)

// columnFor names the aggregate/content table column for an indexed
// code's sub-index foreign key.
func columnFor(code types.Code) string {
	return code.String() + "_id"
}

// subTableFor names the sub_<typename> table for code (spec §4.4.1).
func subTableFor(code types.Code) string {
	return "sub_" + code.String()
}

// createSchema creates the sub-index tables for indexedCodes, the
// aggregate table over their combination, and the content table,
// idempotently (spec §4.4).
func createSchema(db *sqlx.DB, indexedCodes []types.Code) error {
	for _, code := range indexedCodes {
		stmt := fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (id INTEGER PRIMARY KEY, data BLOB UNIQUE)`,
			subTableFor(code))
		if _, err := db.Exec(stmt); err != nil {
			return arkierr.IO(err, "creating %s", subTableFor(code))
		}
	}

	var cols, uniq []string
	for _, code := range indexedCodes {
		col := columnFor(code)
		cols = append(cols, fmt.Sprintf("%s INTEGER NOT NULL", col))
		uniq = append(uniq, col)
	}
	aggStmt := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS mduniq (id INTEGER PRIMARY KEY, %s, UNIQUE(%s))`,
		joinComma(cols), joinComma(uniq))
	if _, err := db.Exec(aggStmt); err != nil {
		return arkierr.IO(err, "creating mduniq")
	}

	var contentCols []string
	var aggUniq []string
	for _, code := range indexedCodes {
		col := columnFor(code)
		contentCols = append(contentCols, col+" INTEGER NOT NULL")
		aggUniq = append(aggUniq, col)
	}
	aggUniq = append(aggUniq, "reftime")
	// UNIQUE(reftime, <indexed columns>) is the "content duplicate" key
	// a replace policy detects against (Open Question #1 in DESIGN.md):
	// two content rows with the same reftime and the same combination
	// of indexed attributes are the same datum acquired twice, distinct
	// from the incidental UNIQUE(file, offset), which only catches a
	// literal re-insert of the same byte range.
	contentStmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS md (
		id INTEGER PRIMARY KEY,
		format TEXT NOT NULL,
		file TEXT NOT NULL,
		offset INTEGER NOT NULL,
		size INTEGER NOT NULL,
		notes BLOB,
		reftime TEXT NOT NULL,
		reftime_blob BLOB NOT NULL,
		%s,
		UNIQUE(file, offset),
		UNIQUE(%s)
	)`, joinComma(contentCols), joinComma(aggUniq))
	if _, err := db.Exec(contentStmt); err != nil {
		return arkierr.IO(err, "creating md")
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS md_file_offset ON md(file, offset)`); err != nil {
		return arkierr.IO(err, "creating md_file_offset index")
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS md_reftime ON md(reftime)`); err != nil {
		return arkierr.IO(err, "creating md_reftime index")
	}
	return nil
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
