package index

import (
	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/arkimet-go/arkimet/internal/arkierr"
	"github.com/arkimet-go/arkimet/pkg/metadata"
)

// Files returns every distinct segment relpath the content table
// currently references, for maintenance to walk (spec §4.7).
func (ix *Index) Files() ([]string, error) {
	var files []string
	if err := ix.db.Select(&files, `SELECT DISTINCT file FROM md ORDER BY file`); err != nil {
		return nil, arkierr.IO(err, "listing indexed files")
	}
	return files, nil
}

// FileRecord is one content row for a given segment, in the shape
// maintenance needs to drive segment.Check/Repack.
type FileRecord struct {
	ID           int64
	Offset, Size uint64
	Metadata     *metadata.Metadata
}

type idRowScanner struct {
	rows *sqlx.Rows
	id   *int64
}

func (s idRowScanner) Scan(dest ...interface{}) error {
	return s.rows.Scan(append([]interface{}{s.id}, dest...)...)
}

// RecordsForFile returns every content row for relpath, in offset
// order — the index's view of what relpath should contain (spec §4.3:
// "what the index believes it should contain").
func (ix *Index) RecordsForFile(relpath string) ([]FileRecord, error) {
	cols := append([]string{"id"}, ix.queryColumns()...)
	sqlStr, args, err := sq.Select(cols...).From("md").Where(sq.Eq{"file": relpath}).OrderBy("offset ASC").ToSql()
	if err != nil {
		return nil, arkierr.IO(err, "building file-records sql")
	}

	rows, err := ix.db.Queryx(sqlStr, args...)
	if err != nil {
		return nil, arkierr.IO(err, "querying file records for %s", relpath)
	}
	defer rows.Close()

	var out []FileRecord
	for rows.Next() {
		var id int64
		md, err := ix.scanRow(idRowScanner{rows: rows, id: &id})
		if err != nil {
			return nil, err
		}
		src, _ := md.Source().(metadata.SourceBlob)
		out = append(out, FileRecord{ID: id, Offset: src.Offset, Size: src.Size, Metadata: md})
	}
	if err := rows.Err(); err != nil {
		return nil, arkierr.IO(err, "iterating file records for %s", relpath)
	}
	return out, nil
}

// DeleteFile removes every content row for relpath within tx, the
// first half of reconciling a segment after rescan or repack replaces
// its declared collection wholesale (spec §4.7).
func (ix *Index) DeleteFile(tx *sqlx.Tx, relpath string) error {
	var months []string
	if err := tx.Select(&months, `SELECT DISTINCT substr(reftime, 1, 7) FROM md WHERE file = ?`, relpath); err != nil {
		return arkierr.IO(err, "listing affected months for %s", relpath)
	}
	if _, err := tx.Exec(`DELETE FROM md WHERE file = ?`, relpath); err != nil {
		return arkierr.IO(err, "deleting content rows for %s", relpath)
	}
	for _, month := range months {
		ix.invalidateSummaryCache(month + "-01")
	}
	return nil
}
