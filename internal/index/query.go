package index

import (
	"bytes"
	"encoding/binary"

	sq "github.com/Masterminds/squirrel"

	"github.com/arkimet-go/arkimet/internal/arkierr"
	"github.com/arkimet-go/arkimet/pkg/log"
	"github.com/arkimet-go/arkimet/pkg/matcher"
	"github.com/arkimet-go/arkimet/pkg/metadata"
	"github.com/arkimet-go/arkimet/pkg/types"
)

// resolveAttr looks up an existing sub_<typename> row id for item
// without interning it, for use as a matcher.AttrResolver during query
// planning: a value never seen before can't match any stored row, so
// it simply drops the clause to residual instead of creating an
// attribute row as a side effect of a read.
func (ix *Index) resolveAttr(code types.Code, item types.Item) (int64, bool) {
	if id, ok := ix.caches[code].lookupID(code, item); ok {
		return id, true
	}
	var buf bytes.Buffer
	item.EncodeBinary(&buf)
	var id int64
	if err := ix.db.Get(&id, `SELECT id FROM `+subTableFor(code)+` WHERE data = ?`, buf.Bytes()); err != nil {
		return 0, false
	}
	ix.caches[code].put(code, item, id)
	return id, true
}

// columnForMap returns the indexed-code→column-name map SQLConstraints
// needs, keyed by the matcher clause type name.
func (ix *Index) columnForMap() map[string]string {
	m := make(map[string]string, len(ix.indexedCodes))
	for _, code := range ix.indexedCodes {
		m[code.String()] = columnFor(code)
	}
	return m
}

// Query runs mtr against the content table, reconstructing a full
// Metadata for each matching row and re-checking it against mtr
// in-process (spec §4.4 query: residual clauses that the SQL
// WHERE couldn't answer, plus any clause the planner chose to skip,
// must still be honored). Results are returned newest-reftime-last,
// matching insertion/Summary ordering elsewhere in the package.
func (ix *Index) Query(mtr *matcher.Matcher) ([]*metadata.Metadata, error) {
	query := sq.Select(ix.queryColumns()...).From("md")

	if mtr != nil {
		if constraints, _ := mtr.SQLConstraints(ix.columnForMap(), ix.resolveAttr); constraints != nil {
			query = query.Where(constraints)
		}
		if reftimeSQL, ok := mtr.ReftimeSQL("reftime"); ok {
			query = query.Where(reftimeSQL)
		}
	}
	query = query.OrderBy("reftime ASC", "id ASC")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, arkierr.IO(err, "building query sql")
	}
	log.Debugf("index query sql: %s args: %#v", sqlStr, args)

	rows, err := query.RunWith(ix.stmtCache).Query()
	if err != nil {
		return nil, arkierr.IO(err, "running index query")
	}
	defer rows.Close()

	var out []*metadata.Metadata
	for rows.Next() {
		md, err := ix.scanRow(rows)
		if err != nil {
			log.Warnf("index query: skipping unreadable row: %v", err)
			continue
		}
		if mtr != nil && !mtr.Matches(md) {
			continue
		}
		out = append(out, md)
	}
	if err := rows.Err(); err != nil {
		return nil, arkierr.IO(err, "iterating index query rows")
	}
	return out, nil
}

// queryColumns lists every column scanRow expects, in scanRow's order.
func (ix *Index) queryColumns() []string {
	cols := []string{"format", "file", "offset", "size", "notes", "reftime_blob"}
	for _, code := range ix.indexedCodes {
		cols = append(cols, columnFor(code))
	}
	return cols
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanRow reconstructs one Metadata record from a content-table row
// produced by queryColumns, resolving each interned attribute id back
// to its Item via attrItem.
func (ix *Index) scanRow(r rowScanner) (*metadata.Metadata, error) {
	var format, file string
	var offset, size int64
	var notes, reftimeBlob []byte
	attrIDs := make([]int64, len(ix.indexedCodes))

	dest := []interface{}{&format, &file, &offset, &size, &notes, &reftimeBlob}
	for i := range attrIDs {
		dest = append(dest, &attrIDs[i])
	}
	if err := r.Scan(dest...); err != nil {
		return nil, arkierr.IO(err, "scanning index row")
	}

	md := metadata.New()
	for i, code := range ix.indexedCodes {
		item, err := ix.attrItem(ix.db, code, attrIDs[i])
		if err != nil {
			return nil, err
		}
		md.Set(item)
	}

	reftime, err := types.DecodeBinary(types.CodeReftime, reftimeBlob)
	if err != nil {
		return nil, err
	}
	md.Set(reftime)

	for len(notes) >= 4 {
		frameLen := binary.BigEndian.Uint32(notes[0:4])
		notes = notes[4:]
		if uint32(len(notes)) < frameLen {
			break
		}
		note, err := types.DecodeBinary(types.CodeNote, notes[:frameLen])
		if err != nil {
			return nil, err
		}
		md.Set(note)
		notes = notes[frameLen:]
	}

	md.SetSource(metadata.SourceBlob{
		DataFormat: format,
		Relpath:    file,
		Offset:     uint64(offset),
		Size:       uint64(size),
	})
	return md, nil
}
