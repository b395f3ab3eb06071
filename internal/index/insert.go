package index

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/arkimet-go/arkimet/internal/arkierr"
	"github.com/arkimet-go/arkimet/pkg/metadata"
	"github.com/arkimet-go/arkimet/pkg/types"
)

// aggregateID interns each of md's indexed attributes and returns (or
// creates) the mduniq row id for that exact combination (spec §4.4.2).
func (ix *Index) aggregateID(tx *sqlx.Tx, md *metadata.Metadata) (int64, []int64, error) {
	attrIDs := make([]int64, len(ix.indexedCodes))
	for i, code := range ix.indexedCodes {
		item, ok := md.Get(code)
		if !ok {
			return 0, nil, arkierr.Consistency("metadata missing indexed attribute %s", code)
		}
		id, err := ix.internAttr(tx, code, item)
		if err != nil {
			return 0, nil, err
		}
		attrIDs[i] = id
	}

	cols := make([]string, len(ix.indexedCodes))
	placeholders := make([]string, len(ix.indexedCodes))
	args := make([]interface{}, len(ix.indexedCodes))
	whereArgs := make([]interface{}, len(ix.indexedCodes))
	for i, code := range ix.indexedCodes {
		cols[i] = columnFor(code)
		placeholders[i] = "?"
		args[i] = attrIDs[i]
		whereArgs[i] = attrIDs[i]
	}

	var where bytes.Buffer
	for i, col := range cols {
		if i > 0 {
			where.WriteString(" AND ")
		}
		fmt.Fprintf(&where, "%s = ?", col)
	}

	var id int64
	err := tx.Get(&id, `SELECT id FROM mduniq WHERE `+where.String(), whereArgs...)
	if err == nil {
		return id, attrIDs, nil
	}

	insertSQL := fmt.Sprintf(`INSERT INTO mduniq (%s) VALUES (%s)`, joinComma(cols), joinComma(placeholders))
	res, err := tx.Exec(insertSQL, args...)
	if err != nil {
		return 0, nil, arkierr.IO(err, "inserting mduniq row")
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, nil, arkierr.IO(err, "reading mduniq insert id")
	}
	return id, attrIDs, nil
}

// Insert interns md's indexed attributes, resolves its aggregate row,
// and inserts one content-table row for its Blob source (spec §4.4
// insert). md's Source must already be a metadata.SourceBlob (set by
// segment.Writer.Append when it reserves the append offset). Returns
// the new row's id (which the caller stamps on the in-memory Metadata
// as its ASSIGNEDDATASET id before the Pending commits) and
// DuplicateError if the row violates either unique key: (file, offset),
// or the indexed attributes plus reftime.
func (ix *Index) Insert(tx *sqlx.Tx, md *metadata.Metadata) (int64, error) {
	src, ok := md.Source().(metadata.SourceBlob)
	if !ok {
		return 0, arkierr.Consistency("index insert requires a Blob source, got %T", md.Source())
	}
	_, attrIDs, err := ix.aggregateID(tx, md)
	if err != nil {
		return 0, err
	}

	reftimeItem, ok := md.Get(types.CodeReftime)
	if !ok {
		return 0, arkierr.Consistency("metadata missing reftime")
	}
	reftime := reftimeColumn(md)
	var reftimeBlob bytes.Buffer
	reftimeItem.EncodeBinary(&reftimeBlob)

	var notes bytes.Buffer
	for _, n := range md.GetAll(types.CodeNote) {
		var item bytes.Buffer
		n.EncodeBinary(&item)
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(item.Len()))
		notes.Write(lenBuf[:])
		notes.Write(item.Bytes())
	}

	cols := []string{"format", "file", "offset", "size", "notes", "reftime", "reftime_blob"}
	args := []interface{}{src.DataFormat, src.Relpath, src.Offset, src.Size, notes.Bytes(), reftime, reftimeBlob.Bytes()}
	for i, code := range ix.indexedCodes {
		cols = append(cols, columnFor(code))
		args = append(args, attrIDs[i])
	}
	placeholders := make([]string, len(cols))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	insertSQL := fmt.Sprintf(`INSERT INTO md (%s) VALUES (%s)`, joinComma(cols), joinComma(placeholders))
	res, err := tx.Exec(insertSQL, args...)
	if err != nil {
		if isUniqueConstraint(err) {
			return 0, arkierr.Duplicate("content row already exists for file=%s offset=%d", src.Relpath, src.Offset)
		}
		return 0, arkierr.IO(err, "inserting content row")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, arkierr.IO(err, "reading content row insert id")
	}
	ix.invalidateSummaryCache(reftime)
	return id, nil
}

func reftimeColumn(md *metadata.Metadata) string {
	item, ok := md.Get(types.CodeReftime)
	if !ok {
		return ""
	}
	begin, _, ok := types.Interval(item)
	if !ok {
		return ""
	}
	return begin.UTC().Format(time.RFC3339)
}

func isUniqueConstraint(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
