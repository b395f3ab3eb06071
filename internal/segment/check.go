package segment

import (
	"os"
	"path/filepath"

	"github.com/arkimet-go/arkimet/internal/arkierr"
	"github.com/arkimet-go/arkimet/internal/txn"
	"github.com/arkimet-go/arkimet/pkg/metadata"
)

// DeclaredRecord is one entry of the ordered collection of Metadata
// the index believes the segment contains (spec §4.3 Check).
type DeclaredRecord struct {
	Offset, Size uint64
	Metadata     *metadata.Metadata
}

// gapPadding is the maximum gap, in bytes, between the end of one
// declared record and the start of the next that Check still accepts
// as OK (alignment padding written by some scanners); anything wider
// is DIRTY.
const gapPadding = 0

// Check reports the FileState of the segment at dirname/relpath given
// what the index declares it should contain, in increasing offset
// order (spec §4.3 Check).
func Check(dirname, relpath string, declared []DeclaredRecord, padding int64) FileState {
	path := filepath.Join(dirname, relpath)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return MISSING
		}
		return CORRUPTED
	}
	if padding < 0 {
		padding = gapPadding
	}

	var state FileState
	var prevEnd int64
	for i, rec := range declared {
		if int64(rec.Offset) > info.Size() || int64(rec.Offset+rec.Size) > info.Size() {
			state |= UNALIGNED
			continue
		}
		if i > 0 {
			gap := int64(rec.Offset) - prevEnd
			if gap < 0 {
				state |= DIRTY
			} else if gap > padding {
				state |= DIRTY
			}
		}
		prevEnd = int64(rec.Offset + rec.Size)
	}
	if len(declared) > 0 && prevEnd < info.Size() {
		state |= DIRTY
	}
	if state == 0 {
		return OK
	}
	return state
}

// repackTxn implements txn.Transaction for Repack: it writes a fresh
// segment to a temp file and, on Commit, renames it over the original;
// on Rollback it deletes the temp file (spec §4.3 Repack).
type repackTxn struct {
	tmpPath  string
	realPath string
	cache    *FDCache
	done     bool
}

// Repack produces a new segment at dirname/relpath containing exactly
// declared's records in order, re-reading each from the current
// segment via reader. It returns a txn.Transaction; Commit renames the
// rebuilt file atomically over the original and drops it from cache,
// Rollback deletes the temp file.
func Repack(cache *FDCache, dirname, relpath string, declared []DeclaredRecord) (txn.Transaction, []DeclaredRecord, error) {
	realPath := filepath.Join(dirname, relpath)
	reader, err := OpenReader(cache, dirname, relpath)
	if err != nil {
		return nil, nil, err
	}
	defer reader.Close()

	tmpPath := realPath + ".repack.tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return nil, nil, arkierr.IO(err, "creating repack temp file %s", tmpPath)
	}

	newDeclared := make([]DeclaredRecord, 0, len(declared))
	var offset uint64
	for _, rec := range declared {
		data, err := reader.ReadAt(rec.Offset, rec.Size)
		if err != nil {
			out.Close()
			os.Remove(tmpPath)
			return nil, nil, err
		}
		if _, err := out.Write(data); err != nil {
			out.Close()
			os.Remove(tmpPath)
			return nil, nil, arkierr.IO(err, "writing repack temp file %s", tmpPath)
		}
		newDeclared = append(newDeclared, DeclaredRecord{Offset: offset, Size: rec.Size, Metadata: rec.Metadata})
		offset += rec.Size
	}
	if err := out.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, nil, arkierr.IO(err, "closing repack temp file %s", tmpPath)
	}
	return &repackTxn{tmpPath: tmpPath, realPath: realPath, cache: cache}, newDeclared, nil
}

func (t *repackTxn) Commit() error {
	if t.done {
		return nil
	}
	t.done = true
	t.cache.Drop(t.realPath)
	if err := os.Rename(t.tmpPath, t.realPath); err != nil {
		return arkierr.IO(err, "renaming %s over %s", t.tmpPath, t.realPath)
	}
	return nil
}

func (t *repackTxn) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := os.Remove(t.tmpPath); err != nil && !os.IsNotExist(err) {
		return arkierr.IO(err, "removing repack temp file %s", t.tmpPath)
	}
	return nil
}

// Scanner decodes the raw data file at path into an ordered collection
// of Metadata, each carrying the byte range of its datum; it is
// supplied by the format-specific scanner (GRIB/BUFR/ODIMH5/VM2/…)
// registered for the segment's format.
type Scanner func(path string) ([]DeclaredRecord, error)

// Rescan invokes scan against the raw data file, then replaces both
// sidecars atomically, returning the fresh declared collection for the
// index to reconcile against (spec §4.3 Rescan).
func Rescan(dirname, relpath string, scan Scanner) ([]DeclaredRecord, error) {
	path := filepath.Join(dirname, relpath)
	declared, err := scan(path)
	if err != nil {
		return nil, err
	}
	if err := writeSidecars(dirname, relpath, declared); err != nil {
		return nil, err
	}
	return declared, nil
}

// writeSidecars atomically replaces `<relpath>.metadata` and
// `<relpath>.summary` for declared.
func writeSidecars(dirname, relpath string, declared []DeclaredRecord) error {
	path := filepath.Join(dirname, relpath)

	mdBuf, err := buildMetadataSidecar(declared)
	if err != nil {
		return err
	}
	if err := atomicWrite(path+".metadata", mdBuf); err != nil {
		return err
	}

	summary := metadata.NewSummary()
	for _, rec := range declared {
		summary.Add(rec.Metadata, int64(rec.Size))
	}
	return atomicWrite(path+".summary", summaryBytes(summary))
}

func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return arkierr.IO(err, "writing %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return arkierr.IO(err, "renaming %s to %s", tmp, path)
	}
	return nil
}
