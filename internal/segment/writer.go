package segment

import (
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/arkimet-go/arkimet/internal/arkierr"
	"github.com/arkimet-go/arkimet/internal/txn"
	"github.com/arkimet-go/arkimet/pkg/metadata"
)

// Writer appends data to one segment file under an exclusive POSIX
// lock (spec §4.3 writer contract). One Writer serialises all appends
// to its segment; concurrent Writers on different segments don't
// contend.
type Writer struct {
	format  string
	dirname string
	relpath string
	mu      sync.Mutex
}

// NewWriter returns a Writer for the segment data file at
// dirname/relpath without touching the file; each Append opens it,
// creating it if necessary.
func NewWriter(format, dirname, relpath string) *Writer {
	return &Writer{format: format, dirname: dirname, relpath: relpath}
}

// appendTxn implements txn.Transaction for one in-flight append (spec
// §4.3 steps 1-5).
type appendTxn struct {
	w        *Writer
	f        *os.File
	preSize  int64
	offset   int64
	payload  []byte
	md       *metadata.Metadata
	rolledBk bool
}

// Append acquires the segment's exclusive lock (blocking), records the
// pre-append size as the insertion offset, and stages payload for
// write; the caller must Commit or Rollback the returned
// txn.Transaction to release the lock.
func (w *Writer) Append(md *metadata.Metadata, payload []byte) (txn.Transaction, error) {
	w.mu.Lock()
	path := filepath.Join(w.dirname, w.relpath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		w.mu.Unlock()
		return nil, arkierr.IO(err, "creating segment directory for %s", path)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		w.mu.Unlock()
		return nil, arkierr.IO(err, "opening segment %s", path)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		w.mu.Unlock()
		return nil, arkierr.Lock("locking segment %s: %v", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		f.Close()
		w.mu.Unlock()
		return nil, arkierr.IO(err, "statting segment %s", path)
	}
	offset := info.Size()
	// The offset is reserved the moment the lock is acquired, not at
	// Commit time: the exclusive flock held until Commit/Rollback
	// guarantees nothing else can claim it meanwhile, so callers that
	// need md's Source populated before the segment bytes are durably
	// written (e.g. to index it within the same pending transaction)
	// can rely on it immediately.
	md.SetSource(metadata.SourceBlob{
		DataFormat: w.format,
		Root:       w.dirname,
		Relpath:    w.relpath,
		Offset:     uint64(offset),
		Size:       uint64(len(payload)),
	})
	return &appendTxn{w: w, f: f, preSize: info.Size(), offset: offset, payload: payload, md: md}, nil
}

// Commit writes payload at the reserved offset and syncs, making the
// Source set at Append time durable.
func (t *appendTxn) Commit() error {
	defer t.release()
	if _, err := t.f.WriteAt(t.payload, t.offset); err != nil {
		return arkierr.IO(err, "writing segment payload")
	}
	if err := t.f.Sync(); err != nil {
		return arkierr.IO(err, "syncing segment")
	}
	return nil
}

// Rollback truncates the file back to its pre-append size and
// releases the lock.
func (t *appendTxn) Rollback() error {
	defer t.release()
	if err := t.f.Truncate(t.preSize); err != nil {
		return arkierr.IO(err, "truncating segment back to %d bytes", t.preSize)
	}
	return nil
}

func (t *appendTxn) release() {
	if t.rolledBk {
		return
	}
	t.rolledBk = true
	syscall.Flock(int(t.f.Fd()), syscall.LOCK_UN)
	t.f.Close()
	t.w.mu.Unlock()
}

