package segment

import (
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/arkimet-go/arkimet/internal/arkierr"
	"github.com/arkimet-go/arkimet/internal/segment/iotrace"
)

// DefaultFDCacheSize is the reader contract's default open-segment
// cache size (spec §4.3: "cache size configurable, default 64").
const DefaultFDCacheSize = 64

// FDCache is a process-wide (or pool-wide) LRU of open segment file
// descriptors, shared by every Reader so repeated queries against the
// same segment don't reopen it (spec §4.3 reader contract).
type FDCache struct {
	mu    sync.Mutex
	cache *lru.Cache[string, *os.File]
}

func NewFDCache(size int) *FDCache {
	if size <= 0 {
		size = DefaultFDCacheSize
	}
	c, _ := lru.NewWithEvict[string, *os.File](size, func(_ string, f *os.File) {
		f.Close()
	})
	return &FDCache{cache: c}
}

func (c *FDCache) open(path string) (*os.File, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.cache.Get(path); ok {
		return f, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	c.cache.Add(path, f)
	return f, nil
}

// Drop closes and evicts path's cached descriptor, required before a
// segment is rewritten or unlinked (spec §3: Source lifecycle note
// "the core caches recently used segment file descriptors and must
// drop them before the segments are modified or unlinked").
func (c *FDCache) Drop(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Remove(path)
}

// Reader implements the positional, stateless read contract of spec
// §4.3: one data file (or its `.gz` compressed form) opened once via
// the shared FDCache, read by byte range.
type Reader struct {
	cache      *FDCache
	path       string
	compressed bool
	gzIdx      []gzIndexEntry
	counters   iotrace.Counters
	lastOffset uint64
}

// OpenReader opens the segment at dirname/relpath for reading,
// preferring the `.gz` compressed form if present.
func OpenReader(cache *FDCache, dirname, relpath string) (*Reader, error) {
	path := filepath.Join(dirname, relpath)
	if _, err := os.Stat(path + ".gz"); err == nil {
		idx, err := readGzIndex(path + ".gz.idx")
		if err != nil {
			return nil, err
		}
		return &Reader{cache: cache, path: path + ".gz", compressed: true, gzIdx: idx}, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, arkierr.IO(err, "segment %s is missing", path)
	}
	return &Reader{cache: cache, path: path}, nil
}

// ReadAt returns the size bytes at [offset, offset+size) within the
// segment's decompressed content.
func (r *Reader) ReadAt(offset, size uint64) ([]byte, error) {
	if offset > r.lastOffset {
		r.counters.AddForwardSeek(offset - r.lastOffset)
	}
	if offset != r.lastOffset {
		r.counters.AddBlockReposition()
	}
	r.lastOffset = offset + size

	var out []byte
	var err error
	if r.compressed {
		out, err = readCompressedRange(r.path, r.gzIdx, offset, size)
	} else {
		f, openErr := r.cache.open(r.path)
		if openErr != nil {
			return nil, arkierr.IO(openErr, "opening segment %s", r.path)
		}
		buf := make([]byte, size)
		_, err = f.ReadAt(buf, int64(offset))
		out = buf
	}
	if err != nil {
		return nil, arkierr.IO(err, "reading [%d,%d) from %s", offset, offset+size, r.path)
	}
	r.counters.AddBytesRead(int64(len(out)))
	return out, nil
}

// Counters exposes the accounting counters for testability (spec
// §4.3).
func (r *Reader) Counters() *iotrace.Counters { return &r.counters }

// Close drops this reader's cached descriptor eagerly; harmless to
// skip since the FDCache will evict it on its own LRU policy.
func (r *Reader) Close() {
	if !r.compressed {
		r.cache.Drop(r.path)
	}
}
