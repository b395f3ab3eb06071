package dataset

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/arkimet-go/arkimet/internal/arkierr"
	"github.com/arkimet-go/arkimet/internal/index"
	"github.com/arkimet-go/arkimet/internal/segment"
	"github.com/arkimet-go/arkimet/internal/txn"
	"github.com/arkimet-go/arkimet/pkg/matcher"
	"github.com/arkimet-go/arkimet/pkg/metadata"
	"github.com/arkimet-go/arkimet/pkg/types"
)

// localDataset implements the iseg/simple kinds (spec §4.5): a local
// on-disk dataset with one segment per time step, a shared SQLite
// index, and a "target file" function (Step.TargetRelpath) mapping a
// datum's reftime to the segment it belongs to.
type localDataset struct {
	name    string
	kind    string
	path    string
	step    Step
	replace bool

	ix      *index.Index
	fdCache *segment.FDCache

	mu      sync.Mutex
	writers map[string]*segment.Writer
}

func parseIndexedCodes(names []string) ([]types.Code, error) {
	if len(names) == 0 {
		return nil, nil
	}
	codes := make([]types.Code, 0, len(names))
	for _, name := range names {
		code, ok := types.ParseCode(name)
		if !ok {
			return nil, arkierr.Consistency("unknown index attribute %q", name)
		}
		codes = append(codes, code)
	}
	return codes, nil
}

func newLocalDataset(cfg Config) (Dataset, error) {
	if cfg.Path == "" {
		return nil, arkierr.Consistency("dataset %q: missing path", cfg.Name)
	}
	step, err := ParseStep(cfg.Step)
	if err != nil {
		return nil, err
	}
	indexedCodes, err := parseIndexedCodes(cfg.Index)
	if err != nil {
		return nil, err
	}

	ix, err := index.Open(filepath.Join(cfg.Path, "index.sqlite"), index.Options{
		IndexedCodes:   indexedCodes,
		CacheSizePages: IndexCachePages,
	})
	if err != nil {
		return nil, err
	}

	kind := cfg.Type
	if kind == "" {
		kind = "iseg"
	}
	return &localDataset{
		name:    cfg.Name,
		kind:    kind,
		path:    cfg.Path,
		step:    step,
		replace: cfg.Replace,
		ix:      ix,
		fdCache: segment.NewFDCache(FDCacheSize),
		writers: make(map[string]*segment.Writer),
	}, nil
}

// FDCacheSize and IndexCachePages are process-wide defaults a runtime
// config can override at startup (internal/config's RuntimeConfig),
// before any dataset.Open call — every local/ondisk2 dataset opened
// afterwards picks them up.
var (
	FDCacheSize     = segment.DefaultFDCacheSize
	IndexCachePages = 0 // 0 keeps index.Open's own default (2000 pages)
)

func (d *localDataset) Name() string { return d.name }
func (d *localDataset) Kind() string { return d.kind }

func (d *localDataset) Writable() bool  { return true }
func (d *localDataset) Queryable() bool { return true }

// writerFor returns the shared Writer for relpath, creating it on
// first use; one Writer per segment path serialises concurrent
// acquires targeting the same segment (spec §4.3: "one Writer
// serialises all appends to its segment").
func (d *localDataset) writerFor(format, relpath string) *segment.Writer {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, ok := d.writers[relpath]
	if !ok {
		w = segment.NewWriter(format, d.path, relpath)
		d.writers[relpath] = w
	}
	return w
}

// targetRelpath resolves md's reftime to a segment path via the
// dataset's step, with an extension named after md's data format.
func (d *localDataset) targetRelpath(md *metadata.Metadata) (string, string, error) {
	reftimeItem, ok := md.Get(types.CodeReftime)
	if !ok {
		return "", "", arkierr.Consistency("metadata missing reftime")
	}
	begin, _, ok := types.Interval(reftimeItem)
	if !ok || begin.IsZero() {
		begin = time.Now().UTC()
	}
	format := md.Source()
	if format == nil {
		return "", "", arkierr.Consistency("metadata missing source")
	}
	dataFormat := format.Format()
	return dataFormat, d.step.TargetRelpath(begin, dataFormat), nil
}

// Acquire stages md+payload for storage: it opens an index
// transaction, reserves the target segment's append offset (which
// also sets md's Source so the index insert sees real coordinates),
// runs the content-row insert inside the still-open index transaction,
// stamps md's ASSIGNEDDATASET with the resulting row id, and returns a
// Pending committing segment then index (spec §4.4). A duplicate
// surfaces here as the index insert's DuplicateError; the dataset's
// replace setting is not consulted, so a duplicate is never
// overwritten. On DuplicateError the caller is expected to retry
// acquire against the next matching dataset per §4.6, so Acquire
// itself never retries.
func (d *localDataset) Acquire(md *metadata.Metadata, payload []byte) (*txn.Pending, error) {
	dataFormat, relpath, err := d.targetRelpath(md)
	if err != nil {
		return nil, err
	}

	idxTxn, tx, err := d.ix.Begin()
	if err != nil {
		return nil, err
	}

	w := d.writerFor(dataFormat, relpath)
	segTxn, err := w.Append(md, payload)
	if err != nil {
		idxTxn.Rollback()
		return nil, err
	}

	id, err := d.ix.Insert(tx, md)
	if err != nil {
		segTxn.Rollback()
		idxTxn.Rollback()
		return nil, err
	}
	md.Set(types.AssignedDatasetGeneric{Dataset: d.name, ID: types.DefinedInt(int(id))})

	p := txn.New()
	p.Add("segment", segTxn)
	p.Add("index", idxTxn)
	return p, nil
}

func (d *localDataset) Query(mtr *matcher.Matcher) ([]*metadata.Metadata, error) {
	return d.ix.Query(mtr)
}

func (d *localDataset) QuerySummary(mtr *matcher.Matcher) (*metadata.Summary, error) {
	return d.ix.QuerySummary(mtr)
}

func (d *localDataset) ReadData(md *metadata.Metadata) ([]byte, error) {
	src, ok := md.Source().(metadata.SourceBlob)
	if !ok {
		return nil, arkierr.Consistency("read_data requires a Blob source, got %T", md.Source())
	}
	r, err := segment.OpenReader(d.fdCache, d.path, src.Relpath)
	if err != nil {
		return nil, err
	}
	return r.ReadAt(src.Offset, src.Size)
}

// Root returns the dataset's filesystem root, for maintenance to join
// against segment relpaths.
func (d *localDataset) Root() string { return d.path }

// FDCache exposes the dataset's reader cache so maintenance can reuse
// it for Repack instead of opening its own descriptors.
func (d *localDataset) FDCache() *segment.FDCache { return d.fdCache }

// Segments lists every segment relpath the index currently references
// (spec §4.7: maintenance "is invoked per segment").
func (d *localDataset) Segments() ([]string, error) {
	return d.ix.Files()
}

// DeclaredRecords returns the index's view of what relpath should
// contain, in offset order, for segment.Check/Repack to compare
// against the file on disk.
func (d *localDataset) DeclaredRecords(relpath string) ([]segment.DeclaredRecord, error) {
	recs, err := d.ix.RecordsForFile(relpath)
	if err != nil {
		return nil, err
	}
	out := make([]segment.DeclaredRecord, len(recs))
	for i, r := range recs {
		out[i] = segment.DeclaredRecord{Offset: r.Offset, Size: r.Size, Metadata: r.Metadata}
	}
	return out, nil
}

// ScannerFor resolves the registered segment.Scanner for format, for
// maintenance to drive a Rescan.
func (d *localDataset) ScannerFor(format string) (segment.Scanner, error) {
	return scannerFor(format)
}

// Reconcile replaces relpath's content rows wholesale with declared —
// rescan and repack both re-derive the segment's true contents from
// scratch, so the old rows (possibly stale offsets, possibly none)
// are discarded rather than merged (spec §4.7). format is stamped onto
// every declared record's Source; a freshly-scanned record from
// segment.Rescan carries no Source of its own yet, so the caller (which
// already knows which scanner it invoked) supplies it explicitly
// rather than Reconcile guessing at one record's possibly-absent Source.
func (d *localDataset) Reconcile(relpath, format string, declared []segment.DeclaredRecord) error {
	idxTxn, tx, err := d.ix.Begin()
	if err != nil {
		return err
	}
	if err := d.ix.DeleteFile(tx, relpath); err != nil {
		idxTxn.Rollback()
		return err
	}
	for _, rec := range declared {
		rec.Metadata.SetSource(metadata.SourceBlob{
			DataFormat: format, Relpath: relpath, Offset: rec.Offset, Size: rec.Size,
		})
		if _, err := d.ix.Insert(tx, rec.Metadata); err != nil {
			idxTxn.Rollback()
			return err
		}
	}
	return idxTxn.Commit()
}

// RemoveSegment drops every content row for relpath and unlinks the
// segment itself (spec §4.7 DELETE_AGE, and the "missing from disk"
// reconciliation FullMaintenance performs).
func (d *localDataset) RemoveSegment(relpath string) error {
	idxTxn, tx, err := d.ix.Begin()
	if err != nil {
		return err
	}
	if err := d.ix.DeleteFile(tx, relpath); err != nil {
		idxTxn.Rollback()
		return err
	}
	if err := idxTxn.Commit(); err != nil {
		return err
	}
	d.fdCache.Drop(filepath.Join(d.path, relpath))
	if err := os.Remove(filepath.Join(d.path, relpath)); err != nil && !os.IsNotExist(err) {
		return arkierr.IO(err, "removing segment %s", relpath)
	}
	for _, suffix := range []string{".metadata", ".summary"} {
		os.Remove(filepath.Join(d.path, relpath+suffix))
	}
	return nil
}
