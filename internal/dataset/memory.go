package dataset

import (
	"sync"

	"github.com/arkimet-go/arkimet/internal/arkierr"
	"github.com/arkimet-go/arkimet/internal/txn"
	"github.com/arkimet-go/arkimet/pkg/matcher"
	"github.com/arkimet-go/arkimet/pkg/metadata"
	"github.com/arkimet-go/arkimet/pkg/types"
)

// memoryDataset is the "memory" kind: an in-RAM scratch dataset (spec
// §4.5: "in-RAM collection used as a scratch dataset"), with no
// sidecar files or SQLite index — just an ordered slice of records
// held for the process's lifetime.
type memoryDataset struct {
	name string

	mu       sync.Mutex
	records  []*metadata.Metadata
	payloads [][]byte
}

const memoryRoot = "memory"

func newMemoryDataset(cfg Config) Dataset {
	return &memoryDataset{name: cfg.Name}
}

func (d *memoryDataset) Name() string   { return d.name }
func (d *memoryDataset) Kind() string   { return "memory" }
func (d *memoryDataset) Writable() bool { return true }
func (d *memoryDataset) Queryable() bool { return true }

// Acquire appends md+payload to the in-memory slice and stamps
// ASSIGNEDDATASET with the record's index; there is no rollback path
// worth a real Transaction, so the returned Pending is already
// effectively committed (the append happened synchronously).
func (d *memoryDataset) Acquire(md *metadata.Metadata, payload []byte) (*txn.Pending, error) {
	src := md.Source()
	if src == nil {
		return nil, arkierr.Consistency("metadata missing source")
	}
	d.mu.Lock()
	id := int64(len(d.records))
	md.SetSource(metadata.SourceBlob{DataFormat: src.Format(), Root: memoryRoot, Offset: uint64(id), Size: uint64(len(payload))})
	d.records = append(d.records, md)
	d.payloads = append(d.payloads, payload)
	d.mu.Unlock()

	md.Set(types.AssignedDatasetGeneric{Dataset: d.name, ID: types.DefinedInt(int(id))})
	return txn.New(), nil
}

func (d *memoryDataset) Query(mtr *matcher.Matcher) ([]*metadata.Metadata, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []*metadata.Metadata
	for _, md := range d.records {
		if mtr == nil || mtr.Matches(md) {
			out = append(out, md)
		}
	}
	return out, nil
}

func (d *memoryDataset) QuerySummary(mtr *matcher.Matcher) (*metadata.Summary, error) {
	mds, err := d.Query(mtr)
	if err != nil {
		return nil, err
	}
	s := metadata.NewSummary()
	for _, md := range mds {
		size := int64(0)
		if src, ok := md.Source().(metadata.SourceBlob); ok {
			size = int64(src.Size)
		}
		s.Add(md, size)
	}
	return s, nil
}

func (d *memoryDataset) ReadData(md *metadata.Metadata) ([]byte, error) {
	src, ok := md.Source().(metadata.SourceBlob)
	if !ok || src.Root != memoryRoot {
		return nil, arkierr.Consistency("read_data: not a memory-dataset source")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if src.Offset >= uint64(len(d.payloads)) {
		return nil, arkierr.ErrNotFound
	}
	return d.payloads[src.Offset], nil
}
