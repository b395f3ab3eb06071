package dataset

import (
	"path/filepath"

	"github.com/arkimet-go/arkimet/internal/arkierr"
	"github.com/arkimet-go/arkimet/internal/segment"
	"github.com/arkimet-go/arkimet/internal/txn"
	"github.com/arkimet-go/arkimet/pkg/matcher"
	"github.com/arkimet-go/arkimet/pkg/metadata"
)

// fileDataset is the "file" kind: wraps one external data file as a
// read-only dataset, scanning it once on open (spec §4.5: "wraps a
// single external data file as a read-only dataset; scans on open").
type fileDataset struct {
	name    string
	dirname string
	relpath string

	records []*metadata.Metadata
	reader  *segment.Reader
}

func newFileDataset(cfg Config) (Dataset, error) {
	if cfg.Path == "" {
		return nil, arkierr.Consistency("dataset %q: missing path", cfg.Name)
	}
	if cfg.Format == "" {
		return nil, arkierr.Consistency("dataset %q: file dataset requires a format", cfg.Name)
	}
	scan, err := scannerFor(cfg.Format)
	if err != nil {
		return nil, err
	}

	dirname, relpath := filepath.Split(cfg.Path)
	declared, err := segment.Rescan(dirname, relpath, scan)
	if err != nil {
		return nil, err
	}

	records := make([]*metadata.Metadata, 0, len(declared))
	for _, rec := range declared {
		rec.Metadata.SetSource(metadata.SourceBlob{
			DataFormat: cfg.Format, Root: dirname, Relpath: relpath,
			Offset: rec.Offset, Size: rec.Size,
		})
		records = append(records, rec.Metadata)
	}

	reader, err := segment.OpenReader(segment.NewFDCache(1), dirname, relpath)
	if err != nil {
		return nil, err
	}

	return &fileDataset{
		name:    cfg.Name,
		dirname: dirname,
		relpath: relpath,
		records: records,
		reader:  reader,
	}, nil
}

func (d *fileDataset) Name() string   { return d.name }
func (d *fileDataset) Kind() string   { return "file" }
func (d *fileDataset) Writable() bool { return false }
func (d *fileDataset) Queryable() bool { return true }

func (d *fileDataset) Acquire(md *metadata.Metadata, payload []byte) (*txn.Pending, error) {
	return nil, notSupported("file", "acquire")
}

func (d *fileDataset) Query(mtr *matcher.Matcher) ([]*metadata.Metadata, error) {
	var out []*metadata.Metadata
	for _, md := range d.records {
		if mtr == nil || mtr.Matches(md) {
			out = append(out, md)
		}
	}
	return out, nil
}

func (d *fileDataset) QuerySummary(mtr *matcher.Matcher) (*metadata.Summary, error) {
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

func (d *fileDataset) ReadData(md *metadata.Metadata) ([]byte, error) {
	src, ok := md.Source().(metadata.SourceBlob)
	if !ok {
		return nil, arkierr.Consistency("read_data requires a Blob source, got %T", md.Source())
	}
	return d.reader.ReadAt(src.Offset, src.Size)
}
