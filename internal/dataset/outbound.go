package dataset

import (
	"github.com/arkimet-go/arkimet/internal/arkierr"
	"github.com/arkimet-go/arkimet/internal/segment"
	"github.com/arkimet-go/arkimet/internal/txn"
	"github.com/arkimet-go/arkimet/pkg/matcher"
	"github.com/arkimet-go/arkimet/pkg/metadata"
	"github.com/arkimet-go/arkimet/pkg/types"
)

// outboundDataset is the "outbound" kind: write-only, stores data on
// disk via the same segment machinery as a local dataset but never
// indexes it, so it cannot be queried (spec §4.5: "stores data but
// does not index and cannot be queried").
type outboundDataset struct {
	name  string
	local *localDataset // reused for its Writer pool and targetRelpath logic only
}

func newOutboundDataset(cfg Config) (Dataset, error) {
	if cfg.Path == "" {
		return nil, arkierr.Consistency("dataset %q: missing path", cfg.Name)
	}
	step, err := ParseStep(cfg.Step)
	if err != nil {
		return nil, err
	}
	return &outboundDataset{
		name: cfg.Name,
		local: &localDataset{
			name:    cfg.Name,
			kind:    "outbound",
			path:    cfg.Path,
			step:    step,
			writers: make(map[string]*segment.Writer),
		},
	}, nil
}

func (d *outboundDataset) Name() string   { return d.name }
func (d *outboundDataset) Kind() string   { return "outbound" }
func (d *outboundDataset) Writable() bool { return true }
func (d *outboundDataset) Queryable() bool { return false }

// Acquire appends payload to the target segment and stamps
// ASSIGNEDDATASET with no id (outbound has no content table row to
// reference), returning a Pending over the segment append alone.
func (d *outboundDataset) Acquire(md *metadata.Metadata, payload []byte) (*txn.Pending, error) {
	dataFormat, relpath, err := d.local.targetRelpath(md)
	if err != nil {
		return nil, err
	}
	w := d.local.writerFor(dataFormat, relpath)
	segTxn, err := w.Append(md, payload)
	if err != nil {
		return nil, err
	}
	md.Set(types.AssignedDatasetGeneric{Dataset: d.name, ID: types.Undefined})

	p := txn.New()
	p.Add("segment", segTxn)
	return p, nil
}

func (d *outboundDataset) Query(mtr *matcher.Matcher) ([]*metadata.Metadata, error) {
	return nil, notSupported("outbound", "query")
}

func (d *outboundDataset) QuerySummary(mtr *matcher.Matcher) (*metadata.Summary, error) {
	return nil, notSupported("outbound", "query_summary")
}

func (d *outboundDataset) ReadData(md *metadata.Metadata) ([]byte, error) {
	return nil, notSupported("outbound", "read_data")
}
