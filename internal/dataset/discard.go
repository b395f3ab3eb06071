package dataset

import (
	"github.com/arkimet-go/arkimet/internal/txn"
	"github.com/arkimet-go/arkimet/pkg/matcher"
	"github.com/arkimet-go/arkimet/pkg/metadata"
	"github.com/arkimet-go/arkimet/pkg/types"
)

// discardDataset is the "discard" kind: a pure sink, always reporting
// success without storing anything (spec §4.5: "returns success
// without storing").
type discardDataset struct {
	name string
}

func newDiscardDataset(cfg Config) Dataset {
	return &discardDataset{name: cfg.Name}
}

func (d *discardDataset) Name() string   { return d.name }
func (d *discardDataset) Kind() string   { return "discard" }
func (d *discardDataset) Writable() bool { return true }
func (d *discardDataset) Queryable() bool { return false }

func (d *discardDataset) Acquire(md *metadata.Metadata, payload []byte) (*txn.Pending, error) {
	md.Set(types.AssignedDatasetGeneric{Dataset: d.name, ID: types.Undefined})
	return txn.New(), nil
}

func (d *discardDataset) Query(mtr *matcher.Matcher) ([]*metadata.Metadata, error) {
	return nil, nil
}

func (d *discardDataset) QuerySummary(mtr *matcher.Matcher) (*metadata.Summary, error) {
	return metadata.NewSummary(), nil
}

func (d *discardDataset) ReadData(md *metadata.Metadata) ([]byte, error) {
	return nil, notSupported("discard", "read_data")
}
