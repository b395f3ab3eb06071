package dataset

import (
	"github.com/arkimet-go/arkimet/internal/txn"
	"github.com/arkimet-go/arkimet/pkg/matcher"
	"github.com/arkimet-go/arkimet/pkg/metadata"
)

// MergedDataset is the "merged" kind (spec §4.5): a read-only union of
// several already-open datasets, deduplicated by Metadata identity
// (same Source) and with summaries merged across members. Unlike
// every other kind it isn't built from a single `[name]` config
// section — a dataset pool assembles it from already-open members once
// their own sections have resolved.
type MergedDataset struct {
	name    string
	members []Dataset
}

// NewMerged builds a MergedDataset named name over members, in the
// order they should be queried (and the order identity-collisions are
// resolved in favor of: the earliest member wins).
func NewMerged(name string, members []Dataset) *MergedDataset {
	return &MergedDataset{name: name, members: members}
}

func (d *MergedDataset) Name() string    { return d.name }
func (d *MergedDataset) Kind() string    { return "merged" }
func (d *MergedDataset) Writable() bool  { return false }
func (d *MergedDataset) Queryable() bool { return true }

func (d *MergedDataset) Acquire(md *metadata.Metadata, payload []byte) (*txn.Pending, error) {
	return nil, notSupported("merged", "acquire")
}

// Query fans out to every member and deduplicates by Source identity
// (two records pointing at the same file+offset are the same datum,
// even if surfaced through two overlapping member datasets).
func (d *MergedDataset) Query(mtr *matcher.Matcher) ([]*metadata.Metadata, error) {
	seen := make(map[string]bool)
	var out []*metadata.Metadata
	for _, member := range d.members {
		mds, err := member.Query(mtr)
		if err != nil {
			return nil, err
		}
		for _, md := range mds {
			key := md.Source().String()
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, md)
		}
	}
	return out, nil
}

// QuerySummary merges every member's summary for mtr (spec: "merged
// summaries").
func (d *MergedDataset) QuerySummary(mtr *matcher.Matcher) (*metadata.Summary, error) {
	out := metadata.NewSummary()
	for _, member := range d.members {
		s, err := member.QuerySummary(mtr)
		if err != nil {
			return nil, err
		}
		if err := out.Merge(s); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ReadData delegates to whichever member can resolve md's Source;
// since Source carries no back-reference to its owning dataset, every
// member is tried in order and the first successful read wins.
func (d *MergedDataset) ReadData(md *metadata.Metadata) ([]byte, error) {
	var firstErr error
	for _, member := range d.members {
		data, err := member.ReadData(md)
		if err == nil {
			return data, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}
