package index

import (
	"github.com/arkimet-go/arkimet/internal/arkierr"
	"github.com/arkimet-go/arkimet/pkg/log"
	"github.com/arkimet-go/arkimet/pkg/matcher"
	"github.com/arkimet-go/arkimet/pkg/metadata"
)

// ProduceNth implements thinning queries (spec §4.4 produce_nth): for
// every distinct indexed-attribute aggregate (the same grouping
// mduniq uses), it emits only the n-th chronological row, dropping the
// rest. n is 1-based; n=1 is the first (oldest) element of each group.
// Grouping is done in Go rather than with a SQL window function, to
// stay portable across sqlite3 builds without window-function support.
func (ix *Index) ProduceNth(mtr *matcher.Matcher, n int) ([]*metadata.Metadata, error) {
	if n < 1 {
		return nil, arkierr.Consistency("produce_nth requires n >= 1, got %d", n)
	}

	rows, err := ix.allRowsGroupedByAggregate(mtr)
	if err != nil {
		return nil, err
	}

	var out []*metadata.Metadata
	for _, group := range rows {
		if n > len(group) {
			continue
		}
		out = append(out, group[n-1])
	}
	return out, nil
}

// allRowsGroupedByAggregate runs mtr (if any) and buckets the resulting
// rows by their indexed-attribute combination, each bucket kept in
// reftime order (the order Query already returns).
func (ix *Index) allRowsGroupedByAggregate(mtr *matcher.Matcher) ([][]*metadata.Metadata, error) {
	mds, err := ix.Query(mtr)
	if err != nil {
		return nil, err
	}

	order := make([]string, 0)
	groups := make(map[string][]*metadata.Metadata)
	for _, md := range mds {
		key := ix.aggregateKey(md)
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], md)
	}

	out := make([][]*metadata.Metadata, 0, len(order))
	for _, key := range order {
		out = append(out, groups[key])
	}
	return out, nil
}

// aggregateKey renders md's indexed-attribute combination as a string
// usable as a map key, mirroring the mduniq row it belongs to.
func (ix *Index) aggregateKey(md *metadata.Metadata) string {
	var key string
	for _, code := range ix.indexedCodes {
		item, ok := md.Get(code)
		if !ok {
			log.Warnf("produce_nth: metadata missing indexed attribute %s", code)
			continue
		}
		key += code.String() + "=" + item.String() + ";"
	}
	return key
}
