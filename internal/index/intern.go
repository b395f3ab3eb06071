package index

import (
	"bytes"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/arkimet-go/arkimet/pkg/types"
)

// attrCache memoizes (code, canonical payload)→id and (code, id)→item
// so repeated inserts/queries of a recurring attribute value (spec
// §4.4: "An in-process LRU cache maps (type, payload)→id and
// id→item") don't round-trip to sub_<typename> on every hit.
type attrCache struct {
	byPayload *lru.Cache[string, int64]
	byID      *lru.Cache[int64, types.Item]
}

func newAttrCache(size int) *attrCache {
	if size <= 0 {
		size = 4096
	}
	byPayload, _ := lru.New[string, int64](size)
	byID, _ := lru.New[int64, types.Item](size)
	return &attrCache{byPayload: byPayload, byID: byID}
}

func payloadKey(code types.Code, item types.Item) string {
	var buf bytes.Buffer
	buf.WriteByte(byte(code))
	item.EncodeBinary(&buf)
	return buf.String()
}

func (c *attrCache) lookupID(code types.Code, item types.Item) (int64, bool) {
	id, ok := c.byPayload.Get(payloadKey(code, item))
	return id, ok
}

func (c *attrCache) put(code types.Code, item types.Item, id int64) {
	c.byPayload.Add(payloadKey(code, item), id)
	c.byID.Add(id, item)
}

func (c *attrCache) lookupItem(id int64) (types.Item, bool) {
	it, ok := c.byID.Get(id)
	return it, ok
}
