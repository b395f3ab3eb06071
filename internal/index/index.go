package index

import (
	"bytes"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/singleflight"

	"github.com/arkimet-go/arkimet/internal/arkierr"
	"github.com/arkimet-go/arkimet/pkg/metadata"
	"github.com/arkimet-go/arkimet/pkg/types"
)

// Index is one dataset's SQLite-backed index (spec §4.4): per-attribute
// sub-indices, an aggregate table over the indexed attribute
// combination, and a content table with one row per datum.
type Index struct {
	db           *sqlx.DB
	stmtCache    *sq.StmtCache
	dsroot       string
	indexedCodes []types.Code
	caches       map[types.Code]*attrCache
	cacheSize    int
	summaryGroup singleflight.Group
}

// Options configures Open.
type Options struct {
	IndexedCodes   []types.Code // defaults to metadata.IndexedCodes
	CacheSizePages int          // sqlite PRAGMA cache_size, in pages; default 2000
	AttrCacheSize  int          // per-type LRU entries; default 4096
}

// Open opens (creating if necessary) the SQLite index at path.
func Open(path string, opts Options) (*Index, error) {
	indexedCodes := opts.IndexedCodes
	if len(indexedCodes) == 0 {
		indexedCodes = metadata.IndexedCodes
	}
	cacheSizePages := opts.CacheSizePages
	if cacheSizePages <= 0 {
		cacheSizePages = 2000
	}

	db, err := openDB(path, cacheSizePages)
	if err != nil {
		return nil, err
	}
	if err := createSchema(db, indexedCodes); err != nil {
		db.Close()
		return nil, err
	}

	caches := make(map[types.Code]*attrCache, len(indexedCodes))
	for _, code := range indexedCodes {
		caches[code] = newAttrCache(opts.AttrCacheSize)
	}

	return &Index{
		db:           db,
		stmtCache:    newStmtCache(db),
		dsroot:       filepath.Dir(path),
		indexedCodes: indexedCodes,
		caches:       caches,
		cacheSize:    opts.AttrCacheSize,
	}, nil
}

func (ix *Index) Close() error {
	return ix.db.Close()
}

// IndexedCodes returns the attribute codes this index aggregates on.
func (ix *Index) IndexedCodes() []types.Code {
	return append([]types.Code(nil), ix.indexedCodes...)
}

// internAttr interns item within tx, inserting a fresh sub_<typename>
// row on first sight, and returns its id.
func (ix *Index) internAttr(tx *sqlx.Tx, code types.Code, item types.Item) (int64, error) {
	if id, ok := ix.caches[code].lookupID(code, item); ok {
		return id, nil
	}
	var buf bytes.Buffer
	item.EncodeBinary(&buf)
	payload := buf.Bytes()
	table := subTableFor(code)

	var id int64
	err := tx.Get(&id, `SELECT id FROM `+table+` WHERE data = ?`, payload)
	if err == nil {
		ix.caches[code].put(code, item, id)
		return id, nil
	}

	res, err := tx.Exec(`INSERT OR IGNORE INTO `+table+` (data) VALUES (?)`, payload)
	if err != nil {
		return 0, arkierr.IO(err, "interning into %s", table)
	}
	id, err = res.LastInsertId()
	if err != nil || id == 0 {
		if err := tx.Get(&id, `SELECT id FROM `+table+` WHERE data = ?`, payload); err != nil {
			return 0, arkierr.IO(err, "resolving interned id in %s", table)
		}
	}
	ix.caches[code].put(code, item, id)
	return id, nil
}

// attrItem resolves id back to its Item for code, first via cache,
// else by a sub_<typename> lookup and binary decode.
func (ix *Index) attrItem(tx txQueryer, code types.Code, id int64) (types.Item, error) {
	if it, ok := ix.caches[code].lookupItem(id); ok {
		return it, nil
	}
	var payload []byte
	if err := tx.Get(&payload, `SELECT data FROM `+subTableFor(code)+` WHERE id = ?`, id); err != nil {
		return nil, arkierr.IO(err, "resolving %s id %d", subTableFor(code), id)
	}
	item, err := types.DecodeBinary(code, payload)
	if err != nil {
		return nil, err
	}
	item = types.Intern(item)
	ix.caches[code].put(code, item, id)
	return item, nil
}

// txQueryer is the subset of sqlx.Tx/sqlx.DB used by attrItem, letting
// query-path reads run either inside or outside an explicit
// transaction.
type txQueryer interface {
	Get(dest interface{}, query string, args ...interface{}) error
}
