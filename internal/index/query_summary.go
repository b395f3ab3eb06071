package index

import (
	"bytes"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/arkimet-go/arkimet/internal/arkierr"
	"github.com/arkimet-go/arkimet/pkg/log"
	"github.com/arkimet-go/arkimet/pkg/matcher"
	"github.com/arkimet-go/arkimet/pkg/metadata"
)

const monthLayout = "2006-01"

// QuerySummary answers a summary query from the per-time-bucket cache
// on disk where possible (spec §4.4 query_summary: ".summaries/YYYY-MM.summary"
// and ".summaries/all.summary"), falling back to a direct aggregation
// over matching content rows when mtr carries clauses the monthly
// cache can't answer on its own (anything beyond a bare reftime
// range): the cached buckets hold the unfiltered summary for their
// month, so they can only serve time-only queries without risking a
// stale result for a query with additional non-time clauses.
func (ix *Index) QuerySummary(mtr *matcher.Matcher) (*metadata.Summary, error) {
	if mtr == nil || cacheableByTimeOnly(mtr) {
		return ix.cachedSummary(mtr)
	}
	mds, err := ix.Query(mtr)
	if err != nil {
		return nil, err
	}
	return summaryOf(ix, mds), nil
}

func cacheableByTimeOnly(mtr *matcher.Matcher) bool {
	clauses := mtr.Clauses()
	return len(clauses) == 0 || (len(clauses) == 1 && clauses[0] == "reftime")
}

func summaryOf(ix *Index, mds []*metadata.Metadata) *metadata.Summary {
	s := metadata.NewSummaryOver(ix.indexedCodes)
	for _, md := range mds {
		s.Add(md, int64(md.Source().(metadata.SourceBlob).Size))
	}
	return s
}

// cachedSummary serves mtr's (possibly unbounded) reftime range from
// monthly cache buckets, falling back to "all.summary" for an
// unbounded query.
func (ix *Index) cachedSummary(mtr *matcher.Matcher) (*metadata.Summary, error) {
	var lower, upper time.Time
	var ok bool
	if mtr != nil {
		lower, upper, ok = mtr.DateRange()
	}
	if !ok || (lower.IsZero() && upper.IsZero()) {
		return ix.allSummary()
	}

	months, err := ix.monthsWithData(lower, upper)
	if err != nil {
		return nil, err
	}

	out := metadata.NewSummaryOver(ix.indexedCodes)
	for _, month := range months {
		s, err := ix.monthSummary(month)
		if err != nil {
			return nil, err
		}
		if err := out.Merge(s); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// monthsWithData lists the distinct YYYY-MM buckets that contain at
// least one row whose reftime falls within [lower, upper] (both ends
// optional), so only buckets with real data get a cache file created
// (spec's "must create exactly the summary files 2007-07..2007-10").
func (ix *Index) monthsWithData(lower, upper time.Time) ([]string, error) {
	sqlStr := `SELECT DISTINCT substr(reftime, 1, 7) FROM md WHERE 1=1`
	var args []interface{}
	if !lower.IsZero() {
		sqlStr += ` AND reftime >= ?`
		args = append(args, lower.UTC().Format(time.RFC3339))
	}
	if !upper.IsZero() {
		sqlStr += ` AND reftime <= ?`
		args = append(args, upper.UTC().Format(time.RFC3339))
	}
	sqlStr += ` ORDER BY 1`

	var months []string
	if err := ix.db.Select(&months, sqlStr, args...); err != nil {
		return nil, arkierr.IO(err, "listing months with data")
	}
	return months, nil
}

// monthSummary loads or computes+caches the full (unfiltered) summary
// for one calendar month. Concurrent misses on the same month are
// collapsed into a single recompute via singleflight, since a summary
// cache miss is exactly the "many readers, one answer" shape
// singleflight targets.
func (ix *Index) monthSummary(month string) (*metadata.Summary, error) {
	path := ix.summaryCachePath(month + ".summary")
	if s, ok := ix.readSummaryCache(path); ok {
		return s, nil
	}

	v, err, _ := ix.summaryGroup.Do("month:"+month, func() (interface{}, error) {
		if s, ok := ix.readSummaryCache(path); ok {
			return s, nil
		}
		begin, err := time.Parse(monthLayout, month)
		if err != nil {
			return nil, arkierr.Format("invalid month bucket %q: %v", month, err)
		}
		end := begin.AddDate(0, 1, 0)

		mds, err := ix.queryReftimeRange(begin, end)
		if err != nil {
			return nil, err
		}
		s := summaryOf(ix, mds)
		ix.writeSummaryCache(path, s)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*metadata.Summary), nil
}

// allSummary loads or computes+caches the summary over the entire
// index (the ".summaries/all.summary" bucket), same singleflight
// dedup as monthSummary.
func (ix *Index) allSummary() (*metadata.Summary, error) {
	path := ix.summaryCachePath("all.summary")
	if s, ok := ix.readSummaryCache(path); ok {
		return s, nil
	}

	v, err, _ := ix.summaryGroup.Do("all", func() (interface{}, error) {
		if s, ok := ix.readSummaryCache(path); ok {
			return s, nil
		}
		mds, err := ix.Query(nil)
		if err != nil {
			return nil, err
		}
		s := summaryOf(ix, mds)
		ix.writeSummaryCache(path, s)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*metadata.Summary), nil
}

func (ix *Index) summaryCachePath(name string) string {
	return filepath.Join(ix.dsroot, ".summaries", name)
}

// invalidateSummaryCache drops the cached bucket reftime falls in,
// plus the unbounded "all" bucket, so neither can serve a stale answer
// after a row touching reftime is inserted or removed (spec §4.4:
// every mutation keeps the cache a pure function of current index
// content, never patched incrementally). reftime must already be in
// the same RFC3339-ish layout the `reftime` column stores.
func (ix *Index) invalidateSummaryCache(reftime string) {
	if len(reftime) >= len(monthLayout) {
		month := reftime[:len(monthLayout)]
		if err := os.Remove(ix.summaryCachePath(month + ".summary")); err != nil && !os.IsNotExist(err) {
			log.Warnf("invalidating summary cache for %s: %v", month, err)
		}
	}
	if err := os.Remove(ix.summaryCachePath("all.summary")); err != nil && !os.IsNotExist(err) {
		log.Warnf("invalidating summary cache: %v", err)
	}
}

func (ix *Index) readSummaryCache(path string) (*metadata.Summary, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	s, err := metadata.DecodeSummaryBinary(data)
	if err != nil {
		log.Warnf("discarding unreadable summary cache %s: %v", path, err)
		return nil, false
	}
	return s, true
}

func (ix *Index) writeSummaryCache(path string, s *metadata.Summary) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Warnf("creating summary cache dir for %s: %v", path, err)
		return
	}
	var buf bytes.Buffer
	s.EncodeBinary(&buf)
	if err := atomicWriteFile(path, buf.Bytes()); err != nil {
		log.Warnf("writing summary cache %s: %v", path, err)
	}
}

// atomicWriteFile writes data to path via a temp-file-then-rename, the
// same pattern internal/segment uses for its own sidecar files.
func atomicWriteFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return arkierr.IO(err, "writing temp file %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return arkierr.IO(err, "renaming %s to %s", tmp, path)
	}
	return nil
}

// queryReftimeRange fetches every row whose reftime falls in
// [begin, end), reconstructed the same way Query does.
func (ix *Index) queryReftimeRange(begin, end time.Time) ([]*metadata.Metadata, error) {
	query := sq.Select(ix.queryColumns()...).From("md").
		Where(sq.Expr("reftime >= ? AND reftime < ?",
			begin.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))).
		OrderBy("reftime ASC", "id ASC")
	rows, err := query.RunWith(ix.stmtCache).Query()
	if err != nil {
		return nil, arkierr.IO(err, "querying reftime range")
	}
	defer rows.Close()

	var out []*metadata.Metadata
	for rows.Next() {
		md, err := ix.scanRow(rows)
		if err != nil {
			log.Warnf("summary aggregation: skipping unreadable row: %v", err)
			continue
		}
		out = append(out, md)
	}
	return out, rows.Err()
}
