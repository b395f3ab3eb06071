package maintenance

import (
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/arkimet-go/arkimet/internal/dataset"
	"github.com/arkimet-go/arkimet/internal/segment"
	"github.com/arkimet-go/arkimet/pkg/log"
	"github.com/arkimet-go/arkimet/pkg/types"
)

// segmentFile is one segment discovered by a sweep, whether or not the
// index already knows about it.
type segmentFile struct {
	relpath  string
	declared []segment.DeclaredRecord // nil for an UNINDEXED segment
}

// discover lists every segment Run should visit: every relpath the
// index declares, plus any data file on disk the index has no rows for
// at all (spec §4.7: "re-add to index if missing-from-index").
func discover(ds dataset.Maintainable) ([]segmentFile, error) {
	known, err := ds.Segments()
	if err != nil {
		return nil, err
	}

	out := make([]segmentFile, 0, len(known))
	knownSet := make(map[string]bool, len(known))
	for _, relpath := range known {
		knownSet[relpath] = true
		declared, err := ds.DeclaredRecords(relpath)
		if err != nil {
			return nil, err
		}
		out = append(out, segmentFile{relpath: relpath, declared: declared})
	}

	orphans, err := discoverOrphans(ds.Root(), knownSet)
	if err != nil {
		log.Warnf("maintenance: scanning %s for unindexed segments: %v", ds.Name(), err)
		return out, nil
	}
	for _, relpath := range orphans {
		out = append(out, segmentFile{relpath: relpath})
	}
	return out, nil
}

// discoverOrphans walks root for data files that aren't in known,
// skipping the index database, its sidecars, the summary cache and
// the archive hierarchy (archived segments are not visited again).
func discoverOrphans(root string, known map[string]bool) ([]string, error) {
	var orphans []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".archive" || d.Name() == ".summaries" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if isSidecarOrIndex(rel) || known[rel] {
			return nil
		}
		orphans = append(orphans, rel)
		return nil
	})
	return orphans, err
}

func isSidecarOrIndex(relpath string) bool {
	base := filepath.Base(relpath)
	switch {
	case base == "index.sqlite" || strings.HasPrefix(base, "index.sqlite-"):
		return true
	case strings.HasSuffix(relpath, ".metadata"), strings.HasSuffix(relpath, ".summary"),
		strings.HasSuffix(relpath, ".tmp"), strings.HasSuffix(relpath, ".repack.tmp"):
		return true
	}
	return false
}

// checkState computes seg's FileState: disk-vs-index consistency via
// segment.Check, plus ARCHIVE_AGE/DELETE_AGE for ondisk2-kind datasets
// whose thresholds are configured (spec §4.7).
func checkState(ds dataset.Maintainable, seg segmentFile, now time.Time) segment.FileState {
	if seg.declared == nil {
		return segment.UNINDEXED
	}
	state := segment.Check(ds.Root(), seg.relpath, seg.declared, -1)
	if arc, ok := ds.(dataset.ArchivableOndisk2); ok {
		state |= ageBits(seg.declared, now, arc)
	}
	return state
}

func ageBits(declared []segment.DeclaredRecord, now time.Time, arc dataset.ArchivableOndisk2) segment.FileState {
	end, ok := latestReftimeEnd(declared)
	if !ok {
		return 0
	}
	ageDays := int(now.Sub(end).Hours() / 24)

	var state segment.FileState
	if arc.ArchiveAge() > 0 && ageDays >= arc.ArchiveAge() {
		state |= segment.ARCHIVE_AGE
	}
	if arc.DeleteAge() > 0 && ageDays >= arc.DeleteAge() {
		state |= segment.DELETE_AGE
	}
	return state
}

// latestReftimeEnd returns the latest reftime interval end across
// declared, the instant a segment's age is measured from.
func latestReftimeEnd(declared []segment.DeclaredRecord) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, rec := range declared {
		item, ok := rec.Metadata.Get(types.CodeReftime)
		if !ok {
			continue
		}
		_, end, ok := types.Interval(item)
		if !ok {
			continue
		}
		if !found || end.After(latest) {
			latest, found = end, true
		}
	}
	return latest, found
}
