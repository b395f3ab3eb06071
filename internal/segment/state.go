// Package segment implements the append-only data segment: the pair
// of a data file (or, for "dir"-style segments, a directory of
// numbered members) plus its `.metadata` and `.summary` sidecars (spec
// §4.3).
package segment

// FileState is a bitset describing how a segment's on-disk contents
// relate to what the index believes it contains (spec §4.3). The
// single OK bit means segment and index agree exactly; every other bit
// names one specific way they can disagree, and more than one may be
// set at once (e.g. UNALIGNED|DIRTY).
type FileState uint16

const (
	// OK: segment contents and index agree exactly.
	OK FileState = 1 << iota
	// DIRTY: offsets out of order, elements missing, or trailing data
	// past the last declared record; needs repack.
	DIRTY
	// UNALIGNED: a declared range points outside file bounds, or a
	// quick-scan signature check at the declared offset fails; needs
	// rescan.
	UNALIGNED
	// MISSING: the file is absent.
	MISSING
	// DELETED: the segment was removed by maintenance but the index
	// still carries stale references pending reconciliation.
	DELETED
	// CORRUPTED: a signature check failed definitively (not just an
	// offset mismatch); needs rescan.
	CORRUPTED
	// ARCHIVE_AGE: the segment's reftime makes it old enough to move to
	// the dataset's archive tier (spec §4.7 age thresholds).
	ARCHIVE_AGE
	// DELETE_AGE: the segment's reftime makes it old enough to delete
	// outright.
	DELETE_AGE
	// UNINDEXED: a segment file exists on disk with no content rows at
	// all — discovered directly by a maintenance sweep rather than by
	// Check, which only ever compares a file against index rows it
	// already knows about; needs a fresh rescan to add it.
	UNINDEXED
)

func (s FileState) Has(bit FileState) bool { return s&bit != 0 }

// String renders the set bits, most-significant-meaning first, purely
// for logs and `arki-check` output.
func (s FileState) String() string {
	if s == OK {
		return "OK"
	}
	names := []struct {
		bit  FileState
		name string
	}{
		{DIRTY, "DIRTY"}, {UNALIGNED, "UNALIGNED"}, {MISSING, "MISSING"},
		{DELETED, "DELETED"}, {CORRUPTED, "CORRUPTED"},
		{ARCHIVE_AGE, "ARCHIVE_AGE"}, {DELETE_AGE, "DELETE_AGE"},
		{UNINDEXED, "UNINDEXED"},
	}
	out := ""
	for _, n := range names {
		if s.Has(n.bit) {
			if out != "" {
				out += "|"
			}
			out += n.name
		}
	}
	if out == "" {
		return "OK"
	}
	return out
}
