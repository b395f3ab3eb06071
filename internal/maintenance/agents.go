package maintenance

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arkimet-go/arkimet/internal/arkierr"
	"github.com/arkimet-go/arkimet/internal/dataset"
	"github.com/arkimet-go/arkimet/internal/segment"
	"github.com/arkimet-go/arkimet/pkg/log"
	"github.com/arkimet-go/arkimet/pkg/metadata"
)

// Agent is invoked once per segment with its already-computed
// FileState; it decides what to do and, for the apply agents, does it
// (spec §4.7: "A MaintenanceAgent visitor is invoked per segment").
type Agent interface {
	Visit(ds dataset.Maintainable, relpath string, state segment.FileState, declared []segment.DeclaredRecord) SegmentReport
}

// Run walks every segment ds exposes — every relpath the index
// declares, plus any orphan data file discovered on disk — and
// dispatches each to agent (spec §4.7).
func Run(ds dataset.Maintainable, agent Agent) (Report, error) {
	segs, err := discover(ds)
	if err != nil {
		return Report{}, err
	}
	now := time.Now().UTC()

	report := Report{Dataset: ds.Name()}
	for _, seg := range segs {
		state := checkState(ds, seg, now)
		report.Segments = append(report.Segments, agent.Visit(ds, seg.relpath, state, seg.declared))
	}
	return report, nil
}

func result(relpath string, state segment.FileState, action string, err error) SegmentReport {
	return SegmentReport{Relpath: relpath, State: state.String(), Action: action, Err: err}
}

// fullAction decides the minimal fix for state, in priority order:
// age thresholds first (a segment can be both DIRTY and ARCHIVE_AGE;
// no point repacking something about to move or be deleted), then
// disk/index disagreement (spec §4.7 FullMaintenance).
func fullAction(state segment.FileState) string {
	switch {
	case state == segment.OK:
		return ""
	case state.Has(segment.DELETE_AGE):
		return "delete"
	case state.Has(segment.ARCHIVE_AGE):
		return "archive"
	case state.Has(segment.MISSING):
		return "deindex"
	case state.Has(segment.UNINDEXED), state.Has(segment.UNALIGNED), state.Has(segment.CORRUPTED):
		return "rescan"
	case state.Has(segment.DIRTY):
		return "repack"
	default:
		return ""
	}
}

func applyAction(ds dataset.Maintainable, relpath string, action string, declared []segment.DeclaredRecord) error {
	switch action {
	case "delete", "deindex":
		return ds.RemoveSegment(relpath)
	case "archive":
		return archiveSegment(ds, relpath)
	case "rescan":
		return rescanSegment(ds, relpath)
	case "repack":
		return repackSegment(ds, relpath, declared)
	default:
		return nil
	}
}

// fullMaintenanceAgent is FullMaintenance (spec §4.7).
type fullMaintenanceAgent struct{}

// FullMaintenance performs the minimal fix for every non-OK segment:
// rescan if UNALIGNED/CORRUPTED/UNINDEXED, repack if DIRTY, deindex if
// MISSING, move to archive if ARCHIVE_AGE, delete if DELETE_AGE.
// Stale summary cache files are deleted as a side effect of the index
// rows repack/rescan/deindex touch (internal/index invalidates its
// on-disk summary cache on every insert and delete) and recomputed by
// the next summary query.
func FullMaintenance() Agent { return fullMaintenanceAgent{} }

func (fullMaintenanceAgent) Visit(ds dataset.Maintainable, relpath string, state segment.FileState, declared []segment.DeclaredRecord) SegmentReport {
	action := fullAction(state)
	if action == "" {
		return result(relpath, state, "", nil)
	}
	if err := applyAction(ds, relpath, action, declared); err != nil {
		return result(relpath, state, action, err)
	}
	return result(relpath, state, action, nil)
}

// maintenanceReportAgent is MaintenanceReport (spec §4.7): dry-run.
type maintenanceReportAgent struct{}

// MaintenanceReport computes the same per-segment action FullMaintenance
// would take but never applies it, only counts and logs it.
func MaintenanceReport() Agent { return maintenanceReportAgent{} }

func (maintenanceReportAgent) Visit(ds dataset.Maintainable, relpath string, state segment.FileState, _ []segment.DeclaredRecord) SegmentReport {
	action := fullAction(state)
	if action != "" {
		log.Infof("maintenance report: %s/%s would %s (%s)", ds.Name(), relpath, action, state)
	}
	return result(relpath, state, action, nil)
}

// fullRepackAgent is FullRepack (spec §4.7): scope limited to
// repack-equivalent actions.
type fullRepackAgent struct{}

// FullRepack repacks every DIRTY segment and otherwise leaves the
// dataset untouched — no rescan, archive, delete or deindex.
func FullRepack() Agent { return fullRepackAgent{} }

func (fullRepackAgent) Visit(ds dataset.Maintainable, relpath string, state segment.FileState, declared []segment.DeclaredRecord) SegmentReport {
	if !state.Has(segment.DIRTY) {
		return result(relpath, state, "", nil)
	}
	if err := repackSegment(ds, relpath, declared); err != nil {
		return result(relpath, state, "repack", err)
	}
	return result(relpath, state, "repack", nil)
}

// repackReportAgent is RepackReport (spec §4.7): dry-run over
// repack-equivalent actions only.
type repackReportAgent struct{}

func RepackReport() Agent { return repackReportAgent{} }

func (repackReportAgent) Visit(_ dataset.Maintainable, relpath string, state segment.FileState, _ []segment.DeclaredRecord) SegmentReport {
	if !state.Has(segment.DIRTY) {
		return result(relpath, state, "", nil)
	}
	return result(relpath, state, "repack", nil)
}

// rescanSegment re-derives relpath's declared collection from scratch
// via the scanner registered for its data format (guessed from its
// extension, the same convention Step.TargetRelpath writes segments
// under) and replaces the index's rows for it wholesale.
func rescanSegment(ds dataset.Maintainable, relpath string) error {
	format := strings.TrimPrefix(filepath.Ext(relpath), ".")
	scan, err := ds.ScannerFor(format)
	if err != nil {
		return err
	}
	declared, err := segment.Rescan(ds.Root(), relpath, scan)
	if err != nil {
		return err
	}
	return ds.Reconcile(relpath, format, declared)
}

// repackSegment rewrites relpath to contain exactly declared's records
// in order, then reconciles the index to the (possibly shifted)
// offsets Repack produced (spec §4.3 Repack).
func repackSegment(ds dataset.Maintainable, relpath string, declared []segment.DeclaredRecord) error {
	format := segmentFormat(declared)
	t, newDeclared, err := segment.Repack(ds.FDCache(), ds.Root(), relpath, declared)
	if err != nil {
		return err
	}
	if err := t.Commit(); err != nil {
		t.Rollback()
		return err
	}
	return ds.Reconcile(relpath, format, newDeclared)
}

// segmentFormat recovers the data format already-indexed declared
// records carry on their Source, for Reconcile calls that don't scan
// a fresh format from the file itself (repack).
func segmentFormat(declared []segment.DeclaredRecord) string {
	for _, rec := range declared {
		if src, ok := rec.Metadata.Source().(metadata.SourceBlob); ok {
			return src.Format()
		}
	}
	return ""
}

// archiveSegment moves relpath and its sidecars into the ondisk2
// archive tier and drops it from the live index — a simplification of
// spec §4.7's archive action: this repo doesn't maintain a separate
// index over the archive hierarchy, so an archived segment becomes
// invisible to Query/QuerySummary rather than queryable-but-slower
// (documented in DESIGN.md's internal/maintenance entry).
func archiveSegment(ds dataset.Maintainable, relpath string) error {
	arc, ok := ds.(dataset.ArchivableOndisk2)
	if !ok {
		return arkierr.Consistency("dataset %q has no archive tier", ds.Name())
	}
	srcPath := filepath.Join(ds.Root(), relpath)
	destPath := filepath.Join(arc.ArchiveRoot(), relpath)
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return arkierr.IO(err, "creating archive directory for %s", relpath)
	}
	for _, suffix := range []string{"", ".metadata", ".summary"} {
		if err := os.Rename(srcPath+suffix, destPath+suffix); err != nil && !os.IsNotExist(err) {
			return arkierr.IO(err, "archiving %s%s", relpath, suffix)
		}
	}
	ds.FDCache().Drop(srcPath)
	return ds.Reconcile(relpath, "", nil)
}
