package dataset

import "github.com/arkimet-go/arkimet/internal/segment"

// Maintainable is implemented by the dataset kinds whose on-disk
// segments participate in maintenance — state scan, repack, rescan,
// archive, delete (spec §4.7). iseg, simple and ondisk2 implement it
// via localDataset; the write-only, read-only and in-memory kinds
// don't, since they have nothing a MaintenanceAgent can visit.
type Maintainable interface {
	Dataset

	Root() string
	FDCache() *segment.FDCache
	Segments() ([]string, error)
	DeclaredRecords(relpath string) ([]segment.DeclaredRecord, error)
	ScannerFor(format string) (segment.Scanner, error)
	Reconcile(relpath, format string, declared []segment.DeclaredRecord) error
	RemoveSegment(relpath string) error
}

// AsMaintainable type-asserts ds to Maintainable, for a maintenance
// agent skipping dataset kinds that don't support it.
func AsMaintainable(ds Dataset) (Maintainable, bool) {
	m, ok := ds.(Maintainable)
	return m, ok
}

// ArchivableOndisk2 is the subset of ondisk2Dataset's extra behavior a
// maintenance agent needs for ARCHIVE_AGE/DELETE_AGE thresholds; iseg
// and simple don't implement it, so those kinds' segments never carry
// either bit — they have no configured ages to enforce.
type ArchivableOndisk2 interface {
	ArchiveAge() int
	DeleteAge() int
	ArchiveRoot() string
}
