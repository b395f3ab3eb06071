package dataset

import "path/filepath"

// ondisk2Dataset is the "ondisk2" kind: identical to iseg/simple for
// acquire/query purposes (same global SQLite index across segments),
// plus an archive directory `.archive/last` that the maintenance sweep
// moves aged segments into (spec §4.5:
// "variant of simple with a global index across segments and an
// archive hierarchy for old segments").
type ondisk2Dataset struct {
	*localDataset
	archiveAge int
	deleteAge  int
}

func newOndisk2Dataset(cfg Config) (Dataset, error) {
	base, err := newLocalDataset(cfg)
	if err != nil {
		return nil, err
	}
	return &ondisk2Dataset{
		localDataset: base.(*localDataset),
		archiveAge:   cfg.ArchiveAge,
		deleteAge:    cfg.DeleteAge,
	}, nil
}

func (d *ondisk2Dataset) Kind() string { return "ondisk2" }

// ArchiveAge returns the configured age (in days) past which a
// segment is eligible to move from the live tree into
// `.archive/last`, or 0 if unset (spec §4.5 config key "archive age").
func (d *ondisk2Dataset) ArchiveAge() int { return d.archiveAge }

// DeleteAge returns the configured age (in days) past which a live
// segment is eligible for deletion, or 0 if unset (spec §4.5 config
// key "delete age"). Segments already archived are not checked.
func (d *ondisk2Dataset) DeleteAge() int { return d.deleteAge }

// ArchiveRoot is the `.archive/last` directory maintenance moves
// newly-aged segments into; nothing moves segments on from there, and
// maintenance does not revisit it.
func (d *ondisk2Dataset) ArchiveRoot() string {
	return filepath.Join(d.path, ".archive", "last")
}
