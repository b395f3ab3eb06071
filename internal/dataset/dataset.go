// Package dataset implements the dataset kinds of spec §4.5 — iseg,
// simple, ondisk2, outbound, discard, error, file, memory, merged, and
// remote/http — behind one Dataset interface, the way cc-backend's
// pkg/archive puts FsArchive/SQLiteArchive/S3Archive behind one
// ArchiveBackend interface.
package dataset

import (
	"github.com/arkimet-go/arkimet/internal/arkierr"
	"github.com/arkimet-go/arkimet/internal/txn"
	"github.com/arkimet-go/arkimet/pkg/matcher"
	"github.com/arkimet-go/arkimet/pkg/metadata"
)

// Dataset is the behavior every dataset kind implements; not every
// kind supports every method (outbound is write-only, discard ignores
// everything, file/remote are read-only) — unsupported
// operations return a ConsistencyError naming the kind.
type Dataset interface {
	Name() string
	Kind() string

	// Acquire stages md (with its Source already pointing at an opaque
	// data byte range) for storage, returning an uncommitted Pending the
	// caller (the Dispatcher) must Commit or Rollback. On success it has
	// already stamped md's ASSIGNEDDATASET with this dataset's name and
	// the content row id (spec §4.6: "every acquire updates the
	// metadata's ASSIGNEDDATASET item"); a caller that rolls back the
	// returned Pending is responsible for treating that stamp as void.
	Acquire(md *metadata.Metadata, payload []byte) (*txn.Pending, error)

	Query(mtr *matcher.Matcher) ([]*metadata.Metadata, error)
	QuerySummary(mtr *matcher.Matcher) (*metadata.Summary, error)
	ReadData(md *metadata.Metadata) ([]byte, error)

	Writable() bool
	Queryable() bool
}

// Config mirrors one `[name]` section of the multi-dataset
// configuration (spec §4.5, §6): "type", "step", "filter", "index",
// "path", "replace", "archive age", "delete age", "postprocess",
// "qmacro".
type Config struct {
	Name         string
	Type         string
	Step         string
	Filter       string
	Index        []string
	Path         string
	Replace      bool
	ArchiveAge   int
	DeleteAge    int
	Postprocess  []string
	QMacro       string
	RemoteURL    string // for type=remote/http
	ErrorDataset bool   // this section is the configured `error` fallback
	Format       string // data format, required for type=file
}

// notSupported builds the ConsistencyError a read-only or write-only
// kind returns for an operation it doesn't implement.
func notSupported(kind, op string) error {
	return arkierr.Consistency("dataset kind %q does not support %s", kind, op)
}

// Open builds the concrete Dataset for cfg (spec §4.5 "Types
// enumerated in §4.5").
func Open(cfg Config) (Dataset, error) {
	switch cfg.Type {
	case "iseg", "simple":
		return newLocalDataset(cfg)
	case "ondisk2":
		return newOndisk2Dataset(cfg)
	case "outbound":
		return newOutboundDataset(cfg)
	case "discard":
		return newDiscardDataset(cfg), nil
	case "error":
		return newErrorDataset(cfg)
	case "file":
		return newFileDataset(cfg)
	case "memory":
		return newMemoryDataset(cfg), nil
	case "remote", "http":
		return newRemoteDataset(cfg)
	default:
		return nil, arkierr.Consistency("unknown dataset type %q for %q", cfg.Type, cfg.Name)
	}
}
