// Package dispatch implements the Dispatcher (spec §4.6): filter-based
// routing of incoming Metadata across a dataset pool, transactional
// acquire via internal/txn.Pending, and rollback on error.
package dispatch

import (
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arkimet-go/arkimet/internal/arkierr"
	"github.com/arkimet-go/arkimet/internal/dataset"
	"github.com/arkimet-go/arkimet/internal/txn"
	"github.com/arkimet-go/arkimet/pkg/log"
	"github.com/arkimet-go/arkimet/pkg/matcher"
	"github.com/arkimet-go/arkimet/pkg/metadata"
	"github.com/arkimet-go/arkimet/pkg/types"
)

// Route pairs one non-error dataset with its parsed filter, in the
// declared order filters are evaluated (spec §4.6 step 1).
type Route struct {
	Name   string
	Filter *matcher.Matcher
}

// Stats tracks per-Dispatcher outcome counters (spec §4.6: "successful,
// in_error_dataset, duplicates, not_imported").
type Stats struct {
	Successful     int
	InErrorDataset int
	Duplicates     int
	NotImported    int
}

// Dispatcher routes each incoming Metadata to the first dataset whose
// filter matches, falling back to a configured error dataset on no
// match, ambiguity-on-multi-match NOTE, or acquire failure (spec §4.6).
type Dispatcher struct {
	pool   *dataset.Pool
	routes []Route

	mu      sync.Mutex
	pending []*txn.Pending
	stats   Stats
}

// New builds a Dispatcher over pool, evaluating routes in the given
// order. routes must not include the pool's error dataset — it is
// looked up separately via pool.ErrorDataset on demand.
func New(pool *dataset.Pool, routes []Route) *Dispatcher {
	return &Dispatcher{pool: pool, routes: routes}
}

// Stats returns a snapshot of the running outcome counters.
func (d *Dispatcher) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Dispatch routes one incoming (md, payload) pair (spec §4.6 steps 1-5):
//  1. evaluate every non-error dataset's filter in declared order;
//  2. exactly one match: acquire into it;
//  3. more than one match: acquire into the first, with an ambiguity
//     NOTE attached;
//  4. no match: acquire into the configured error dataset;
//  5. DuplicateError from a non-error acquire: try the next match, and
//     if every match fails, acquire into the error dataset.
//
// The returned Pending (on success) is also queued for a later Flush;
// callers that want it committed immediately may still call
// Commit/Rollback on it directly, which Flush then treats as a no-op.
func (d *Dispatcher) Dispatch(md *metadata.Metadata, payload []byte) (*txn.Pending, error) {
	matches := d.matchingRoutes(md)

	if len(matches) == 0 {
		return d.toErrorDataset(md, payload, "no dataset filter matched")
	}
	if len(matches) > 1 {
		names := make([]string, len(matches))
		for i, r := range matches {
			names[i] = r.Name
		}
		d.attachNote(md, "matched multiple datasets, acquired into the first: "+joinNames(names))
	}

	var lastErr error
	for _, route := range matches {
		ds, err := d.pool.Get(route.Name)
		if err != nil {
			lastErr = err
			continue
		}
		p, err := ds.Acquire(md, payload)
		if err == nil {
			d.recordPending(p)
			d.bump(func(s *Stats) { s.Successful++ })
			return p, nil
		}
		lastErr = err
		if !arkierr.Is(err, arkierr.KindDuplicate) {
			// A non-duplicate acquire failure (e.g. ConsistencyError) also
			// falls through to the error dataset per spec §4.6's "routes
			// to error dataset, attaches NOTE".
			break
		}
		d.bump(func(s *Stats) { s.Duplicates++ })
	}

	d.attachNote(md, "acquire failed on every matching dataset: "+errString(lastErr))
	return d.toErrorDataset(md, payload, "")
}

// matchingRoutes evaluates every route's filter against md, fanning
// out across routes with errgroup since Matcher.Matches is a pure,
// side-effect-free predicate — safe to run concurrently as long as
// results are reassembled in the original declared order, which
// matters for which dataset "the first match" picks (spec §4.6 step
// 2-3).
func (d *Dispatcher) matchingRoutes(md *metadata.Metadata) []Route {
	matched := make([]bool, len(d.routes))
	var g errgroup.Group
	for i, r := range d.routes {
		i, r := i, r
		g.Go(func() error {
			matched[i] = r.Filter == nil || r.Filter.Matches(md)
			return nil
		})
	}
	g.Wait()

	var out []Route
	for i, ok := range matched {
		if ok {
			out = append(out, d.routes[i])
		}
	}
	return out
}

func (d *Dispatcher) toErrorDataset(md *metadata.Metadata, payload []byte, reason string) (*txn.Pending, error) {
	if reason != "" {
		d.attachNote(md, reason)
	}
	errDS, err := d.pool.ErrorDataset()
	if err != nil {
		d.bump(func(s *Stats) { s.NotImported++ })
		return nil, err
	}
	p, err := errDS.Acquire(md, payload)
	if err != nil {
		d.bump(func(s *Stats) { s.NotImported++ })
		return nil, err
	}
	d.recordPending(p)
	d.bump(func(s *Stats) { s.InErrorDataset++ })
	return p, nil
}

func (d *Dispatcher) attachNote(md *metadata.Metadata, text string) {
	md.Set(types.NoteGeneric{Time: time.Now().UTC(), Text: text})
}

func (d *Dispatcher) recordPending(p *txn.Pending) {
	d.mu.Lock()
	d.pending = append(d.pending, p)
	d.mu.Unlock()
}

func (d *Dispatcher) bump(f func(*Stats)) {
	d.mu.Lock()
	f(&d.stats)
	d.mu.Unlock()
}

// Flush commits every outstanding Pending issued by Dispatch since the
// last Flush, in LIFO order (spec §4.6: "flush() commits all
// outstanding Pendings in LIFO order"), logging (not returning) errors
// from any Pending after the first so every Pending gets a chance to
// commit or roll back.
func (d *Dispatcher) Flush() error {
	d.mu.Lock()
	pending := d.pending
	d.pending = nil
	d.mu.Unlock()

	var firstErr error
	for i := len(pending) - 1; i >= 0; i-- {
		if err := pending[i].Commit(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			log.Errorf("dispatch flush: commit %s failed: %v", pending[i].ID(), err)
		}
	}
	return firstErr
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}

func errString(err error) string {
	if err == nil {
		return "no matching dataset"
	}
	return err.Error()
}
