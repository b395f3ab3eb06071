// Package txn implements the Pending/Transaction primitive shared by
// the segment and index layers (spec §3: "Pending is a handle to an
// uncommitted Transaction with commit / rollback / rollback-nothrow
// operations; destroying a Pending without commit must rollback, and
// rollback on a destructor path must never fail (errors are logged)").
package txn

import (
	"github.com/google/uuid"

	"github.com/arkimet-go/arkimet/pkg/log"
)

// Transaction is the operation-specific half of a Pending: whatever
// owns the resource (a segment file, a SQLite connection) implements
// Commit/Rollback in terms of its own state.
type Transaction interface {
	Commit() error
	Rollback() error
}

// Pending wraps one or more Transactions opened together (spec §4.4:
// "the Pending returned by Writer.acquire holds the SQLite transaction
// and the segment append transaction, and commits them in the order
// (segment → index)"). Transactions are committed in the order they
// were added and rolled back in reverse order; Close is safe to call
// unconditionally and
// rolls back anything not yet committed.
type Pending struct {
	id     string
	txns   []Transaction
	done   bool
	labels []string
}

// New creates an empty Pending identified for log correlation.
func New() *Pending {
	return &Pending{id: uuid.NewString()}
}

// ID returns the Pending's correlation identifier.
func (p *Pending) ID() string { return p.id }

// Add registers one more Transaction to be committed/rolled back as
// part of this Pending, in the order added.
func (p *Pending) Add(label string, t Transaction) {
	p.txns = append(p.txns, t)
	p.labels = append(p.labels, label)
}

// Commit commits every registered Transaction in order (spec §4.4:
// "segment → index"). If one fails partway, every other transaction
// (those committed so far in this call and those not yet reached) is
// rolled back best-effort in reverse order (logged, not returned) and
// the triggering error is returned; callers must
// treat a Commit error as "nothing happened" even though the
// underlying resources may already have been mutated irreversibly —
// in practice only the final (index) transaction is expected to fail,
// since the segment append is durable once its bytes are on disk.
func (p *Pending) Commit() error {
	if p.done {
		return nil
	}
	p.done = true
	for i, t := range p.txns {
		if err := t.Commit(); err != nil {
			for j := len(p.txns) - 1; j >= 0; j-- {
				if j == i {
					continue
				}
				if rbErr := p.txns[j].Rollback(); rbErr != nil {
					log.Errorf("pending %s: rollback of %s after failed commit: %v", p.id, p.labels[j], rbErr)
				}
			}
			return err
		}
	}
	return nil
}

// Rollback rolls back every registered Transaction in reverse order,
// returning the first error encountered (if any) but always attempting
// every rollback.
func (p *Pending) Rollback() error {
	if p.done {
		return nil
	}
	p.done = true
	var first error
	for i := len(p.txns) - 1; i >= 0; i-- {
		if err := p.txns[i].Rollback(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// RollbackNoThrow rolls back and only logs any error, for destructor
// paths where propagating an error is not possible (spec §3: "rollback
// on a destructor path must never fail").
func (p *Pending) RollbackNoThrow() {
	if err := p.Rollback(); err != nil {
		log.Errorf("pending %s: rollback error (ignored): %v", p.id, err)
	}
}

// Close implements a finalizer-style safety net: call via `defer
// p.Close()` right after New so an early return rolls back anything
// not explicitly committed.
func (p *Pending) Close() {
	if !p.done {
		p.RollbackNoThrow()
	}
}
