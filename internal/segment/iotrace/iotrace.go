// Package iotrace tracks the per-Reader accounting counters named in
// spec §4.3 ("bytes read, forward-seek bytes, block repositions — used
// for testability").
package iotrace

import "sync/atomic"

// Counters are safe for concurrent use; one Reader holds one Counters
// value shared by every read it issues.
type Counters struct {
	bytesRead        int64
	forwardSeekBytes int64
	blockRepositions int64
}

func (c *Counters) AddBytesRead(n int64) { atomic.AddInt64(&c.bytesRead, n) }

func (c *Counters) AddForwardSeek(n int64) { atomic.AddInt64(&c.forwardSeekBytes, n) }

func (c *Counters) AddBlockReposition() { atomic.AddInt64(&c.blockRepositions, 1) }

func (c *Counters) BytesRead() int64 { return atomic.LoadInt64(&c.bytesRead) }

func (c *Counters) ForwardSeekBytes() int64 { return atomic.LoadInt64(&c.forwardSeekBytes) }

func (c *Counters) BlockRepositions() int64 { return atomic.LoadInt64(&c.blockRepositions) }

// Snapshot is an immutable copy for reporting.
type Snapshot struct {
	BytesRead        int64
	ForwardSeekBytes int64
	BlockRepositions int64
}

func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		BytesRead:        c.BytesRead(),
		ForwardSeekBytes: c.ForwardSeekBytes(),
		BlockRepositions: c.BlockRepositions(),
	}
}
