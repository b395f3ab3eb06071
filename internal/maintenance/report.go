// Package maintenance implements the MaintenanceAgent visitor (spec
// §4.7): FullMaintenance, MaintenanceReport, FullRepack and
// RepackReport all walk a dataset's segments the same way, computing
// each one's FileState and then either performing or merely logging
// the corresponding action.
package maintenance

import (
	"fmt"
	"strings"
)

// SegmentReport describes one segment's computed FileState and the
// action an Agent took (or, for a dry-run Agent, would take) for it.
type SegmentReport struct {
	Relpath string
	State   string
	Action  string
	Err     error
}

// Report is the outcome of one Run over a dataset.
type Report struct {
	Dataset  string
	Segments []SegmentReport
}

// String renders Report the way `arki-check` prints it: one line per
// segment, errors called out explicitly.
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n", r.Dataset)
	for _, s := range r.Segments {
		if s.Err != nil {
			fmt.Fprintf(&b, "  %-40s %-10s %-8s ERROR: %v\n", s.Relpath, s.State, s.Action, s.Err)
			continue
		}
		action := s.Action
		if action == "" {
			action = "-"
		}
		fmt.Fprintf(&b, "  %-40s %-10s %-8s\n", s.Relpath, s.State, action)
	}
	return b.String()
}

// Counts tallies actions across Segments, for a caller that wants a
// summary line instead of (or alongside) the full per-segment report.
func (r Report) Counts() map[string]int {
	out := make(map[string]int)
	for _, s := range r.Segments {
		action := s.Action
		if action == "" {
			action = "ok"
		}
		if s.Err != nil {
			action = "error"
		}
		out[action]++
	}
	return out
}
