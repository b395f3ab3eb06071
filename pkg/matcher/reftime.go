package matcher

import (
	"strings"
	"time"

	"github.com/arkimet-go/arkimet/internal/arkierr"
	"github.com/arkimet-go/arkimet/pkg/types"
)

// reftimeConstraint is one "(op) datetime" term of a reftime clause,
// with datetime truncated to whatever precision was given (spec §4.2:
// ">=2010-06" means any instant from 2010-06-01T00:00:00 inclusive).
type reftimeConstraint struct {
	op        string // ">=", "<=", ">", "<", "=="
	lower     time.Time
	upperExcl time.Time // exclusive upper bound implied by the given precision
}

// reftimeClause is the conjunction ("intersection") of its constraints
// (spec §4.2: "An interval is the intersection of all constraints").
type reftimeClause struct {
	rawExpr     string
	constraints []reftimeConstraint
}

func (c *reftimeClause) Code() types.Code { return types.CodeReftime }
func (c *reftimeClause) String() string   { return "reftime:" + c.rawExpr }

// Matches reports whether item's reftime interval satisfies every
// constraint. ">="/">"/"<="/"<" compare against the constraint value's
// own truncated instant (its lower bound); "==" requires the item's
// interval to overlap the constraint value's whole precision window,
// since a truncated date denotes a window rather than a single instant.
func (c *reftimeClause) Matches(item types.Item) bool {
	begin, end, ok := types.Interval(item)
	if !ok {
		return false
	}
	for _, cons := range c.constraints {
		switch cons.op {
		case ">=":
			if end.Before(cons.lower) {
				return false
			}
		case ">":
			if !end.After(cons.lower) {
				return false
			}
		case "<=":
			if begin.After(cons.lower) {
				return false
			}
		case "<":
			if !begin.Before(cons.lower) {
				return false
			}
		case "==":
			if !begin.Before(cons.upperExcl) || end.Before(cons.lower) {
				return false
			}
		}
	}
	return true
}

// Bounds returns the intersection of all constraints as a closed
// interval, used by date_range() for summary-cache pruning.
func (c *reftimeClause) Bounds() (lower, upper time.Time, ok bool) {
	for i, cons := range c.constraints {
		l, u := cons.lower, cons.upperExcl
		switch cons.op {
		case ">", ">=":
			u = time.Time{}
		case "<", "<=":
			l, u = time.Time{}, cons.lower
		}
		if i == 0 {
			lower, upper, ok = l, u, true
			continue
		}
		if !l.IsZero() && (lower.IsZero() || l.After(lower)) {
			lower = l
		}
		if !u.IsZero() && (upper.IsZero() || u.Before(upper)) {
			upper = u
		}
	}
	return
}

var reftimeOps = []string{">=", "<=", "==", ">", "<"}

// parseReftimeClause parses the comma-separated constraint list (spec
// §4.2).
func parseReftimeClause(expr string) (Clause, error) {
	c := &reftimeClause{rawExpr: expr}
	for _, term := range strings.Split(expr, ",") {
		term = trimSpace(term)
		if term == "" {
			continue
		}
		var op, rest string
		for _, candidate := range reftimeOps {
			if strings.HasPrefix(term, candidate) {
				op = candidate
				rest = trimSpace(term[len(candidate):])
				break
			}
		}
		if op == "" {
			return nil, arkierr.Parse("reftime", 0, "missing comparison operator in %q", term)
		}
		lower, upper, err := parseReftimeValue(rest)
		if err != nil {
			return nil, err
		}
		c.constraints = append(c.constraints, reftimeConstraint{op: op, lower: lower, upperExcl: upper})
	}
	return c, nil
}

// parseReftimeValue parses a truncated ISO-8601 prefix ("2010",
// "2010-06", "2010-06-15", ... down to seconds) or the literal "today",
// returning the inclusive lower bound and exclusive upper bound implied
// by the given precision.
func parseReftimeValue(s string) (lower, upper time.Time, err error) {
	if s == "today" {
		now := time.Now().UTC()
		lower = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		return lower, lower.AddDate(0, 0, 1), nil
	}
	layouts := []struct {
		layout string
		unit   func(time.Time) time.Time
	}{
		{"2006-01-02T15:04:05", func(t time.Time) time.Time { return t.Add(time.Second) }},
		{"2006-01-02T15:04", func(t time.Time) time.Time { return t.Add(time.Minute) }},
		{"2006-01-02T15", func(t time.Time) time.Time { return t.Add(time.Hour) }},
		{"2006-01-02", func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }},
		{"2006-01", func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }},
		{"2006", func(t time.Time) time.Time { return t.AddDate(1, 0, 0) }},
	}
	for _, l := range layouts {
		if t, e := time.Parse(l.layout, s); e == nil {
			return t.UTC(), l.unit(t).UTC(), nil
		}
	}
	return time.Time{}, time.Time{}, arkierr.Parse("reftime", 0, "unrecognised datetime %q", s)
}

func init() {
	registerClauseParser("reftime", func(code types.Code, expr string) (Clause, error) {
		return parseReftimeClause(expr)
	})
}
