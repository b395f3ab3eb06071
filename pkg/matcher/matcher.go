package matcher

import (
	"sort"
	"strings"
	"time"

	"github.com/arkimet-go/arkimet/internal/arkierr"
	"github.com/arkimet-go/arkimet/pkg/metadata"
	"github.com/arkimet-go/arkimet/pkg/types"
)

// Matcher is a conjunction of per-type disjunctions (spec §4.2).
type Matcher struct {
	raw     string
	typeOrd []string
	clauses map[string]Clause
}

// Parse builds a Matcher from "type1:expr1;type2:expr2" (spec §4.2),
// expanding aliases from db first if db is non-nil.
func Parse(query string, db *AliasDB) (*Matcher, error) {
	expanded := query
	if db != nil {
		var err error
		expanded, err = db.Expand(query, 0)
		if err != nil {
			return nil, err
		}
	}
	m := &Matcher{raw: query, clauses: map[string]Clause{}}
	for _, part := range splitTopLevelSemicolon(expanded) {
		part = trimSpace(part)
		if part == "" {
			continue
		}
		idx := strings.Index(part, ":")
		if idx < 0 {
			return nil, arkierr.Parse("matcher", 0, "missing ':' in clause %q", part)
		}
		typeName := trimSpace(part[:idx])
		exprText := trimSpace(part[idx+1:])
		parser, ok := clauseParsers[typeName]
		if !ok {
			return nil, arkierr.Parse("matcher", 0, "unknown type %q", typeName)
		}
		code, ok := types.ParseCode(typeName)
		if !ok {
			return nil, arkierr.Parse("matcher", 0, "unknown type %q", typeName)
		}
		clause, err := parser(code, exprText)
		if err != nil {
			return nil, err
		}
		if _, exists := m.clauses[typeName]; !exists {
			m.typeOrd = append(m.typeOrd, typeName)
		}
		m.clauses[typeName] = clause
	}
	return m, nil
}

func splitTopLevelSemicolon(s string) []string {
	var out []string
	depth := 0
	last := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ';':
			if depth == 0 {
				out = append(out, s[last:i])
				last = i + 1
			}
		}
	}
	out = append(out, s[last:])
	return out
}

// Matches reports whether every clause's type is present in m and
// satisfied (spec §4.2: "fails unless the clause is explicitly
// negated" — negation is not modeled separately here; an absent type
// simply fails the clause, matching the non-negated contract).
func (m *Matcher) Matches(md *metadata.Metadata) bool {
	for _, typeName := range m.typeOrd {
		clause := m.clauses[typeName]
		item, ok := md.Get(clause.Code())
		if !ok {
			return false
		}
		if !clause.Matches(item) {
			return false
		}
		if ac, ok := clause.(*areaClause); ok && ac.bboxRelation != "" {
			bbox, _ := md.Get(types.CodeBBox)
			if bbox == nil {
				return false
			}
			matched, checked := ac.MatchesBBox(bbox)
			if checked && !matched {
				return false
			}
		}
	}
	return true
}

// MatchesSummary reports whether at least one distinct value of every
// clause's type, recorded in the summary, satisfies that clause (spec
// §4.2 "matches(&Summary)").
func (m *Matcher) MatchesSummary(s *metadata.Summary) bool {
	for _, typeName := range m.typeOrd {
		clause := m.clauses[typeName]
		found := false
		s.EachItem(clause.Code(), func(it types.Item) {
			if !found && clause.Matches(it) {
				found = true
			}
		})
		if !found {
			return false
		}
	}
	return true
}

// String round-trips the original query text (spec §4.2).
func (m *Matcher) String() string { return m.raw }

// StringExpanded renders the matcher with aliases substituted by their
// expansion (spec §4.2 "to_string_expanded").
func (m *Matcher) StringExpanded() string {
	parts := make([]string, 0, len(m.typeOrd))
	for _, typeName := range m.typeOrd {
		parts = append(parts, m.clauses[typeName].String())
	}
	return strings.Join(parts, "; ")
}

// DateRange extracts the reftime bounds, if a reftime clause is
// present, used to drive summary-cache lookup and segment pruning
// (spec §4.2 "date_range()").
func (m *Matcher) DateRange() (lower, upper time.Time, ok bool) {
	clause, present := m.clauses["reftime"]
	if !present {
		return
	}
	rc := clause.(*reftimeClause)
	return rc.Bounds()
}

// Clauses returns the set of type names present, sorted, for callers
// that need deterministic iteration (e.g. SQL fragment construction).
func (m *Matcher) Clauses() []string {
	out := append([]string(nil), m.typeOrd...)
	sort.Strings(out)
	return out
}

// ClauseFor returns the clause for typeName, if present.
func (m *Matcher) ClauseFor(typeName string) (Clause, bool) {
	c, ok := m.clauses[typeName]
	return c, ok
}
