package matcher

import (
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/arkimet-go/arkimet/pkg/types"
)

// AttrResolver looks up the sub-index row id for one fully-specified
// item of a given code (spec §4.4 "sub_<typename>"); it is supplied by
// internal/index, which owns the SQLite connection and LRU cache.
type AttrResolver func(code types.Code, item types.Item) (id int64, ok bool)

// indexedTypeNames lists the clause type names that can be answered
// against the aggregate table's attribute columns (spec §4.4: "origin,
// product, level, timerange, area, proddef, run"); everything else
// (bbox geometry relations, quantity, task, value) is always residual,
// applied in-process after the SQL query returns candidate rows.
var indexedTypeNames = map[string]bool{
	"origin": true, "product": true, "level": true, "timerange": true,
	"area": true, "proddef": true, "run": true,
}

// SQLConstraints converts the subset of clauses answerable by indexed
// attribute columns into a squirrel WHERE fragment (spec §4.2
// "sql_constraints(table_aliases)"), following the same per-field
// sq.Eq/sq.Or builder shape used for filter-to-SQL translation
// elsewhere in the corpus. Clauses whose candidates cannot all be
// resolved to an existing sub-index row (because they contain wildcard
// fields, or the value has simply never been seen) are returned as
// residual and must be applied in-process against reconstructed
// Metadata.
func (m *Matcher) SQLConstraints(columnFor map[string]string, resolve AttrResolver) (sq.Sqlizer, []string) {
	var ands sq.And
	var residual []string

	for _, typeName := range m.Clauses() {
		clause := m.clauses[typeName]
		if !indexedTypeNames[typeName] {
			residual = append(residual, typeName)
			continue
		}
		ic, ok := clause.(*itemClause)
		if !ok {
			if ac, ok2 := clause.(*areaClause); ok2 {
				ic = &ac.itemClause
			} else {
				residual = append(residual, typeName)
				continue
			}
		}
		column, haveColumn := columnFor[typeName]
		if !haveColumn {
			residual = append(residual, typeName)
			continue
		}
		ids := make([]int64, 0, len(ic.candidates))
		resolvable := true
		for _, cand := range ic.candidates {
			id, ok := resolve(ic.code, cand)
			if !ok {
				resolvable = false
				break
			}
			ids = append(ids, id)
		}
		if !resolvable || len(ids) == 0 {
			residual = append(residual, typeName)
			continue
		}
		ands = append(ands, sq.Eq{column: ids})
	}

	if len(ands) == 0 {
		return nil, residual
	}
	return ands, residual
}

// ReftimeSQL returns a BETWEEN fragment over the reftime column for the
// matcher's date_range(), if any (spec §4.4 "an index on reftime
// supports time queries").
func (m *Matcher) ReftimeSQL(column string) (sq.Sqlizer, bool) {
	lower, upper, ok := m.DateRange()
	if !ok {
		return nil, false
	}
	switch {
	case !lower.IsZero() && !upper.IsZero():
		return sq.Expr(column+" BETWEEN ? AND ?", lower.UTC().Format(time.RFC3339), upper.UTC().Format(time.RFC3339)), true
	case !lower.IsZero():
		return sq.Expr("? <= "+column, lower.UTC().Format(time.RFC3339)), true
	case !upper.IsZero():
		return sq.Expr(column+" <= ?", upper.UTC().Format(time.RFC3339)), true
	default:
		return nil, false
	}
}
