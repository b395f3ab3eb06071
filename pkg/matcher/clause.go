// Package matcher implements the arkimet query language (spec §4.2): a
// conjunction of per-type disjunctions, each evaluated against a
// Metadata or Summary, or translated into a SQL WHERE fragment for the
// parts the index can answer directly.
package matcher

import (
	"github.com/arkimet-go/arkimet/pkg/types"
)

// Clause is one per-type disjunction ("A1 or A2") parsed from a query
// fragment. Matches decides whether a stored item of this clause's
// code satisfies the clause.
type Clause interface {
	Code() types.Code
	Matches(item types.Item) bool
	String() string
}

// clauseParser parses the text after "type:" (not including the type
// name or the colon) into a Clause.
type clauseParser func(code types.Code, expr string) (Clause, error)

var clauseParsers = map[string]clauseParser{}

func registerClauseParser(typeName string, fn clauseParser) {
	clauseParsers[typeName] = fn
}

// itemClause is the common shape for every non-reftime type: a list of
// alternative template items, any one of which must wildcard-match the
// stored item.
type itemClause struct {
	code       types.Code
	typeName   string
	rawExpr    string
	candidates []types.Item
}

func (c *itemClause) Code() types.Code { return c.code }
func (c *itemClause) String() string   { return c.typeName + ":" + c.rawExpr }
func (c *itemClause) Matches(item types.Item) bool {
	for _, cand := range c.candidates {
		if WildcardMatch(cand, item) {
			return true
		}
	}
	return false
}

// parseItemClause splits expr on top-level " or " and decodes each
// alternative via the type's string decoder (spec §4.2: per-type
// disjunction).
func parseItemClause(typeName string, code types.Code, expr string) (Clause, error) {
	alts := splitOr(expr)
	candidates := make([]types.Item, 0, len(alts))
	for _, alt := range alts {
		it, err := types.DecodeString(code, alt)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, it)
	}
	return &itemClause{code: code, typeName: typeName, rawExpr: expr, candidates: candidates}, nil
}

func splitOr(expr string) []string {
	var out []string
	depth := 0
	last := 0
	runes := []rune(expr)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth == 0 && i+4 <= len(runes) && string(runes[i:i+4]) == " or " {
			out = append(out, string(runes[last:i]))
			last = i + 4
			i += 3
		}
	}
	out = append(out, string(runes[last:]))
	for i := range out {
		out[i] = trimSpace(out[i])
	}
	return out
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t') {
		end--
	}
	return s[start:end]
}

func init() {
	for name := range map[string]types.Code{
		"origin": types.CodeOrigin, "product": types.CodeProduct, "level": types.CodeLevel,
		"timerange": types.CodeTimerange, "proddef": types.CodeProddef, "run": types.CodeRun,
		"bbox": types.CodeBBox, "quantity": types.CodeQuantity, "task": types.CodeTask,
		"value": types.CodeValue,
	} {
		name := name
		registerClauseParser(name, func(c types.Code, expr string) (Clause, error) {
			return parseItemClause(name, c, expr)
		})
	}
	registerClauseParser("area", func(code types.Code, expr string) (Clause, error) {
		return parseAreaClause(code, expr)
	})
}
