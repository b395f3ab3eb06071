package matcher

import (
	"strings"

	"github.com/arkimet-go/arkimet/internal/arkierr"
)

// maxAliasDepth bounds recursive alias expansion (spec §4.2: "depth
// limit 16").
const maxAliasDepth = 16

// AliasDB maps short names to matcher fragments, loaded from a
// configuration file (spec §4.2 "Alias database").
type AliasDB struct {
	aliases map[string]string
}

func NewAliasDB() *AliasDB { return &AliasDB{aliases: map[string]string{}} }

// Set registers or replaces the expansion for name.
func (db *AliasDB) Set(name, expansion string) { db.aliases[name] = expansion }

// Expand substitutes every "@name" token in query with its registered
// expansion, recursively, failing on an unknown alias or on a cycle
// detected via the depth limit.
func (db *AliasDB) Expand(query string, depth int) (string, error) {
	if depth > maxAliasDepth {
		return "", arkierr.Parse("matcher", 0, "alias expansion exceeded depth %d (cycle?)", maxAliasDepth)
	}
	if !strings.Contains(query, "@") {
		return query, nil
	}
	var out strings.Builder
	i := 0
	for i < len(query) {
		if query[i] != '@' {
			out.WriteByte(query[i])
			i++
			continue
		}
		j := i + 1
		for j < len(query) && isAliasNameByte(query[j]) {
			j++
		}
		name := query[i+1 : j]
		expansion, ok := db.aliases[name]
		if !ok {
			return "", arkierr.Parse("matcher", 0, "unknown alias %q", name)
		}
		expanded, err := db.Expand(expansion, depth+1)
		if err != nil {
			return "", err
		}
		out.WriteString(expanded)
		i = j
	}
	return out.String(), nil
}

func isAliasNameByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
