package config

import (
	"io"

	"github.com/arkimet-go/arkimet/pkg/matcher"
)

// ParseAliases reads an alias database file (spec §4.2 "Alias
// database: a configuration file maps short names to matcher
// fragments"): one `[type]` section per matcher type, one
// `name = expansion` line per alias. Arkimet's AliasDB namespace is
// flat (an "@name" token expands the same regardless of which type's
// section declared it), so the section name is purely organizational
// here and every key across every section is registered directly.
func ParseAliases(r io.Reader) (*matcher.AliasDB, error) {
	sections, err := ParseSections(r)
	if err != nil {
		return nil, err
	}
	db := matcher.NewAliasDB()
	for _, sec := range sections {
		for _, key := range sec.Order {
			db.Set(key, sec.Values[key])
		}
	}
	return db, nil
}
