// Package config reads arkimet's two on-disk configuration dialects:
// the INI-like `[name]\nkey = value` dataset-pool file (§4.5, §6) and
// the top-level `arkimet.yaml` runtime config (AMBIENT).
package config

import (
	"bufio"
	"io"
	"strings"

	"github.com/arkimet-go/arkimet/internal/arkierr"
)

// Section is one `[name]` block: an ordered set of key/value pairs,
// grounded on original_source/arki/configfile-tut.cc's "key = value"
// dialect (blank lines and full-line "#"/";" comments ignored, keys
// and values trimmed of surrounding whitespace).
type Section struct {
	Name   string
	Order  []string
	Values map[string]string
}

func newSection(name string) *Section {
	return &Section{Name: name, Values: make(map[string]string)}
}

func (s *Section) set(key, value string) {
	if _, ok := s.Values[key]; !ok {
		s.Order = append(s.Order, key)
	}
	s.Values[key] = value
}

// Get returns key's value, or "" if unset.
func (s *Section) Get(key string) string { return s.Values[key] }

// ParseSections splits r into `[name]` sections in declaration order.
// Content before the first header is returned under the "" name, the
// way cc-backend's own config carries a top-level block before any
// per-cluster section.
func ParseSections(r io.Reader) ([]*Section, error) {
	scanner := bufio.NewScanner(r)
	var out []*Section
	cur := newSection("")
	out = append(out, cur)
	lineno := 0

	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			if !strings.HasSuffix(line, "]") {
				return nil, arkierr.Parse("config", int64(lineno), "malformed section header %q", line)
			}
			name := strings.TrimSpace(line[1 : len(line)-1])
			if name == "" {
				return nil, arkierr.Parse("config", int64(lineno), "empty section name")
			}
			cur = newSection(name)
			out = append(out, cur)
			continue
		}
		idx := strings.Index(line, "=")
		if idx < 0 {
			return nil, arkierr.Parse("config", int64(lineno), "missing '=' in line %q", line)
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		if key == "" {
			return nil, arkierr.Parse("config", int64(lineno), "empty key in line %q", line)
		}
		cur.set(key, value)
	}
	if err := scanner.Err(); err != nil {
		return nil, arkierr.IO(err, "reading config")
	}
	return out, nil
}
