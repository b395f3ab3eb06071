package config

import (
	"io"
	"strconv"
	"strings"

	"github.com/arkimet-go/arkimet/internal/arkierr"
	"github.com/arkimet-go/arkimet/internal/dataset"
	"github.com/arkimet-go/arkimet/internal/dispatch"
	"github.com/arkimet-go/arkimet/pkg/matcher"
)

// ParseDatasetConfigs reads a multi-section dataset pool file (spec
// §4.5: "[name]" sections with "type", "step", "filter", "index",
// "path", "replace", "archive age", "delete age", "postprocess",
// "qmacro") into []dataset.Config, in declaration order.
func ParseDatasetConfigs(r io.Reader) ([]dataset.Config, error) {
	sections, err := ParseSections(r)
	if err != nil {
		return nil, err
	}
	var out []dataset.Config
	for _, sec := range sections {
		if sec.Name == "" {
			continue
		}
		cfg, err := datasetConfigFromSection(sec)
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, nil
}

func datasetConfigFromSection(sec *Section) (dataset.Config, error) {
	cfg := dataset.Config{
		Name:    sec.Name,
		Type:    sec.Get("type"),
		Step:    sec.Get("step"),
		Filter:  sec.Get("filter"),
		Path:    sec.Get("path"),
		QMacro:  sec.Get("qmacro"),
		Format:  sec.Get("format"),
		Replace: parseBool(sec.Get("replace")),
	}
	if idx := sec.Get("index"); idx != "" {
		cfg.Index = splitList(idx)
	}
	if pp := sec.Get("postprocess"); pp != "" {
		cfg.Postprocess = splitList(pp)
	}
	var err error
	if cfg.ArchiveAge, err = parseIntField(sec, "archive age"); err != nil {
		return cfg, err
	}
	if cfg.DeleteAge, err = parseIntField(sec, "delete age"); err != nil {
		return cfg, err
	}
	switch cfg.Type {
	case "error":
		cfg.ErrorDataset = true
	case "remote", "http":
		cfg.RemoteURL = cfg.Path
	}
	return cfg, nil
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "yes", "true", "1":
		return true
	default:
		return false
	}
}

func parseIntField(sec *Section, key string) (int, error) {
	v := sec.Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, arkierr.Parse("config", 0, "section %q: %s must be an integer, got %q", sec.Name, key, v)
	}
	return n, nil
}

func splitList(v string) []string {
	fields := strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// BuildPool opens a dataset.Pool over configs and the matching set of
// dispatch.Routes (every non-error dataset whose "filter" key is set), compiling each filter against aliasDB (spec
// §4.6: "evaluate every non-error dataset's filter in declared order").
func BuildPool(configs []dataset.Config, aliasDB *matcher.AliasDB) (*dataset.Pool, []dispatch.Route, error) {
	pool := dataset.NewPool(configs)
	var routes []dispatch.Route
	for _, cfg := range configs {
		if cfg.ErrorDataset || cfg.Filter == "" {
			continue
		}
		mtr, err := matcher.Parse(cfg.Filter, aliasDB)
		if err != nil {
			return nil, nil, arkierr.Format("dataset %q: invalid filter: %v", cfg.Name, err)
		}
		routes = append(routes, dispatch.Route{Name: cfg.Name, Filter: mtr})
	}
	return pool, routes, nil
}
