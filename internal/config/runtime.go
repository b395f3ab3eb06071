package config

import (
	"embed"
	"encoding/json"
	"io"
	"net/url"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/arkimet-go/arkimet/internal/arkierr"
)

//go:embed schemas/*
var schemaFiles embed.FS

func loadSchema(s string) (io.ReadCloser, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	return schemaFiles.Open(u.Path)
}

var runtimeSchema *jsonschema.Schema

func init() {
	jsonschema.Loaders["arkiconfig"] = loadSchema
	schema, err := jsonschema.Compile("arkiconfig://schemas/runtime.schema.json")
	if err != nil {
		panic(err)
	}
	runtimeSchema = schema
}

// RuntimeConfig is the top-level `arkimet.yaml` process configuration
// (AMBIENT STACK): the HTTP wire listen address, the dataset-pool and
// alias file paths, tunable cache sizes, and the maintenance sweep's
// cron schedule. Mirrors cc-backend's internal/config.Keys, a single
// package-level struct with defaults, populated from a config file on
// startup.
type RuntimeConfig struct {
	ListenAddr       string `yaml:"listen_addr" json:"listen_addr"`
	Datasets         string `yaml:"datasets" json:"datasets"`
	Aliases          string `yaml:"aliases" json:"aliases"`
	Tmpdir           string `yaml:"tmpdir" json:"tmpdir"`
	Inbound          string `yaml:"inbound" json:"inbound"`
	LogLevel         string `yaml:"log_level" json:"log_level"`
	SegmentCacheSize int    `yaml:"segment_cache_size" json:"segment_cache_size"`
	IndexCachePages  int    `yaml:"index_cache_pages" json:"index_cache_pages"`
	MaintenanceCron  string `yaml:"maintenance_cron" json:"maintenance_cron"`
}

// Defaults mirrors cc-backend's config.Keys package-level defaults.
func Defaults() RuntimeConfig {
	return RuntimeConfig{
		ListenAddr:      ":8090",
		Datasets:        "./arkimet.conf",
		Tmpdir:          os.TempDir(),
		LogLevel:        "info",
		MaintenanceCron: "0 3 * * *",
	}
}

// Load reads path as YAML into Defaults(), validating it against the
// embedded JSON schema the way cc-backend's config.Init validates
// config.json against pkg/schema.Config before decoding.
func Load(path string) (RuntimeConfig, error) {
	cfg := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, arkierr.IO(err, "reading runtime config %s", path)
	}

	var generic interface{}
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return cfg, arkierr.Parse("yaml", 0, "%v", err)
	}
	// jsonschema validates plain JSON values; round-trip through
	// encoding/json to normalize YAML's decoded shape into the form
	// jsonschema expects.
	normalized, err := json.Marshal(generic)
	if err != nil {
		return cfg, arkierr.Format("normalizing config for validation: %v", err)
	}
	var doc interface{}
	if err := json.Unmarshal(normalized, &doc); err != nil {
		return cfg, arkierr.Format("normalizing config for validation: %v", err)
	}
	if err := runtimeSchema.Validate(doc); err != nil {
		return cfg, arkierr.Format("runtime config failed schema validation: %v", err)
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, arkierr.Parse("yaml", 0, "%v", err)
	}
	return cfg, nil
}
