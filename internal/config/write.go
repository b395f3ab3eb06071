package config

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/arkimet-go/arkimet/internal/dataset"
)

// WriteDatasetConfig serializes cfg back into the `[name]\nkey = value`
// dialect ParseDatasetConfigs reads — the shape httpwire's GET /config
// returns (spec §6: "dataset config as INI").
func WriteDatasetConfig(w io.Writer, cfg dataset.Config) error {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]\n", cfg.Name)
	writeKV(&b, "type", cfg.Type)
	writeKV(&b, "step", cfg.Step)
	writeKV(&b, "filter", cfg.Filter)
	if len(cfg.Index) > 0 {
		writeKV(&b, "index", strings.Join(cfg.Index, ", "))
	}
	writeKV(&b, "path", cfg.Path)
	if cfg.Replace {
		writeKV(&b, "replace", "yes")
	}
	if cfg.ArchiveAge > 0 {
		writeKV(&b, "archive age", strconv.Itoa(cfg.ArchiveAge))
	}
	if cfg.DeleteAge > 0 {
		writeKV(&b, "delete age", strconv.Itoa(cfg.DeleteAge))
	}
	if len(cfg.Postprocess) > 0 {
		writeKV(&b, "postprocess", strings.Join(cfg.Postprocess, " "))
	}
	writeKV(&b, "qmacro", cfg.QMacro)
	writeKV(&b, "format", cfg.Format)
	_, err := io.WriteString(w, b.String())
	return err
}

func writeKV(b *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%s = %s\n", key, value)
}
