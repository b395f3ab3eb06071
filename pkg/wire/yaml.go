package wire

import (
	"github.com/goccy/go-yaml"

	"github.com/arkimet-go/arkimet/internal/arkierr"
	"github.com/arkimet-go/arkimet/pkg/metadata"
	"github.com/arkimet-go/arkimet/pkg/types"
)

// yamlCodeOrder fixes the key order used by EncodeYAML/DecodeYAML,
// matching the order Metadata.Codes() would produce for a record built
// up the usual scan/decode path (spec §3: canonical string form "used
// for queries, YAML, logs").
var yamlCodeOrder = []types.Code{
	types.CodeOrigin, types.CodeProduct, types.CodeLevel, types.CodeTimerange,
	types.CodeReftime, types.CodeArea, types.CodeProddef, types.CodeRun,
	types.CodeBBox, types.CodeQuantity, types.CodeTask, types.CodeValue,
	types.CodeNote, types.CodeAssignedDataset,
}

// EncodeYAML renders md as an ordered "Type: value" mapping (spec §3).
// Source is rendered under its own "source" key; NOTE, the one
// repeated code, appears as multiple entries of the same key, which
// yaml.MapSlice preserves (unlike a plain Go map).
func EncodeYAML(md *metadata.Metadata) ([]byte, error) {
	var doc yaml.MapSlice
	for _, code := range yamlCodeOrder {
		for _, it := range md.GetAll(code) {
			doc = append(doc, yaml.MapItem{Key: code.String(), Value: it.String()})
		}
	}
	if src := md.Source(); src != nil {
		doc = append(doc, yaml.MapItem{Key: "source", Value: src.String()})
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, arkierr.Format("encoding metadata YAML: %v", err)
	}
	return out, nil
}

// DecodeYAML parses the ordered mapping written by EncodeYAML back
// into a Metadata. The "source" key is skipped: Source has no
// registry-based string decoder, so callers that need it back should
// carry it alongside via the binary envelope instead.
func DecodeYAML(data []byte) (*metadata.Metadata, error) {
	var doc yaml.MapSlice
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, arkierr.Parse("yaml", 0, "%v", err)
	}
	md := metadata.New()
	for _, item := range doc {
		key, ok := item.Key.(string)
		if !ok {
			return nil, arkierr.Parse("yaml", 0, "non-string key %v", item.Key)
		}
		if key == "source" {
			continue
		}
		value, ok := item.Value.(string)
		if !ok {
			return nil, arkierr.Parse("yaml", 0, "value for %q is not a scalar string", key)
		}
		code, ok := types.ParseCode(key)
		if !ok {
			return nil, arkierr.Parse("yaml", 0, "unknown type %q", key)
		}
		decoded, err := types.DecodeString(code, value)
		if err != nil {
			return nil, err
		}
		md.Set(decoded)
	}
	return md, nil
}
