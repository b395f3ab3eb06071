package wire

import (
	"embed"
	"encoding/json"
	"io"
	"net/url"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/arkimet-go/arkimet/internal/arkierr"
	"github.com/arkimet-go/arkimet/pkg/metadata"
	"github.com/arkimet-go/arkimet/pkg/types"
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

var metadataSchema *jsonschema.Schema

func init() {
	jsonschema.Loaders["arkiwire"] = loadSchema
	s, err := jsonschema.Compile("arkiwire://schemas/metadata.schema.json")
	if err != nil {
		panic(err)
	}
	metadataSchema = s
}

// structuredDoc is the "mapping with 's' for style" structured form of
// Metadata as a whole (spec §3): one object per item plus an optional
// source object, used as the JSON representation by
// EncodeStructuredJSON/DecodeStructuredJSON. No command and no HTTP
// route uses it; the wire protocol carries binary envelopes.
type structuredDoc struct {
	Items  []map[string]interface{} `json:"items"`
	Source map[string]interface{}   `json:"source,omitempty"`
}

// EncodeStructured renders md as its canonical structured form (spec
// §3: "structured form ... used for JSON").
func EncodeStructured(md *metadata.Metadata) map[string]interface{} {
	doc := structuredDoc{}
	for _, code := range yamlCodeOrder {
		for _, it := range md.GetAll(code) {
			m := it.Structured()
			m["t"] = code.String()
			doc.Items = append(doc.Items, m)
		}
	}
	if src := md.Source(); src != nil {
		doc.Source = src.Structured()
	}
	out := map[string]interface{}{"items": doc.Items}
	if doc.Source != nil {
		out["source"] = doc.Source
	}
	return out
}

// EncodeStructuredJSON renders md as validated JSON bytes.
func EncodeStructuredJSON(md *metadata.Metadata) ([]byte, error) {
	doc := EncodeStructured(md)
	if err := metadataSchema.Validate(doc); err != nil {
		return nil, arkierr.Format("structured metadata failed schema validation: %v", err)
	}
	return json.Marshal(doc)
}

// DecodeStructuredJSON validates and parses JSON bytes into a Metadata.
func DecodeStructuredJSON(data []byte) (*metadata.Metadata, error) {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, arkierr.Parse("json", 0, "%v", err)
	}
	if err := metadataSchema.Validate(v); err != nil {
		return nil, arkierr.Format("structured metadata failed schema validation: %v", err)
	}
	doc, ok := v.(map[string]interface{})
	if !ok {
		return nil, arkierr.Parse("json", 0, "top-level value is not an object")
	}
	return decodeStructuredDoc(doc)
}

func decodeStructuredDoc(doc map[string]interface{}) (*metadata.Metadata, error) {
	md := metadata.New()
	rawItems, _ := doc["items"].([]interface{})
	for _, raw := range rawItems {
		m, ok := raw.(map[string]interface{})
		if !ok {
			return nil, arkierr.Parse("json", 0, "item is not an object")
		}
		typeName, _ := m["t"].(string)
		code, ok := types.ParseCode(typeName)
		if !ok {
			return nil, arkierr.Parse("json", 0, "unknown type %q", typeName)
		}
		item, err := types.DecodeStructured(code, m)
		if err != nil {
			return nil, err
		}
		md.Set(item)
	}
	return md, nil
}
