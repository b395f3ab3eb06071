package segment

import (
	"bytes"

	"github.com/arkimet-go/arkimet/pkg/metadata"
	"github.com/arkimet-go/arkimet/pkg/wire"
)

// buildMetadataSidecar renders declared as the `<relpath>.metadata`
// sidecar content: one "MD" envelope record per datum, each already
// carrying a Blob source from the scan (spec §4.3).
func buildMetadataSidecar(declared []DeclaredRecord) ([]byte, error) {
	var buf bytes.Buffer
	for _, rec := range declared {
		if err := wire.WriteMetadata(&buf, rec.Metadata, wire.MaxVersion); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// summaryBytes renders s as the `<relpath>.summary` sidecar content:
// one "SU" envelope record.
func summaryBytes(s *metadata.Summary) []byte {
	var buf bytes.Buffer
	_ = wire.WriteSummary(&buf, s, wire.MaxVersion)
	return buf.Bytes()
}
