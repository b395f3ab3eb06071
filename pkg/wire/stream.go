package wire

import (
	"bytes"
	"io"

	"github.com/arkimet-go/arkimet/internal/arkierr"
	"github.com/arkimet-go/arkimet/pkg/metadata"
)

// WriteMetadata appends one "MD" record for md. Use WriteMetadataInline
// instead when md's source is SourceInline, since the datum bytes must
// follow the record (spec §6: "!D" for metadata with inline data).
func WriteMetadata(w io.Writer, md *metadata.Metadata, version uint16) error {
	var body bytes.Buffer
	md.EncodeBinary(&body)
	return WriteRecord(w, MagicMetadata, version, body.Bytes())
}

// WriteMetadataInline appends one "!D" record for md followed
// immediately by data's raw bytes; md's source must already be a
// SourceInline whose Size equals len(data).
func WriteMetadataInline(w io.Writer, md *metadata.Metadata, data []byte, version uint16) error {
	var body bytes.Buffer
	md.EncodeBinary(&body)
	if err := WriteRecord(w, MagicMetadataData, version, body.Bytes()); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return arkierr.IO(err, "writing inline datum")
	}
	return nil
}

// ReadInline reads the raw datum bytes that follow an "!D" record just
// returned by Next, sized by md's SourceInline.Size.
func (s *Reader) ReadInline(md *metadata.Metadata) ([]byte, error) {
	src, ok := md.Source().(metadata.SourceInline)
	if !ok {
		return nil, arkierr.Format("metadata source is not INLINE")
	}
	data := make([]byte, src.Size)
	if _, err := io.ReadFull(s.br, data); err != nil {
		return nil, arkierr.IO(err, "reading inline datum (%d bytes)", src.Size)
	}
	return data, nil
}

// ReadMetadata decodes the body of an "MD"/"!D" record.
func ReadMetadata(rec *Record) (*metadata.Metadata, error) {
	if rec.Magic != MagicMetadata && rec.Magic != MagicMetadataData {
		return nil, arkierr.Format("expected MD/!D record, got %q", string(rec.Magic[:]))
	}
	return metadata.DecodeBinary(rec.Body)
}

// WriteSummary appends one "SU" record for s.
func WriteSummary(w io.Writer, s *metadata.Summary, version uint16) error {
	var body bytes.Buffer
	s.EncodeBinary(&body)
	return WriteRecord(w, MagicSummary, version, body.Bytes())
}

// ReadSummary decodes the body of an "SU" record.
func ReadSummary(rec *Record) (*metadata.Summary, error) {
	if rec.Magic != MagicSummary {
		return nil, arkierr.Format("expected SU record, got %q", string(rec.Magic[:]))
	}
	return metadata.DecodeSummaryBinary(rec.Body)
}

// WriteGroup appends one "MG" record wrapping a batch of metadata
// records, used when a producer wants a single atomic write for
// several items (spec §6: "MG" for metadata group).
func WriteGroup(w io.Writer, items []*metadata.Metadata, version uint16) error {
	var body bytes.Buffer
	for _, md := range items {
		if err := WriteMetadata(&body, md, version); err != nil {
			return err
		}
	}
	return WriteRecord(w, MagicGroup, version, body.Bytes())
}

// ReadGroup decodes the body of an "MG" record back into its member
// metadata records.
func ReadGroup(rec *Record) ([]*metadata.Metadata, error) {
	if rec.Magic != MagicGroup {
		return nil, arkierr.Format("expected MG record, got %q", string(rec.Magic[:]))
	}
	inner := NewReader(bytes.NewReader(rec.Body))
	var out []*metadata.Metadata
	for inner.Next() {
		md, err := ReadMetadata(inner.Record())
		if err != nil {
			return nil, err
		}
		out = append(out, md)
	}
	if inner.Err() != nil {
		return nil, inner.Err()
	}
	return out, nil
}
