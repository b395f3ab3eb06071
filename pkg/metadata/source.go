// Package metadata implements the ordered Metadata record, its Source
// provenance kind, and the Summary aggregate tree (spec §3, §4.4).
package metadata

import (
	"bytes"
	"fmt"

	"github.com/arkimet-go/arkimet/internal/arkierr"
)

// Source carries the provenance of a datum (spec §3): Blob points into
// a segment file, Inline means the datum immediately follows the
// metadata record in a stream, URL means it is retrievable over HTTP.
type Source interface {
	Kind() string
	Format() string
	EncodeBinary(buf *bytes.Buffer)
	String() string
	Structured() map[string]interface{}
}

const (
	sourceStyleBlob   byte = 1
	sourceStyleInline byte = 2
	sourceStyleURL    byte = 3
)

// SourceBlob points at byte range [Offset, Offset+Size) inside file
// Root/Relpath. Root is optional; an empty Root means the path is
// relative to wherever the stream carrying this metadata came from.
type SourceBlob struct {
	DataFormat   string
	Root         string
	Relpath      string
	Offset, Size uint64
}

func (s SourceBlob) Kind() string   { return "BLOB" }
func (s SourceBlob) Format() string { return s.DataFormat }
func (s SourceBlob) EncodeBinary(buf *bytes.Buffer) {
	buf.WriteByte(sourceStyleBlob)
	writeStr(buf, s.DataFormat)
	writeStr(buf, s.Root)
	writeStr(buf, s.Relpath)
	writeU64(buf, s.Offset)
	writeU64(buf, s.Size)
}
func (s SourceBlob) String() string {
	return fmt.Sprintf("BLOB(%s,%s,%s,%d,%d)", s.DataFormat, s.Root, s.Relpath, s.Offset, s.Size)
}
func (s SourceBlob) Structured() map[string]interface{} {
	return map[string]interface{}{
		"k": "BLOB", "fo": s.DataFormat, "ro": s.Root, "re": s.Relpath, "of": s.Offset, "sz": s.Size,
	}
}

// WithBasedir returns a copy of s with an absolute Root substituted,
// used when a dataset relocates relative-path sources read from a
// stream onto its own storage root.
func (s SourceBlob) WithBasedir(root string) SourceBlob {
	s.Root = root
	return s
}

// SourceInline means the datum's bytes immediately follow the metadata
// record in the stream that carried it; Size lets a reader skip it
// without decoding the payload.
type SourceInline struct {
	DataFormat string
	Size       uint64
}

func (s SourceInline) Kind() string   { return "INLINE" }
func (s SourceInline) Format() string { return s.DataFormat }
func (s SourceInline) EncodeBinary(buf *bytes.Buffer) {
	buf.WriteByte(sourceStyleInline)
	writeStr(buf, s.DataFormat)
	writeU64(buf, s.Size)
}
func (s SourceInline) String() string {
	return fmt.Sprintf("INLINE(%s,%d)", s.DataFormat, s.Size)
}
func (s SourceInline) Structured() map[string]interface{} {
	return map[string]interface{}{"k": "INLINE", "fo": s.DataFormat, "sz": s.Size}
}

// SourceURL means the datum is retrievable over HTTP at URL.
type SourceURL struct {
	DataFormat string
	URL        string
}

func (s SourceURL) Kind() string   { return "URL" }
func (s SourceURL) Format() string { return s.DataFormat }
func (s SourceURL) EncodeBinary(buf *bytes.Buffer) {
	buf.WriteByte(sourceStyleURL)
	writeStr(buf, s.DataFormat)
	writeStr(buf, s.URL)
}
func (s SourceURL) String() string { return fmt.Sprintf("URL(%s,%s)", s.DataFormat, s.URL) }
func (s SourceURL) Structured() map[string]interface{} {
	return map[string]interface{}{"k": "URL", "fo": s.DataFormat, "ur": s.URL}
}

func writeStr(buf *bytes.Buffer, s string) {
	writeVarlen(buf, len(s))
	buf.WriteString(s)
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	buf.Write(b[:])
}

func readU64(data []byte) (uint64, error) {
	if len(data) < 8 {
		return 0, fmt.Errorf("truncated uint64")
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(data[i])
	}
	return v, nil
}

func writeVarlen(buf *bytes.Buffer, n int) {
	if n < 0xff {
		buf.WriteByte(byte(n))
		return
	}
	buf.WriteByte(0xff)
	buf.WriteByte(byte(n >> 24))
	buf.WriteByte(byte(n >> 16))
	buf.WriteByte(byte(n >> 8))
	buf.WriteByte(byte(n))
}

func readVarlen(data []byte) (n int, consumed int, err error) {
	if len(data) < 1 {
		return 0, 0, fmt.Errorf("truncated length")
	}
	if data[0] != 0xff {
		return int(data[0]), 1, nil
	}
	if len(data) < 5 {
		return 0, 0, fmt.Errorf("truncated extended length")
	}
	n = int(data[1])<<24 | int(data[2])<<16 | int(data[3])<<8 | int(data[4])
	return n, 5, nil
}

func readStr(data []byte) (s string, consumed int, err error) {
	n, ln, err := readVarlen(data)
	if err != nil {
		return "", 0, err
	}
	if ln+n > len(data) {
		return "", 0, fmt.Errorf("truncated string")
	}
	return string(data[ln : ln+n]), ln + n, nil
}

// DecodeSourceBinary parses the payload written by Source.EncodeBinary.
func DecodeSourceBinary(payload []byte) (Source, error) {
	if len(payload) < 1 {
		return nil, arkierr.Parse("source", 0, "empty source payload")
	}
	style := payload[0]
	rest := payload[1:]
	switch style {
	case sourceStyleBlob:
		format, n1, err := readStr(rest)
		if err != nil {
			return nil, arkierr.Parse("source", 1, "%v", err)
		}
		rest = rest[n1:]
		root, n2, err := readStr(rest)
		if err != nil {
			return nil, arkierr.Parse("source", 1, "%v", err)
		}
		rest = rest[n2:]
		relpath, n3, err := readStr(rest)
		if err != nil {
			return nil, arkierr.Parse("source", 1, "%v", err)
		}
		rest = rest[n3:]
		offset, err := readU64(rest)
		if err != nil {
			return nil, arkierr.Parse("source", 1, "%v", err)
		}
		rest = rest[8:]
		size, err := readU64(rest)
		if err != nil {
			return nil, arkierr.Parse("source", 1, "%v", err)
		}
		return SourceBlob{format, root, relpath, offset, size}, nil
	case sourceStyleInline:
		format, n1, err := readStr(rest)
		if err != nil {
			return nil, arkierr.Parse("source", 1, "%v", err)
		}
		rest = rest[n1:]
		size, err := readU64(rest)
		if err != nil {
			return nil, arkierr.Parse("source", 1, "%v", err)
		}
		return SourceInline{format, size}, nil
	case sourceStyleURL:
		format, n1, err := readStr(rest)
		if err != nil {
			return nil, arkierr.Parse("source", 1, "%v", err)
		}
		rest = rest[n1:]
		url, _, err := readStr(rest)
		if err != nil {
			return nil, arkierr.Parse("source", 1, "%v", err)
		}
		return SourceURL{format, url}, nil
	default:
		return nil, arkierr.Format("unknown source style %d", style)
	}
}
