// Package wire implements arkimet's on-disk/wire binary envelope and
// the YAML and JSON-structured codecs layered on top of it (spec §3,
// §6).
package wire

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/arkimet-go/arkimet/internal/arkierr"
)

// Magic identifies the record kind of one envelope (spec §6: "MD" for
// metadata, "!D" for metadata with inline data, "SU" for summary, "MG"
// for metadata group).
type Magic [2]byte

var (
	MagicMetadata     = Magic{'M', 'D'}
	MagicMetadataData = Magic{'!', 'D'}
	MagicSummary      = Magic{'S', 'U'}
	MagicGroup        = Magic{'M', 'G'}
)

// MaxVersion is the newest envelope version this package understands;
// versions 1 and 2 share a compatible payload shape (spec §6).
const MaxVersion = 2

// Record is one decoded {magic, version, length}{body} envelope.
type Record struct {
	Magic   Magic
	Version uint16
	Body    []byte
}

// WriteRecord appends one envelope record to w.
func WriteRecord(w io.Writer, magic Magic, version uint16, body []byte) error {
	var hdr [8]byte
	hdr[0], hdr[1] = magic[0], magic[1]
	binary.BigEndian.PutUint16(hdr[2:4], version)
	binary.BigEndian.PutUint32(hdr[4:8], uint32(len(body)))
	if _, err := w.Write(hdr[:]); err != nil {
		return arkierr.IO(err, "writing envelope header")
	}
	if _, err := w.Write(body); err != nil {
		return arkierr.IO(err, "writing envelope body")
	}
	return nil
}

// ReadRecord reads one envelope record from r, returning io.EOF
// (unwrapped) when the stream ends cleanly before a new record starts.
func ReadRecord(r io.Reader) (*Record, error) {
	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, arkierr.IO(err, "reading envelope header")
	}
	magic := Magic{hdr[0], hdr[1]}
	version := binary.BigEndian.Uint16(hdr[2:4])
	length := binary.BigEndian.Uint32(hdr[4:8])
	if version == 0 || version > MaxVersion {
		return nil, arkierr.Format("unsupported envelope version %d", version)
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, arkierr.IO(err, "reading envelope body (%d bytes)", length)
	}
	return &Record{Magic: magic, Version: version, Body: body}, nil
}

// Reader decodes a stream of records, matching the iteration idiom
// used elsewhere for segment/index cursors (Next returns false + nil
// error at clean end-of-stream).
type Reader struct {
	br  *bufio.Reader
	rec *Record
	err error
}

func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

func (s *Reader) Next() bool {
	rec, err := ReadRecord(s.br)
	if err == io.EOF {
		return false
	}
	if err != nil {
		s.err = err
		return false
	}
	s.rec = rec
	return true
}

func (s *Reader) Record() *Record { return s.rec }
func (s *Reader) Err() error      { return s.err }
