package types

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/arkimet-go/arkimet/internal/arkierr"
)

// Note is a timestamped free-text annotation (spec §3); it is the one
// code allowed to repeat within a single Metadata, used by the
// dispatcher to record ambiguity and duplicate-handling decisions.
const noteStyleGeneric byte = 1

type NoteGeneric struct {
	Time time.Time
	Text string
}

func (n NoteGeneric) Code() Code    { return CodeNote }
func (n NoteGeneric) Style() string { return "GENERIC" }
func (n NoteGeneric) EncodeBinary(buf *bytes.Buffer) {
	buf.WriteByte(noteStyleGeneric)
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(n.Time.UTC().Unix()))
	buf.Write(b[:])
	writeVarlen(buf, len(n.Text))
	buf.WriteString(n.Text)
}
func (n NoteGeneric) String() string {
	return fmt.Sprintf("GENERIC(%s,%s)", n.Time.UTC().Format(reftimeLayout), n.Text)
}
func (n NoteGeneric) Structured() map[string]interface{} {
	return map[string]interface{}{"s": "GENERIC", "ti": n.Time.UTC().Format(reftimeLayout), "va": n.Text}
}
func (n NoteGeneric) Compare(other Item) int {
	if c := compareInt(int(n.Code()), int(other.Code())); c != 0 {
		return c
	}
	ov, ok := other.(NoteGeneric)
	if !ok {
		return 1
	}
	if c := compareTime(n.Time, ov.Time); c != 0 {
		return c
	}
	return compareString(n.Text, ov.Text)
}
func (n NoteGeneric) Equals(other Item) bool { return n.Compare(other) == 0 }

func decodeNoteBinary(style byte, payload []byte) (Item, error) {
	if style != noteStyleGeneric {
		return nil, arkierr.Format("unknown note style %d", style)
	}
	if len(payload) < 8 {
		return nil, arkierr.Parse("note", 0, "payload too short")
	}
	sec := int64(binary.BigEndian.Uint64(payload[0:8]))
	n, ln, err := readVarlen(payload[8:])
	if err != nil {
		return nil, arkierr.Parse("note", 8, "%v", err)
	}
	text := string(payload[8+ln : 8+ln+n])
	return NoteGeneric{time.Unix(sec, 0).UTC(), text}, nil
}

func decodeNoteString(style string, args string) (Item, error) {
	if style != "GENERIC" {
		return nil, arkierr.Parse("note", 0, "unknown note style %q", style)
	}
	parts := strings.SplitN(args, ",", 2)
	if len(parts) != 2 {
		return nil, arkierr.Parse("note", 0, "GENERIC needs time,text")
	}
	t, err := parseReftimeInstant(parts[0])
	if err != nil {
		return nil, err
	}
	return NoteGeneric{t, parts[1]}, nil
}

func decodeNoteStructured(style string, m map[string]interface{}) (Item, error) {
	if style != "GENERIC" {
		return nil, arkierr.Format("unknown note style %q", style)
	}
	ti, _ := m["ti"].(string)
	t, err := parseReftimeInstant(ti)
	if err != nil {
		return nil, err
	}
	va, _ := m["va"].(string)
	return NoteGeneric{t, va}, nil
}

func init() {
	register(CodeNote, codeRegistration{
		decodeBinary:     decodeNoteBinary,
		decodeString:     decodeNoteString,
		decodeStructured: decodeNoteStructured,
	})
}
