package types

import (
	"bytes"
	"fmt"

	"github.com/arkimet-go/arkimet/internal/arkierr"
)

// Task names the processing task or model configuration that produced
// a BUFR message (spec §3), e.g. "osservazioni fisse". GENERIC is its
// only style.
const taskStyleGeneric byte = 1

type TaskGeneric struct {
	Value string
}

func (t TaskGeneric) Code() Code    { return CodeTask }
func (t TaskGeneric) Style() string { return "GENERIC" }
func (t TaskGeneric) EncodeBinary(buf *bytes.Buffer) {
	buf.WriteByte(taskStyleGeneric)
	writeVarlen(buf, len(t.Value))
	buf.WriteString(t.Value)
}
func (t TaskGeneric) String() string { return fmt.Sprintf("GENERIC(%s)", t.Value) }
func (t TaskGeneric) Structured() map[string]interface{} {
	return map[string]interface{}{"s": "GENERIC", "va": t.Value}
}
func (t TaskGeneric) Compare(other Item) int {
	if c := compareInt(int(t.Code()), int(other.Code())); c != 0 {
		return c
	}
	ov, ok := other.(TaskGeneric)
	if !ok {
		return 1
	}
	return compareString(t.Value, ov.Value)
}
func (t TaskGeneric) Equals(other Item) bool { return t.Compare(other) == 0 }

func decodeTaskBinary(style byte, payload []byte) (Item, error) {
	if style != taskStyleGeneric {
		return nil, arkierr.Format("unknown task style %d", style)
	}
	n, ln, err := readVarlen(payload)
	if err != nil {
		return nil, arkierr.Parse("task", 0, "%v", err)
	}
	return TaskGeneric{string(payload[ln : ln+n])}, nil
}

func decodeTaskString(style string, args string) (Item, error) {
	if style != "GENERIC" {
		return nil, arkierr.Parse("task", 0, "unknown task style %q", style)
	}
	return TaskGeneric{args}, nil
}

func decodeTaskStructured(style string, m map[string]interface{}) (Item, error) {
	if style != "GENERIC" {
		return nil, arkierr.Format("unknown task style %q", style)
	}
	va, _ := m["va"].(string)
	return TaskGeneric{va}, nil
}

func init() {
	register(CodeTask, codeRegistration{
		decodeBinary:     decodeTaskBinary,
		decodeString:     decodeTaskString,
		decodeStructured: decodeTaskStructured,
	})
}
