package types

import (
	"bytes"
	"fmt"

	"github.com/arkimet-go/arkimet/internal/arkierr"
)

// ValueItem carries the ValueBag of VM2 value-column attributes
// attached to a single reading (spec §3, distinct from pkg/types.Value
// which is one ValueBag entry). GENERIC is its only style.
const valueItemStyleGeneric byte = 1

type ValueItem struct {
	Values *ValueBag
}

func (v ValueItem) Code() Code    { return CodeValue }
func (v ValueItem) Style() string { return "GENERIC" }
func (v ValueItem) EncodeBinary(buf *bytes.Buffer) {
	buf.WriteByte(valueItemStyleGeneric)
	vbEncode(buf, v.Values)
}
func (v ValueItem) String() string { return fmt.Sprintf("GENERIC(%s)", vbString(v.Values)) }
func (v ValueItem) Structured() map[string]interface{} {
	return map[string]interface{}{"s": "GENERIC", "va": vbString(v.Values)}
}
func (v ValueItem) Compare(other Item) int {
	if c := compareInt(int(v.Code()), int(other.Code())); c != 0 {
		return c
	}
	ov, ok := other.(ValueItem)
	if !ok {
		return 1
	}
	return vbCompare(v.Values, ov.Values)
}
func (v ValueItem) Equals(other Item) bool { return v.Compare(other) == 0 }

func decodeValueItemBinary(style byte, payload []byte) (Item, error) {
	if style != valueItemStyleGeneric {
		return nil, arkierr.Format("unknown value style %d", style)
	}
	n, ln, err := readVarlen(payload)
	if err != nil {
		return nil, arkierr.Parse("value", 0, "%v", err)
	}
	vb := NewValueBag()
	if n > 0 {
		vb, err = DecodeValueBagBinary(payload[ln : ln+n])
		if err != nil {
			return nil, err
		}
	}
	return ValueItem{vb}, nil
}

func decodeValueItemString(style string, args string) (Item, error) {
	if style != "GENERIC" {
		return nil, arkierr.Parse("value", 0, "unknown value style %q", style)
	}
	vb, err := ParseValueBagString(args)
	if err != nil {
		return nil, err
	}
	return ValueItem{vb}, nil
}

func decodeValueItemStructured(style string, m map[string]interface{}) (Item, error) {
	if style != "GENERIC" {
		return nil, arkierr.Format("unknown value style %q", style)
	}
	va, _ := m["va"].(string)
	vb, err := ParseValueBagString(va)
	if err != nil {
		return nil, err
	}
	return ValueItem{vb}, nil
}

func init() {
	register(CodeValue, codeRegistration{
		decodeBinary:     decodeValueItemBinary,
		decodeString:     decodeValueItemString,
		decodeStructured: decodeValueItemStructured,
	})
}
