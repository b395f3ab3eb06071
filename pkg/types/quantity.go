package types

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/arkimet-go/arkimet/internal/arkierr"
)

// Quantity lists the physical quantities carried by a VM2 station's
// value columns (spec §3), e.g. "temperature,humidity". GENERIC is its
// only style; entries are kept sorted for a canonical encoding.
const quantityStyleGeneric byte = 1

type QuantityGeneric struct {
	Names []string
}

func (q QuantityGeneric) Code() Code    { return CodeQuantity }
func (q QuantityGeneric) Style() string { return "GENERIC" }
func (q QuantityGeneric) sorted() []string {
	out := append([]string(nil), q.Names...)
	sort.Strings(out)
	return out
}
func (q QuantityGeneric) EncodeBinary(buf *bytes.Buffer) {
	buf.WriteByte(quantityStyleGeneric)
	names := q.sorted()
	writeVarlen(buf, len(names))
	for _, n := range names {
		writeVarlen(buf, len(n))
		buf.WriteString(n)
	}
}
func (q QuantityGeneric) String() string {
	return fmt.Sprintf("GENERIC(%s)", strings.Join(q.sorted(), ","))
}
func (q QuantityGeneric) Structured() map[string]interface{} {
	return map[string]interface{}{"s": "GENERIC", "va": q.sorted()}
}
func (q QuantityGeneric) Compare(other Item) int {
	if c := compareInt(int(q.Code()), int(other.Code())); c != 0 {
		return c
	}
	ov, ok := other.(QuantityGeneric)
	if !ok {
		return 1
	}
	a, b := q.sorted(), ov.sorted()
	if c := compareInt(len(a), len(b)); c != 0 {
		return c
	}
	for i := range a {
		if c := compareString(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}
func (q QuantityGeneric) Equals(other Item) bool { return q.Compare(other) == 0 }

func decodeQuantityBinary(style byte, payload []byte) (Item, error) {
	if style != quantityStyleGeneric {
		return nil, arkierr.Format("unknown quantity style %d", style)
	}
	count, ln, err := readVarlen(payload)
	if err != nil {
		return nil, arkierr.Parse("quantity", 0, "%v", err)
	}
	pos := ln
	names := make([]string, 0, count)
	for i := 0; i < count; i++ {
		n, l, err := readVarlen(payload[pos:])
		if err != nil {
			return nil, arkierr.Parse("quantity", int64(pos), "%v", err)
		}
		pos += l
		names = append(names, string(payload[pos:pos+n]))
		pos += n
	}
	return QuantityGeneric{names}, nil
}

func decodeQuantityString(style string, args string) (Item, error) {
	if style != "GENERIC" {
		return nil, arkierr.Parse("quantity", 0, "unknown quantity style %q", style)
	}
	args = strings.TrimSpace(args)
	if args == "" {
		return QuantityGeneric{nil}, nil
	}
	var names []string
	for _, n := range strings.Split(args, ",") {
		names = append(names, strings.TrimSpace(n))
	}
	return QuantityGeneric{names}, nil
}

func decodeQuantityStructured(style string, m map[string]interface{}) (Item, error) {
	if style != "GENERIC" {
		return nil, arkierr.Format("unknown quantity style %q", style)
	}
	raw, _ := m["va"].([]interface{})
	names := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			names = append(names, s)
		}
	}
	return QuantityGeneric{names}, nil
}

func init() {
	register(CodeQuantity, codeRegistration{
		decodeBinary:     decodeQuantityBinary,
		decodeString:     decodeQuantityString,
		decodeStructured: decodeQuantityStructured,
	})
}
