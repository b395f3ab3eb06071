package types

import (
	"bytes"
	"fmt"

	"github.com/arkimet-go/arkimet/internal/arkierr"
)

// AssignedDataset records which dataset and position a dispatcher
// committed a Metadata record to (spec §5.3, "ASSIGNEDDATASET
// stamping"). GENERIC is its only style. This code is never written to
// a segment's own .metadata sidecar; it is stamped onto the in-memory
// copy handed back to dispatch callers.
const assignedDatasetStyleGeneric byte = 1

type AssignedDatasetGeneric struct {
	Dataset string
	ID      OptInt
}

func (a AssignedDatasetGeneric) Code() Code    { return CodeAssignedDataset }
func (a AssignedDatasetGeneric) Style() string { return "GENERIC" }
func (a AssignedDatasetGeneric) EncodeBinary(buf *bytes.Buffer) {
	buf.WriteByte(assignedDatasetStyleGeneric)
	writeVarlen(buf, len(a.Dataset))
	buf.WriteString(a.Dataset)
	var idBuf bytes.Buffer
	if a.ID.Defined {
		var b [4]byte
		b[0] = byte(a.ID.Value >> 24)
		b[1] = byte(a.ID.Value >> 16)
		b[2] = byte(a.ID.Value >> 8)
		b[3] = byte(a.ID.Value)
		idBuf.Write(b[:])
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	buf.Write(idBuf.Bytes())
}
func (a AssignedDatasetGeneric) String() string {
	if !a.ID.Defined {
		return fmt.Sprintf("GENERIC(%s,)", a.Dataset)
	}
	return fmt.Sprintf("GENERIC(%s,%d)", a.Dataset, a.ID.Value)
}
func (a AssignedDatasetGeneric) Structured() map[string]interface{} {
	return map[string]interface{}{"s": "GENERIC", "ds": a.Dataset, "id": optIntIface(a.ID)}
}
func (a AssignedDatasetGeneric) Compare(other Item) int {
	if c := compareInt(int(a.Code()), int(other.Code())); c != 0 {
		return c
	}
	ov, ok := other.(AssignedDatasetGeneric)
	if !ok {
		return 1
	}
	if c := compareString(a.Dataset, ov.Dataset); c != 0 {
		return c
	}
	return a.ID.Compare(ov.ID)
}
func (a AssignedDatasetGeneric) Equals(other Item) bool { return a.Compare(other) == 0 }

func decodeAssignedDatasetBinary(style byte, payload []byte) (Item, error) {
	if style != assignedDatasetStyleGeneric {
		return nil, arkierr.Format("unknown assigneddataset style %d", style)
	}
	n, ln, err := readVarlen(payload)
	if err != nil {
		return nil, arkierr.Parse("assigneddataset", 0, "%v", err)
	}
	pos := ln
	name := string(payload[pos : pos+n])
	pos += n
	if pos >= len(payload) {
		return nil, arkierr.Parse("assigneddataset", int64(pos), "truncated id flag")
	}
	hasID := payload[pos]
	pos++
	if hasID == 0 {
		return AssignedDatasetGeneric{name, Undefined}, nil
	}
	if pos+4 > len(payload) {
		return nil, arkierr.Parse("assigneddataset", int64(pos), "truncated id")
	}
	id := int(payload[pos])<<24 | int(payload[pos+1])<<16 | int(payload[pos+2])<<8 | int(payload[pos+3])
	return AssignedDatasetGeneric{name, DefinedInt(id)}, nil
}

func decodeAssignedDatasetString(style string, args string) (Item, error) {
	if style != "GENERIC" {
		return nil, arkierr.Parse("assigneddataset", 0, "unknown assigneddataset style %q", style)
	}
	ds, idPart, _ := cutLast(args)
	if idPart == "" {
		return AssignedDatasetGeneric{ds, Undefined}, nil
	}
	v, err := ParseOptIntList(idPart, 1)
	if err != nil {
		return nil, arkierr.Parse("assigneddataset", 0, "%v", err)
	}
	return AssignedDatasetGeneric{ds, v[0]}, nil
}

// cutLast splits "name,id" on the final comma, tolerating dataset names
// with no comma restriction (e.g. "foo,3" -> "foo", "3").
func cutLast(s string) (name, id string, ok bool) {
	idx := -1
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ',' {
			idx = i
			break
		}
	}
	if idx < 0 {
		return s, "", false
	}
	return s[:idx], s[idx+1:], true
}

func decodeAssignedDatasetStructured(style string, m map[string]interface{}) (Item, error) {
	if style != "GENERIC" {
		return nil, arkierr.Format("unknown assigneddataset style %q", style)
	}
	ds, _ := m["ds"].(string)
	var id OptInt
	if v, ok := m["id"]; ok && v != nil {
		switch n := v.(type) {
		case int:
			id = DefinedInt(n)
		case float64:
			id = DefinedInt(int(n))
		}
	}
	return AssignedDatasetGeneric{ds, id}, nil
}

func init() {
	register(CodeAssignedDataset, codeRegistration{
		decodeBinary:     decodeAssignedDatasetBinary,
		decodeString:     decodeAssignedDatasetString,
		decodeStructured: decodeAssignedDatasetStructured,
	})
}
