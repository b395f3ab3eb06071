package types

import (
	"bytes"
	"fmt"

	"github.com/arkimet-go/arkimet/internal/arkierr"
)

// Area styles (spec §3): GRIB and ODIMH5 carry an arbitrary ValueBag of
// grid-description key/value pairs (so new grid parameters never need a
// new style); VM2 carries a numeric station id looked up in an external
// station-metadata table.
const (
	areaStyleGRIB   byte = 1
	areaStyleODIMH5 byte = 2
	areaStyleVM2    byte = 3
)

type AreaGRIB struct {
	Values *ValueBag
}

func (a AreaGRIB) Code() Code    { return CodeArea }
func (a AreaGRIB) Style() string { return "GRIB" }
func (a AreaGRIB) EncodeBinary(buf *bytes.Buffer) {
	buf.WriteByte(areaStyleGRIB)
	vbEncode(buf, a.Values)
}
func (a AreaGRIB) String() string { return fmt.Sprintf("GRIB(%s)", vbString(a.Values)) }
func (a AreaGRIB) Structured() map[string]interface{} {
	return map[string]interface{}{"s": "GRIB", "va": vbString(a.Values)}
}
func (a AreaGRIB) Compare(other Item) int { return compareArea(a, other) }
func (a AreaGRIB) Equals(other Item) bool { return a.Compare(other) == 0 }

type AreaODIMH5 struct {
	Values *ValueBag
}

func (a AreaODIMH5) Code() Code    { return CodeArea }
func (a AreaODIMH5) Style() string { return "ODIMH5" }
func (a AreaODIMH5) EncodeBinary(buf *bytes.Buffer) {
	buf.WriteByte(areaStyleODIMH5)
	vbEncode(buf, a.Values)
}
func (a AreaODIMH5) String() string { return fmt.Sprintf("ODIMH5(%s)", vbString(a.Values)) }
func (a AreaODIMH5) Structured() map[string]interface{} {
	return map[string]interface{}{"s": "ODIMH5", "va": vbString(a.Values)}
}
func (a AreaODIMH5) Compare(other Item) int { return compareArea(a, other) }
func (a AreaODIMH5) Equals(other Item) bool { return a.Compare(other) == 0 }

type AreaVM2 struct {
	StationID OptInt
}

func (a AreaVM2) Code() Code    { return CodeArea }
func (a AreaVM2) Style() string { return "VM2" }
func (a AreaVM2) EncodeBinary(buf *bytes.Buffer) {
	buf.WriteByte(areaStyleVM2)
	buf.WriteByte(a.StationID.EncodeByte())
}
func (a AreaVM2) String() string { return fmt.Sprintf("VM2(%s)", a.StationID) }
func (a AreaVM2) Structured() map[string]interface{} {
	return map[string]interface{}{"s": "VM2", "id": optIntIface(a.StationID)}
}
func (a AreaVM2) Compare(other Item) int { return compareArea(a, other) }
func (a AreaVM2) Equals(other Item) bool { return a.Compare(other) == 0 }

// vbEncode/vbString treat a nil ValueBag as empty, so zero-value Area
// items round-trip without callers needing to allocate one.
func vbEncode(buf *bytes.Buffer, vb *ValueBag) {
	var payload bytes.Buffer
	if vb != nil {
		vb.EncodeBinary(&payload)
	}
	writeVarlen(buf, payload.Len())
	buf.Write(payload.Bytes())
}

func vbString(vb *ValueBag) string {
	if vb == nil {
		return ""
	}
	return vb.String()
}

func vbCompare(a, b *ValueBag) int {
	if a == nil {
		a = NewValueBag()
	}
	if b == nil {
		b = NewValueBag()
	}
	return a.Compare(b)
}

func areaStyleRank(it Item) int {
	switch it.(type) {
	case AreaGRIB:
		return int(areaStyleGRIB)
	case AreaODIMH5:
		return int(areaStyleODIMH5)
	case AreaVM2:
		return int(areaStyleVM2)
	default:
		return 255
	}
}

func compareArea(a, b Item) int {
	if c := compareInt(int(a.Code()), int(b.Code())); c != 0 {
		return c
	}
	if c := compareInt(areaStyleRank(a), areaStyleRank(b)); c != 0 {
		return c
	}
	switch av := a.(type) {
	case AreaGRIB:
		return vbCompare(av.Values, b.(AreaGRIB).Values)
	case AreaODIMH5:
		return vbCompare(av.Values, b.(AreaODIMH5).Values)
	case AreaVM2:
		return av.StationID.Compare(b.(AreaVM2).StationID)
	}
	return 0
}

func decodeAreaBinary(style byte, payload []byte) (Item, error) {
	switch style {
	case areaStyleGRIB, areaStyleODIMH5:
		n, ln, err := readVarlen(payload)
		if err != nil {
			return nil, arkierr.Parse("area", 0, "%v", err)
		}
		var vb *ValueBag
		if n > 0 {
			vb, err = DecodeValueBagBinary(payload[ln : ln+n])
			if err != nil {
				return nil, err
			}
		} else {
			vb = NewValueBag()
		}
		if style == areaStyleGRIB {
			return AreaGRIB{vb}, nil
		}
		return AreaODIMH5{vb}, nil
	case areaStyleVM2:
		if len(payload) < 1 {
			return nil, arkierr.Parse("area", 0, "VM2 payload too short")
		}
		return AreaVM2{DecodeOptIntByte(payload[0])}, nil
	default:
		return nil, arkierr.Format("unknown area style %d", style)
	}
}

func decodeAreaString(style string, args string) (Item, error) {
	switch style {
	case "GRIB":
		vb, err := ParseValueBagString(args)
		if err != nil {
			return nil, err
		}
		return AreaGRIB{vb}, nil
	case "ODIMH5":
		vb, err := ParseValueBagString(args)
		if err != nil {
			return nil, err
		}
		return AreaODIMH5{vb}, nil
	case "VM2":
		v, err := ParseOptIntList(args, 1)
		if err != nil {
			return nil, arkierr.Parse("area", 0, "%v", err)
		}
		return AreaVM2{v[0]}, nil
	default:
		return nil, arkierr.Parse("area", 0, "unknown area style %q", style)
	}
}

func decodeAreaStructured(style string, m map[string]interface{}) (Item, error) {
	switch style {
	case "GRIB", "ODIMH5":
		va, _ := m["va"].(string)
		vb, err := ParseValueBagString(va)
		if err != nil {
			return nil, err
		}
		if style == "GRIB" {
			return AreaGRIB{vb}, nil
		}
		return AreaODIMH5{vb}, nil
	case "VM2":
		var id OptInt
		if v, ok := m["id"]; ok && v != nil {
			switch n := v.(type) {
			case int:
				id = DefinedInt(n)
			case float64:
				id = DefinedInt(int(n))
			}
		}
		return AreaVM2{id}, nil
	default:
		return nil, arkierr.Format("unknown area style %q", style)
	}
}

func init() {
	register(CodeArea, codeRegistration{
		decodeBinary:     decodeAreaBinary,
		decodeString:     decodeAreaString,
		decodeStructured: decodeAreaStructured,
	})
}
