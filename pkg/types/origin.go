package types

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/arkimet-go/arkimet/internal/arkierr"
)

// Origin styles (spec §3): GRIB1(centre,subcentre,process),
// GRIB2(centre,subcentre,processtype,bgprocessid,processid),
// BUFR(centre,subcentre), ODIMH5(wmo,rad,plc).
const (
	originStyleGRIB1  byte = 1
	originStyleGRIB2  byte = 2
	originStyleBUFR   byte = 3
	originStyleODIMH5 byte = 4
)

type OriginGRIB1 struct {
	Centre, Subcentre, Process OptInt
}

func (o OriginGRIB1) Code() Code   { return CodeOrigin }
func (o OriginGRIB1) Style() string { return "GRIB1" }

func (o OriginGRIB1) EncodeBinary(buf *bytes.Buffer) {
	buf.WriteByte(originStyleGRIB1)
	buf.WriteByte(o.Centre.EncodeByte())
	buf.WriteByte(o.Subcentre.EncodeByte())
	buf.WriteByte(o.Process.EncodeByte())
}

func (o OriginGRIB1) String() string {
	return fmt.Sprintf("GRIB1(%s,%s,%s)", o.Centre, o.Subcentre, o.Process)
}

func (o OriginGRIB1) Structured() map[string]interface{} {
	return map[string]interface{}{"s": "GRIB1", "ce": optIntIface(o.Centre), "sc": optIntIface(o.Subcentre), "pr": optIntIface(o.Process)}
}

func (o OriginGRIB1) Compare(other Item) int {
	return compareOrigin(o, other)
}

func (o OriginGRIB1) Equals(other Item) bool { return o.Compare(other) == 0 }

type OriginGRIB2 struct {
	Centre, Subcentre, ProcessType, BgProcessID, ProcessID OptInt
}

func (o OriginGRIB2) Code() Code    { return CodeOrigin }
func (o OriginGRIB2) Style() string { return "GRIB2" }

func (o OriginGRIB2) EncodeBinary(buf *bytes.Buffer) {
	buf.WriteByte(originStyleGRIB2)
	for _, f := range []OptInt{o.Centre, o.Subcentre, o.ProcessType, o.BgProcessID, o.ProcessID} {
		buf.WriteByte(f.EncodeByte())
	}
}

func (o OriginGRIB2) String() string {
	return fmt.Sprintf("GRIB2(%s,%s,%s,%s,%s)", o.Centre, o.Subcentre, o.ProcessType, o.BgProcessID, o.ProcessID)
}

func (o OriginGRIB2) Structured() map[string]interface{} {
	return map[string]interface{}{
		"s": "GRIB2", "ce": optIntIface(o.Centre), "sc": optIntIface(o.Subcentre),
		"pt": optIntIface(o.ProcessType), "bi": optIntIface(o.BgProcessID), "pi": optIntIface(o.ProcessID),
	}
}

func (o OriginGRIB2) Compare(other Item) int { return compareOrigin(o, other) }
func (o OriginGRIB2) Equals(other Item) bool { return o.Compare(other) == 0 }

type OriginBUFR struct {
	Centre, Subcentre OptInt
}

func (o OriginBUFR) Code() Code    { return CodeOrigin }
func (o OriginBUFR) Style() string { return "BUFR" }

func (o OriginBUFR) EncodeBinary(buf *bytes.Buffer) {
	buf.WriteByte(originStyleBUFR)
	buf.WriteByte(o.Centre.EncodeByte())
	buf.WriteByte(o.Subcentre.EncodeByte())
}

func (o OriginBUFR) String() string {
	return fmt.Sprintf("BUFR(%s,%s)", o.Centre, o.Subcentre)
}

func (o OriginBUFR) Structured() map[string]interface{} {
	return map[string]interface{}{"s": "BUFR", "ce": optIntIface(o.Centre), "sc": optIntIface(o.Subcentre)}
}

func (o OriginBUFR) Compare(other Item) int { return compareOrigin(o, other) }
func (o OriginBUFR) Equals(other Item) bool { return o.Compare(other) == 0 }

type OriginODIMH5 struct {
	WMO, Rad, Plc string
}

func (o OriginODIMH5) Code() Code    { return CodeOrigin }
func (o OriginODIMH5) Style() string { return "ODIMH5" }

func (o OriginODIMH5) EncodeBinary(buf *bytes.Buffer) {
	buf.WriteByte(originStyleODIMH5)
	for _, s := range []string{o.WMO, o.Rad, o.Plc} {
		writeVarlen(buf, len(s))
		buf.WriteString(s)
	}
}

func (o OriginODIMH5) String() string {
	return fmt.Sprintf("ODIMH5(%s,%s,%s)", o.WMO, o.Rad, o.Plc)
}

func (o OriginODIMH5) Structured() map[string]interface{} {
	return map[string]interface{}{"s": "ODIMH5", "wmo": o.WMO, "rad": o.Rad, "plc": o.Plc}
}

func (o OriginODIMH5) Compare(other Item) int { return compareOrigin(o, other) }
func (o OriginODIMH5) Equals(other Item) bool { return o.Compare(other) == 0 }

// originStyleRank gives the total-order tiebreak between differently
// styled Origins (spec §4.1: "first by type code, then by style, then
// by tuple of payload fields").
func originStyleRank(it Item) int {
	switch it.(type) {
	case OriginGRIB1:
		return int(originStyleGRIB1)
	case OriginGRIB2:
		return int(originStyleGRIB2)
	case OriginBUFR:
		return int(originStyleBUFR)
	case OriginODIMH5:
		return int(originStyleODIMH5)
	default:
		return 255
	}
}

func compareOrigin(a, b Item) int {
	if c := compareInt(int(a.Code()), int(b.Code())); c != 0 {
		return c
	}
	if c := compareInt(originStyleRank(a), originStyleRank(b)); c != 0 {
		return c
	}
	switch av := a.(type) {
	case OriginGRIB1:
		bv := b.(OriginGRIB1)
		if c := av.Centre.Compare(bv.Centre); c != 0 {
			return c
		}
		if c := av.Subcentre.Compare(bv.Subcentre); c != 0 {
			return c
		}
		return av.Process.Compare(bv.Process)
	case OriginGRIB2:
		bv := b.(OriginGRIB2)
		for _, pair := range [][2]OptInt{
			{av.Centre, bv.Centre}, {av.Subcentre, bv.Subcentre}, {av.ProcessType, bv.ProcessType},
			{av.BgProcessID, bv.BgProcessID}, {av.ProcessID, bv.ProcessID},
		} {
			if c := pair[0].Compare(pair[1]); c != 0 {
				return c
			}
		}
		return 0
	case OriginBUFR:
		bv := b.(OriginBUFR)
		if c := av.Centre.Compare(bv.Centre); c != 0 {
			return c
		}
		return av.Subcentre.Compare(bv.Subcentre)
	case OriginODIMH5:
		bv := b.(OriginODIMH5)
		if c := compareString(av.WMO, bv.WMO); c != 0 {
			return c
		}
		if c := compareString(av.Rad, bv.Rad); c != 0 {
			return c
		}
		return compareString(av.Plc, bv.Plc)
	}
	return 0
}

func optIntIface(o OptInt) interface{} {
	if !o.Defined {
		return nil
	}
	return o.Value
}

func decodeOriginBinary(style byte, payload []byte) (Item, error) {
	switch style {
	case originStyleGRIB1:
		if len(payload) < 3 {
			return nil, arkierr.Parse("origin", 0, "GRIB1 payload too short")
		}
		return OriginGRIB1{DecodeOptIntByte(payload[0]), DecodeOptIntByte(payload[1]), DecodeOptIntByte(payload[2])}, nil
	case originStyleGRIB2:
		if len(payload) < 5 {
			return nil, arkierr.Parse("origin", 0, "GRIB2 payload too short")
		}
		return OriginGRIB2{
			DecodeOptIntByte(payload[0]), DecodeOptIntByte(payload[1]), DecodeOptIntByte(payload[2]),
			DecodeOptIntByte(payload[3]), DecodeOptIntByte(payload[4]),
		}, nil
	case originStyleBUFR:
		if len(payload) < 2 {
			return nil, arkierr.Parse("origin", 0, "BUFR payload too short")
		}
		return OriginBUFR{DecodeOptIntByte(payload[0]), DecodeOptIntByte(payload[1])}, nil
	case originStyleODIMH5:
		pos := 0
		vals := make([]string, 3)
		for i := range vals {
			n, ln, err := readVarlen(payload[pos:])
			if err != nil {
				return nil, arkierr.Parse("origin", int64(pos), "%v", err)
			}
			pos += ln
			if pos+n > len(payload) {
				return nil, arkierr.Parse("origin", int64(pos), "truncated ODIMH5 field")
			}
			vals[i] = string(payload[pos : pos+n])
			pos += n
		}
		return OriginODIMH5{vals[0], vals[1], vals[2]}, nil
	default:
		return nil, arkierr.Format("unknown origin style %d", style)
	}
}

func decodeOriginString(style string, args string) (Item, error) {
	switch style {
	case "GRIB1":
		v, err := ParseOptIntList(args, 3)
		if err != nil {
			return nil, arkierr.Parse("origin", 0, "%v", err)
		}
		return OriginGRIB1{v[0], v[1], v[2]}, nil
	case "GRIB2":
		v, err := ParseOptIntList(args, 5)
		if err != nil {
			return nil, arkierr.Parse("origin", 0, "%v", err)
		}
		return OriginGRIB2{v[0], v[1], v[2], v[3], v[4]}, nil
	case "BUFR":
		v, err := ParseOptIntList(args, 2)
		if err != nil {
			return nil, arkierr.Parse("origin", 0, "%v", err)
		}
		return OriginBUFR{v[0], v[1]}, nil
	case "ODIMH5":
		parts := strings.Split(args, ",")
		for len(parts) < 3 {
			parts = append(parts, "")
		}
		return OriginODIMH5{strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2])}, nil
	default:
		return nil, arkierr.Parse("origin", 0, "unknown origin style %q", style)
	}
}

func decodeOriginStructured(style string, m map[string]interface{}) (Item, error) {
	asOpt := func(key string) OptInt {
		v, ok := m[key]
		if !ok || v == nil {
			return Undefined
		}
		switch n := v.(type) {
		case int:
			return DefinedInt(n)
		case float64:
			return DefinedInt(int(n))
		}
		return Undefined
	}
	asStr := func(key string) string {
		v, _ := m[key].(string)
		return v
	}
	switch style {
	case "GRIB1":
		return OriginGRIB1{asOpt("ce"), asOpt("sc"), asOpt("pr")}, nil
	case "GRIB2":
		return OriginGRIB2{asOpt("ce"), asOpt("sc"), asOpt("pt"), asOpt("bi"), asOpt("pi")}, nil
	case "BUFR":
		return OriginBUFR{asOpt("ce"), asOpt("sc")}, nil
	case "ODIMH5":
		return OriginODIMH5{asStr("wmo"), asStr("rad"), asStr("plc")}, nil
	default:
		return nil, arkierr.Format("unknown origin style %q", style)
	}
}

func init() {
	register(CodeOrigin, codeRegistration{
		decodeBinary:     decodeOriginBinary,
		decodeString:     decodeOriginString,
		decodeStructured: decodeOriginStructured,
	})
}
