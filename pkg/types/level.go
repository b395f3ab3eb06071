package types

import (
	"bytes"
	"fmt"

	"github.com/arkimet-go/arkimet/internal/arkierr"
)

// Level styles (spec §3): GRIB1(leveltype,l1,l2), GRIB2S(leveltype,scale,value)
// for a single-surface level, GRIB2D(leveltype1,scale1,value1,leveltype2,scale2,value2)
// for a layer between two surfaces, ODIMH5(min,max) for radar range intervals.
const (
	levelStyleGRIB1  byte = 1
	levelStyleGRIB2S byte = 2
	levelStyleGRIB2D byte = 3
	levelStyleODIMH5 byte = 4
)

type LevelGRIB1 struct {
	LevelType, L1, L2 OptInt
}

func (l LevelGRIB1) Code() Code    { return CodeLevel }
func (l LevelGRIB1) Style() string { return "GRIB1" }
func (l LevelGRIB1) EncodeBinary(buf *bytes.Buffer) {
	buf.WriteByte(levelStyleGRIB1)
	buf.WriteByte(l.LevelType.EncodeByte())
	buf.WriteByte(l.L1.EncodeByte())
	buf.WriteByte(l.L2.EncodeByte())
}
func (l LevelGRIB1) String() string {
	return fmt.Sprintf("GRIB1(%s,%s,%s)", l.LevelType, l.L1, l.L2)
}
func (l LevelGRIB1) Structured() map[string]interface{} {
	return map[string]interface{}{"s": "GRIB1", "lt": optIntIface(l.LevelType), "l1": optIntIface(l.L1), "l2": optIntIface(l.L2)}
}
func (l LevelGRIB1) Compare(other Item) int { return compareLevel(l, other) }
func (l LevelGRIB1) Equals(other Item) bool { return l.Compare(other) == 0 }

type LevelGRIB2S struct {
	LevelType, Scale, Value OptInt
}

func (l LevelGRIB2S) Code() Code    { return CodeLevel }
func (l LevelGRIB2S) Style() string { return "GRIB2S" }
func (l LevelGRIB2S) EncodeBinary(buf *bytes.Buffer) {
	buf.WriteByte(levelStyleGRIB2S)
	buf.WriteByte(l.LevelType.EncodeByte())
	buf.WriteByte(l.Scale.EncodeByte())
	buf.WriteByte(l.Value.EncodeByte())
}
func (l LevelGRIB2S) String() string {
	return fmt.Sprintf("GRIB2S(%s,%s,%s)", l.LevelType, l.Scale, l.Value)
}
func (l LevelGRIB2S) Structured() map[string]interface{} {
	return map[string]interface{}{"s": "GRIB2S", "lt": optIntIface(l.LevelType), "sc": optIntIface(l.Scale), "va": optIntIface(l.Value)}
}
func (l LevelGRIB2S) Compare(other Item) int { return compareLevel(l, other) }
func (l LevelGRIB2S) Equals(other Item) bool { return l.Compare(other) == 0 }

type LevelGRIB2D struct {
	LevelType1, Scale1, Value1, LevelType2, Scale2, Value2 OptInt
}

func (l LevelGRIB2D) Code() Code    { return CodeLevel }
func (l LevelGRIB2D) Style() string { return "GRIB2D" }
func (l LevelGRIB2D) EncodeBinary(buf *bytes.Buffer) {
	buf.WriteByte(levelStyleGRIB2D)
	for _, f := range []OptInt{l.LevelType1, l.Scale1, l.Value1, l.LevelType2, l.Scale2, l.Value2} {
		buf.WriteByte(f.EncodeByte())
	}
}
func (l LevelGRIB2D) String() string {
	return fmt.Sprintf("GRIB2D(%s,%s,%s,%s,%s,%s)", l.LevelType1, l.Scale1, l.Value1, l.LevelType2, l.Scale2, l.Value2)
}
func (l LevelGRIB2D) Structured() map[string]interface{} {
	return map[string]interface{}{
		"s": "GRIB2D", "lt1": optIntIface(l.LevelType1), "sc1": optIntIface(l.Scale1), "va1": optIntIface(l.Value1),
		"lt2": optIntIface(l.LevelType2), "sc2": optIntIface(l.Scale2), "va2": optIntIface(l.Value2),
	}
}
func (l LevelGRIB2D) Compare(other Item) int { return compareLevel(l, other) }
func (l LevelGRIB2D) Equals(other Item) bool { return l.Compare(other) == 0 }

type LevelODIMH5 struct {
	Min, Max OptInt
}

func (l LevelODIMH5) Code() Code    { return CodeLevel }
func (l LevelODIMH5) Style() string { return "ODIMH5" }
func (l LevelODIMH5) EncodeBinary(buf *bytes.Buffer) {
	buf.WriteByte(levelStyleODIMH5)
	buf.WriteByte(l.Min.EncodeByte())
	buf.WriteByte(l.Max.EncodeByte())
}
func (l LevelODIMH5) String() string { return fmt.Sprintf("ODIMH5(%s,%s)", l.Min, l.Max) }
func (l LevelODIMH5) Structured() map[string]interface{} {
	return map[string]interface{}{"s": "ODIMH5", "mi": optIntIface(l.Min), "ma": optIntIface(l.Max)}
}
func (l LevelODIMH5) Compare(other Item) int { return compareLevel(l, other) }
func (l LevelODIMH5) Equals(other Item) bool { return l.Compare(other) == 0 }

func levelStyleRank(it Item) int {
	switch it.(type) {
	case LevelGRIB1:
		return int(levelStyleGRIB1)
	case LevelGRIB2S:
		return int(levelStyleGRIB2S)
	case LevelGRIB2D:
		return int(levelStyleGRIB2D)
	case LevelODIMH5:
		return int(levelStyleODIMH5)
	default:
		return 255
	}
}

func compareLevel(a, b Item) int {
	if c := compareInt(int(a.Code()), int(b.Code())); c != 0 {
		return c
	}
	if c := compareInt(levelStyleRank(a), levelStyleRank(b)); c != 0 {
		return c
	}
	switch av := a.(type) {
	case LevelGRIB1:
		bv := b.(LevelGRIB1)
		for _, p := range [][2]OptInt{{av.LevelType, bv.LevelType}, {av.L1, bv.L1}, {av.L2, bv.L2}} {
			if c := p[0].Compare(p[1]); c != 0 {
				return c
			}
		}
		return 0
	case LevelGRIB2S:
		bv := b.(LevelGRIB2S)
		for _, p := range [][2]OptInt{{av.LevelType, bv.LevelType}, {av.Scale, bv.Scale}, {av.Value, bv.Value}} {
			if c := p[0].Compare(p[1]); c != 0 {
				return c
			}
		}
		return 0
	case LevelGRIB2D:
		bv := b.(LevelGRIB2D)
		for _, p := range [][2]OptInt{
			{av.LevelType1, bv.LevelType1}, {av.Scale1, bv.Scale1}, {av.Value1, bv.Value1},
			{av.LevelType2, bv.LevelType2}, {av.Scale2, bv.Scale2}, {av.Value2, bv.Value2},
		} {
			if c := p[0].Compare(p[1]); c != 0 {
				return c
			}
		}
		return 0
	case LevelODIMH5:
		bv := b.(LevelODIMH5)
		if c := av.Min.Compare(bv.Min); c != 0 {
			return c
		}
		return av.Max.Compare(bv.Max)
	}
	return 0
}

func decodeLevelBinary(style byte, payload []byte) (Item, error) {
	need := func(n int) error {
		if len(payload) < n {
			return arkierr.Parse("level", 0, "payload too short, need %d bytes", n)
		}
		return nil
	}
	switch style {
	case levelStyleGRIB1:
		if err := need(3); err != nil {
			return nil, err
		}
		return LevelGRIB1{DecodeOptIntByte(payload[0]), DecodeOptIntByte(payload[1]), DecodeOptIntByte(payload[2])}, nil
	case levelStyleGRIB2S:
		if err := need(3); err != nil {
			return nil, err
		}
		return LevelGRIB2S{DecodeOptIntByte(payload[0]), DecodeOptIntByte(payload[1]), DecodeOptIntByte(payload[2])}, nil
	case levelStyleGRIB2D:
		if err := need(6); err != nil {
			return nil, err
		}
		return LevelGRIB2D{
			DecodeOptIntByte(payload[0]), DecodeOptIntByte(payload[1]), DecodeOptIntByte(payload[2]),
			DecodeOptIntByte(payload[3]), DecodeOptIntByte(payload[4]), DecodeOptIntByte(payload[5]),
		}, nil
	case levelStyleODIMH5:
		if err := need(2); err != nil {
			return nil, err
		}
		return LevelODIMH5{DecodeOptIntByte(payload[0]), DecodeOptIntByte(payload[1])}, nil
	default:
		return nil, arkierr.Format("unknown level style %d", style)
	}
}

func decodeLevelString(style string, args string) (Item, error) {
	switch style {
	case "GRIB1":
		v, err := ParseOptIntList(args, 3)
		if err != nil {
			return nil, arkierr.Parse("level", 0, "%v", err)
		}
		return LevelGRIB1{v[0], v[1], v[2]}, nil
	case "GRIB2S":
		v, err := ParseOptIntList(args, 3)
		if err != nil {
			return nil, arkierr.Parse("level", 0, "%v", err)
		}
		return LevelGRIB2S{v[0], v[1], v[2]}, nil
	case "GRIB2D":
		v, err := ParseOptIntList(args, 6)
		if err != nil {
			return nil, arkierr.Parse("level", 0, "%v", err)
		}
		return LevelGRIB2D{v[0], v[1], v[2], v[3], v[4], v[5]}, nil
	case "ODIMH5":
		v, err := ParseOptIntList(args, 2)
		if err != nil {
			return nil, arkierr.Parse("level", 0, "%v", err)
		}
		return LevelODIMH5{v[0], v[1]}, nil
	default:
		return nil, arkierr.Parse("level", 0, "unknown level style %q", style)
	}
}

func decodeLevelStructured(style string, m map[string]interface{}) (Item, error) {
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
	switch style {
	case "GRIB1":
		return LevelGRIB1{asOpt("lt"), asOpt("l1"), asOpt("l2")}, nil
	case "GRIB2S":
		return LevelGRIB2S{asOpt("lt"), asOpt("sc"), asOpt("va")}, nil
	case "GRIB2D":
		return LevelGRIB2D{asOpt("lt1"), asOpt("sc1"), asOpt("va1"), asOpt("lt2"), asOpt("sc2"), asOpt("va2")}, nil
	case "ODIMH5":
		return LevelODIMH5{asOpt("mi"), asOpt("ma")}, nil
	default:
		return nil, arkierr.Format("unknown level style %q", style)
	}
}

func init() {
	register(CodeLevel, codeRegistration{
		decodeBinary:     decodeLevelBinary,
		decodeString:     decodeLevelString,
		decodeStructured: decodeLevelStructured,
	})
}
