package types

import (
	"bytes"
	"fmt"

	"github.com/arkimet-go/arkimet/internal/arkierr"
)

// Timerange styles (spec §3): GRIB1(type,unit,p1,p2), Timedef(step,stepunit,
// stattype,statlen,statunit) for the WMO "time definition" encoding used by
// GRIB2, and BUFR(value,unit) for the simpler BUFR forecast-time field.
const (
	timerangeStyleGRIB1   byte = 1
	timerangeStyleTimedef byte = 2
	timerangeStyleBUFR    byte = 3
)

type TimerangeGRIB1 struct {
	Type, Unit, P1, P2 OptInt
}

func (t TimerangeGRIB1) Code() Code    { return CodeTimerange }
func (t TimerangeGRIB1) Style() string { return "GRIB1" }
func (t TimerangeGRIB1) EncodeBinary(buf *bytes.Buffer) {
	buf.WriteByte(timerangeStyleGRIB1)
	for _, f := range []OptInt{t.Type, t.Unit, t.P1, t.P2} {
		buf.WriteByte(f.EncodeByte())
	}
}
func (t TimerangeGRIB1) String() string {
	return fmt.Sprintf("GRIB1(%s,%s,%s,%s)", t.Type, t.Unit, t.P1, t.P2)
}
func (t TimerangeGRIB1) Structured() map[string]interface{} {
	return map[string]interface{}{"s": "GRIB1", "ty": optIntIface(t.Type), "un": optIntIface(t.Unit), "p1": optIntIface(t.P1), "p2": optIntIface(t.P2)}
}
func (t TimerangeGRIB1) Compare(other Item) int { return compareTimerange(t, other) }
func (t TimerangeGRIB1) Equals(other Item) bool { return t.Compare(other) == 0 }

type TimerangeTimedef struct {
	Step, StepUnit, StatType, StatLen, StatUnit OptInt
}

func (t TimerangeTimedef) Code() Code    { return CodeTimerange }
func (t TimerangeTimedef) Style() string { return "Timedef" }
func (t TimerangeTimedef) EncodeBinary(buf *bytes.Buffer) {
	buf.WriteByte(timerangeStyleTimedef)
	for _, f := range []OptInt{t.Step, t.StepUnit, t.StatType, t.StatLen, t.StatUnit} {
		buf.WriteByte(f.EncodeByte())
	}
}
func (t TimerangeTimedef) String() string {
	base := fmt.Sprintf("Timedef(%s,%s", t.Step, t.StepUnit)
	if t.StatType.Defined {
		base += fmt.Sprintf(",%s,%s,%s", t.StatType, t.StatLen, t.StatUnit)
	}
	return base + ")"
}
func (t TimerangeTimedef) Structured() map[string]interface{} {
	return map[string]interface{}{
		"s": "Timedef", "st": optIntIface(t.Step), "su": optIntIface(t.StepUnit),
		"pt": optIntIface(t.StatType), "pl": optIntIface(t.StatLen), "pu": optIntIface(t.StatUnit),
	}
}
func (t TimerangeTimedef) Compare(other Item) int { return compareTimerange(t, other) }
func (t TimerangeTimedef) Equals(other Item) bool { return t.Compare(other) == 0 }

type TimerangeBUFR struct {
	Value, Unit OptInt
}

func (t TimerangeBUFR) Code() Code    { return CodeTimerange }
func (t TimerangeBUFR) Style() string { return "BUFR" }
func (t TimerangeBUFR) EncodeBinary(buf *bytes.Buffer) {
	buf.WriteByte(timerangeStyleBUFR)
	buf.WriteByte(t.Value.EncodeByte())
	buf.WriteByte(t.Unit.EncodeByte())
}
func (t TimerangeBUFR) String() string { return fmt.Sprintf("BUFR(%s,%s)", t.Value, t.Unit) }
func (t TimerangeBUFR) Structured() map[string]interface{} {
	return map[string]interface{}{"s": "BUFR", "va": optIntIface(t.Value), "un": optIntIface(t.Unit)}
}
func (t TimerangeBUFR) Compare(other Item) int { return compareTimerange(t, other) }
func (t TimerangeBUFR) Equals(other Item) bool { return t.Compare(other) == 0 }

func timerangeStyleRank(it Item) int {
	switch it.(type) {
	case TimerangeGRIB1:
		return int(timerangeStyleGRIB1)
	case TimerangeTimedef:
		return int(timerangeStyleTimedef)
	case TimerangeBUFR:
		return int(timerangeStyleBUFR)
	default:
		return 255
	}
}

func compareTimerange(a, b Item) int {
	if c := compareInt(int(a.Code()), int(b.Code())); c != 0 {
		return c
	}
	if c := compareInt(timerangeStyleRank(a), timerangeStyleRank(b)); c != 0 {
		return c
	}
	switch av := a.(type) {
	case TimerangeGRIB1:
		bv := b.(TimerangeGRIB1)
		for _, p := range [][2]OptInt{{av.Type, bv.Type}, {av.Unit, bv.Unit}, {av.P1, bv.P1}, {av.P2, bv.P2}} {
			if c := p[0].Compare(p[1]); c != 0 {
				return c
			}
		}
		return 0
	case TimerangeTimedef:
		bv := b.(TimerangeTimedef)
		for _, p := range [][2]OptInt{
			{av.Step, bv.Step}, {av.StepUnit, bv.StepUnit}, {av.StatType, bv.StatType},
			{av.StatLen, bv.StatLen}, {av.StatUnit, bv.StatUnit},
		} {
			if c := p[0].Compare(p[1]); c != 0 {
				return c
			}
		}
		return 0
	case TimerangeBUFR:
		bv := b.(TimerangeBUFR)
		if c := av.Value.Compare(bv.Value); c != 0 {
			return c
		}
		return av.Unit.Compare(bv.Unit)
	}
	return 0
}

func decodeTimerangeBinary(style byte, payload []byte) (Item, error) {
	need := func(n int) error {
		if len(payload) < n {
			return arkierr.Parse("timerange", 0, "payload too short, need %d bytes", n)
		}
		return nil
	}
	switch style {
	case timerangeStyleGRIB1:
		if err := need(4); err != nil {
			return nil, err
		}
		return TimerangeGRIB1{DecodeOptIntByte(payload[0]), DecodeOptIntByte(payload[1]), DecodeOptIntByte(payload[2]), DecodeOptIntByte(payload[3])}, nil
	case timerangeStyleTimedef:
		if err := need(5); err != nil {
			return nil, err
		}
		return TimerangeTimedef{
			DecodeOptIntByte(payload[0]), DecodeOptIntByte(payload[1]), DecodeOptIntByte(payload[2]),
			DecodeOptIntByte(payload[3]), DecodeOptIntByte(payload[4]),
		}, nil
	case timerangeStyleBUFR:
		if err := need(2); err != nil {
			return nil, err
		}
		return TimerangeBUFR{DecodeOptIntByte(payload[0]), DecodeOptIntByte(payload[1])}, nil
	default:
		return nil, arkierr.Format("unknown timerange style %d", style)
	}
}

func decodeTimerangeString(style string, args string) (Item, error) {
	switch style {
	case "GRIB1":
		v, err := ParseOptIntList(args, 4)
		if err != nil {
			return nil, arkierr.Parse("timerange", 0, "%v", err)
		}
		return TimerangeGRIB1{v[0], v[1], v[2], v[3]}, nil
	case "Timedef":
		v, err := ParseOptIntList(args, 5)
		if err != nil {
			return nil, arkierr.Parse("timerange", 0, "%v", err)
		}
		return TimerangeTimedef{v[0], v[1], v[2], v[3], v[4]}, nil
	case "BUFR":
		v, err := ParseOptIntList(args, 2)
		if err != nil {
			return nil, arkierr.Parse("timerange", 0, "%v", err)
		}
		return TimerangeBUFR{v[0], v[1]}, nil
	default:
		return nil, arkierr.Parse("timerange", 0, "unknown timerange style %q", style)
	}
}

func decodeTimerangeStructured(style string, m map[string]interface{}) (Item, error) {
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
		return TimerangeGRIB1{asOpt("ty"), asOpt("un"), asOpt("p1"), asOpt("p2")}, nil
	case "Timedef":
		return TimerangeTimedef{asOpt("st"), asOpt("su"), asOpt("pt"), asOpt("pl"), asOpt("pu")}, nil
	case "BUFR":
		return TimerangeBUFR{asOpt("va"), asOpt("un")}, nil
	default:
		return nil, arkierr.Format("unknown timerange style %q", style)
	}
}

func init() {
	register(CodeTimerange, codeRegistration{
		decodeBinary:     decodeTimerangeBinary,
		decodeString:     decodeTimerangeString,
		decodeStructured: decodeTimerangeStructured,
	})
}
