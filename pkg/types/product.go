package types

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/arkimet-go/arkimet/internal/arkierr"
)

// Product styles, mirroring Origin's: GRIB1(centre,table,product),
// GRIB2(centre,discipline,category,number), BUFR(type,subtype,localsubtype),
// ODIMH5(obj,product).
const (
	productStyleGRIB1  byte = 1
	productStyleGRIB2  byte = 2
	productStyleBUFR   byte = 3
	productStyleODIMH5 byte = 4
)

type ProductGRIB1 struct {
	Centre, Table, Product OptInt
}

func (p ProductGRIB1) Code() Code    { return CodeProduct }
func (p ProductGRIB1) Style() string { return "GRIB1" }
func (p ProductGRIB1) EncodeBinary(buf *bytes.Buffer) {
	buf.WriteByte(productStyleGRIB1)
	buf.WriteByte(p.Centre.EncodeByte())
	buf.WriteByte(p.Table.EncodeByte())
	buf.WriteByte(p.Product.EncodeByte())
}
func (p ProductGRIB1) String() string {
	return fmt.Sprintf("GRIB1(%s,%s,%s)", p.Centre, p.Table, p.Product)
}
func (p ProductGRIB1) Structured() map[string]interface{} {
	return map[string]interface{}{"s": "GRIB1", "ce": optIntIface(p.Centre), "ta": optIntIface(p.Table), "pr": optIntIface(p.Product)}
}
func (p ProductGRIB1) Compare(other Item) int { return compareProduct(p, other) }
func (p ProductGRIB1) Equals(other Item) bool { return p.Compare(other) == 0 }

type ProductGRIB2 struct {
	Centre, Discipline, Category, Number OptInt
}

func (p ProductGRIB2) Code() Code    { return CodeProduct }
func (p ProductGRIB2) Style() string { return "GRIB2" }
func (p ProductGRIB2) EncodeBinary(buf *bytes.Buffer) {
	buf.WriteByte(productStyleGRIB2)
	for _, f := range []OptInt{p.Centre, p.Discipline, p.Category, p.Number} {
		buf.WriteByte(f.EncodeByte())
	}
}
func (p ProductGRIB2) String() string {
	return fmt.Sprintf("GRIB2(%s,%s,%s,%s)", p.Centre, p.Discipline, p.Category, p.Number)
}
func (p ProductGRIB2) Structured() map[string]interface{} {
	return map[string]interface{}{"s": "GRIB2", "ce": optIntIface(p.Centre), "di": optIntIface(p.Discipline), "ca": optIntIface(p.Category), "nu": optIntIface(p.Number)}
}
func (p ProductGRIB2) Compare(other Item) int { return compareProduct(p, other) }
func (p ProductGRIB2) Equals(other Item) bool { return p.Compare(other) == 0 }

type ProductBUFR struct {
	ProductType, Subtype, LocalSubtype OptInt
	Extra                              *ValueBag
}

func (p ProductBUFR) Code() Code    { return CodeProduct }
func (p ProductBUFR) Style() string { return "BUFR" }
func (p ProductBUFR) EncodeBinary(buf *bytes.Buffer) {
	buf.WriteByte(productStyleBUFR)
	buf.WriteByte(p.ProductType.EncodeByte())
	buf.WriteByte(p.Subtype.EncodeByte())
	buf.WriteByte(p.LocalSubtype.EncodeByte())
	var payload bytes.Buffer
	if p.Extra != nil {
		p.Extra.EncodeBinary(&payload)
	}
	writeVarlen(buf, payload.Len())
	buf.Write(payload.Bytes())
}
func (p ProductBUFR) String() string {
	base := fmt.Sprintf("BUFR(%s,%s,%s", p.ProductType, p.Subtype, p.LocalSubtype)
	if p.Extra != nil && p.Extra.Len() > 0 {
		base += ":" + p.Extra.String()
	}
	return base + ")"
}
func (p ProductBUFR) Structured() map[string]interface{} {
	m := map[string]interface{}{"s": "BUFR", "ty": optIntIface(p.ProductType), "st": optIntIface(p.Subtype), "ls": optIntIface(p.LocalSubtype)}
	if p.Extra != nil {
		m["va"] = p.Extra.String()
	}
	return m
}
func (p ProductBUFR) Compare(other Item) int { return compareProduct(p, other) }
func (p ProductBUFR) Equals(other Item) bool { return p.Compare(other) == 0 }

type ProductODIMH5 struct {
	Object, Product string
}

func (p ProductODIMH5) Code() Code    { return CodeProduct }
func (p ProductODIMH5) Style() string { return "ODIMH5" }
func (p ProductODIMH5) EncodeBinary(buf *bytes.Buffer) {
	buf.WriteByte(productStyleODIMH5)
	for _, s := range []string{p.Object, p.Product} {
		writeVarlen(buf, len(s))
		buf.WriteString(s)
	}
}
func (p ProductODIMH5) String() string { return fmt.Sprintf("ODIMH5(%s,%s)", p.Object, p.Product) }
func (p ProductODIMH5) Structured() map[string]interface{} {
	return map[string]interface{}{"s": "ODIMH5", "ob": p.Object, "pr": p.Product}
}
func (p ProductODIMH5) Compare(other Item) int { return compareProduct(p, other) }
func (p ProductODIMH5) Equals(other Item) bool { return p.Compare(other) == 0 }

func productStyleRank(it Item) int {
	switch it.(type) {
	case ProductGRIB1:
		return int(productStyleGRIB1)
	case ProductGRIB2:
		return int(productStyleGRIB2)
	case ProductBUFR:
		return int(productStyleBUFR)
	case ProductODIMH5:
		return int(productStyleODIMH5)
	default:
		return 255
	}
}

func compareProduct(a, b Item) int {
	if c := compareInt(int(a.Code()), int(b.Code())); c != 0 {
		return c
	}
	if c := compareInt(productStyleRank(a), productStyleRank(b)); c != 0 {
		return c
	}
	switch av := a.(type) {
	case ProductGRIB1:
		bv := b.(ProductGRIB1)
		if c := av.Centre.Compare(bv.Centre); c != 0 {
			return c
		}
		if c := av.Table.Compare(bv.Table); c != 0 {
			return c
		}
		return av.Product.Compare(bv.Product)
	case ProductGRIB2:
		bv := b.(ProductGRIB2)
		for _, pair := range [][2]OptInt{{av.Centre, bv.Centre}, {av.Discipline, bv.Discipline}, {av.Category, bv.Category}, {av.Number, bv.Number}} {
			if c := pair[0].Compare(pair[1]); c != 0 {
				return c
			}
		}
		return 0
	case ProductBUFR:
		bv := b.(ProductBUFR)
		for _, pair := range [][2]OptInt{{av.ProductType, bv.ProductType}, {av.Subtype, bv.Subtype}, {av.LocalSubtype, bv.LocalSubtype}} {
			if c := pair[0].Compare(pair[1]); c != 0 {
				return c
			}
		}
		ae, be := av.Extra, bv.Extra
		if ae == nil && be == nil {
			return 0
		}
		if ae == nil {
			return -1
		}
		if be == nil {
			return 1
		}
		return ae.Compare(be)
	case ProductODIMH5:
		bv := b.(ProductODIMH5)
		if c := compareString(av.Object, bv.Object); c != 0 {
			return c
		}
		return compareString(av.Product, bv.Product)
	}
	return 0
}

func decodeProductBinary(style byte, payload []byte) (Item, error) {
	switch style {
	case productStyleGRIB1:
		if len(payload) < 3 {
			return nil, arkierr.Parse("product", 0, "GRIB1 payload too short")
		}
		return ProductGRIB1{DecodeOptIntByte(payload[0]), DecodeOptIntByte(payload[1]), DecodeOptIntByte(payload[2])}, nil
	case productStyleGRIB2:
		if len(payload) < 4 {
			return nil, arkierr.Parse("product", 0, "GRIB2 payload too short")
		}
		return ProductGRIB2{DecodeOptIntByte(payload[0]), DecodeOptIntByte(payload[1]), DecodeOptIntByte(payload[2]), DecodeOptIntByte(payload[3])}, nil
	case productStyleBUFR:
		if len(payload) < 3 {
			return nil, arkierr.Parse("product", 0, "BUFR payload too short")
		}
		p := ProductBUFR{DecodeOptIntByte(payload[0]), DecodeOptIntByte(payload[1]), DecodeOptIntByte(payload[2]), nil}
		rest := payload[3:]
		n, ln, err := readVarlen(rest)
		if err != nil {
			return nil, arkierr.Parse("product", 3, "%v", err)
		}
		if n > 0 {
			vb, err := DecodeValueBagBinary(rest[ln : ln+n])
			if err != nil {
				return nil, err
			}
			p.Extra = vb
		}
		return p, nil
	case productStyleODIMH5:
		pos := 0
		vals := make([]string, 2)
		for i := range vals {
			n, ln, err := readVarlen(payload[pos:])
			if err != nil {
				return nil, arkierr.Parse("product", int64(pos), "%v", err)
			}
			pos += ln
			vals[i] = string(payload[pos : pos+n])
			pos += n
		}
		return ProductODIMH5{vals[0], vals[1]}, nil
	default:
		return nil, arkierr.Format("unknown product style %d", style)
	}
}

func decodeProductString(style string, args string) (Item, error) {
	switch style {
	case "GRIB1":
		v, err := ParseOptIntList(args, 3)
		if err != nil {
			return nil, arkierr.Parse("product", 0, "%v", err)
		}
		return ProductGRIB1{v[0], v[1], v[2]}, nil
	case "GRIB2":
		v, err := ParseOptIntList(args, 4)
		if err != nil {
			return nil, arkierr.Parse("product", 0, "%v", err)
		}
		return ProductGRIB2{v[0], v[1], v[2], v[3]}, nil
	case "BUFR":
		main, extra, _ := strings.Cut(args, ":")
		v, err := ParseOptIntList(main, 3)
		if err != nil {
			return nil, arkierr.Parse("product", 0, "%v", err)
		}
		p := ProductBUFR{v[0], v[1], v[2], nil}
		if extra != "" {
			vb, err := ParseValueBagString(extra)
			if err != nil {
				return nil, err
			}
			p.Extra = vb
		}
		return p, nil
	case "ODIMH5":
		parts := strings.SplitN(args, ",", 2)
		for len(parts) < 2 {
			parts = append(parts, "")
		}
		return ProductODIMH5{strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])}, nil
	default:
		return nil, arkierr.Parse("product", 0, "unknown product style %q", style)
	}
}

func decodeProductStructured(style string, m map[string]interface{}) (Item, error) {
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
	asStr := func(key string) string { v, _ := m[key].(string); return v }
	switch style {
	case "GRIB1":
		return ProductGRIB1{asOpt("ce"), asOpt("ta"), asOpt("pr")}, nil
	case "GRIB2":
		return ProductGRIB2{asOpt("ce"), asOpt("di"), asOpt("ca"), asOpt("nu")}, nil
	case "BUFR":
		p := ProductBUFR{asOpt("ty"), asOpt("st"), asOpt("ls"), nil}
		if va, ok := m["va"].(string); ok && va != "" {
			vb, err := ParseValueBagString(va)
			if err != nil {
				return nil, err
			}
			p.Extra = vb
		}
		return p, nil
	case "ODIMH5":
		return ProductODIMH5{asStr("ob"), asStr("pr")}, nil
	default:
		return nil, arkierr.Format("unknown product style %q", style)
	}
}

func init() {
	register(CodeProduct, codeRegistration{
		decodeBinary:     decodeProductBinary,
		decodeString:     decodeProductString,
		decodeStructured: decodeProductStructured,
	})
}
