package types

import (
	"bytes"
	"fmt"

	"github.com/arkimet-go/arkimet/internal/arkierr"
)

// Proddef carries a ValueBag of product-definition attributes that do
// not belong in Product itself (spec §3), e.g. a model's internal
// variable name. GRIB is its only style.
const proddefStyleGRIB byte = 1

type ProddefGRIB struct {
	Values *ValueBag
}

func (p ProddefGRIB) Code() Code    { return CodeProddef }
func (p ProddefGRIB) Style() string { return "GRIB" }
func (p ProddefGRIB) EncodeBinary(buf *bytes.Buffer) {
	buf.WriteByte(proddefStyleGRIB)
	vbEncode(buf, p.Values)
}
func (p ProddefGRIB) String() string { return fmt.Sprintf("GRIB(%s)", vbString(p.Values)) }
func (p ProddefGRIB) Structured() map[string]interface{} {
	return map[string]interface{}{"s": "GRIB", "va": vbString(p.Values)}
}
func (p ProddefGRIB) Compare(other Item) int {
	if c := compareInt(int(p.Code()), int(other.Code())); c != 0 {
		return c
	}
	ov, ok := other.(ProddefGRIB)
	if !ok {
		return 1
	}
	return vbCompare(p.Values, ov.Values)
}
func (p ProddefGRIB) Equals(other Item) bool { return p.Compare(other) == 0 }

func decodeProddefBinary(style byte, payload []byte) (Item, error) {
	if style != proddefStyleGRIB {
		return nil, arkierr.Format("unknown proddef style %d", style)
	}
	n, ln, err := readVarlen(payload)
	if err != nil {
		return nil, arkierr.Parse("proddef", 0, "%v", err)
	}
	vb := NewValueBag()
	if n > 0 {
		vb, err = DecodeValueBagBinary(payload[ln : ln+n])
		if err != nil {
			return nil, err
		}
	}
	return ProddefGRIB{vb}, nil
}

func decodeProddefString(style string, args string) (Item, error) {
	if style != "GRIB" {
		return nil, arkierr.Parse("proddef", 0, "unknown proddef style %q", style)
	}
	vb, err := ParseValueBagString(args)
	if err != nil {
		return nil, err
	}
	return ProddefGRIB{vb}, nil
}

func decodeProddefStructured(style string, m map[string]interface{}) (Item, error) {
	if style != "GRIB" {
		return nil, arkierr.Format("unknown proddef style %q", style)
	}
	va, _ := m["va"].(string)
	vb, err := ParseValueBagString(va)
	if err != nil {
		return nil, err
	}
	return ProddefGRIB{vb}, nil
}

func init() {
	register(CodeProddef, codeRegistration{
		decodeBinary:     decodeProddefBinary,
		decodeString:     decodeProddefString,
		decodeStructured: decodeProddefStructured,
	})
}
