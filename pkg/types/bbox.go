package types

import (
	"bytes"
	"fmt"

	"github.com/arkimet-go/arkimet/internal/arkierr"
)

// BBox attaches the well-known-text bounding geometry of an Area to a
// Summary entry, computed once per distinct area and cached there
// (spec §4.4 "area:bbox"). INVALID marks an area whose geometry could
// not be derived; VALID carries the WKT polygon/point/linestring text.
const (
	bboxStyleInvalid byte = 1
	bboxStyleValid   byte = 2
)

type BBoxInvalid struct{}

func (b BBoxInvalid) Code() Code                          { return CodeBBox }
func (b BBoxInvalid) Style() string                       { return "INVALID" }
func (b BBoxInvalid) EncodeBinary(buf *bytes.Buffer)       { buf.WriteByte(bboxStyleInvalid) }
func (b BBoxInvalid) String() string                      { return "INVALID()" }
func (b BBoxInvalid) Structured() map[string]interface{}  { return map[string]interface{}{"s": "INVALID"} }
func (b BBoxInvalid) Compare(other Item) int              { return compareBBox(b, other) }
func (b BBoxInvalid) Equals(other Item) bool              { return b.Compare(other) == 0 }

type BBoxValid struct {
	WKT string
}

func (b BBoxValid) Code() Code    { return CodeBBox }
func (b BBoxValid) Style() string { return "VALID" }
func (b BBoxValid) EncodeBinary(buf *bytes.Buffer) {
	buf.WriteByte(bboxStyleValid)
	writeVarlen(buf, len(b.WKT))
	buf.WriteString(b.WKT)
}
func (b BBoxValid) String() string { return fmt.Sprintf("VALID(%s)", b.WKT) }
func (b BBoxValid) Structured() map[string]interface{} {
	return map[string]interface{}{"s": "VALID", "wkt": b.WKT}
}
func (b BBoxValid) Compare(other Item) int { return compareBBox(b, other) }
func (b BBoxValid) Equals(other Item) bool { return b.Compare(other) == 0 }

func bboxStyleRank(it Item) int {
	switch it.(type) {
	case BBoxInvalid:
		return int(bboxStyleInvalid)
	case BBoxValid:
		return int(bboxStyleValid)
	default:
		return 255
	}
}

func compareBBox(a, b Item) int {
	if c := compareInt(int(a.Code()), int(b.Code())); c != 0 {
		return c
	}
	if c := compareInt(bboxStyleRank(a), bboxStyleRank(b)); c != 0 {
		return c
	}
	if av, ok := a.(BBoxValid); ok {
		return compareString(av.WKT, b.(BBoxValid).WKT)
	}
	return 0
}

func decodeBBoxBinary(style byte, payload []byte) (Item, error) {
	switch style {
	case bboxStyleInvalid:
		return BBoxInvalid{}, nil
	case bboxStyleValid:
		n, ln, err := readVarlen(payload)
		if err != nil {
			return nil, arkierr.Parse("bbox", 0, "%v", err)
		}
		return BBoxValid{string(payload[ln : ln+n])}, nil
	default:
		return nil, arkierr.Format("unknown bbox style %d", style)
	}
}

func decodeBBoxString(style string, args string) (Item, error) {
	switch style {
	case "INVALID":
		return BBoxInvalid{}, nil
	case "VALID":
		return BBoxValid{args}, nil
	default:
		return nil, arkierr.Parse("bbox", 0, "unknown bbox style %q", style)
	}
}

func decodeBBoxStructured(style string, m map[string]interface{}) (Item, error) {
	switch style {
	case "INVALID":
		return BBoxInvalid{}, nil
	case "VALID":
		wkt, _ := m["wkt"].(string)
		return BBoxValid{wkt}, nil
	default:
		return nil, arkierr.Format("unknown bbox style %q", style)
	}
}

func init() {
	register(CodeBBox, codeRegistration{
		decodeBinary:     decodeBBoxBinary,
		decodeString:     decodeBBoxString,
		decodeStructured: decodeBBoxStructured,
	})
}
