package types

import (
	"bytes"
	"fmt"

	"github.com/arkimet-go/arkimet/internal/arkierr"
)

// Item is the common interface satisfied by every metadata item kind's
// style variants (spec §4.1). Ordering must be a strict weak order;
// equality must agree with Compare returning 0.
type Item interface {
	Code() Code
	Style() string

	// EncodeBinary never fails (spec §4.1: encoding is infallible into
	// an owned buffer); it appends the style tag byte and payload.
	EncodeBinary(buf *bytes.Buffer)

	// String renders the canonical "STYLE(args)" form.
	String() string

	// Structured renders the canonical structured form: "s" plus
	// style-specific keys, used for JSON.
	Structured() map[string]interface{}

	Compare(other Item) int
	Equals(other Item) bool
}

// decodeBinaryFn decodes a style-tagged binary payload (tag byte already
// consumed by the caller, who passes it in as style) into an Item.
type decodeBinaryFn func(style byte, payload []byte) (Item, error)

// decodeStringFn parses "STYLE(arg1, arg2, ...)" (style already split off)
// into an Item.
type decodeStringFn func(style string, args string) (Item, error)

// decodeStructuredFn builds an Item from a structured-form map (the "s"
// key already consumed).
type decodeStructuredFn func(style string, m map[string]interface{}) (Item, error)

type codeRegistration struct {
	decodeBinary     decodeBinaryFn
	decodeString     decodeStringFn
	decodeStructured decodeStructuredFn
}

var registry = map[Code]codeRegistration{}

func register(code Code, reg codeRegistration) {
	registry[code] = reg
}

// DecodeBinary decodes the payload of one item of the given code; the
// first byte of payload is the style tag (spec §4.1).
func DecodeBinary(code Code, payload []byte) (Item, error) {
	reg, ok := registry[code]
	if !ok || reg.decodeBinary == nil {
		return nil, arkierr.Format("no binary decoder registered for code %s", code)
	}
	if len(payload) < 1 {
		return nil, arkierr.Parse(code.String(), 0, "empty payload, expected at least a style byte")
	}
	return reg.decodeBinary(payload[0], payload[1:])
}

// DecodeString parses "STYLE(args)" for the given code.
func DecodeString(code Code, s string) (Item, error) {
	reg, ok := registry[code]
	if !ok || reg.decodeString == nil {
		return nil, arkierr.Format("no string decoder registered for code %s", code)
	}
	style, args, err := splitStyle(s)
	if err != nil {
		return nil, arkierr.Parse(code.String(), 0, "%v", err)
	}
	return reg.decodeString(style, args)
}

// DecodeStructured builds an Item from a structured-form map for the
// given code; the map must carry an "s" key naming the style.
func DecodeStructured(code Code, m map[string]interface{}) (Item, error) {
	reg, ok := registry[code]
	if !ok || reg.decodeStructured == nil {
		return nil, arkierr.Format("no structured decoder registered for code %s", code)
	}
	styleVal, ok := m["s"]
	if !ok {
		return nil, arkierr.Parse(code.String(), 0, "missing style key 's'")
	}
	style, ok := styleVal.(string)
	if !ok {
		return nil, arkierr.Parse(code.String(), 0, "style key 's' is not a string")
	}
	return reg.decodeStructured(style, m)
}

// splitStyle splits "STYLE(args)" into ("STYLE", "args"). A bare
// "STYLE" with no parens is accepted with an empty args string.
func splitStyle(s string) (style, args string, err error) {
	open := -1
	for i, r := range s {
		if r == '(' {
			open = i
			break
		}
	}
	if open < 0 {
		return s, "", nil
	}
	if s[len(s)-1] != ')' {
		return "", "", fmt.Errorf("unterminated style arguments in %q", s)
	}
	return s[:open], s[open+1 : len(s)-1], nil
}

// EncodeBinaryEnvelope writes {code:1, sizelen, length, payload} for one
// item, matching the MD record body layout of spec §6.
func EncodeBinaryEnvelope(buf *bytes.Buffer, item Item) {
	var payload bytes.Buffer
	item.EncodeBinary(&payload)
	buf.WriteByte(byte(item.Code()))
	writeVarlen(buf, payload.Len())
	buf.Write(payload.Bytes())
}

// writeVarlen writes a length using a 1-byte form for n < 255, else a
// marker byte 0xff followed by a 4-byte big-endian length.
func writeVarlen(buf *bytes.Buffer, n int) {
	if n < 0xff {
		buf.WriteByte(byte(n))
		return
	}
	buf.WriteByte(0xff)
	buf.WriteByte(byte(n >> 24))
	buf.WriteByte(byte(n >> 16))
	buf.WriteByte(byte(n >> 8))
	buf.WriteByte(byte(n))
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
