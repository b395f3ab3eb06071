package types

import (
	"strconv"
	"strings"
)

// OptInt is an integer field that may be absent from the string form of
// an item (spec §4.1: "Integer fields that are absent from the string
// form are encoded as a dedicated undefined sentinel in binary and
// always compare less than any defined value").
type OptInt struct {
	Defined bool
	Value   int
}

// Undefined is the zero value: Defined == false.
var Undefined = OptInt{}

func DefinedInt(v int) OptInt { return OptInt{Defined: true, Value: v} }

func (o OptInt) Compare(other OptInt) int {
	if !o.Defined && !other.Defined {
		return 0
	}
	if !o.Defined {
		return -1
	}
	if !other.Defined {
		return 1
	}
	return compareInt(o.Value, other.Value)
}

func (o OptInt) String() string {
	if !o.Defined {
		return ""
	}
	return strconv.Itoa(o.Value)
}

// EncodeByte appends a 1-byte encoding of o: 0xff marks undefined,
// otherwise the low 8 bits of the value (values are expected to fit in
// a byte for origin/level style fields per spec's worked examples; a
// 2-byte variant is used where the source calls for a wider range).
func (o OptInt) EncodeByte() byte {
	if !o.Defined {
		return 0xff
	}
	return byte(o.Value)
}

func DecodeOptIntByte(b byte) OptInt {
	if b == 0xff {
		return Undefined
	}
	return DefinedInt(int(b))
}

// ParseOptIntList splits a comma-separated argument list, treating
// empty fields as Undefined, consistent with GRIB1 accepting "0 to 3
// comma-separated integers" with missing fields matching wildcard.
func ParseOptIntList(args string, n int) ([]OptInt, error) {
	out := make([]OptInt, n)
	if strings.TrimSpace(args) == "" {
		return out, nil
	}
	parts := strings.Split(args, ",")
	for i := 0; i < len(parts) && i < n; i++ {
		p := strings.TrimSpace(parts[i])
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		out[i] = DefinedInt(v)
	}
	return out, nil
}
