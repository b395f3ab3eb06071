package types

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/arkimet-go/arkimet/internal/arkierr"
)

// Reftime styles (spec §3): Position holds a single reference time,
// Period holds a closed [begin, end] interval. Both carry UTC instants
// truncated to second resolution, matching the "coarsest-unit-present"
// equality rule decided for ambiguous reftime comparisons.
const (
	reftimeStylePosition byte = 1
	reftimeStylePeriod   byte = 2

	reftimeLayout = "2006-01-02T15:04:05Z"
)

type ReftimePosition struct {
	Time time.Time
}

func (r ReftimePosition) Code() Code    { return CodeReftime }
func (r ReftimePosition) Style() string { return "POSITION" }
func (r ReftimePosition) EncodeBinary(buf *bytes.Buffer) {
	buf.WriteByte(reftimeStylePosition)
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(r.Time.UTC().Unix()))
	buf.Write(b[:])
}
func (r ReftimePosition) String() string {
	return fmt.Sprintf("POSITION(%s)", r.Time.UTC().Format(reftimeLayout))
}
func (r ReftimePosition) Structured() map[string]interface{} {
	return map[string]interface{}{"s": "POSITION", "ti": r.Time.UTC().Format(reftimeLayout)}
}
func (r ReftimePosition) Compare(other Item) int { return compareReftime(r, other) }
func (r ReftimePosition) Equals(other Item) bool { return r.Compare(other) == 0 }

type ReftimePeriod struct {
	Begin, End time.Time
}

func (r ReftimePeriod) Code() Code    { return CodeReftime }
func (r ReftimePeriod) Style() string { return "PERIOD" }
func (r ReftimePeriod) EncodeBinary(buf *bytes.Buffer) {
	buf.WriteByte(reftimeStylePeriod)
	var b [16]byte
	binary.BigEndian.PutUint64(b[0:8], uint64(r.Begin.UTC().Unix()))
	binary.BigEndian.PutUint64(b[8:16], uint64(r.End.UTC().Unix()))
	buf.Write(b[:])
}
func (r ReftimePeriod) String() string {
	return fmt.Sprintf("PERIOD(%s,%s)", r.Begin.UTC().Format(reftimeLayout), r.End.UTC().Format(reftimeLayout))
}
func (r ReftimePeriod) Structured() map[string]interface{} {
	return map[string]interface{}{"s": "PERIOD", "be": r.Begin.UTC().Format(reftimeLayout), "en": r.End.UTC().Format(reftimeLayout)}
}
func (r ReftimePeriod) Compare(other Item) int { return compareReftime(r, other) }
func (r ReftimePeriod) Equals(other Item) bool { return r.Compare(other) == 0 }

// Interval returns the [begin, end] bounds of a Reftime item regardless
// of style, collapsing POSITION to a zero-width interval. Used by the
// matcher's reftime comparisons and by Summary's interval merge.
func Interval(it Item) (begin, end time.Time, ok bool) {
	switch v := it.(type) {
	case ReftimePosition:
		return v.Time, v.Time, true
	case ReftimePeriod:
		return v.Begin, v.End, true
	default:
		return time.Time{}, time.Time{}, false
	}
}

func reftimeStyleRank(it Item) int {
	switch it.(type) {
	case ReftimePosition:
		return int(reftimeStylePosition)
	case ReftimePeriod:
		return int(reftimeStylePeriod)
	default:
		return 255
	}
}

func compareTime(a, b time.Time) int {
	au, bu := a.UTC().Unix(), b.UTC().Unix()
	switch {
	case au < bu:
		return -1
	case au > bu:
		return 1
	default:
		return 0
	}
}

func compareReftime(a, b Item) int {
	if c := compareInt(int(a.Code()), int(b.Code())); c != 0 {
		return c
	}
	if c := compareInt(reftimeStyleRank(a), reftimeStyleRank(b)); c != 0 {
		return c
	}
	switch av := a.(type) {
	case ReftimePosition:
		bv := b.(ReftimePosition)
		return compareTime(av.Time, bv.Time)
	case ReftimePeriod:
		bv := b.(ReftimePeriod)
		if c := compareTime(av.Begin, bv.Begin); c != 0 {
			return c
		}
		return compareTime(av.End, bv.End)
	}
	return 0
}

func decodeReftimeBinary(style byte, payload []byte) (Item, error) {
	switch style {
	case reftimeStylePosition:
		if len(payload) < 8 {
			return nil, arkierr.Parse("reftime", 0, "POSITION payload too short")
		}
		sec := int64(binary.BigEndian.Uint64(payload[0:8]))
		return ReftimePosition{time.Unix(sec, 0).UTC()}, nil
	case reftimeStylePeriod:
		if len(payload) < 16 {
			return nil, arkierr.Parse("reftime", 0, "PERIOD payload too short")
		}
		begin := int64(binary.BigEndian.Uint64(payload[0:8]))
		end := int64(binary.BigEndian.Uint64(payload[8:16]))
		return ReftimePeriod{time.Unix(begin, 0).UTC(), time.Unix(end, 0).UTC()}, nil
	default:
		return nil, arkierr.Format("unknown reftime style %d", style)
	}
}

func parseReftimeInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{reftimeLayout, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, arkierr.Parse("reftime", 0, "unrecognised time %q", s)
}

func decodeReftimeString(style string, args string) (Item, error) {
	switch style {
	case "POSITION":
		t, err := parseReftimeInstant(args)
		if err != nil {
			return nil, err
		}
		return ReftimePosition{t}, nil
	case "PERIOD":
		parts := strings.SplitN(args, ",", 2)
		if len(parts) != 2 {
			return nil, arkierr.Parse("reftime", 0, "PERIOD needs begin,end")
		}
		begin, err := parseReftimeInstant(parts[0])
		if err != nil {
			return nil, err
		}
		end, err := parseReftimeInstant(parts[1])
		if err != nil {
			return nil, err
		}
		return ReftimePeriod{begin, end}, nil
	default:
		return nil, arkierr.Parse("reftime", 0, "unknown reftime style %q", style)
	}
}

func decodeReftimeStructured(style string, m map[string]interface{}) (Item, error) {
	asTime := func(key string) (time.Time, error) {
		s, _ := m[key].(string)
		return parseReftimeInstant(s)
	}
	switch style {
	case "POSITION":
		t, err := asTime("ti")
		if err != nil {
			return nil, err
		}
		return ReftimePosition{t}, nil
	case "PERIOD":
		b, err := asTime("be")
		if err != nil {
			return nil, err
		}
		e, err := asTime("en")
		if err != nil {
			return nil, err
		}
		return ReftimePeriod{b, e}, nil
	default:
		return nil, arkierr.Format("unknown reftime style %q", style)
	}
}

func init() {
	register(CodeReftime, codeRegistration{
		decodeBinary:     decodeReftimeBinary,
		decodeString:     decodeReftimeString,
		decodeStructured: decodeReftimeStructured,
	})
}
