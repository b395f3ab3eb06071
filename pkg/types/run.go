package types

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/arkimet-go/arkimet/internal/arkierr"
)

// Run identifies the model run time of day, in minutes since midnight
// (spec §3). MINUTE is its only style.
const runStyleMinute byte = 1

type RunMinute struct {
	Minute OptInt
}

func (r RunMinute) Code() Code    { return CodeRun }
func (r RunMinute) Style() string { return "MINUTE" }
func (r RunMinute) EncodeBinary(buf *bytes.Buffer) {
	buf.WriteByte(runStyleMinute)
	var b [2]byte
	if r.Minute.Defined {
		b[0] = byte(r.Minute.Value >> 8)
		b[1] = byte(r.Minute.Value)
	} else {
		b[0], b[1] = 0xff, 0xff
	}
	buf.Write(b[:])
}
func (r RunMinute) String() string {
	if !r.Minute.Defined {
		return "MINUTE()"
	}
	return fmt.Sprintf("MINUTE(%02d:%02d)", r.Minute.Value/60, r.Minute.Value%60)
}
func (r RunMinute) Structured() map[string]interface{} {
	return map[string]interface{}{"s": "MINUTE", "mi": optIntIface(r.Minute)}
}
func (r RunMinute) Compare(other Item) int {
	if c := compareInt(int(r.Code()), int(other.Code())); c != 0 {
		return c
	}
	ov, ok := other.(RunMinute)
	if !ok {
		return 1
	}
	return r.Minute.Compare(ov.Minute)
}
func (r RunMinute) Equals(other Item) bool { return r.Compare(other) == 0 }

func decodeRunBinary(style byte, payload []byte) (Item, error) {
	if style != runStyleMinute {
		return nil, arkierr.Format("unknown run style %d", style)
	}
	if len(payload) < 2 {
		return nil, arkierr.Parse("run", 0, "MINUTE payload too short")
	}
	if payload[0] == 0xff && payload[1] == 0xff {
		return RunMinute{Undefined}, nil
	}
	return RunMinute{DefinedInt(int(payload[0])<<8 | int(payload[1]))}, nil
}

func decodeRunString(style string, args string) (Item, error) {
	if style != "MINUTE" {
		return nil, arkierr.Parse("run", 0, "unknown run style %q", style)
	}
	args = strings.TrimSpace(args)
	if args == "" {
		return RunMinute{Undefined}, nil
	}
	var hh, mm int
	if _, err := fmt.Sscanf(args, "%d:%d", &hh, &mm); err != nil {
		return nil, arkierr.Parse("run", 0, "bad MINUTE value %q: %v", args, err)
	}
	return RunMinute{DefinedInt(hh*60 + mm)}, nil
}

func decodeRunStructured(style string, m map[string]interface{}) (Item, error) {
	if style != "MINUTE" {
		return nil, arkierr.Format("unknown run style %q", style)
	}
	v, ok := m["mi"]
	if !ok || v == nil {
		return RunMinute{Undefined}, nil
	}
	switch n := v.(type) {
	case int:
		return RunMinute{DefinedInt(n)}, nil
	case float64:
		return RunMinute{DefinedInt(int(n))}, nil
	}
	return RunMinute{Undefined}, nil
}

func init() {
	register(CodeRun, codeRegistration{
		decodeBinary:     decodeRunBinary,
		decodeString:     decodeRunString,
		decodeStructured: decodeRunStructured,
	})
}
