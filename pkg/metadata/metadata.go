package metadata

import (
	"bytes"
	"sort"

	"github.com/arkimet-go/arkimet/internal/arkierr"
	"github.com/arkimet-go/arkimet/pkg/types"
)

// Metadata is an ordered map from type code to exactly one typed item,
// except NOTE which may repeat (spec §3). Source and AssignedDataset
// are singletons stored alongside the typed items, since they are
// themselves Item-shaped codes in the type registry.
type Metadata struct {
	items map[types.Code][]types.Item
	order []types.Code
	src   Source
}

// New returns an empty Metadata record.
func New() *Metadata {
	return &Metadata{items: make(map[types.Code][]types.Item)}
}

// Set installs item under its own code, replacing any existing value
// (except NOTE, which accumulates). Re-inserting a code already present
// does not change its position in Codes().
func (m *Metadata) Set(item types.Item) {
	code := item.Code()
	_, exists := m.items[code]
	if code.Repeated() {
		m.items[code] = append(m.items[code], item)
	} else {
		m.items[code] = []types.Item{item}
	}
	if !exists {
		m.order = append(m.order, code)
	}
}

// Get returns the single item stored under code (the first one, for
// NOTE), or false if code is absent.
func (m *Metadata) Get(code types.Code) (types.Item, bool) {
	items, ok := m.items[code]
	if !ok || len(items) == 0 {
		return nil, false
	}
	return items[0], true
}

// GetAll returns every item stored under code, in insertion order.
func (m *Metadata) GetAll(code types.Code) []types.Item {
	return append([]types.Item(nil), m.items[code]...)
}

// Codes returns the distinct codes present, in first-insertion order.
func (m *Metadata) Codes() []types.Code {
	return append([]types.Code(nil), m.order...)
}

// Unset removes every item under code.
func (m *Metadata) Unset(code types.Code) {
	if _, ok := m.items[code]; !ok {
		return
	}
	delete(m.items, code)
	for i, c := range m.order {
		if c == code {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Source returns the provenance of this record, or nil if unset.
func (m *Metadata) Source() Source { return m.src }

// SetSource installs the provenance of this record.
func (m *Metadata) SetSource(s Source) { m.src = s }

// Clone makes a shallow copy: items are immutable so sharing them is
// safe, but the record's own maps and Source pointer are independent.
func (m *Metadata) Clone() *Metadata {
	out := New()
	out.order = append([]types.Code(nil), m.order...)
	for code, items := range m.items {
		out.items[code] = append([]types.Item(nil), items...)
	}
	out.src = m.src
	return out
}

// sortedCodes returns Codes() in the total order required for
// lexicographic Metadata comparison (spec §3: "first by type code").
func (m *Metadata) sortedCodes() []types.Code {
	out := m.Codes()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Compare gives Metadata a total order: lexicographic over
// (code, item) pairs in code order (spec §3). Records with different
// code sets order the shorter prefix first, matching string
// comparison semantics.
func (m *Metadata) Compare(other *Metadata) int {
	a, b := m.sortedCodes(), other.sortedCodes()
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
		ai, bi := m.items[a[i]], other.items[b[i]]
		for j := 0; j < len(ai) && j < len(bi); j++ {
			if c := ai[j].Compare(bi[j]); c != 0 {
				return c
			}
		}
		if len(ai) != len(bi) {
			if len(ai) < len(bi) {
				return -1
			}
			return 1
		}
	}
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return 0
}

// EncodeBinary writes every item (in Codes() order, NOTE items in
// insertion order) followed by the Source, each as an
// {code, sizelen, payload} envelope (spec §6 "MD record").
func (m *Metadata) EncodeBinary(buf *bytes.Buffer) {
	for _, code := range m.order {
		for _, item := range m.items[code] {
			types.EncodeBinaryEnvelope(buf, item)
		}
	}
	if m.src != nil {
		var payload bytes.Buffer
		m.src.EncodeBinary(&payload)
		buf.WriteByte(byte(types.CodeSource))
		writeVarlen(buf, payload.Len())
		buf.Write(payload.Bytes())
	}
}

// DecodeBinary parses the concatenated {code, sizelen, payload}
// envelopes written by EncodeBinary, stopping at the end of data.
func DecodeBinary(data []byte) (*Metadata, error) {
	m := New()
	pos := 0
	for pos < len(data) {
		if pos+1 > len(data) {
			return nil, arkierr.Parse("metadata", int64(pos), "truncated code byte")
		}
		code := types.Code(data[pos])
		pos++
		n, ln, err := readVarlen(data[pos:])
		if err != nil {
			return nil, arkierr.Parse("metadata", int64(pos), "%v", err)
		}
		pos += ln
		if pos+n > len(data) {
			return nil, arkierr.Parse("metadata", int64(pos), "truncated payload for code %s", code)
		}
		payload := data[pos : pos+n]
		pos += n

		if code == types.CodeSource {
			src, err := DecodeSourceBinary(payload)
			if err != nil {
				return nil, err
			}
			m.SetSource(src)
			continue
		}
		item, err := types.DecodeBinary(code, payload)
		if err != nil {
			return nil, err
		}
		m.Set(item)
	}
	return m, nil
}
