package metadata

import (
	"bytes"
	"sort"
	"time"

	"github.com/arkimet-go/arkimet/internal/arkierr"
	"github.com/arkimet-go/arkimet/pkg/types"
)

// summaryKey is one path down the prefix tree: a value for each of the
// indexed codes, in a fixed order shared by every node in one Summary.
type summaryKey struct {
	code types.Code
	item types.Item
}

// summaryLeaf is the aggregate recorded at one distinct tuple of
// indexed-type values (spec §4.2 "Summary" / §4.4 mduniq semantics).
type summaryLeaf struct {
	count       int64
	size        int64
	begin, end  time.Time
	haveInterval bool
}

func (l *summaryLeaf) absorb(size int64, begin, end time.Time) {
	l.count++
	l.size += size
	if !l.haveInterval {
		l.begin, l.end = begin, end
		l.haveInterval = true
		return
	}
	if begin.Before(l.begin) {
		l.begin = begin
	}
	if end.After(l.end) {
		l.end = end
	}
}

func (l *summaryLeaf) merge(o *summaryLeaf) {
	l.count += o.count
	l.size += o.size
	if !o.haveInterval {
		return
	}
	if !l.haveInterval {
		l.begin, l.end = o.begin, o.end
		l.haveInterval = true
		return
	}
	if o.begin.Before(l.begin) {
		l.begin = o.begin
	}
	if o.end.After(l.end) {
		l.end = o.end
	}
}

// IndexedCodes is the default attribute set indexed into the aggregate
// table (spec §4.4: "typically origin, product, level, timerange,
// area, proddef, run").
var IndexedCodes = []types.Code{
	types.CodeOrigin, types.CodeProduct, types.CodeLevel,
	types.CodeTimerange, types.CodeArea, types.CodeProddef, types.CodeRun,
}

// Summary is a prefix-tree of (code→item) keys over Codes, with leaves
// carrying (count, size, reftime-interval) (spec §3, §4.4).
type Summary struct {
	Codes []types.Code
	rows  map[string]*summaryRow
}

type summaryRow struct {
	values []types.Item
	leaf   summaryLeaf
}

func NewSummary() *Summary {
	return NewSummaryOver(IndexedCodes)
}

// NewSummaryOver builds an empty Summary keyed on a caller-chosen
// subset of codes, used for the "lossy projection" operation (spec §3).
func NewSummaryOver(codes []types.Code) *Summary {
	return &Summary{Codes: append([]types.Code(nil), codes...), rows: map[string]*summaryRow{}}
}

func (s *Summary) rowKey(values []types.Item) string {
	var buf bytes.Buffer
	for _, v := range values {
		if v == nil {
			buf.WriteByte(0)
			continue
		}
		buf.WriteByte(1)
		v.EncodeBinary(&buf)
	}
	return buf.String()
}

// Add folds one Metadata's content and size into the summary.
func (s *Summary) Add(m *Metadata, size int64) {
	values := make([]types.Item, len(s.Codes))
	for i, code := range s.Codes {
		if it, ok := m.Get(code); ok {
			values[i] = it
		}
	}
	key := s.rowKey(values)
	row, ok := s.rows[key]
	if !ok {
		row = &summaryRow{values: values}
		s.rows[key] = row
	}
	var begin, end time.Time
	if rt, ok := m.Get(types.CodeReftime); ok {
		if b, e, ok := types.Interval(rt); ok {
			begin, end = b, e
		}
	}
	row.leaf.absorb(size, begin, end)
}

// Merge folds other's rows into s. Rows are matched by their tuple of
// indexed values; Codes must match (use Project to align mismatched
// summaries first).
func (s *Summary) Merge(other *Summary) error {
	if len(s.Codes) != len(other.Codes) {
		return arkierr.Consistency("cannot merge summaries with different code sets")
	}
	for i := range s.Codes {
		if s.Codes[i] != other.Codes[i] {
			return arkierr.Consistency("cannot merge summaries with different code sets")
		}
	}
	for key, row := range other.rows {
		existing, ok := s.rows[key]
		if !ok {
			cp := *row
			s.rows[key] = &cp
			continue
		}
		existing.leaf.merge(&row.leaf)
	}
	return nil
}

// Count is the total number of Metadata records folded into s.
func (s *Summary) Count() int64 {
	var n int64
	for _, r := range s.rows {
		n += r.leaf.count
	}
	return n
}

// Size is the total byte size of data folded into s.
func (s *Summary) Size() int64 {
	var n int64
	for _, r := range s.rows {
		n += r.leaf.size
	}
	return n
}

// Interval returns the union reftime bounds over every row, or ok=false
// if no row has ever recorded a reftime.
func (s *Summary) Interval() (begin, end time.Time, ok bool) {
	for _, r := range s.rows {
		if !r.leaf.haveInterval {
			continue
		}
		if !ok {
			begin, end, ok = r.leaf.begin, r.leaf.end, true
			continue
		}
		if r.leaf.begin.Before(begin) {
			begin = r.leaf.begin
		}
		if r.leaf.end.After(end) {
			end = r.leaf.end
		}
	}
	return
}

// Project returns a new Summary keyed on a subset of s.Codes, merging
// rows that collapse to the same projected tuple (spec §3 "lossy
// projection to a subset of codes").
func (s *Summary) Project(codes []types.Code) *Summary {
	idx := make([]int, len(codes))
	for i, code := range codes {
		idx[i] = -1
		for j, c := range s.Codes {
			if c == code {
				idx[i] = j
				break
			}
		}
	}
	out := NewSummaryOver(codes)
	for _, row := range s.rows {
		values := make([]types.Item, len(codes))
		for i, j := range idx {
			if j >= 0 {
				values[i] = row.values[j]
			}
		}
		key := out.rowKey(values)
		dst, ok := out.rows[key]
		if !ok {
			dst = &summaryRow{values: values}
			out.rows[key] = dst
		}
		dst.leaf.merge(&row.leaf)
	}
	return out
}

// EachItem calls fn for every distinct value seen at code, in sorted
// order, used to enumerate a Summary's "what origins/products/... are
// present" facet.
func (s *Summary) EachItem(code types.Code, fn func(types.Item)) {
	pos := -1
	for i, c := range s.Codes {
		if c == code {
			pos = i
			break
		}
	}
	if pos < 0 {
		return
	}
	seen := map[string]types.Item{}
	for _, row := range s.rows {
		v := row.values[pos]
		if v == nil {
			continue
		}
		var buf bytes.Buffer
		v.EncodeBinary(&buf)
		seen[buf.String()] = v
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fn(seen[k])
	}
}

// EncodeBinary writes the prefix-tree form used for `.summary` sidecar
// files and the wire "summary" query response (spec §4.3, §6): the
// code list, then one record per row of {values…, count, size,
// haveInterval, begin, end}.
func (s *Summary) EncodeBinary(buf *bytes.Buffer) {
	writeVarlen(buf, len(s.Codes))
	for _, c := range s.Codes {
		buf.WriteByte(byte(c))
	}
	writeVarlen(buf, len(s.rows))
	for _, row := range s.rows {
		for _, v := range row.values {
			if v == nil {
				buf.WriteByte(0)
				continue
			}
			buf.WriteByte(1)
			types.EncodeBinaryEnvelope(buf, v)
		}
		var cb [8]byte
		putI64(cb[:], row.leaf.count)
		buf.Write(cb[:])
		putI64(cb[:], row.leaf.size)
		buf.Write(cb[:])
		if row.leaf.haveInterval {
			buf.WriteByte(1)
			putI64(cb[:], row.leaf.begin.UTC().Unix())
			buf.Write(cb[:])
			putI64(cb[:], row.leaf.end.UTC().Unix())
			buf.Write(cb[:])
		} else {
			buf.WriteByte(0)
		}
	}
}

func putI64(b []byte, v int64) {
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
}

func getI64(b []byte) int64 {
	var v int64
	for i := 0; i < 8; i++ {
		v = v<<8 | int64(b[i])
	}
	return v
}

// DecodeSummaryBinary parses the encoding written by Summary.EncodeBinary.
func DecodeSummaryBinary(data []byte) (*Summary, error) {
	pos := 0
	ncodes, ln, err := readVarlen(data[pos:])
	if err != nil {
		return nil, arkierr.Parse("summary", int64(pos), "%v", err)
	}
	pos += ln
	codes := make([]types.Code, ncodes)
	for i := 0; i < ncodes; i++ {
		if pos >= len(data) {
			return nil, arkierr.Parse("summary", int64(pos), "truncated code list")
		}
		codes[i] = types.Code(data[pos])
		pos++
	}
	s := NewSummaryOver(codes)

	nrows, ln, err := readVarlen(data[pos:])
	if err != nil {
		return nil, arkierr.Parse("summary", int64(pos), "%v", err)
	}
	pos += ln
	for r := 0; r < nrows; r++ {
		values := make([]types.Item, ncodes)
		for i := 0; i < ncodes; i++ {
			if pos >= len(data) {
				return nil, arkierr.Parse("summary", int64(pos), "truncated row tag")
			}
			tag := data[pos]
			pos++
			if tag == 0 {
				continue
			}
			codeByte := data[pos]
			pos++
			n, ln, err := readVarlen(data[pos:])
			if err != nil {
				return nil, arkierr.Parse("summary", int64(pos), "%v", err)
			}
			pos += ln
			item, err := types.DecodeBinary(types.Code(codeByte), data[pos:pos+n])
			if err != nil {
				return nil, err
			}
			pos += n
			values[i] = item
		}
		if pos+16 > len(data) {
			return nil, arkierr.Parse("summary", int64(pos), "truncated leaf counters")
		}
		count := getI64(data[pos : pos+8])
		size := getI64(data[pos+8 : pos+16])
		pos += 16
		leaf := summaryLeaf{count: count, size: size}
		if pos >= len(data) {
			return nil, arkierr.Parse("summary", int64(pos), "truncated interval flag")
		}
		haveInterval := data[pos]
		pos++
		if haveInterval == 1 {
			if pos+16 > len(data) {
				return nil, arkierr.Parse("summary", int64(pos), "truncated interval")
			}
			leaf.begin = time.Unix(getI64(data[pos:pos+8]), 0).UTC()
			leaf.end = time.Unix(getI64(data[pos+8:pos+16]), 0).UTC()
			leaf.haveInterval = true
			pos += 16
		}
		key := s.rowKey(values)
		s.rows[key] = &summaryRow{values: values, leaf: leaf}
	}
	return s, nil
}
