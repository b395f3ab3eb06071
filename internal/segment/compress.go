package segment

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"io"
	"os"

	"github.com/arkimet-go/arkimet/internal/arkierr"
)

// gzBlockSize is the size, in decompressed bytes, of each independent
// gzip member written to a `.gz` segment (spec §4.3: "a `.gz.idx` seek
// index mapping decompressed offsets to compressed offsets in
// fixed-size blocks"). Each block is its own gzip member so a reader
// can seek directly to the member's compressed offset and decode it
// without replaying earlier blocks — the same idea as bgzip.
const gzBlockSize = 1 << 20

// gzIndexEntry is one checkpoint: byte gzBlockSize*i of the
// decompressed stream begins at CompressedOffset in the `.gz` file.
type gzIndexEntry struct {
	DecompressedOffset uint64
	CompressedOffset   uint64
}

// CompressSegment rewrites dataPath as dataPath+".gz" (independent
// gzip members of gzBlockSize decompressed bytes each) plus
// dataPath+".gz.idx", then removes the uncompressed original. Called
// by cmd/arki-gzip; maintenance archiving moves segments uncompressed.
func CompressSegment(dataPath string) error {
	in, err := os.Open(dataPath)
	if err != nil {
		return arkierr.IO(err, "opening %s for compression", dataPath)
	}
	defer in.Close()

	out, err := os.Create(dataPath + ".gz")
	if err != nil {
		return arkierr.IO(err, "creating %s.gz", dataPath)
	}
	defer out.Close()

	var idx []gzIndexEntry
	buf := make([]byte, gzBlockSize)
	var decompressedOffset uint64
	for {
		n, readErr := io.ReadFull(in, buf)
		if n > 0 {
			compressedOffset, err := out.Seek(0, io.SeekCurrent)
			if err != nil {
				return arkierr.IO(err, "seeking %s.gz", dataPath)
			}
			idx = append(idx, gzIndexEntry{DecompressedOffset: decompressedOffset, CompressedOffset: uint64(compressedOffset)})
			gw := gzip.NewWriter(out)
			if _, err := gw.Write(buf[:n]); err != nil {
				return arkierr.IO(err, "writing gzip block")
			}
			if err := gw.Close(); err != nil {
				return arkierr.IO(err, "closing gzip block")
			}
			decompressedOffset += uint64(n)
		}
		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
		if readErr != nil {
			return arkierr.IO(readErr, "reading %s", dataPath)
		}
	}

	if err := writeGzIndex(dataPath+".gz.idx", idx); err != nil {
		return err
	}
	if err := os.Remove(dataPath); err != nil {
		return arkierr.IO(err, "removing uncompressed %s after compression", dataPath)
	}
	return nil
}

func writeGzIndex(path string, idx []gzIndexEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return arkierr.IO(err, "creating %s", path)
	}
	defer f.Close()
	var hdr [16]byte
	for _, e := range idx {
		binary.BigEndian.PutUint64(hdr[0:8], e.DecompressedOffset)
		binary.BigEndian.PutUint64(hdr[8:16], e.CompressedOffset)
		if _, err := f.Write(hdr[:]); err != nil {
			return arkierr.IO(err, "writing %s", path)
		}
	}
	return nil
}

func readGzIndex(path string) ([]gzIndexEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, arkierr.IO(err, "reading %s", path)
	}
	if len(data)%16 != 0 {
		return nil, arkierr.Format("malformed gz index %s: length %d not a multiple of 16", path, len(data))
	}
	idx := make([]gzIndexEntry, 0, len(data)/16)
	for i := 0; i < len(data); i += 16 {
		idx = append(idx, gzIndexEntry{
			DecompressedOffset: binary.BigEndian.Uint64(data[i : i+8]),
			CompressedOffset:   binary.BigEndian.Uint64(data[i+8 : i+16]),
		})
	}
	return idx, nil
}

// blockFor returns the index entry whose decompressed range contains
// offset (the nearest checkpoint at or before offset).
func blockFor(idx []gzIndexEntry, offset uint64) (gzIndexEntry, bool) {
	var best gzIndexEntry
	found := false
	for _, e := range idx {
		if e.DecompressedOffset <= offset {
			best = e
			found = true
			continue
		}
		break
	}
	return best, found
}

// readCompressedRange decompresses the gzip member covering [offset,
// offset+size) from a `.gz` file using its index, returning exactly
// that byte range.
func readCompressedRange(gzPath string, idx []gzIndexEntry, offset, size uint64) ([]byte, error) {
	entry, ok := blockFor(idx, offset)
	if !ok {
		return nil, arkierr.Format("offset %d not covered by gz index for %s", offset, gzPath)
	}
	f, err := os.Open(gzPath)
	if err != nil {
		return nil, arkierr.IO(err, "opening %s", gzPath)
	}
	defer f.Close()
	if _, err := f.Seek(int64(entry.CompressedOffset), io.SeekStart); err != nil {
		return nil, arkierr.IO(err, "seeking %s", gzPath)
	}
	gr, err := gzip.NewReader(f)
	if err != nil {
		return nil, arkierr.IO(err, "opening gzip member at %d in %s", entry.CompressedOffset, gzPath)
	}
	gr.Multistream(false)
	defer gr.Close()
	block, err := io.ReadAll(gr)
	if err != nil {
		return nil, arkierr.IO(err, "decompressing gzip member in %s", gzPath)
	}
	within := offset - entry.DecompressedOffset
	if within+size > uint64(len(block)) {
		return nil, arkierr.Format("range [%d,%d) spans beyond one gz block in %s", offset, offset+size, gzPath)
	}
	return bytes.Clone(block[within : within+size]), nil
}
