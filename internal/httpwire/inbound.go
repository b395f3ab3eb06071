package httpwire

import (
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/arkimet-go/arkimet/internal/arkierr"
	"github.com/arkimet-go/arkimet/internal/dataset"
	"github.com/arkimet-go/arkimet/internal/segment"
	"github.com/arkimet-go/arkimet/pkg/metadata"
	"github.com/arkimet-go/arkimet/pkg/wire"
)

// saveUpload stores the multipart "file" field of r into a temp file
// under s.tmpdir, returning its path and raw contents for scanning.
// Multipart parsing relies on stdlib mime/multipart via
// http.Request.FormFile — no corpus repo parses RFC 2046 boundaries
// with a third-party library (spec §6: "All multipart uploads use
// RFC 2046 boundaries").
func (s *Server) saveUpload(r *http.Request) (string, []byte, error) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		return "", nil, arkierr.IO(err, "parsing multipart upload")
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, arkierr.Format("missing multipart field %q: %v", "file", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, arkierr.IO(err, "reading upload %s", header.Filename)
	}

	tmp, err := os.CreateTemp(s.tmpdir, "arki-inbound-*"+filepath.Ext(header.Filename))
	if err != nil {
		return "", nil, arkierr.IO(err, "creating temp file for upload")
	}
	defer tmp.Close()
	if _, err := tmp.Write(data); err != nil {
		return "", nil, arkierr.IO(err, "writing temp file for upload")
	}
	return tmp.Name(), data, nil
}

func (s *Server) scanUpload(r *http.Request) ([]segment.DeclaredRecord, []byte, string, error) {
	format := r.URL.Query().Get("format")
	if format == "" {
		return nil, nil, "", arkierr.Format("missing required %q query parameter", "format")
	}
	path, data, err := s.saveUpload(r)
	if err != nil {
		return nil, nil, "", err
	}
	defer os.Remove(path)

	scan, err := dataset.ScannerFor(format)
	if err != nil {
		return nil, nil, "", err
	}
	declared, err := scan(path)
	if err != nil {
		return nil, nil, "", err
	}
	return declared, data, format, nil
}

// handleInboundScan serves POST /inbound/scan?file=…&format=… (spec
// §6): scans the uploaded file without storing it anywhere, streaming
// back the metadata the registered scanner for format produced, each
// carrying its datum inline since the source file is ephemeral.
func (s *Server) handleInboundScan(w http.ResponseWriter, r *http.Request) {
	declared, data, format, err := s.scanUpload(r)
	if err != nil {
		s.writeError(w, "inbound/scan", err)
		return
	}
	w.Header().Set("Content-Disposition", "attachment; filename=scan.arkimet")
	for _, rec := range declared {
		if err := writeInlineRecord(w, rec, data, format); err != nil {
			s.writeError(w, "inbound/scan", err)
			return
		}
	}
	s.ok("inbound/scan")
}

// handleInboundDispatch serves POST /inbound/dispatch?file=…&format=…
// (spec §6): scans the upload, then runs each resulting record through
// the server's Dispatcher exactly as a local `arki-dispatch` would,
// streaming back the post-dispatch metadata with ASSIGNEDDATASET set.
func (s *Server) handleInboundDispatch(w http.ResponseWriter, r *http.Request) {
	declared, data, format, err := s.scanUpload(r)
	if err != nil {
		s.writeError(w, "inbound/dispatch", err)
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=dispatch.arkimet")
	for _, rec := range declared {
		payload := sliceDatum(data, rec)
		pending, err := s.dispatcher.Dispatch(rec.Metadata, payload)
		if err != nil {
			s.writeError(w, "inbound/dispatch", err)
			return
		}
		if err := pending.Commit(); err != nil {
			s.writeError(w, "inbound/dispatch", err)
			return
		}
		if err := writeInlineRecord(w, rec, data, format); err != nil {
			s.writeError(w, "inbound/dispatch", err)
			return
		}
	}
	s.ok("inbound/dispatch")
}

func sliceDatum(data []byte, rec segment.DeclaredRecord) []byte {
	end := rec.Offset + rec.Size
	if end > uint64(len(data)) {
		end = uint64(len(data))
	}
	return data[rec.Offset:end]
}

func writeInlineRecord(w io.Writer, rec segment.DeclaredRecord, data []byte, format string) error {
	payload := sliceDatum(data, rec)
	rec.Metadata.SetSource(metadata.SourceInline{DataFormat: format, Size: uint64(len(payload))})
	return wire.WriteMetadataInline(w, rec.Metadata, payload, wireVersion)
}
