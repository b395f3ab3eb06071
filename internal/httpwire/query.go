package httpwire

import (
	"net/http"

	"github.com/arkimet-go/arkimet/internal/arkierr"
	"github.com/arkimet-go/arkimet/internal/config"
	"github.com/arkimet-go/arkimet/pkg/matcher"
	"github.com/arkimet-go/arkimet/pkg/metadata"
	"github.com/arkimet-go/arkimet/pkg/wire"
)

func errInvalidStyle(style string) error {
	return arkierr.Format("unknown /query style %q", style)
}

const wireVersion = wire.MaxVersion

// handleConfig serves GET /config (spec §6: "dataset config as INI").
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := config.WriteDatasetConfig(w, s.cfg); err != nil {
		s.writeError(w, "config", err)
		return
	}
	s.ok("config")
}

func (s *Server) parseMatcher(r *http.Request, field string) (*matcher.Matcher, error) {
	q := r.FormValue(field)
	return matcher.Parse(q, s.aliasDB)
}

// handleSummary serves POST /summary (spec §6: form field "query" →
// binary Summary), the legacy single-purpose sibling of /querysummary.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	mtr, err := s.parseMatcher(r, "query")
	if err != nil {
		s.writeError(w, "summary", err)
		return
	}
	summary, err := s.ds.QuerySummary(mtr)
	if err != nil {
		s.writeError(w, "summary", err)
		return
	}
	w.Header().Set("Content-Disposition", "attachment; filename="+s.name+".summary.arkimet")
	if err := wire.WriteSummary(w, summary, wireVersion); err != nil {
		s.writeError(w, "summary", err)
		return
	}
	s.ok("summary")
}

// handleQuery serves POST /query (spec §6: "query=…&style=(data|
// summary|bytes)"): one endpoint dispatching to the three response
// shapes the more specific /querydata, /querysummary, /querybytes
// endpoints each serve individually.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	mtr, err := s.parseMatcher(r, "query")
	if err != nil {
		s.writeError(w, "query", err)
		return
	}
	switch style := r.FormValue("style"); style {
	case "", "data":
		s.streamMetadata(w, "query", mtr, false)
	case "summary":
		s.streamSummary(w, "query", mtr)
	case "bytes":
		s.streamBytes(w, "query", mtr)
	default:
		s.writeError(w, "query", errInvalidStyle(style))
	}
}

// handleQueryData serves POST /querydata (spec §6: "matcher=…&
// withdata=(0|1)&sorter=…"), the endpoint internal/dataset's remote
// client itself calls.
func (s *Server) handleQueryData(w http.ResponseWriter, r *http.Request) {
	mtr, err := s.parseMatcher(r, "matcher")
	if err != nil {
		s.writeError(w, "querydata", err)
		return
	}
	withData := r.FormValue("withdata") == "1"
	s.streamMetadata(w, "querydata", mtr, withData)
}

func (s *Server) handleQuerySummary(w http.ResponseWriter, r *http.Request) {
	mtr, err := s.parseMatcher(r, "matcher")
	if err != nil {
		s.writeError(w, "querysummary", err)
		return
	}
	s.streamSummary(w, "querysummary", mtr)
}

func (s *Server) handleQueryBytes(w http.ResponseWriter, r *http.Request) {
	mtr, err := s.parseMatcher(r, "matcher")
	if err != nil {
		s.writeError(w, "querybytes", err)
		return
	}
	s.streamBytes(w, "querybytes", mtr)
}

func (s *Server) streamMetadata(w http.ResponseWriter, route string, mtr *matcher.Matcher, withData bool) {
	items, err := s.ds.Query(mtr)
	if err != nil {
		s.writeError(w, route, err)
		return
	}
	w.Header().Set("Content-Disposition", "attachment; filename="+s.name+".arkimet")
	for _, md := range items {
		if !withData {
			if err := wire.WriteMetadata(w, md, wireVersion); err != nil {
				s.writeError(w, route, err)
				return
			}
			continue
		}
		data, err := s.ds.ReadData(md)
		if err != nil {
			s.writeError(w, route, err)
			return
		}
		md.SetSource(metadata.SourceInline{DataFormat: md.Source().Format(), Size: uint64(len(data))})
		if err := wire.WriteMetadataInline(w, md, data, wireVersion); err != nil {
			s.writeError(w, route, err)
			return
		}
	}
	s.ok(route)
}

func (s *Server) streamSummary(w http.ResponseWriter, route string, mtr *matcher.Matcher) {
	summary, err := s.ds.QuerySummary(mtr)
	if err != nil {
		s.writeError(w, route, err)
		return
	}
	w.Header().Set("Content-Disposition", "attachment; filename="+s.name+".summary.arkimet")
	if err := wire.WriteSummary(w, summary, wireVersion); err != nil {
		s.writeError(w, route, err)
		return
	}
	s.ok(route)
}

// streamBytes concatenates the raw datum bytes of every matching
// record, with no envelope framing (spec §6: "raw byte stream of
// data").
func (s *Server) streamBytes(w http.ResponseWriter, route string, mtr *matcher.Matcher) {
	items, err := s.ds.Query(mtr)
	if err != nil {
		s.writeError(w, route, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", "attachment; filename="+s.name+".arkimet")
	for _, md := range items {
		data, err := s.ds.ReadData(md)
		if err != nil {
			s.writeError(w, route, err)
			return
		}
		if _, err := w.Write(data); err != nil {
			s.writeError(w, route, err)
			return
		}
	}
	s.ok(route)
}
