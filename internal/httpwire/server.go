// Package httpwire serves the HTTP wire protocol of spec §6: the
// server counterpart to internal/dataset's remote/http client kind,
// built on gorilla/mux routing and gorilla/handlers access logging the
// way cc-backend's own HTTP front-end is wired.
package httpwire

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arkimet-go/arkimet/internal/dataset"
	"github.com/arkimet-go/arkimet/internal/dispatch"
	"github.com/arkimet-go/arkimet/pkg/log"
	"github.com/arkimet-go/arkimet/pkg/matcher"
)

var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "arkimet_httpwire_requests_total",
	Help: "HTTP wire protocol requests served, by route and status class.",
}, []string{"route", "status"})

// Server serves one configured dataset's HTTP wire protocol endpoints
// (spec §6), plus the process-wide inbound scan/dispatch endpoints
// when a Dispatcher is attached — mirroring arkimet's arki-server,
// which publishes every configured dataset under its own mount point
// and one shared /inbound entry point.
type Server struct {
	name       string
	cfg        dataset.Config
	ds         dataset.Dataset
	dispatcher *dispatch.Dispatcher
	aliasDB    *matcher.AliasDB
	tmpdir     string
}

// New builds a Server exposing ds under cfg's section. dispatcher and
// aliasDB may be nil: a Server with no dispatcher serves query
// endpoints only (the remote/http client never calls /inbound/*).
func New(cfg dataset.Config, ds dataset.Dataset, dispatcher *dispatch.Dispatcher, aliasDB *matcher.AliasDB, tmpdir string) *Server {
	return &Server{name: cfg.Name, cfg: cfg, ds: ds, dispatcher: dispatcher, aliasDB: aliasDB, tmpdir: tmpdir}
}

// Handler builds the http.Handler for this Server: a mux.Router with
// access logging and a /metrics Prometheus scrape endpoint.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/config", s.handleConfig).Methods(http.MethodGet)
	r.HandleFunc("/summary", s.handleSummary).Methods(http.MethodPost)
	r.HandleFunc("/query", s.handleQuery).Methods(http.MethodPost)
	r.HandleFunc("/querydata", s.handleQueryData).Methods(http.MethodPost)
	r.HandleFunc("/querysummary", s.handleQuerySummary).Methods(http.MethodPost)
	r.HandleFunc("/querybytes", s.handleQueryBytes).Methods(http.MethodPost)
	if s.dispatcher != nil {
		r.HandleFunc("/inbound/scan", s.handleInboundScan).Methods(http.MethodPost)
		r.HandleFunc("/inbound/dispatch", s.handleInboundDispatch).Methods(http.MethodPost)
	}
	r.Handle("/metrics", promhttp.Handler())
	return handlers.CombinedLoggingHandler(log.InfoWriter, r)
}

func (s *Server) writeError(w http.ResponseWriter, route string, err error) {
	status := http.StatusInternalServerError
	http.Error(w, err.Error(), status)
	requestsTotal.WithLabelValues(route, "5xx").Inc()
	log.Errorf("httpwire %s: %v", route, err)
}

func (s *Server) ok(route string) {
	requestsTotal.WithLabelValues(route, "2xx").Inc()
}
