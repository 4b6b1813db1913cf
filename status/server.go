package status

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/jd3nn1s/fognode"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

type StatusProvider interface {
	Status() fognode.Status
}

// Liveness reports whether the sampling loop is still running.
type Liveness interface {
	Running() bool
	Err() error
}

type Server struct {
	server   *http.Server
	node     StatusProvider
	liveness Liveness
}

func NewServer(addr string, node StatusProvider, liveness Liveness, gatherer prometheus.Gatherer) *Server {
	router := mux.NewRouter()
	s := &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		node:     node,
		liveness: liveness,
	}

	router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	router.HandleFunc("/status", s.status).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Start() error {
	log.WithField("addr", s.server.Addr).Info("starting status server")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.liveness.Running() {
		writeJSON(w, http.StatusOK, map[string]string{"status": "running"})
		return
	}
	body := map[string]string{"status": "stopped"}
	if err := s.liveness.Err(); err != nil {
		body["error"] = err.Error()
	}
	writeJSON(w, http.StatusServiceUnavailable, body)
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.node.Status())
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithField("err", err).Warn("unable to write status response")
	}
}
