// Package web provides the read-only HTTP status server for the room-controller daemon.
package web

import (
	"context"
	"io"
	"net"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/sweeney/room-controller/internal/metrics"
	"github.com/sweeney/room-controller/internal/status"
)

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
}

// New creates a Server that reads state from the given tracker. When m is
// non-nil its registry is served on /metrics and every route is counted.
// Requests are logged to accessLog in Apache common log format; a nil
// accessLog disables request logging.
func New(addr string, tracker *status.Tracker, m *metrics.Metrics, accessLog io.Writer) *Server {
	s := &Server{tracker: tracker}

	r := mux.NewRouter()
	route := func(path string, h http.HandlerFunc) {
		var handler http.Handler = h
		if m != nil {
			handler = m.Instrument(path, handler)
		}
		r.Handle(path, handler).Methods(http.MethodGet, http.MethodHead)
	}
	route("/", s.handleIndex)
	route("/index.html", s.handleIndex)
	route("/index.json", s.handleJSON)
	if m != nil {
		r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	}

	var handler http.Handler = r
	if accessLog != nil {
		handler = handlers.LoggingHandler(accessLog, r)
	}

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: handler,
	}
	return s
}

// Handler returns the root handler. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}
