// Package web provides the HTTP status server for the knock-lock daemon.
package web

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/knock-lock/internal/status"
	"github.com/sweeney/knock-lock/internal/store"
)

// recentAttempts is how many audit records the page and JSON endpoint show.
const recentAttempts = 20

// Server serves the status page, JSON status, metrics, and the live
// event feed.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	store      store.Store // may be nil when the audit log is disabled
	hub        *Hub
}

// New creates a Server that reads state from the given tracker. st may be
// nil if the audit log is disabled.
func New(addr string, tracker *status.Tracker, st store.Store) *Server {
	s := &Server{
		tracker: tracker,
		store:   st,
		hub:     NewHub(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/attempts.json", s.handleAttempts)
	mux.HandleFunc("/ws", s.handleWS)
	mux.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server and drops ws clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}

// Hub returns the event hub for broadcasting lock events.
func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	attempts := s.recent()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap, attempts)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

func (s *Server) handleAttempts(w http.ResponseWriter, r *http.Request) {
	attempts := s.recent()
	if attempts == nil {
		attempts = []*store.Attempt{}
	}
	w.Header().Set("Content-Type", "application/json")
	data, _ := json.MarshalIndent(attempts, "", "  ")
	w.Write(data)
}

func (s *Server) recent() []*store.Attempt {
	if s.store == nil {
		return nil
	}
	attempts, err := s.store.Recent(recentAttempts)
	if err != nil {
		log.Printf("web: read audit log: %v", err)
		return nil
	}
	return attempts
}
