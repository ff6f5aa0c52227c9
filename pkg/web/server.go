// Package web exposes computed layouts to a rendering host: the latest
// position map over JSON, and lifecycle events over Server-Sent Events.
// It is a harness for external renderers, not a graph store API.
package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/voxgraph/layout-engine/pkg/engine"
	"github.com/voxgraph/layout-engine/pkg/intent"
	"github.com/voxgraph/layout-engine/pkg/logging"
	"github.com/voxgraph/layout-engine/pkg/pubsub"
)

// Server serves the current layout and its event stream.
type Server struct {
	router    *mux.Router
	publisher *pubsub.SSEPublisher

	mu        sync.RWMutex
	positions map[string][3]float64
	directive intent.Directive
	converged bool
}

// NewServer creates a server with an SSE publisher wired for the two
// layout topics. Status replays only its latest event to late joiners;
// position frames keep a short history.
func NewServer() *Server {
	publisher := pubsub.NewSSEPublisher()
	publisher.ConfigureTopic(pubsub.TopicLayoutStatus, pubsub.TopicConfig{
		BufferSize: 10,
		ReplayAll:  false,
	})
	publisher.ConfigureTopic(pubsub.TopicPositions, pubsub.TopicConfig{
		BufferSize: 5,
		ReplayAll:  false,
	})

	s := &Server{
		router:    mux.NewRouter(),
		publisher: publisher,
		positions: make(map[string][3]float64),
	}
	s.setupRoutes()
	return s
}

// Publisher returns the event publisher for wiring into the engine.
func (s *Server) Publisher() pubsub.Publisher {
	return s.publisher
}

// SetResult stores an engine result as the layout served to clients.
func (s *Server) SetResult(res *engine.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directive = res.Directive
	s.converged = res.Run == nil || res.Run.Converged
	s.positions = make(map[string][3]float64, len(res.Positions))
	for id, p := range res.Positions {
		s.positions[id] = [3]float64{p.X, p.Y, p.Z}
	}
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/api/positions", s.handlePositions).Methods("GET")
	s.router.HandleFunc("/api/directive", s.handleDirective).Methods("GET")
	s.router.HandleFunc("/api/events/status", s.handleSubscribe(pubsub.TopicLayoutStatus)).Methods("GET")
	s.router.HandleFunc("/api/events/positions", s.handleSubscribe(pubsub.TopicPositions)).Methods("GET")
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	payload := struct {
		Positions map[string][3]float64 `json:"positions"`
		Converged bool                  `json:"converged"`
	}{s.positions, s.converged}
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Warn("failed to encode positions", "error", err)
	}
}

func (s *Server) handleDirective(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	directive := s.directive
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(directive); err != nil {
		logging.Warn("failed to encode directive", "error", err)
	}
}

func (s *Server) handleSubscribe(topic string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// SSE headers
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		// Initial comment to establish the connection (Safari compatibility)
		fmt.Fprintf(w, ": connected\n\n")
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}

		sub, err := s.publisher.Subscribe(r.Context(), topic)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer sub.Close()

		for event := range sub.Events() {
			if err := pubsub.WriteSSE(w, event); err != nil {
				logging.Debug("SSE client disconnected", "topic", topic, "error", err)
				return
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
		}
	}
}

// Start starts the web server on the specified port.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logging.Info("starting layout server", "addr", fmt.Sprintf("http://localhost%s", addr))
	return http.ListenAndServe(addr, s.router)
}
