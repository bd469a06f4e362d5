package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/bryanchriswhite/deskinspect/internal/logger"
	"github.com/bryanchriswhite/deskinspect/internal/snapshot"
	"github.com/bryanchriswhite/deskinspect/internal/state"
	"github.com/bryanchriswhite/deskinspect/internal/window"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// Version is reported by the health endpoint
const Version = "0.1.0"

// SnapshotRunner runs the inspection pipeline
type SnapshotRunner interface {
	Run(ctx context.Context, opts snapshot.Options) *snapshot.Result
}

// StateStore reads and clears the persisted fingerprints
type StateStore interface {
	Load() state.State
	Reset() error
}

// StreamRequest is a client message on the snapshot stream
type StreamRequest struct {
	ChangesOnly bool `json:"changes_only"`
}

// Server represents the HTTP API server
type Server struct {
	router   *mux.Router
	runner   SnapshotRunner
	windows  window.Enumerator
	store    StateStore
	upgrader websocket.Upgrader

	// runMu serializes pipeline runs and state resets; both act on the
	// shared desktop focus and the one state file
	runMu sync.Mutex

	srvMu      sync.Mutex
	httpServer *http.Server
}

// NewServer creates a new API server
func NewServer(runner SnapshotRunner, windows window.Enumerator, store StateStore) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		runner:  runner,
		windows: windows,
		store:   store,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/snapshot", s.handleSnapshot).Methods("GET")
	api.HandleFunc("/snapshot/stream", s.handleSnapshotStream)

	api.HandleFunc("/windows", s.handleWindows).Methods("GET")

	api.HandleFunc("/state", s.handleGetState).Methods("GET")
	api.HandleFunc("/state", s.handleResetState).Methods("DELETE")

	api.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the routed handler with CORS applied
func (s *Server) Handler() http.Handler {
	return s.enableCORS(s.router)
}

// Start serves on port until Shutdown is called
func (s *Server) Start(port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.srvMu.Lock()
	s.httpServer = srv
	s.srvMu.Unlock()

	logger.WithComponent("api").Info().
		Int("port", port).
		Msg("Starting server")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server, waiting for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.srvMu.Lock()
	srv := s.httpServer
	s.srvMu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// enableCORS adds CORS headers
func (s *Server) enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) run(ctx context.Context, opts snapshot.Options) *snapshot.Result {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.runner.Run(ctx, opts)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		logger.WithComponent("api").Debug().Err(err).Msg("Failed to write response")
	}
}

// HTTP Handlers

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	changesOnly := false
	if raw := r.URL.Query().Get("changes_only"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid changes_only value: %s", raw), http.StatusBadRequest)
			return
		}
		changesOnly = v
	}

	result := s.run(r.Context(), snapshot.Options{ChangesOnly: changesOnly})
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSnapshotStream(w http.ResponseWriter, r *http.Request) {
	log := logger.WithComponent("api")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("WebSocket upgrade error")
		return
	}
	defer conn.Close()

	for {
		var req StreamRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Msg("WebSocket read error")
			}
			return
		}

		result := s.run(r.Context(), snapshot.Options{ChangesOnly: req.ChangesOnly})
		if err := conn.WriteJSON(result); err != nil {
			log.Debug().Err(err).Msg("WebSocket write error")
			return
		}
	}
}

func (s *Server) handleWindows(w http.ResponseWriter, r *http.Request) {
	windows := s.windows.ListWindows(r.Context())
	if windows == nil {
		windows = []window.Window{}
	}
	writeJSON(w, http.StatusOK, windows)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Load())
}

func (s *Server) handleResetState(w http.ResponseWriter, r *http.Request) {
	s.runMu.Lock()
	err := s.store.Reset()
	s.runMu.Unlock()

	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": Version,
	})
}
