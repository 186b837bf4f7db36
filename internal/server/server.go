package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/b0ase/path402/apps/feescope/internal/console"
)

// DaemonInfo provides read-only access to daemon state for the API.
type DaemonInfo interface {
	NodeID() string
	Uptime() time.Duration
	HeaderSyncStatus() map[string]interface{}
	ValidateMerkleRoot(root string, height int) (bool, error)
}

// corsMiddleware allows cross-origin requests from other consoles.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(204)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Server is the HTTP JSON API and dashboard of the fee console.
type Server struct {
	httpSrv     *http.Server
	daemon      DaemonInfo
	console     *console.Service
	ingestToken string
	bind        string
	port        int
}

// New creates an HTTP server.
func New(bind string, port int, daemon DaemonInfo, svc *console.Service) *Server {
	s := &Server{daemon: daemon, console: svc, bind: bind, port: port}
	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpSrv = &http.Server{
		Handler: corsMiddleware(mux),
	}
	return s
}

// SetIngestToken requires POST /api/fees to carry "Authorization: Bearer
// token". An empty token leaves ingestion open.
func (s *Server) SetIngestToken(token string) {
	s.ingestToken = token
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// Start pre-acquires the port and begins serving HTTP requests.
// If the primary port is in use, it falls back to port+1.
// Returns the actual port bound.
func (s *Server) Start() (int, error) {
	addr := fmt.Sprintf("%s:%d", s.bind, s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		fallbackPort := s.port + 1
		fallbackAddr := fmt.Sprintf("%s:%d", s.bind, fallbackPort)
		ln, err = net.Listen("tcp", fallbackAddr)
		if err != nil {
			return 0, fmt.Errorf("listen on %s and fallback %s: %w", addr, fallbackAddr, err)
		}
		log.Printf("[api] WARNING: Using fallback port %d (primary %d was in use)", fallbackPort, s.port)
		s.port = fallbackPort
	}

	log.Printf("[api] HTTP API listening on %s:%d", s.bind, s.port)
	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()
	return s.port, nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.httpSrv.Shutdown(ctx)
	log.Println("[api] HTTP server stopped")
}
