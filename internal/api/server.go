// Package api provides the HTTP side endpoints and the WebSocket relay.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"padrelay/internal/config"
	"padrelay/internal/dispatch"
	"padrelay/internal/input"
	"padrelay/internal/motion"
	"padrelay/internal/network"
	"padrelay/internal/protocol"
	"padrelay/internal/session"
)

const (
	shutdownTimeout = 5 * time.Second
	statusTimeout   = 2 * time.Second
)

// PairResponse is returned by /api/pair
type PairResponse struct {
	RoomID   string `json:"roomId"`
	IP       string `json:"ip"`
	Port     int    `json:"port"`
	Protocol string `json:"protocol"`
	URL      string `json:"url"`
}

// StatusResponse is returned by /api/status
type StatusResponse struct {
	Room          string   `json:"room,omitempty"`
	Peers         int      `json:"peers"`
	Platform      string   `json:"platform"`
	PendingX      float64  `json:"pendingX"`
	PendingY      float64  `json:"pendingY"`
	Volume        *float64 `json:"volume,omitempty"`
	Muted         bool     `json:"muted"`
	VolumeError   string   `json:"volumeError,omitempty"`
	Sensitivity   float64  `json:"sensitivity"`
	ApplyInterval int64    `json:"applyIntervalMs"`
}

// Server provides the relay endpoints
type Server struct {
	cfg        *config.Config
	host       input.Capability
	motion     *motion.Accumulator
	registry   *session.Registry
	dispatcher *dispatch.Dispatcher
	relay      *Relay
	logger     *slog.Logger

	// localIP is replaced in tests
	localIP func() string

	mu     sync.Mutex
	onPair func(roomID string)
}

// NewServer wires the relay around an existing capability, accumulator and registry
func NewServer(cfg *config.Config, host input.Capability, acc *motion.Accumulator, reg *session.Registry, logger *slog.Logger) *Server {
	s := &Server{
		cfg:        cfg,
		host:       host,
		motion:     acc,
		registry:   reg,
		dispatcher: dispatch.New(host, acc, logger),
		logger:     logger.With("component", "api"),
		localIP:    network.PrimaryIPv4,
	}
	s.relay = newRelay(s)
	return s
}

// OnPair registers a callback run after every new pairing room
func (s *Server) OnPair(fn func(roomID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onPair = fn
}

// Pair creates a new room and returns the connection details for it
func (s *Server) Pair() PairResponse {
	roomID := s.registry.CreateRoom()
	ip := s.localIP()

	s.mu.Lock()
	fn := s.onPair
	s.mu.Unlock()
	if fn != nil {
		fn(roomID)
	}

	return PairResponse{
		RoomID:   roomID,
		IP:       ip,
		Port:     s.cfg.Port,
		Protocol: "ws",
		URL:      fmt.Sprintf("ws://%s:%d/ws", ip, s.cfg.Port),
	}
}

// Handler returns the full middleware-wrapped mux
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/pair", s.handlePair)
	mux.HandleFunc("/api/qr", s.handlePair)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/ws", s.relay.handleWebSocket)

	return s.logMiddleware(s.corsMiddleware(s.recoverMiddleware(mux)))
}

// Start serves on all IPv4 interfaces until ctx is done, then shuts down gracefully
func (s *Server) Start(ctx context.Context, port int) error {
	// Explicit tcp4 avoids IPv6-only binding on some Windows hosts
	addr := fmt.Sprintf("0.0.0.0:%d", port)
	ln, err := net.Listen("tcp4", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the server on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server listening", "addr", ln.Addr().String())
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("API server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// Hijacked WebSocket connections are not tracked by Shutdown
	s.relay.closeAll()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api server shutdown: %w", err)
	}
	return nil
}

// recoverMiddleware prevents panics from crashing the whole server
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("Handler panic recovered", "path", r.URL.Path, "panic", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware allows any origin; the relay is reached from pages served elsewhere on the LAN
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("Request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// handleHealth handles GET /health (for monitoring)
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePair handles GET /api/pair and its /api/qr alias
func (s *Server) handlePair(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	resp := s.Pair()
	s.logger.Info("Pairing room issued", "room", resp.RoomID, "remote", r.RemoteAddr)
	writeJSON(w, http.StatusOK, resp)
}

// handleStatus handles GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	px, py := s.motion.Pending()
	resp := StatusResponse{
		Room:          s.registry.ActiveRoom(),
		Peers:         s.registry.Count(),
		Platform:      s.host.Platform(),
		PendingX:      px,
		PendingY:      py,
		Sensitivity:   s.cfg.Sensitivity,
		ApplyInterval: s.cfg.DrainInterval.Milliseconds(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), statusTimeout)
	defer cancel()
	vs := s.dispatcher.VolumeStatus(ctx)
	if p, ok := vs.Payload.(protocol.VolumeStatusPayload); ok {
		resp.Volume, resp.Muted, resp.VolumeError = p.Volume, p.Muted, p.Error
	}

	writeJSON(w, http.StatusOK, resp)
}
