package peer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/whatsfordinner/dinner/internal/store"
)

// DefaultListen is the address the phone side listens on.
const DefaultListen = "127.0.0.1:8787"

// writeTimeout bounds a single frame write to one companion.
const writeTimeout = 5 * time.Second

// maxFrame is the largest frame either side accepts.
const maxFrame = 1 << 20

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Listen is the TCP address (default DefaultListen). Use port 0 for a
	// random port.
	Listen string

	// Enabled is false when no companion is paired. The server still runs
	// but reports Unpaired.
	Enabled bool

	// Shared holds the durable context slot. Without it the slot lives in
	// memory only.
	Shared *store.Shared

	// OnRequest is called when a companion asks for the current list.
	OnRequest func()

	// Logger for server activity (default: stderr logger)
	Logger *log.Logger
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Listen:  DefaultListen,
		Enabled: true,
		Logger:  log.New(os.Stderr, "[peer] ", log.LstdFlags),
	}
}

// Server is the phone end of the link. Companions connect over WebSocket;
// Server implements Link.
type Server struct {
	config   *ServerConfig
	listener net.Listener
	server   *http.Server

	clients   map[*websocket.Conn]bool
	clientsMu sync.RWMutex

	// slot is the in-memory context when no store is configured.
	slot   []byte
	slotMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer creates a server. Call Start to listen.
func NewServer(config *ServerConfig) *Server {
	if config == nil {
		config = DefaultServerConfig()
	}
	if config.Listen == "" {
		config.Listen = DefaultListen
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[peer] ", log.LstdFlags)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		config:  config,
		clients: make(map[*websocket.Conn]bool),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start begins the HTTP server and WebSocket handler.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Listen, err)
	}
	s.listener = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/", s.handleRoot)

	s.server = &http.Server{
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.config.Logger.Printf("Sync server listening on %s", ln.Addr())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.config.Logger.Printf("Server error: %v", err)
		}
	}()

	return nil
}

// Stop closes every companion connection and shuts the server down.
func (s *Server) Stop() error {
	s.config.Logger.Println("Stopping sync server")
	s.cancel()

	s.clientsMu.Lock()
	for conn := range s.clients {
		_ = conn.Close(websocket.StatusGoingAway, "Server shutting down")
		delete(s.clients, conn)
	}
	s.clientsMu.Unlock()

	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}

	s.wg.Wait()
	s.config.Logger.Println("Sync server stopped")
	return nil
}

// Addr returns the listening address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Listen
}

// ClientCount returns the number of connected companions.
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// State implements Link.
func (s *Server) State() State {
	if !s.config.Enabled {
		return Unpaired
	}
	if s.ClientCount() > 0 {
		return PairedReachable
	}
	return PairedUnreachable
}

// SendMessage implements Link. The payload goes to every connected
// companion; it fails only if no companion received it.
func (s *Server) SendMessage(ctx context.Context, payload []byte) error {
	frame, err := marshalEnvelope(EnvelopeMessage, payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	s.clientsMu.RLock()
	clients := make([]*websocket.Conn, 0, len(s.clients))
	for conn := range s.clients {
		clients = append(clients, conn)
	}
	s.clientsMu.RUnlock()

	if len(clients) == 0 {
		return fmt.Errorf("no companion connected")
	}

	delivered := 0
	var lastErr error
	for _, conn := range clients {
		if err := s.write(ctx, conn, frame); err != nil {
			s.config.Logger.Printf("Failed to send to companion: %v", err)
			s.removeClient(conn)
			lastErr = err
			continue
		}
		delivered++
	}
	if delivered == 0 {
		return fmt.Errorf("failed to deliver message: %w", lastErr)
	}
	return nil
}

// UpdateContext implements Link. The payload replaces the slot delivered
// to the next companion that connects.
func (s *Server) UpdateContext(ctx context.Context, payload []byte) error {
	if s.config.Shared != nil {
		return s.config.Shared.SaveContext(ctx, payload)
	}
	s.slotMu.Lock()
	s.slot = append([]byte(nil), payload...)
	s.slotMu.Unlock()
	return nil
}

// PendingContext returns the slot content, if any.
func (s *Server) PendingContext(ctx context.Context) ([]byte, bool) {
	if s.config.Shared != nil {
		return s.config.Shared.LoadContext(ctx)
	}
	s.slotMu.Lock()
	defer s.slotMu.Unlock()
	if s.slot == nil {
		return nil, false
	}
	return append([]byte(nil), s.slot...), true
}

func (s *Server) write(ctx context.Context, conn *websocket.Conn, frame []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, frame)
}

// handleWebSocket upgrades HTTP connections to WebSocket.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.config.Logger.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	conn.SetReadLimit(maxFrame)

	// A companion coming online receives the pending context first.
	if payload, ok := s.PendingContext(s.ctx); ok {
		frame, err := marshalEnvelope(EnvelopeContext, payload)
		if err == nil {
			err = s.write(s.ctx, conn, frame)
		}
		if err != nil {
			s.config.Logger.Printf("Failed to deliver context: %v", err)
		}
	}

	s.clientsMu.Lock()
	s.clients[conn] = true
	clientCount := len(s.clients)
	s.clientsMu.Unlock()

	s.config.Logger.Printf("Companion connected (total: %d)", clientCount)

	s.readLoop(conn)
}

// readLoop handles companion requests until the connection drops.
func (s *Server) readLoop(conn *websocket.Conn) {
	defer s.removeClient(conn)

	for {
		_, data, err := conn.Read(s.ctx)
		if err != nil {
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.config.Logger.Printf("Warning: ignoring malformed frame: %v", err)
			continue
		}
		if env.Type == EnvelopeRequestDishes && s.config.OnRequest != nil {
			s.config.OnRequest()
		}
	}
}

// removeClient safely removes a client connection.
func (s *Server) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	if _, exists := s.clients[conn]; exists {
		delete(s.clients, conn)
		clientCount := len(s.clients)
		s.clientsMu.Unlock()

		_ = conn.Close(websocket.StatusNormalClosure, "")
		s.config.Logger.Printf("Companion disconnected (total: %d)", clientCount)
	} else {
		s.clientsMu.Unlock()
	}
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"clients": s.ClientCount(),
		"state":   s.State().String(),
	})
}

// handleRoot returns basic server information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
    <title>What's for Dinner</title>
</head>
<body>
    <h1>What's for Dinner sync server</h1>
    <p>Companion endpoint: <code>ws://%s/ws</code></p>
    <p>Health check: <a href="/health">/health</a></p>
</body>
</html>`, r.Host)
}
