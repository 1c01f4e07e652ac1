// Package devtools exposes a live HTTP inspector for a Beacon signal graph.
//
// The Server implements beacon.Observer; wire it into signals or scopes
// and mount its handler:
//
//	srv := devtools.New()
//	sc := beacon.NewScope(nil, beacon.WithObserver(srv))
//	http.ListenAndServe(":7433", srv.Handler())
//
// Endpoints:
//   - GET /signals: JSON table of live signals
//   - GET /history: JSON ring of recent events
//   - GET /events:  WebSocket stream of events as they happen
//   - GET /healthz: liveness probe
package devtools

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/beacon-dev/beacon/pkg/beacon"
)

const defaultHistorySize = 256

// EventType classifies inspector events.
type EventType string

const (
	EventCreated   EventType = "created"
	EventStatus    EventType = "status"
	EventNotified  EventType = "notified"
	EventOperation EventType = "operation"
	EventDisposed  EventType = "disposed"
)

// Event is one observer callback rendered for the inspector.
type Event struct {
	Time       time.Time `json:"time"`
	Type       EventType `json:"type"`
	SignalID   uint64    `json:"signal_id"`
	SignalName string    `json:"signal_name"`
	Status     string    `json:"status,omitempty"`
	Kind       string    `json:"kind,omitempty"`
	DurationMS float64   `json:"duration_ms,omitempty"`
}

// SignalInfo is one row of the live-signal table.
type SignalInfo struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Option configures the inspector server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithHistorySize bounds the event ring (default: 256).
func WithHistorySize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.historySize = n
		}
	}
}

// Server is a beacon.Observer that mirrors signal activity to HTTP and
// WebSocket clients.
type Server struct {
	logger      *slog.Logger
	historySize int

	mu      sync.RWMutex
	live    map[uint64]*SignalInfo
	history []Event
	clients map[*websocket.Conn]bool

	writeMu  sync.Mutex
	upgrader websocket.Upgrader
}

var _ beacon.Observer = (*Server)(nil)

// New creates an inspector server.
func New(opts ...Option) *Server {
	s := &Server{
		logger:      slog.Default(),
		historySize: defaultHistorySize,
		live:        make(map[uint64]*SignalInfo),
		clients:     make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins in dev
			},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the inspector's HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/signals", s.handleSignals)
	r.Get("/history", s.handleHistory)
	r.Get("/events", s.handleEvents)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// SignalCreated implements beacon.Observer.
func (s *Server) SignalCreated(src beacon.Emitter) {
	s.mu.Lock()
	s.live[src.ID()] = &SignalInfo{
		ID:        src.ID(),
		Name:      src.Name(),
		Status:    src.Status().String(),
		CreatedAt: time.Now(),
	}
	s.mu.Unlock()

	s.record(Event{
		Time:       time.Now(),
		Type:       EventCreated,
		SignalID:   src.ID(),
		SignalName: src.Name(),
		Status:     src.Status().String(),
	})
}

// StatusChanged implements beacon.Observer.
func (s *Server) StatusChanged(src beacon.Emitter, status beacon.Status) {
	s.mu.Lock()
	if info, ok := s.live[src.ID()]; ok {
		info.Status = status.String()
	}
	s.mu.Unlock()

	s.record(Event{
		Time:       time.Now(),
		Type:       EventStatus,
		SignalID:   src.ID(),
		SignalName: src.Name(),
		Status:     status.String(),
	})
}

// SignalNotified implements beacon.Observer.
func (s *Server) SignalNotified(src beacon.Emitter, c beacon.Change) {
	s.record(Event{
		Time:       time.Now(),
		Type:       EventNotified,
		SignalID:   src.ID(),
		SignalName: src.Name(),
		Status:     c.Status.String(),
		Kind:       c.Kind.String(),
	})
}

// OperationFinished implements beacon.Observer.
func (s *Server) OperationFinished(src beacon.Emitter, terminal beacon.Status, d time.Duration) {
	s.record(Event{
		Time:       time.Now(),
		Type:       EventOperation,
		SignalID:   src.ID(),
		SignalName: src.Name(),
		Status:     terminal.String(),
		DurationMS: float64(d) / float64(time.Millisecond),
	})
}

// SignalDisposed implements beacon.Observer.
func (s *Server) SignalDisposed(src beacon.Emitter) {
	s.mu.Lock()
	delete(s.live, src.ID())
	s.mu.Unlock()

	s.record(Event{
		Time:       time.Now(),
		Type:       EventDisposed,
		SignalID:   src.ID(),
		SignalName: src.Name(),
	})
}

// Signals returns a snapshot of the live-signal table.
func (s *Server) Signals() []SignalInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SignalInfo, 0, len(s.live))
	for _, info := range s.live {
		out = append(out, *info)
	}
	return out
}

// History returns a snapshot of the event ring, oldest first.
func (s *Server) History() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.history))
	copy(out, s.history)
	return out
}

// ClientCount returns the number of connected WebSocket clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Close closes all client connections.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for client := range s.clients {
		client.Close()
		delete(s.clients, client)
	}
}

func (s *Server) handleSignals(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.Signals())
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.History())
}

func (s *Server) handleEvents(w http.ResponseWriter, req *http.Request) {
	conn, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	s.logger.Debug("inspector client connected", "remote", conn.RemoteAddr())

	// Keep connection alive until client disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.mu.Lock()
	delete(s.clients, conn)
	s.mu.Unlock()
	conn.Close()
}

// record appends to the ring and broadcasts to stream clients.
func (s *Server) record(ev Event) {
	s.mu.Lock()
	s.history = append(s.history, ev)
	if len(s.history) > s.historySize {
		s.history = s.history[len(s.history)-s.historySize:]
	}
	s.mu.Unlock()

	s.broadcast(ev)
}

func (s *Server) broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	s.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(s.clients))
	for client := range s.clients {
		clients = append(clients, client)
	}
	s.mu.RUnlock()

	// Observer callbacks arrive from many goroutines; gorilla conns
	// tolerate only one writer at a time.
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	for _, client := range clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			s.mu.Lock()
			delete(s.clients, client)
			s.mu.Unlock()
			client.Close()
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
