package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/sekalabs/seka-server/internal/game"
)

// Server is the WebSocket front door. It owns the connection set and doubles
// as the game layer's Publisher: the engine publishes to room IDs and
// connection handles, and the server resolves those to live sockets.
type Server struct {
	addr        string
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	register    chan *Connection
	unregister  chan *Connection
	logger      *log.Logger
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	svc         *game.Service
}

// NewServer creates a WebSocket server.
func NewServer(addr string, logger *log.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// For development, allow all origins
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		logger:      logger.WithPrefix("server"),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// SetService wires the session service. Must be called before Start.
func (s *Server) SetService(svc *game.Service) {
	s.svc = svc
}

// Start starts the WebSocket server and blocks until it stops.
func (s *Server) Start() error {
	go s.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	s.logger.Info("Starting WebSocket server", "addr", s.addr)
	return http.ListenAndServe(s.addr, mux)
}

// Stop stops the WebSocket server.
func (s *Server) Stop() error {
	s.cancel()

	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	s.mu.Unlock()

	return nil
}

// run handles connection lifecycle.
func (s *Server) run() {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn] = true
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Info("Client connected", "total", total)

		case conn := <-s.unregister:
			s.mu.Lock()
			_, ok := s.connections[conn]
			if ok {
				delete(s.connections, conn)
				_ = conn.Close()
			}
			total := len(s.connections)
			s.mu.Unlock()

			if ok && s.svc != nil {
				// Fold and unseat the player everywhere they were seated
				s.svc.Disconnect(context.Background(), conn.ID())
			}
			s.logger.Info("Client disconnected", "total", total)

		case <-s.ctx.Done():
			return
		}
	}
}

// handleWebSocket handles WebSocket upgrade requests.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s.logger, s.svc)
	s.register <- client
	client.Start()

	go func() {
		<-client.ctx.Done()
		s.unregister <- client
	}()
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

// ToRoom publishes a game event to every connection in the room,
// implementing game.Publisher.
func (s *Server) ToRoom(roomID, event string, payload any) {
	msg, err := NewMessage(MessageType(event), payload)
	if err != nil {
		s.logger.Error("Failed to encode room event", "event", event, "error", err)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for conn := range s.connections {
		if conn.GetRoom() == roomID {
			if err := conn.SendMessage(msg); err != nil {
				s.logger.Error("Failed to send message to client", "error", err, "player", conn.GetUsername())
			} else {
				count++
			}
		}
	}

	s.logger.Debug("Broadcasted event to room", "roomId", roomID, "event", event, "recipients", count)
}

// ToPlayer publishes a game event to a single connection handle,
// implementing game.Publisher.
func (s *Server) ToPlayer(connID, event string, payload any) {
	msg, err := NewMessage(MessageType(event), payload)
	if err != nil {
		s.logger.Error("Failed to encode player event", "event", event, "error", err)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for conn := range s.connections {
		if conn.ID() == connID {
			if err := conn.SendMessage(msg); err != nil {
				s.logger.Error("Failed to send message to client", "error", err, "player", conn.GetUsername())
			}
			return
		}
	}
}

// RoomList publishes the lobby projection to every connection, implementing
// game.Publisher.
func (s *Server) RoomList(rooms []game.RoomSummary) {
	msg, err := NewMessage(MessageType(game.EventRoomList), RoomListData{Rooms: rooms})
	if err != nil {
		s.logger.Error("Failed to encode room list", "error", err)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for conn := range s.connections {
		if err := conn.SendMessage(msg); err != nil {
			s.logger.Error("Failed to send room list", "error", err, "player", conn.GetUsername())
		}
	}
}
