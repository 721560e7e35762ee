package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sekalabs/seka-server/internal/game"
)

// Connection represents a WebSocket connection to a client.
type Connection struct {
	id        string
	conn      *websocket.Conn
	send      chan *Message
	username  string
	roomID    string
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closeOnce sync.Once
	svc       *game.Service
}

// NewConnection creates a connection wrapper with a fresh handle. The handle
// is what the game layer addresses private events to.
func NewConnection(conn *websocket.Conn, logger *log.Logger, svc *game.Service) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		id:     uuid.NewString(),
		conn:   conn,
		send:   make(chan *Message, 256),
		logger: logger.WithPrefix("conn"),
		ctx:    ctx,
		cancel: cancel,
		svc:    svc,
	}
}

// ID returns the connection handle.
func (c *Connection) ID() string {
	return c.id
}

// Start begins handling the connection.
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues a message for the client.
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed, expected during shutdown
			c.logger.Debug("Attempted to send message on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// SetUsername associates this connection with a logged-in player.
func (c *Connection) SetUsername(username string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.username = username
}

// GetUsername returns the associated username.
func (c *Connection) GetUsername() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.username
}

// SetRoom associates this connection with a room.
func (c *Connection) SetRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomID = roomID
}

// GetRoom returns the associated room ID.
func (c *Connection) GetRoom() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roomID
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var ErrConnectionClosed = websocket.ErrCloseSent

// readPump handles incoming messages from the client.
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client.
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage dispatches an inbound client message.
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "player", c.GetUsername())

	switch msg.Type {
	case MessageTypeLogin:
		var data LoginData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse login data")
			return
		}
		c.handleLogin(data)

	case MessageTypeCreateRoom:
		var data CreateRoomData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse create room data")
			return
		}
		c.handleCreateRoom(data)

	case MessageTypeJoinRoom:
		var data JoinRoomData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse join room data")
			return
		}
		c.handleJoinRoom(data)

	case MessageTypeLeaveRoom:
		var data LeaveRoomData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse leave room data")
			return
		}
		c.handleLeaveRoom(data)

	case MessageTypeEnterRound:
		var data EnterRoundData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse enter round data")
			return
		}
		c.handleEnterRound(data)

	case MessageTypeMakeMove:
		var data MakeMoveData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse move data")
			return
		}
		c.handleMakeMove(data)

	case MessageTypeRespondOffer:
		var data RespondOfferData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse offer response data")
			return
		}
		c.handleRespondOffer(data)

	case MessageTypeListRooms:
		c.handleListRooms()

	default:
		c.sendError("unknown_message_type", "Unknown message type: "+msg.Type.String())
	}
}

// sendError sends an error message to the client.
func (c *Connection) sendError(code, message string) {
	errorMsg, err := NewMessage(MessageTypeError, ErrorData{
		Code:    code,
		Message: message,
	})
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}

	_ = c.SendMessage(errorMsg)
}

// sendServiceError translates a game-layer error into a protocol error.
func (c *Connection) sendServiceError(err error) {
	c.sendError(errorCode(err), err.Error())
}

// errorCode maps the game layer's sentinel errors onto protocol codes.
func errorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, game.ErrRoomFull):
		return "room_full"
	case errors.Is(err, game.ErrAlreadyJoined):
		return "already_joined"
	case errors.Is(err, game.ErrPlayerNotInRoom):
		return "not_in_room"
	case errors.Is(err, game.ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, game.ErrBetTooLow):
		return "bet_too_low"
	case errors.Is(err, game.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, game.ErrInvalidConfig):
		return "invalid_room_config"
	case errors.Is(err, game.ErrAlreadyEntered):
		return "already_entered"
	case errors.Is(err, game.ErrRoundInProgress):
		return "round_in_progress"
	case errors.Is(err, game.ErrNoActiveRound):
		return "no_active_round"
	case errors.Is(err, game.ErrNotInRound):
		return "not_in_round"
	case errors.Is(err, game.ErrNotHeadsUp):
		return "not_heads_up"
	case errors.Is(err, game.ErrOfferPending):
		return "offer_pending"
	case errors.Is(err, game.ErrNoPendingOffer):
		return "no_pending_offer"
	case errors.Is(err, game.ErrUnknownMove):
		return "unknown_move"
	case errors.Is(err, game.ErrLedgerUnavailable):
		return "ledger_unavailable"
	default:
		return "internal_error"
	}
}

// requireLogin returns the username, or sends an error and returns "".
func (c *Connection) requireLogin() string {
	username := c.GetUsername()
	if username == "" {
		c.sendError("not_authenticated", "Must log in first")
	}
	return username
}

func (c *Connection) handleLogin(data LoginData) {
	c.logger.Info("Login request", "username", data.Username)

	if data.Username == "" {
		c.sendError("invalid_login", "Username required")
		return
	}

	balance, err := c.svc.Login(c.ctx, data.Username)
	if err != nil {
		c.sendServiceError(err)
		return
	}
	c.SetUsername(data.Username)

	response, _ := NewMessage(MessageTypeLoginOK, LoginOKData{
		Username: data.Username,
		Balance:  balance,
	})
	_ = c.SendMessage(response)
}

func (c *Connection) handleCreateRoom(data CreateRoomData) {
	username := c.requireLogin()
	if username == "" {
		return
	}
	c.logger.Info("Create room request", "name", data.Name, "player", username)

	state, err := c.svc.CreateRoom(data.Name, username, c.id, data.MaxPlayers, data.MinBet)
	if err != nil {
		c.sendServiceError(err)
		return
	}
	c.SetRoom(state.ID)

	response, _ := NewMessage(MessageTypeRoomJoined, RoomJoinedData{Room: state})
	_ = c.SendMessage(response)
}

func (c *Connection) handleJoinRoom(data JoinRoomData) {
	username := c.requireLogin()
	if username == "" {
		return
	}
	c.logger.Info("Join room request", "roomId", data.RoomID, "player", username)

	state, err := c.svc.JoinRoom(data.RoomID, username, c.id)
	if err != nil {
		c.sendServiceError(err)
		return
	}
	c.SetRoom(data.RoomID)

	response, _ := NewMessage(MessageTypeRoomJoined, RoomJoinedData{Room: state})
	_ = c.SendMessage(response)
}

func (c *Connection) handleLeaveRoom(data LeaveRoomData) {
	username := c.requireLogin()
	if username == "" {
		return
	}
	c.logger.Info("Leave room request", "roomId", data.RoomID, "player", username)

	if err := c.svc.LeaveRoom(c.ctx, data.RoomID, username); err != nil {
		c.sendServiceError(err)
		return
	}
	c.SetRoom("")

	response, _ := NewMessage(MessageTypeRoomLeft, RoomLeftData{RoomID: data.RoomID})
	_ = c.SendMessage(response)
}

func (c *Connection) handleEnterRound(data EnterRoundData) {
	username := c.requireLogin()
	if username == "" {
		return
	}
	c.logger.Info("Enter round request", "roomId", data.RoomID, "player", username)

	if err := c.svc.EnterRound(c.ctx, data.RoomID, username); err != nil {
		c.sendServiceError(err)
	}
	// No direct response; the game layer publishes the resulting events
}

func (c *Connection) handleMakeMove(data MakeMoveData) {
	username := c.requireLogin()
	if username == "" {
		return
	}
	c.logger.Info("Move request", "roomId", data.RoomID, "player", username,
		"move", data.Move, "amount", data.Amount)

	moveType, err := game.ParseMoveType(data.Move)
	if err != nil {
		c.sendServiceError(err)
		return
	}
	move := game.Move{Type: moveType, Amount: data.Amount}
	if err := c.svc.Move(c.ctx, data.RoomID, username, move); err != nil {
		c.sendServiceError(err)
	}
}

func (c *Connection) handleRespondOffer(data RespondOfferData) {
	username := c.requireLogin()
	if username == "" {
		return
	}
	c.logger.Info("Offer response", "roomId", data.RoomID, "player", username, "accepted", data.Accepted)

	if err := c.svc.RespondOffer(c.ctx, data.RoomID, username, data.Accepted); err != nil {
		c.sendServiceError(err)
	}
}

func (c *Connection) handleListRooms() {
	response, _ := NewMessage(MessageType(game.EventRoomList), RoomListData{Rooms: c.svc.ListRooms()})
	_ = c.SendMessage(response)
}
