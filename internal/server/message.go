package server

import (
	"encoding/json"
	"time"

	"github.com/sekalabs/seka-server/internal/game"
	"github.com/sekalabs/seka-server/internal/money"
)

// Message is the base WebSocket message structure.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a message with the current timestamp.
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type LoginData struct {
	Username string `json:"username"`
}

type CreateRoomData struct {
	Name       string       `json:"name"`
	MaxPlayers int          `json:"maxPlayers"`
	MinBet     money.Amount `json:"minBet"`
}

type JoinRoomData struct {
	RoomID string `json:"roomId"`
}

type LeaveRoomData struct {
	RoomID string `json:"roomId"`
}

type EnterRoundData struct {
	RoomID string `json:"roomId"`
}

type MakeMoveData struct {
	RoomID string       `json:"roomId"`
	Move   string       `json:"move"`
	Amount money.Amount `json:"amount,omitempty"`
}

type RespondOfferData struct {
	RoomID   string `json:"roomId"`
	Accepted bool   `json:"accepted"`
}

// Server → Client Messages

type LoginOKData struct {
	Username string       `json:"username"`
	Balance  money.Amount `json:"balance"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RoomJoinedData struct {
	Room game.RoomState `json:"room"`
}

type RoomLeftData struct {
	RoomID string `json:"roomId"`
}

type RoomListData struct {
	Rooms []game.RoomSummary `json:"rooms"`
}
