package server

// MessageType represents a WebSocket message type with type safety.
type MessageType string

// WebSocket message type constants for the client-server protocol. Game
// events raised by the engine (battle_start, next_turn, game_over and the
// rest) travel as messages too; their names live in internal/game.
const (
	// Client to server messages
	MessageTypeLogin        MessageType = "login"
	MessageTypeCreateRoom   MessageType = "create_room"
	MessageTypeJoinRoom     MessageType = "join_room"
	MessageTypeLeaveRoom    MessageType = "leave_room"
	MessageTypeEnterRound   MessageType = "enter_round"
	MessageTypeMakeMove     MessageType = "make_move"
	MessageTypeRespondOffer MessageType = "respond_offer"
	MessageTypeListRooms    MessageType = "list_rooms"

	// Server to client messages
	MessageTypeError      MessageType = "error"
	MessageTypeLoginOK    MessageType = "login_ok"
	MessageTypeRoomJoined MessageType = "room_joined"
	MessageTypeRoomLeft   MessageType = "room_left"
)

// String returns the string representation of the message type.
func (mt MessageType) String() string {
	return string(mt)
}
