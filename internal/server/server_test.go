package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sekalabs/seka-server/internal/game"
	"github.com/sekalabs/seka-server/internal/ledger"
	"github.com/sekalabs/seka-server/internal/money"
)

func newWSTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})

	srv := NewServer("127.0.0.1:0", logger)
	bank := ledger.NewMemory()
	eng := game.NewEngine(bank, srv, quartz.NewReal(), game.DefaultRules(), logger)
	svc := game.NewService(game.NewRegistry(), eng, srv, bank, money.FromFloat(1000), 50, logger)
	srv.SetService(svc)
	go srv.run()

	ts := httptest.NewServer(http.HandlerFunc(srv.handleWebSocket))
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Stop()
	})
	return ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType MessageType, data interface{}) {
	t.Helper()
	msg, err := NewMessage(msgType, data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(msg))
}

// waitFor reads messages until one of the given type arrives, skipping
// interleaved broadcasts.
func waitFor(t *testing.T, conn *websocket.Conn, msgType MessageType) *Message {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))
	for {
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg), "waiting for %q", msgType)
		if msg.Type == msgType {
			return &msg
		}
	}
}

func decode[T any](t *testing.T, msg *Message) T {
	t.Helper()
	var data T
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	return data
}

func TestServerProtocol(t *testing.T) {
	ts := newWSTestServer(t)

	t.Run("login requires a username", func(t *testing.T) {
		conn := dial(t, ts)
		send(t, conn, MessageTypeLogin, LoginData{})
		errMsg := decode[ErrorData](t, waitFor(t, conn, MessageTypeError))
		assert.Equal(t, "invalid_login", errMsg.Code)
	})

	t.Run("login seeds a balance", func(t *testing.T) {
		conn := dial(t, ts)
		send(t, conn, MessageTypeLogin, LoginData{Username: "alice"})
		ok := decode[LoginOKData](t, waitFor(t, conn, MessageTypeLoginOK))
		assert.Equal(t, "alice", ok.Username)
		assert.Equal(t, money.FromFloat(1000), ok.Balance)
	})

	t.Run("room actions require login", func(t *testing.T) {
		conn := dial(t, ts)
		send(t, conn, MessageTypeCreateRoom, CreateRoomData{Name: "t", MaxPlayers: 2})
		errMsg := decode[ErrorData](t, waitFor(t, conn, MessageTypeError))
		assert.Equal(t, "not_authenticated", errMsg.Code)
	})

	t.Run("create join and list rooms", func(t *testing.T) {
		alice := dial(t, ts)
		send(t, alice, MessageTypeLogin, LoginData{Username: "alice2"})
		waitFor(t, alice, MessageTypeLoginOK)

		send(t, alice, MessageTypeCreateRoom, CreateRoomData{
			Name:       "seka",
			MaxPlayers: 3,
			MinBet:     money.FromFloat(0.20),
		})
		created := decode[RoomJoinedData](t, waitFor(t, alice, MessageTypeRoomJoined))
		assert.Equal(t, "seka", created.Room.Name)
		assert.Equal(t, "alice2", created.Room.Creator)
		assert.Equal(t, money.FromFloat(0.20), created.Room.MinBet)

		bob := dial(t, ts)
		send(t, bob, MessageTypeLogin, LoginData{Username: "bob2"})
		waitFor(t, bob, MessageTypeLoginOK)

		send(t, bob, MessageTypeListRooms, struct{}{})
		list := decode[RoomListData](t, waitFor(t, bob, MessageType(game.EventRoomList)))
		require.NotEmpty(t, list.Rooms)

		send(t, bob, MessageTypeJoinRoom, JoinRoomData{RoomID: created.Room.ID})
		joined := decode[RoomJoinedData](t, waitFor(t, bob, MessageTypeRoomJoined))
		assert.Len(t, joined.Room.Players, 2)

		// the creator hears the arrival
		arrival := decode[game.PlayerJoined](t, waitFor(t, alice, MessageType(game.EventPlayerJoined)))
		assert.Equal(t, "bob2", arrival.Username)

		send(t, bob, MessageTypeMakeMove, MakeMoveData{RoomID: created.Room.ID, Move: "raise"})
		errMsg := decode[ErrorData](t, waitFor(t, bob, MessageTypeError))
		assert.Equal(t, "no_active_round", errMsg.Code)

		send(t, bob, MessageTypeMakeMove, MakeMoveData{RoomID: created.Room.ID, Move: "dance"})
		errMsg = decode[ErrorData](t, waitFor(t, bob, MessageTypeError))
		assert.Equal(t, "unknown_move", errMsg.Code)
	})

	t.Run("unknown message type", func(t *testing.T) {
		conn := dial(t, ts)
		send(t, conn, MessageType("teleport"), struct{}{})
		errMsg := decode[ErrorData](t, waitFor(t, conn, MessageTypeError))
		assert.Equal(t, "unknown_message_type", errMsg.Code)
	})
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{game.ErrRoomNotFound, "room_not_found"},
		{game.ErrNotYourTurn, "not_your_turn"},
		{game.ErrBetTooLow, "bet_too_low"},
		{game.ErrInsufficientBalance, "insufficient_balance"},
		{game.ErrNoPendingOffer, "no_pending_offer"},
		{errors.New("boom"), "internal_error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, errorCode(tt.err))
	}
}
