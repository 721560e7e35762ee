package game

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/sekalabs/seka-server/internal/ledger"
	"github.com/sekalabs/seka-server/internal/money"
)

// Service is the session facade the transport talks to. It owns the registry
// and delegates round mechanics to the engine; the transport only ever sees
// room IDs, usernames and connection handles.
type Service struct {
	registry *Registry
	engine   *Engine
	pub      Publisher
	ledger   ledger.Ledger
	logger   *log.Logger

	defaultBalance money.Amount
	listLimit      int
}

// NewService wires the service and points the engine's lobby projection at
// the registry.
func NewService(reg *Registry, eng *Engine, pub Publisher, l ledger.Ledger, defaultBalance money.Amount, listLimit int, logger *log.Logger) *Service {
	eng.SetRoomLister(reg)
	return &Service{
		registry:       reg,
		engine:         eng,
		pub:            pub,
		ledger:         l,
		logger:         logger.WithPrefix("session"),
		defaultBalance: defaultBalance,
		listLimit:      listLimit,
	}
}

// Login ensures the player has a ledger account, seeding it with the default
// balance on first sight, and returns the current balance.
func (s *Service) Login(ctx context.Context, username string) (money.Amount, error) {
	if err := s.ledger.EnsureAccount(ctx, username, s.defaultBalance); err != nil {
		return 0, mapLedgerErr(err)
	}
	bal, err := s.ledger.Balance(ctx, username)
	if err != nil {
		return 0, mapLedgerErr(err)
	}
	s.logger.Info("player logged in", "player", username, "balance", bal)
	return bal, nil
}

// CreateRoom creates a room with the creator already seated.
func (s *Service) CreateRoom(name, creator, connID string, maxPlayers int, minBet money.Amount) (RoomState, error) {
	room, err := s.registry.CreateRoom(name, creator, connID, maxPlayers, minBet)
	if err != nil {
		return RoomState{}, err
	}
	s.logger.Info("room created", "room", room.ID, "name", name, "creator", creator,
		"maxPlayers", maxPlayers, "minBet", minBet)
	s.refreshRoomList()
	return room.State(), nil
}

// JoinRoom seats the player and announces the arrival to the room.
func (s *Service) JoinRoom(roomID, username, connID string) (RoomState, error) {
	room, err := s.registry.Join(roomID, username, connID)
	if err != nil {
		return RoomState{}, err
	}
	state := room.State()

	s.logger.Info("player joined", "room", roomID, "player", username)
	s.pub.ToRoom(roomID, EventPlayerJoined, PlayerJoined{Username: username})
	s.pub.ToRoom(roomID, EventPlayersUpdate, PlayersUpdate{Players: state.Players, TotalBank: state.TotalBank})
	s.refreshRoomList()
	return state, nil
}

// LeaveRoom removes the player's seat, deleting the room once it empties.
func (s *Service) LeaveRoom(ctx context.Context, roomID, username string) error {
	room, err := s.registry.Get(roomID)
	if err != nil {
		return err
	}
	empty, err := s.engine.Leave(ctx, room, username)
	if err != nil {
		return err
	}
	if empty {
		s.logger.Info("room emptied, removing", "room", roomID)
		s.registry.Remove(roomID)
	}
	s.refreshRoomList()
	return nil
}

// EnterRound antes the player into the room's next round.
func (s *Service) EnterRound(ctx context.Context, roomID, username string) error {
	room, err := s.registry.Get(roomID)
	if err != nil {
		return err
	}
	return s.engine.EnterRound(ctx, room, username)
}

// Move dispatches a validated in-round action.
func (s *Service) Move(ctx context.Context, roomID, username string, move Move) error {
	room, err := s.registry.Get(roomID)
	if err != nil {
		return err
	}
	switch move.Type {
	case MoveRaise:
		return s.engine.Raise(ctx, room, username, move.Amount)
	case MoveFold:
		return s.engine.Fold(ctx, room, username)
	case MoveShow:
		return s.engine.Show(ctx, room, username)
	case MoveOfferSplit:
		return s.engine.Offer(room, username, OfferSplit)
	case MoveOfferSeka:
		return s.engine.Offer(room, username, OfferSeka)
	default:
		return ErrUnknownMove
	}
}

// RespondOffer forwards an offer response to the engine.
func (s *Service) RespondOffer(ctx context.Context, roomID, username string, accepted bool) error {
	room, err := s.registry.Get(roomID)
	if err != nil {
		return err
	}
	return s.engine.RespondOffer(ctx, room, username, accepted)
}

// ListRooms returns the lobby view of joinable rooms.
func (s *Service) ListRooms() []RoomSummary {
	return s.registry.WaitingRooms(s.listLimit)
}

// RoomState snapshots a room for a reconnecting or querying client.
func (s *Service) RoomState(roomID string) (RoomState, error) {
	room, err := s.registry.Get(roomID)
	if err != nil {
		return RoomState{}, err
	}
	return room.State(), nil
}

// Disconnect removes the dropped connection's player from every room they
// were seated in. An active player is folded on the way out.
func (s *Service) Disconnect(ctx context.Context, connID string) {
	for _, room := range s.registry.All() {
		room.mu.Lock()
		username := ""
		for _, p := range room.players {
			if p.ConnID == connID {
				username = p.Username
				break
			}
		}
		room.mu.Unlock()
		if username == "" {
			continue
		}

		s.logger.Info("disconnect, leaving room", "room", room.ID, "player", username)
		empty, err := s.engine.Leave(ctx, room, username)
		if err != nil {
			s.logger.Error("failed to remove disconnected player", "room", room.ID,
				"player", username, "error", err)
			continue
		}
		if empty {
			s.registry.Remove(room.ID)
		}
	}
	s.refreshRoomList()
}

func (s *Service) refreshRoomList() {
	s.pub.RoomList(s.registry.WaitingRooms(s.listLimit))
}
