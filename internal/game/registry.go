package game

import (
	"fmt"
	"sync"

	"github.com/sekalabs/seka-server/internal/deck"
	"github.com/sekalabs/seka-server/internal/money"
	"github.com/sekalabs/seka-server/internal/roomid"
)

// Registry holds every live room, keyed by room ID.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// maxSeats is bounded by the deck: every seated player must receive a full
// hand from a single 36-card deck.
const maxSeats = deck.Size / deck.HandSize

// CreateRoom creates a room and seats the creator in it.
func (r *Registry) CreateRoom(name, creator, connID string, maxPlayers int, minBet money.Amount) (*Room, error) {
	if maxPlayers < 2 || maxPlayers > maxSeats {
		return nil, fmt.Errorf("%w: max players must be between 2 and %d, got %d", ErrInvalidConfig, maxSeats, maxPlayers)
	}
	if minBet < 0 {
		return nil, fmt.Errorf("%w: min bet must not be negative, got %s", ErrInvalidConfig, minBet)
	}

	room := newRoom(roomid.New(), name, creator, maxPlayers, minBet)
	room.players = append(room.players, &Player{
		Username: creator,
		ConnID:   connID,
		Status:   StatusWaiting,
	})

	r.mu.Lock()
	r.rooms[room.ID] = room
	r.mu.Unlock()
	return room, nil
}

// Get returns the room with the given ID.
func (r *Registry) Get(roomID string) (*Room, error) {
	r.mu.RLock()
	room, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// Join seats a player in the room.
func (r *Registry) Join(roomID, username, connID string) (*Room, error) {
	room, err := r.Get(roomID)
	if err != nil {
		return nil, err
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if len(room.players) >= room.MaxPlayers {
		return nil, ErrRoomFull
	}
	if room.find(username) != nil {
		return nil, ErrAlreadyJoined
	}
	room.players = append(room.players, &Player{
		Username: username,
		ConnID:   connID,
		Status:   StatusWaiting,
	})
	return room, nil
}

// Remove deletes the room. Removing an unknown room is a no-op.
func (r *Registry) Remove(roomID string) {
	r.mu.Lock()
	delete(r.rooms, roomID)
	r.mu.Unlock()
}

// All returns every live room.
func (r *Registry) All() []*Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rooms := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

// WaitingRooms returns up to limit summaries of rooms accepting players,
// implementing RoomLister for lobby broadcasts.
func (r *Registry) WaitingRooms(limit int) []RoomSummary {
	r.mu.RLock()
	rooms := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	r.mu.RUnlock()

	summaries := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		s := room.Summary()
		if s.Status != RoomWaiting || s.PlayerCount >= s.MaxPlayers {
			continue
		}
		summaries = append(summaries, s)
		if limit > 0 && len(summaries) >= limit {
			break
		}
	}
	return summaries
}
