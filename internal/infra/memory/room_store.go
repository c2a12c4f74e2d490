package memory

import (
	"sync"

	"trivia-room-service/internal/app"
	"trivia-room-service/internal/domain"
)

// RoomStore is an in-memory implementation of app.RoomRepository.
type RoomStore struct {
	newCode func() string

	mu    sync.RWMutex
	rooms map[string]*app.Room
}

func NewRoomStore() *RoomStore {
	return NewRoomStoreWithCodes(app.NewRoomCode)
}

// NewRoomStoreWithCodes is test-only for deterministic room codes.
func NewRoomStoreWithCodes(newCode func() string) *RoomStore {
	return &RoomStore{
		newCode: newCode,
		rooms:   make(map[string]*app.Room),
	}
}

func (s *RoomStore) Create(name string, creator domain.Player) *app.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	code := s.newCode()
	for {
		if _, taken := s.rooms[code]; !taken {
			break
		}
		code = s.newCode()
	}
	room := app.NewRoom(code, name, creator)
	s.rooms[code] = room
	return room
}

func (s *RoomStore) Get(roomID string) (*app.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[roomID]
	return room, ok
}

func (s *RoomStore) Remove(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, roomID)
}

func (s *RoomStore) RemoveIfEmpty(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return false
	}
	if !room.CloseIfEmpty() {
		return false
	}
	delete(s.rooms, roomID)
	return true
}

func (s *RoomStore) All() []*app.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rooms := make([]*app.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}
