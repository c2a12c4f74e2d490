package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"trivia-room-service/internal/app"
	"trivia-room-service/internal/domain"
	"trivia-room-service/internal/infra/memory"
)

// RoomStore is a Redis-aware implementation of app.RoomRepository.
// Notes:
//   - Rooms still live in a local in-memory store; this process owns their state
//     and timers.
//   - Redis holds a liveness marker per room code (room name as value) so operators
//     and other tooling can see which codes are live.
type RoomStore struct {
	*memory.RoomStore
	client *redis.Client
	ttl    time.Duration
}

func NewRoomStore(client *redis.Client, ttl time.Duration) *RoomStore {
	return &RoomStore{
		RoomStore: memory.NewRoomStore(),
		client:    client,
		ttl:       ttl,
	}
}

func (s *RoomStore) Create(name string, creator domain.Player) *app.Room {
	room := s.RoomStore.Create(name, creator)
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(room.ID()), name, s.ttl).Err()
	return room
}

func (s *RoomStore) Remove(roomID string) {
	s.RoomStore.Remove(roomID)
	_ = s.client.Del(context.Background(), s.key(roomID)).Err()
}

func (s *RoomStore) RemoveIfEmpty(roomID string) bool {
	if !s.RoomStore.RemoveIfEmpty(roomID) {
		return false
	}
	_ = s.client.Del(context.Background(), s.key(roomID)).Err()
	return true
}

func (s *RoomStore) key(roomID string) string {
	return "trivia:room:" + roomID
}
