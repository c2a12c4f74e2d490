package app

import "trivia-room-service/internal/domain"

// Membership seats and unseats players.
type Membership struct {
	rooms RoomRepository
}

func NewMembership(rooms RoomRepository) *Membership {
	return &Membership{rooms: rooms}
}

// Join seats player in the room. Name uniqueness is enforced atomically with the append.
func (m *Membership) Join(roomID string, player domain.Player) (*Room, error) {
	room, ok := m.rooms.Get(roomID)
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	if err := room.addPlayer(player); err != nil {
		return nil, err
	}
	return room, nil
}

// Leave unseats the player holding connectionID and returns it.
func (m *Membership) Leave(roomID, connectionID string) (domain.Player, error) {
	room, ok := m.rooms.Get(roomID)
	if !ok {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	player, ok := room.removePlayer(connectionID)
	if !ok {
		return domain.Player{}, domain.ErrPlayerNotFound
	}
	return player, nil
}
