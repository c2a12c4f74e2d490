package memory

import (
	"testing"

	"trivia-room-service/internal/app"
	"trivia-room-service/internal/domain"
)

func TestRoomStoreLifecycle(t *testing.T) {
	store := NewRoomStore()

	room := store.Create("Trivia Night", domain.Player{ConnectionID: "c1", Name: "Ada"})
	if len(room.ID()) != app.RoomCodeLength {
		t.Fatalf("expected %d-char code, got %q", app.RoomCodeLength, room.ID())
	}
	if _, ok := store.Get(room.ID()); !ok {
		t.Fatalf("expected room present")
	}

	if store.RemoveIfEmpty(room.ID()) {
		t.Fatalf("room with a player must not be removed")
	}

	store.Remove(room.ID())
	store.Remove(room.ID()) // removing twice is a no-op
	if _, ok := store.Get(room.ID()); ok {
		t.Fatalf("expected room removed")
	}
}

func TestRoomStoreRegeneratesCollidingCodes(t *testing.T) {
	codes := []string{"AAAAAA", "AAAAAA", "BBBBBB"}
	store := NewRoomStoreWithCodes(func() string {
		code := codes[0]
		codes = codes[1:]
		return code
	})

	first := store.Create("one", domain.Player{ConnectionID: "c1", Name: "Ada"})
	second := store.Create("two", domain.Player{ConnectionID: "c2", Name: "Grace"})

	if first.ID() != "AAAAAA" || second.ID() != "BBBBBB" {
		t.Fatalf("expected AAAAAA then BBBBBB, got %s and %s", first.ID(), second.ID())
	}
	if len(store.All()) != 2 {
		t.Fatalf("expected 2 live rooms, got %d", len(store.All()))
	}
}

func TestRoomStoreRemoveIfEmptyClosesRoom(t *testing.T) {
	store := NewRoomStore()
	membership := app.NewMembership(store)

	room := store.Create("solo", domain.Player{ConnectionID: "c1", Name: "Ada"})
	if _, err := membership.Leave(room.ID(), "c1"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if !store.RemoveIfEmpty(room.ID()) {
		t.Fatalf("expected empty room removed")
	}
	if !room.Closed() {
		t.Fatalf("expected removed room closed")
	}
	if _, err := membership.Join(room.ID(), domain.Player{ConnectionID: "c2", Name: "Grace"}); err != domain.ErrRoomNotFound {
		t.Fatalf("expected room not found, got %v", err)
	}
}
