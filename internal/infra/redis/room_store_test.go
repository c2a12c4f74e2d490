package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"trivia-room-service/internal/app"
	"trivia-room-service/internal/domain"
)

func TestRoomStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRoomStore(client, time.Minute)

	room := store.Create("Trivia Night", domain.Player{ConnectionID: "c1", Name: "Ada"})
	key := "trivia:room:" + room.ID()
	if !mr.Exists(key) {
		t.Fatalf("expected redis key to be set")
	}
	if got, _ := mr.Get(key); got != "Trivia Night" {
		t.Fatalf("expected room name as marker value, got %q", got)
	}

	if _, err := app.NewMembership(store).Leave(room.ID(), "c1"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if !store.RemoveIfEmpty(room.ID()) {
		t.Fatalf("expected empty room removed")
	}
	if mr.Exists(key) {
		t.Fatalf("expected redis key to be removed")
	}
}
