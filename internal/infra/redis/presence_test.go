package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"trivia-session-service/internal/domain"
)

func TestPresenceSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	presence := NewPresence(newClient(mr), time.Minute)
	ctx := context.Background()

	room := domain.Room{ID: "room-1", Code: "AB12CD", Status: domain.RoomWaiting}
	if err := presence.SaveRoom(ctx, room); err != nil {
		t.Fatalf("save room: %v", err)
	}
	if !mr.Exists("room:live:room-1") || !mr.Exists("room:code:AB12CD") {
		t.Fatalf("expected liveness keys to be set")
	}

	if err := presence.SetRoomStatus(ctx, "room-1", domain.RoomPlaying); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if got, _ := mr.Get("room:live:room-1"); got != "playing" {
		t.Fatalf("expected playing, got %q", got)
	}

	if err := presence.DeleteRoom(ctx, "room-1"); err != nil {
		t.Fatalf("delete room: %v", err)
	}
	if mr.Exists("room:live:room-1") {
		t.Fatalf("expected liveness key removed")
	}
}
