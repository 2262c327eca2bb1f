package game

import (
	"errors"
	"math/rand"
	"testing"

	"trivia-session-service/internal/domain"
)

func TestRegistryCreateAndLookup(t *testing.T) {
	r := NewRegistry(nil)

	room, err := r.Create("host-1", "set-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(room.Code) != codeLength {
		t.Fatalf("expected %d-char code, got %q", codeLength, room.Code)
	}
	if room.Status != domain.RoomWaiting {
		t.Fatalf("expected waiting status, got %s", room.Status)
	}

	byID, ok := r.ByID(room.ID)
	if !ok || byID.Code != room.Code {
		t.Fatalf("lookup by id failed: %+v ok=%v", byID, ok)
	}
	byCode, ok := r.ByCode(room.Code)
	if !ok || byCode.ID != room.ID {
		t.Fatalf("lookup by code failed: %+v ok=%v", byCode, ok)
	}
	if _, ok := r.ByCode("NOPE42"); ok {
		t.Fatalf("expected unknown code to miss")
	}
}

func TestRegistryCodesUniqueAmongActiveRooms(t *testing.T) {
	r := NewRegistry(nil)
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		room, err := r.Create("", "")
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if seen[room.Code] {
			t.Fatalf("duplicate active code %s", room.Code)
		}
		seen[room.Code] = true
	}
}

func TestRegistryDestroyFreesCode(t *testing.T) {
	r := NewRegistry(nil)
	room, err := r.Create("", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	r.Destroy(room.ID)
	if _, ok := r.ByID(room.ID); ok {
		t.Fatalf("expected room gone")
	}
	if _, ok := r.ByCode(room.Code); ok {
		t.Fatalf("expected code freed")
	}

	// Idempotent: destroying again is a no-op.
	r.Destroy(room.ID)
}

// stuckSource makes the code generator emit the same code forever.
type stuckSource struct{}

func (stuckSource) Int63() int64 { return 0 }
func (stuckSource) Seed(int64) {}

func TestRegistryCodeSpaceExhausted(t *testing.T) {
	r := NewRegistry(nil)
	r.rnd = rand.New(stuckSource{})

	if _, err := r.Create("", ""); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := r.Create("", "")
	if !errors.Is(err, domain.ErrCodeSpaceExhausted) {
		t.Fatalf("expected ErrCodeSpaceExhausted, got %v", err)
	}
}

func TestRegistrySetStatus(t *testing.T) {
	r := NewRegistry(nil)
	room, _ := r.Create("", "")

	if !r.SetStatus(room.ID, domain.RoomPlaying) {
		t.Fatalf("expected status update")
	}
	got, _ := r.ByID(room.ID)
	if got.Status != domain.RoomPlaying {
		t.Fatalf("expected playing, got %s", got.Status)
	}
	if r.SetStatus("missing", domain.RoomFinished) {
		t.Fatalf("expected false for unknown room")
	}
}
