package persist

import (
	"context"
	"errors"
	"sync"
	"testing"

	"trivia-session-service/internal/domain"
)

type flakyStore struct {
	Noop
	mu    sync.Mutex
	calls int
	err   error
}

func (f *flakyStore) SaveRoom(context.Context, domain.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func TestMirrorRunsCallsAsync(t *testing.T) {
	store := &flakyStore{}
	mirror := NewMirror(store)

	mirror.Do("save_room", func(ctx context.Context, s Store) error {
		return s.SaveRoom(ctx, domain.Room{ID: "r1"})
	})
	mirror.Wait()

	if store.calls != 1 {
		t.Fatalf("expected 1 store call, got %d", store.calls)
	}
}

func TestMirrorSwallowsStoreErrors(t *testing.T) {
	store := &flakyStore{err: errors.New("connection refused")}
	mirror := NewMirror(store)

	// Must not panic or propagate; the live path never sees store failures.
	mirror.Do("save_room", func(ctx context.Context, s Store) error {
		return s.SaveRoom(ctx, domain.Room{ID: "r1"})
	})
	mirror.Wait()

	if store.calls != 1 {
		t.Fatalf("expected the failing call to still run, got %d", store.calls)
	}
}

func TestNilMirrorIsSafe(t *testing.T) {
	var mirror *Mirror
	mirror.Do("save_room", func(ctx context.Context, s Store) error {
		t.Fatal("nil mirror must not invoke fn")
		return nil
	})
	mirror.Wait()
}

func TestFanoutReportsFirstError(t *testing.T) {
	boom := errors.New("boom")
	a := &flakyStore{err: boom}
	b := &flakyStore{}
	fanout := Fanout{a, b}

	err := fanout.SaveRoom(context.Background(), domain.Room{ID: "r1"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected first error, got %v", err)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Fatalf("expected both stores called, got %d and %d", a.calls, b.calls)
	}
}
