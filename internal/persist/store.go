package persist

import (
	"context"

	"trivia-session-service/internal/domain"
)

// Store mirrors room and player state to durable storage. Every call is
// best-effort: the in-memory state owned by the game package is the source
// of truth for a live session, and a store failure never reaches players.
type Store interface {
	SaveRoom(ctx context.Context, room domain.Room) error
	SetRoomStatus(ctx context.Context, roomID string, status domain.RoomStatus) error
	DeleteRoom(ctx context.Context, roomID string) error
	SavePlayer(ctx context.Context, player domain.Player) error
	UpdateScore(ctx context.Context, connectionID string, score int) error
	DeletePlayer(ctx context.Context, connectionID string) error
	ResetRoomScores(ctx context.Context, roomID string) error
	ClearPlayers(ctx context.Context) error
}

// Noop discards every mirror call. Used when no backing store is configured.
type Noop struct{}

func (Noop) SaveRoom(context.Context, domain.Room) error { return nil }
func (Noop) SetRoomStatus(context.Context, string, domain.RoomStatus) error { return nil }
func (Noop) DeleteRoom(context.Context, string) error { return nil }
func (Noop) SavePlayer(context.Context, domain.Player) error { return nil }
func (Noop) UpdateScore(context.Context, string, int) error { return nil }
func (Noop) DeletePlayer(context.Context, string) error { return nil }
func (Noop) ResetRoomScores(context.Context, string) error { return nil }
func (Noop) ClearPlayers(context.Context) error { return nil }

// Fanout forwards each call to every store and reports the first error.
// Lets a durable mirror and a liveness marker (e.g. Redis presence keys)
// observe the same stream of updates.
type Fanout []Store

func (f Fanout) each(fn func(Store) error) error {
	var first error
	for _, s := range f {
		if err := fn(s); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (f Fanout) SaveRoom(ctx context.Context, room domain.Room) error {
	return f.each(func(s Store) error { return s.SaveRoom(ctx, room) })
}

func (f Fanout) SetRoomStatus(ctx context.Context, roomID string, status domain.RoomStatus) error {
	return f.each(func(s Store) error { return s.SetRoomStatus(ctx, roomID, status) })
}

func (f Fanout) DeleteRoom(ctx context.Context, roomID string) error {
	return f.each(func(s Store) error { return s.DeleteRoom(ctx, roomID) })
}

func (f Fanout) SavePlayer(ctx context.Context, player domain.Player) error {
	return f.each(func(s Store) error { return s.SavePlayer(ctx, player) })
}

func (f Fanout) UpdateScore(ctx context.Context, connectionID string, score int) error {
	return f.each(func(s Store) error { return s.UpdateScore(ctx, connectionID, score) })
}

func (f Fanout) DeletePlayer(ctx context.Context, connectionID string) error {
	return f.each(func(s Store) error { return s.DeletePlayer(ctx, connectionID) })
}

func (f Fanout) ResetRoomScores(ctx context.Context, roomID string) error {
	return f.each(func(s Store) error { return s.ResetRoomScores(ctx, roomID) })
}

func (f Fanout) ClearPlayers(ctx context.Context) error {
	return f.each(func(s Store) error { return s.ClearPlayers(ctx) })
}
