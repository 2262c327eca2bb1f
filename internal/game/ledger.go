package game

import (
	"context"
	"sort"
	"sync"
	"time"

	"trivia-session-service/internal/domain"
	"trivia-session-service/internal/persist"
)

type ledgerEntry struct {
	player  domain.Player
	joinSeq uint64
}

// Ledger is the in-memory registry of connected players: room membership
// and scores, keyed by connection id. A connection id maps to at most one
// room. Mutations are mirrored best-effort to the persistence store.
type Ledger struct {
	mu      sync.RWMutex
	players map[string]*ledgerEntry
	seq     uint64
	mirror  *persist.Mirror
	now     func() time.Time
}

func NewLedger(mirror *persist.Mirror) *Ledger {
	return &Ledger{
		players: make(map[string]*ledgerEntry),
		mirror:  mirror,
		now:     time.Now,
	}
}

// Add registers a player. Re-adding an existing connection id replaces the
// entry rather than duplicating it; a reconnecting socket shows up with a
// fresh id in practice.
func (l *Ledger) Add(connectionID, displayName, roomID, userID string) domain.Player {
	l.mu.Lock()
	l.seq++
	entry := &ledgerEntry{
		player: domain.Player{
			ConnectionID: connectionID,
			DisplayName:  displayName,
			UserID:       userID,
			RoomID:       roomID,
			Score:        0,
			JoinedAt:     l.now(),
		},
		joinSeq: l.seq,
	}
	l.players[connectionID] = entry
	player := entry.player
	l.mu.Unlock()

	l.mirror.Do("save player", func(ctx context.Context, s persist.Store) error {
		return s.SavePlayer(ctx, player)
	})
	return player
}

// Remove drops a player and detaches them from room membership. Reports
// whether the connection id was present; removing an absent id is a no-op.
func (l *Ledger) Remove(connectionID string) bool {
	l.mu.Lock()
	_, ok := l.players[connectionID]
	if ok {
		delete(l.players, connectionID)
	}
	l.mu.Unlock()
	if !ok {
		return false
	}

	l.mirror.Do("delete player", func(ctx context.Context, s persist.Store) error {
		return s.DeletePlayer(ctx, connectionID)
	})
	return true
}

func (l *Ledger) Get(connectionID string) (domain.Player, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entry, ok := l.players[connectionID]
	if !ok {
		return domain.Player{}, false
	}
	return entry.player, true
}

// PlayersInRoom returns the room roster ordered by join time.
func (l *Ledger) PlayersInRoom(roomID string) []domain.Player {
	l.mu.RLock()
	entries := make([]*ledgerEntry, 0)
	for _, entry := range l.players {
		if entry.player.RoomID == roomID {
			entries = append(entries, entry)
		}
	}
	l.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].joinSeq < entries[j].joinSeq
	})
	players := make([]domain.Player, len(entries))
	for i, entry := range entries {
		players[i] = entry.player
	}
	return players
}

// AddScore adds delta to a player's score and returns the new total.
// Reports false when the connection id is absent.
func (l *Ledger) AddScore(connectionID string, delta int) (int, bool) {
	l.mu.Lock()
	entry, ok := l.players[connectionID]
	if !ok {
		l.mu.Unlock()
		return 0, false
	}
	entry.player.Score += delta
	total := entry.player.Score
	l.mu.Unlock()

	l.mirror.Do("update score", func(ctx context.Context, s persist.Store) error {
		return s.UpdateScore(ctx, connectionID, total)
	})
	return total, true
}

// ResetRoomScores zeroes every score in a room, e.g. before a restart.
func (l *Ledger) ResetRoomScores(roomID string) {
	l.mu.Lock()
	for _, entry := range l.players {
		if entry.player.RoomID == roomID {
			entry.player.Score = 0
		}
	}
	l.mu.Unlock()

	l.mirror.Do("reset room scores", func(ctx context.Context, s persist.Store) error {
		return s.ResetRoomScores(ctx, roomID)
	})
}

// ClearAll empties the ledger.
func (l *Ledger) ClearAll() {
	l.mu.Lock()
	l.players = make(map[string]*ledgerEntry)
	l.mu.Unlock()

	l.mirror.Do("clear players", func(ctx context.Context, s persist.Store) error {
		return s.ClearPlayers(ctx)
	})
}

// RoomPlayerCount counts the players currently in a room.
func (l *Ledger) RoomPlayerCount(roomID string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	count := 0
	for _, entry := range l.players {
		if entry.player.RoomID == roomID {
			count++
		}
	}
	return count
}

// IsInRoom reports whether the connection id belongs to the given room.
func (l *Ledger) IsInRoom(connectionID, roomID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entry, ok := l.players[connectionID]
	return ok && entry.player.RoomID == roomID
}
