package game

import (
	"sort"

	"trivia-session-service/internal/domain"
)

// Ranking produces ordered leaderboards from the ledger.
type Ranking struct {
	ledger *Ledger
}

func NewRanking(ledger *Ledger) *Ranking {
	return &Ranking{ledger: ledger}
}

// Rank returns the room leaderboard: score descending, ties broken by
// display name ascending. Positions are 1-based and follow the sort order
// directly; tied scores do not share a position.
func (r *Ranking) Rank(roomID string) []domain.RankEntry {
	players := r.ledger.PlayersInRoom(roomID)
	sort.SliceStable(players, func(i, j int) bool {
		if players[i].Score != players[j].Score {
			return players[i].Score > players[j].Score
		}
		return players[i].DisplayName < players[j].DisplayName
	})

	entries := make([]domain.RankEntry, len(players))
	for i, p := range players {
		entries[i] = domain.RankEntry{
			Position:     i + 1,
			DisplayName:  p.DisplayName,
			Score:        p.Score,
			ConnectionID: p.ConnectionID,
		}
	}
	return entries
}
