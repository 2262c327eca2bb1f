package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
	"trivia-session-service/internal/domain"
)

// MirrorStore is the durable persist.Store: rooms and players are
// upserted as the in-memory state changes. Callers reach it through
// persist.Mirror, so a failure here is logged and never hits game flow.
type MirrorStore struct {
	pool *pgxpool.Pool
}

func NewMirrorStore(pool *pgxpool.Pool) *MirrorStore {
	return &MirrorStore{pool: pool}
}

func (m *MirrorStore) SaveRoom(ctx context.Context, room domain.Room) error {
	_, err := m.pool.Exec(ctx, `
		INSERT INTO rooms (id, code, host_user_id, question_set_id, status, created_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6)
		ON CONFLICT (id) DO UPDATE SET code = EXCLUDED.code, status = EXCLUDED.status`,
		room.ID, room.Code, room.HostID, room.QuestionSetRef, string(room.Status), room.CreatedAt)
	return err
}

func (m *MirrorStore) SetRoomStatus(ctx context.Context, roomID string, status domain.RoomStatus) error {
	_, err := m.pool.Exec(ctx, `UPDATE rooms SET status = $2 WHERE id = $1`, roomID, string(status))
	return err
}

func (m *MirrorStore) DeleteRoom(ctx context.Context, roomID string) error {
	_, err := m.pool.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, roomID)
	return err
}

func (m *MirrorStore) SavePlayer(ctx context.Context, player domain.Player) error {
	_, err := m.pool.Exec(ctx, `
		INSERT INTO room_players (connection_id, room_id, user_id, display_name, score, joined_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
		ON CONFLICT (connection_id) DO UPDATE SET
			room_id = EXCLUDED.room_id,
			display_name = EXCLUDED.display_name,
			score = EXCLUDED.score`,
		player.ConnectionID, player.RoomID, player.UserID, player.DisplayName, player.Score, player.JoinedAt)
	return err
}

func (m *MirrorStore) UpdateScore(ctx context.Context, connectionID string, score int) error {
	_, err := m.pool.Exec(ctx, `UPDATE room_players SET score = $2 WHERE connection_id = $1`, connectionID, score)
	return err
}

func (m *MirrorStore) DeletePlayer(ctx context.Context, connectionID string) error {
	_, err := m.pool.Exec(ctx, `DELETE FROM room_players WHERE connection_id = $1`, connectionID)
	return err
}

func (m *MirrorStore) ResetRoomScores(ctx context.Context, roomID string) error {
	_, err := m.pool.Exec(ctx, `UPDATE room_players SET score = 0 WHERE room_id = $1`, roomID)
	return err
}

func (m *MirrorStore) ClearPlayers(ctx context.Context) error {
	_, err := m.pool.Exec(ctx, `DELETE FROM room_players`)
	return err
}
