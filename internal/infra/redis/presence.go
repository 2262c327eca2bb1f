package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"trivia-session-service/internal/domain"
)

// Presence marks room liveness in Redis so other instances (or an ops
// dashboard) can see which rooms exist. It satisfies persist.Store but
// only the room lifecycle calls do anything; player-level mirroring is
// the durable store's job.
type Presence struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPresence(client *redis.Client, ttl time.Duration) *Presence {
	return &Presence{client: client, ttl: ttl}
}

func (p *Presence) SaveRoom(ctx context.Context, room domain.Room) error {
	if err := p.client.Set(ctx, p.roomKey(room.ID), string(room.Status), p.ttl).Err(); err != nil {
		return err
	}
	return p.client.Set(ctx, p.codeKey(room.Code), room.ID, p.ttl).Err()
}

func (p *Presence) SetRoomStatus(ctx context.Context, roomID string, status domain.RoomStatus) error {
	return p.client.Set(ctx, p.roomKey(roomID), string(status), p.ttl).Err()
}

func (p *Presence) DeleteRoom(ctx context.Context, roomID string) error {
	return p.client.Del(ctx, p.roomKey(roomID)).Err()
}

func (p *Presence) SavePlayer(context.Context, domain.Player) error { return nil }
func (p *Presence) UpdateScore(context.Context, string, int) error { return nil }
func (p *Presence) DeletePlayer(context.Context, string) error { return nil }
func (p *Presence) ResetRoomScores(context.Context, string) error { return nil }
func (p *Presence) ClearPlayers(context.Context) error { return nil }

func (p *Presence) roomKey(roomID string) string {
	return "room:live:" + roomID
}

func (p *Presence) codeKey(code string) string {
	return "room:code:" + code
}
