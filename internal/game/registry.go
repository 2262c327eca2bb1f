package game

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"trivia-session-service/internal/domain"
	"trivia-session-service/internal/persist"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
	// 36^6 codes; hitting this many collisions in a row means the active
	// code space is effectively full.
	maxCodeAttempts = 64
)

// Registry creates rooms and maps join codes to room ids. Code allocation
// and room creation are atomic under one mutex: no caller can observe a
// code without its room or the other way around.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]*domain.Room
	codes  map[string]string // code -> room id
	rnd    *rand.Rand
	mirror *persist.Mirror
	now    func() time.Time
	newID  func() string
}

func NewRegistry(mirror *persist.Mirror) *Registry {
	return &Registry{
		rooms:  make(map[string]*domain.Room),
		codes:  make(map[string]string),
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		mirror: mirror,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Create allocates a room in the waiting state with a fresh id and a code
// unique among currently active rooms.
func (r *Registry) Create(hostID, questionSetRef string) (domain.Room, error) {
	r.mu.Lock()
	code, err := r.generateCodeLocked()
	if err != nil {
		r.mu.Unlock()
		return domain.Room{}, err
	}
	room := &domain.Room{
		ID:             r.newID(),
		Code:           code,
		HostID:         hostID,
		QuestionSetRef: questionSetRef,
		Status:         domain.RoomWaiting,
		CreatedAt:      r.now(),
	}
	r.rooms[room.ID] = room
	r.codes[code] = room.ID
	created := *room
	r.mu.Unlock()

	r.mirror.Do("save room", func(ctx context.Context, s persist.Store) error {
		return s.SaveRoom(ctx, created)
	})
	return created, nil
}

func (r *Registry) generateCodeLocked() (string, error) {
	buf := make([]byte, codeLength)
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		for i := range buf {
			buf[i] = codeAlphabet[r.rnd.Intn(len(codeAlphabet))]
		}
		code := string(buf)
		if _, taken := r.codes[code]; !taken {
			return code, nil
		}
	}
	return "", domain.ErrCodeSpaceExhausted
}

func (r *Registry) ByID(id string) (domain.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	if !ok {
		return domain.Room{}, false
	}
	return *room, true
}

func (r *Registry) ByCode(code string) (domain.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.codes[code]
	if !ok {
		return domain.Room{}, false
	}
	room, ok := r.rooms[id]
	if !ok {
		return domain.Room{}, false
	}
	return *room, true
}

// SetStatus updates a room's lifecycle status. Reports false for unknown ids.
func (r *Registry) SetStatus(id string, status domain.RoomStatus) bool {
	r.mu.Lock()
	room, ok := r.rooms[id]
	if ok {
		room.Status = status
	}
	r.mu.Unlock()
	if !ok {
		return false
	}

	r.mirror.Do("set room status", func(ctx context.Context, s persist.Store) error {
		return s.SetRoomStatus(ctx, id, status)
	})
	return true
}

// Destroy removes a room and frees its code for reuse. Idempotent:
// destroying a missing id is a no-op.
func (r *Registry) Destroy(id string) {
	r.mu.Lock()
	room, ok := r.rooms[id]
	if ok {
		delete(r.codes, room.Code)
		delete(r.rooms, id)
	}
	r.mu.Unlock()
	if !ok {
		return
	}

	r.mirror.Do("delete room", func(ctx context.Context, s persist.Store) error {
		return s.DeleteRoom(ctx, id)
	})
}

// Active returns a snapshot of all live rooms.
func (r *Registry) Active() []domain.Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rooms := make([]domain.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, *room)
	}
	return rooms
}
