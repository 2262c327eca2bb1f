package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"trivia-session-service/internal/catalog"
	"trivia-session-service/internal/domain"
)

// DefaultRevealPause is how long the revealed answer stays on screen
// before the next question goes out.
const DefaultRevealPause = 700 * time.Millisecond

// Broadcaster delivers room-scoped events to connected clients. The
// transport layer provides group membership; the engine only names the
// room.
type Broadcaster interface {
	BroadcastToRoom(roomID, event string, payload any)
}

// Event names broadcast by the engine.
const (
	EventNewQuestion  = "new_question"
	EventTimeUp       = "timeUp"
	EventRevealAnswer = "reveal_answer"
	EventRankingData  = "rankingData"
	EventGameOver     = "game_over"
)

type newQuestionPayload struct {
	Index    int                   `json:"index"`
	Total    int                   `json:"total"`
	Question domain.PublicQuestion `json:"question"`
}

type revealPayload struct {
	CorrectIndex *int `json:"correctIndex"`
}

type gameOverPayload struct {
	Ranking []domain.RankEntry `json:"ranking"`
}

// session is the per-room question cycle state. All fields are guarded by
// mu; every mutation of the cursor or the pending handles happens inside
// this one exclusive section, which is what serializes the race between a
// timeout-triggered and a submission-triggered advance.
type session struct {
	mu            sync.Mutex
	roomID        string
	questions     []domain.Question
	idx           int
	finished      bool
	cancelAdvance CancelFunc
	cancelPause   CancelFunc
}

func (s *session) cancelTimersLocked() {
	if s.cancelAdvance != nil {
		s.cancelAdvance()
		s.cancelAdvance = nil
	}
	if s.cancelPause != nil {
		s.cancelPause()
		s.cancelPause = nil
	}
}

// Engine drives each room's question cycle: it loads questions, pushes
// them on a timed cadence, grades submissions, and resolves the race
// between a player-triggered and a timeout-triggered advance.
type Engine struct {
	registry *Registry
	ledger   *Ledger
	ranking  *Ranking
	catalog  catalog.Catalog
	hub      Broadcaster

	sched       Scheduler
	revealPause time.Duration

	mu       sync.Mutex
	sessions map[string]*session
}

// Option tweaks engine construction.
type Option func(*Engine)

// WithScheduler swaps the timer backend; tests use a manual one.
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) { e.sched = s }
}

// WithRevealPause overrides the pause between reveal and next question.
func WithRevealPause(d time.Duration) Option {
	return func(e *Engine) { e.revealPause = d }
}

func NewEngine(registry *Registry, ledger *Ledger, ranking *Ranking, cat catalog.Catalog, hub Broadcaster, opts ...Option) *Engine {
	e := &Engine{
		registry:    registry,
		ledger:      ledger,
		ranking:     ranking,
		catalog:     cat,
		hub:         hub,
		sched:       NewTimerScheduler(),
		revealPause: DefaultRevealPause,
		sessions:    make(map[string]*session),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start loads a question list into the room and begins the cycle. The set
// is picked from, in order: an explicit set id, an explicit set name, the
// set bound to the room at creation, the catalog's default set. A catalog
// failure leaves the room untouched so the caller can retry. Returns the
// number of questions loaded.
func (e *Engine) Start(ctx context.Context, roomID, setID, setName string) (int, error) {
	room, ok := e.registry.ByID(roomID)
	if !ok {
		return 0, domain.ErrRoomNotFound
	}

	questions, err := e.resolveQuestions(ctx, room, setID, setName)
	if err != nil {
		return 0, err
	}

	e.mu.Lock()
	s, ok := e.sessions[roomID]
	if !ok {
		s = &session{roomID: roomID}
		e.sessions[roomID] = s
	}
	e.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	restarting := s.finished || room.Status == domain.RoomFinished
	s.cancelTimersLocked()
	s.questions = questions
	s.idx = 0
	s.finished = false
	if restarting {
		e.ledger.ResetRoomScores(roomID)
	}
	e.registry.SetStatus(roomID, domain.RoomPlaying)
	log.Printf("room %s: starting cycle with %d questions", roomID, len(questions))
	e.beginQuestionLocked(s)
	return len(questions), nil
}

func (e *Engine) resolveQuestions(ctx context.Context, room domain.Room, setID, setName string) ([]domain.Question, error) {
	if setID == "" && setName == "" {
		setID = room.QuestionSetRef
	}
	if setID == "" && setName != "" {
		set, err := e.catalog.SetByName(ctx, setName)
		if err != nil {
			if errors.Is(err, domain.ErrSetNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
		}
		setID = set.ID
	}

	var (
		questions []domain.Question
		err       error
	)
	if setID != "" {
		questions, err = e.catalog.QuestionsForSet(ctx, setID)
	} else {
		_, questions, err = e.catalog.DefaultSet(ctx)
	}
	if err != nil {
		if errors.Is(err, domain.ErrSetNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	return questions, nil
}

// beginQuestionLocked broadcasts the question at the cursor and schedules
// the timeout advance. With the cursor exhausted (or no questions at all)
// the room goes terminal instead and the final ranking is the signal.
func (e *Engine) beginQuestionLocked(s *session) {
	if s.idx >= len(s.questions) {
		e.finishLocked(s)
		return
	}
	q := s.questions[s.idx]
	e.hub.BroadcastToRoom(s.roomID, EventNewQuestion, newQuestionPayload{
		Index:    s.idx + 1,
		Total:    len(s.questions),
		Question: q.Public(),
	})

	limit := q.TimeLimitSeconds
	if limit <= 0 {
		limit = catalog.DefaultTimeLimitSeconds
	}
	from := s.idx
	s.cancelAdvance = e.sched.Schedule(time.Duration(limit)*time.Second, func() {
		e.advance(s, from, true)
	})
}

// advance is the only entry point for moving the cursor. Exactly one of
// the timeout and a correct submission wins for a given index: the cursor
// comparison under the session lock decides, and the winner cancels the
// loser's pending handle before releasing it.
func (e *Engine) advance(s *session, from int, timedOut bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished || s.idx != from {
		return
	}
	e.advanceLocked(s, timedOut)
}

func (e *Engine) advanceLocked(s *session, timedOut bool) {
	if s.cancelAdvance != nil {
		s.cancelAdvance()
		s.cancelAdvance = nil
	}

	var correctIndex *int
	if idx, ok := NormalizeAnswer(s.questions[s.idx].CorrectAnswer); ok {
		correctIndex = &idx
	}
	if timedOut {
		e.hub.BroadcastToRoom(s.roomID, EventTimeUp, revealPayload{CorrectIndex: correctIndex})
	}
	e.hub.BroadcastToRoom(s.roomID, EventRevealAnswer, revealPayload{CorrectIndex: correctIndex})

	s.idx++
	s.cancelPause = e.sched.Schedule(e.revealPause, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.finished {
			return
		}
		s.cancelPause = nil
		e.beginQuestionLocked(s)
	})
}

func (e *Engine) finishLocked(s *session) {
	s.finished = true
	s.cancelTimersLocked()
	e.registry.SetStatus(s.roomID, domain.RoomFinished)
	e.hub.BroadcastToRoom(s.roomID, EventGameOver, gameOverPayload{Ranking: e.ranking.Rank(s.roomID)})
	log.Printf("room %s: game over", s.roomID)
}

// SubmitAnswer grades a submission, awards points, and advances the room
// when the graded question is still live. A submission against a question
// the timer has already moved past still reports the per-player result;
// the room-wide advance is a no-op then.
func (e *Engine) SubmitAnswer(ctx context.Context, roomID, connectionID, questionID string, answer any, timeUsedSeconds float64) (domain.AnswerResult, error) {
	if roomID == "" {
		return domain.AnswerResult{}, fmt.Errorf("%w: roomId required", domain.ErrValidation)
	}
	if math.IsNaN(timeUsedSeconds) || math.IsInf(timeUsedSeconds, 0) {
		return domain.AnswerResult{}, fmt.Errorf("%w: timeUsedSeconds must be finite", domain.ErrValidation)
	}

	e.mu.Lock()
	s := e.sessions[roomID]
	e.mu.Unlock()
	if s == nil {
		return e.gradeFromCatalog(ctx, roomID, connectionID, questionID, answer, timeUsedSeconds)
	}

	s.mu.Lock()
	if len(s.questions) == 0 || s.finished {
		s.mu.Unlock()
		return e.gradeFromCatalog(ctx, roomID, connectionID, questionID, answer, timeUsedSeconds)
	}

	// A question counts as live only while its timeout is armed; during the
	// reveal pause the cursor already points at the next (or one past the
	// last) question, which must not be graded or advanced.
	live := s.cancelAdvance != nil

	pos := -1
	for i := range s.questions {
		if s.questions[i].ID == questionID {
			pos = i
			break
		}
	}
	if pos < 0 {
		if !live {
			s.mu.Unlock()
			return e.gradeFromCatalog(ctx, roomID, connectionID, questionID, answer, timeUsedSeconds)
		}
		// Unknown id while a question is live: grade the current question,
		// matching how late or mangled submissions were treated upstream.
		pos = s.idx
	}
	q := s.questions[pos]

	result := domain.AnswerResult{Correct: IsCorrect(q, answer)}
	if result.Correct {
		result.Gained = PointsGained(q.BasePoints, q.TimeLimitSeconds, timeUsedSeconds)
		if _, ok := e.ledger.AddScore(connectionID, result.Gained); !ok {
			log.Printf("room %s: score for unknown connection %s dropped", roomID, connectionID)
		}
		if pos == s.idx && live {
			e.advanceLocked(s, false)
		}
	}
	s.mu.Unlock()

	e.hub.BroadcastToRoom(roomID, EventRankingData, e.ranking.Rank(roomID))
	return result, nil
}

// gradeFromCatalog is the fallback path for rooms without a live cycle:
// the question is looked up directly and graded with the same rules.
func (e *Engine) gradeFromCatalog(ctx context.Context, roomID, connectionID, questionID string, answer any, timeUsedSeconds float64) (domain.AnswerResult, error) {
	q, err := e.catalog.QuestionByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, domain.ErrQuestionNotFound) {
			return domain.AnswerResult{}, err
		}
		return domain.AnswerResult{}, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}

	result := domain.AnswerResult{Correct: IsCorrect(q, answer)}
	if result.Correct {
		result.Gained = PointsGained(q.BasePoints, q.TimeLimitSeconds, timeUsedSeconds)
		if _, ok := e.ledger.AddScore(connectionID, result.Gained); ok {
			e.hub.BroadcastToRoom(roomID, EventRankingData, e.ranking.Rank(roomID))
		}
	}
	return result, nil
}

// CurrentIndex exposes the live cursor for a room, if a session exists.
func (e *Engine) CurrentIndex(roomID string) (int, bool) {
	e.mu.Lock()
	s := e.sessions[roomID]
	e.mu.Unlock()
	if s == nil {
		return 0, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx, true
}

// Teardown cancels any pending handles for a room and drops its session.
// Safe to call for rooms without one.
func (e *Engine) Teardown(roomID string) {
	e.mu.Lock()
	s := e.sessions[roomID]
	delete(e.sessions, roomID)
	e.mu.Unlock()
	if s == nil {
		return
	}
	s.mu.Lock()
	s.finished = true
	s.cancelTimersLocked()
	s.mu.Unlock()
}

// DestroyRoom tears down the room's session and removes it from the
// registry, freeing its code. Pending handles are cancelled so no late
// timer fires against a destroyed room.
func (e *Engine) DestroyRoom(roomID string) {
	e.Teardown(roomID)
	e.registry.Destroy(roomID)
}
