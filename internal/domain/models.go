package domain

import "time"

// RoomStatus tracks where a room is in its lifecycle.
type RoomStatus string

const (
	RoomWaiting  RoomStatus = "waiting"
	RoomPlaying  RoomStatus = "playing"
	RoomFinished RoomStatus = "finished"
)

// Room is one live game session grouping players and a question cursor.
// The engine owns the cursor and timer state; Room carries identity and
// metadata only.
type Room struct {
	ID             string
	Code           string
	HostID         string
	QuestionSetRef string
	Status         RoomStatus
	CreatedAt      time.Time
}

// Player is one live connection inside a room. ConnectionID is ephemeral;
// a reconnect arrives with a fresh id.
type Player struct {
	ConnectionID string
	DisplayName  string
	UserID       string
	RoomID       string
	Score        int
	JoinedAt     time.Time
}

// PublicPlayer is the roster view broadcast to clients.
type PublicPlayer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Question is the canonical question shape produced once at the catalog
// boundary. CorrectAnswer keeps the source representation (a 0-based
// numeral or a letter A-D); it is canonicalized to an index at grading
// time, never earlier.
type Question struct {
	ID               string   `json:"id"`
	Text             string   `json:"text"`
	Options          []string `json:"options"`
	CorrectAnswer    string   `json:"correctAnswer"`
	TimeLimitSeconds int      `json:"timeLimitSeconds"`
	BasePoints       int      `json:"basePoints"`
}

// PublicQuestion is the client-facing projection; the correct answer is
// withheld.
type PublicQuestion struct {
	ID               string   `json:"id"`
	Text             string   `json:"text"`
	Options          []string `json:"options"`
	TimeLimitSeconds int      `json:"timeLimitSeconds"`
}

// Public strips the correct answer from a question.
func (q Question) Public() PublicQuestion {
	return PublicQuestion{
		ID:               q.ID,
		Text:             q.Text,
		Options:          q.Options,
		TimeLimitSeconds: q.TimeLimitSeconds,
	}
}

// QuestionSet describes an available set without its questions.
type QuestionSet struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// RankEntry is one leaderboard row. Position is 1-based and follows the
// sort order directly; tied scores appear adjacent, ordered by name.
type RankEntry struct {
	Position     int    `json:"rank"`
	DisplayName  string `json:"name"`
	Score        int    `json:"score"`
	ConnectionID string `json:"connectionId"`
}

// AnswerResult is the per-player grading outcome, unicast to the submitter.
type AnswerResult struct {
	Correct bool `json:"correct"`
	Gained  int  `json:"gained"`
}
