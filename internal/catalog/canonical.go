package catalog

import (
	"strings"

	"trivia-session-service/internal/domain"
)

// Defaults applied when a source row leaves them unset.
const (
	DefaultTimeLimitSeconds = 30
	DefaultBasePoints       = 1000
)

// RawQuestion is the loose shape questions arrive in from backing stores:
// the text may live under several column names and the options may be a
// list or four lettered choice columns.
type RawQuestion struct {
	ID            string
	Content       string
	Text          string
	QuestionText  string
	Options       []string
	ChoiceA       string
	ChoiceB       string
	ChoiceC       string
	ChoiceD       string
	CorrectAnswer string
	TimeLimit     int
	Points        int
}

// Canonicalize maps a raw row into the one canonical Question shape.
// Reports false when the row cannot form a usable question (no text, or
// fewer than two options). Downstream code must never re-normalize.
func Canonicalize(raw RawQuestion) (domain.Question, bool) {
	text := firstNonEmpty(raw.Content, raw.Text, raw.QuestionText)
	if text == "" {
		return domain.Question{}, false
	}

	options := raw.Options
	if len(options) == 0 {
		for _, choice := range []string{raw.ChoiceA, raw.ChoiceB, raw.ChoiceC, raw.ChoiceD} {
			if choice != "" {
				options = append(options, choice)
			}
		}
	}
	if len(options) < 2 {
		return domain.Question{}, false
	}
	if len(options) > 4 {
		options = options[:4]
	}

	timeLimit := raw.TimeLimit
	if timeLimit <= 0 {
		timeLimit = DefaultTimeLimitSeconds
	}
	points := raw.Points
	if points <= 0 {
		points = DefaultBasePoints
	}

	return domain.Question{
		ID:               raw.ID,
		Text:             text,
		Options:          options,
		CorrectAnswer:    strings.TrimSpace(raw.CorrectAnswer),
		TimeLimitSeconds: timeLimit,
		BasePoints:       points,
	}, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
