package game

import (
	"math"
	"strconv"
	"strings"

	"trivia-session-service/internal/domain"
)

var letterIndex = map[string]int{"A": 0, "B": 1, "C": 2, "D": 3}

// NormalizeAnswer canonicalizes an answer representation into a 0-based
// option index. Accepted shapes: a raw integer, an integer-valued numeral
// string, or a single letter A-D in either case. Everything else, including
// nil, reports false.
func NormalizeAnswer(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return nonNegative(v)
	case int32:
		return nonNegative(int(v))
	case int64:
		return nonNegative(int(v))
	case float64:
		// JSON numbers decode as float64; only integral values qualify.
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return 0, false
		}
		return nonNegative(int(v))
	case string:
		return normalizeString(v)
	}
	return 0, false
}

func nonNegative(idx int) (int, bool) {
	if idx < 0 {
		return 0, false
	}
	return idx, true
}

func normalizeString(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return nonNegative(n)
	}
	if idx, ok := letterIndex[strings.ToUpper(s)]; ok {
		return idx, true
	}
	return 0, false
}

// IsCorrect decides whether a submitted answer matches the question's
// stored correct answer. Both representations go through NormalizeAnswer
// independently; an unparseable value on either side is a plain false,
// never an error. This is the single source of correctness for both the
// live-room path and the direct catalog fallback.
func IsCorrect(q domain.Question, submitted any) bool {
	want, ok := NormalizeAnswer(q.CorrectAnswer)
	if !ok {
		return false
	}
	got, ok := NormalizeAnswer(submitted)
	if !ok {
		return false
	}
	return want == got
}
