package domain

import "errors"

var (
	// ErrRoomNotFound is returned when a room id or code resolves to nothing.
	ErrRoomNotFound = errors.New("room not found")
	// ErrSetNotFound indicates the requested question set does not exist.
	ErrSetNotFound = errors.New("question set not found")
	// ErrQuestionNotFound indicates a submitted question id is unknown.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrPlayerNotFound is returned when a connection id is not in the ledger.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrCatalogUnavailable means the question source failed; the room is
	// left unchanged and the caller may retry.
	ErrCatalogUnavailable = errors.New("question catalog unavailable")
	// ErrCodeSpaceExhausted is returned when room code generation keeps
	// colliding with active codes.
	ErrCodeSpaceExhausted = errors.New("room code space exhausted")
	// ErrValidation covers missing or malformed command fields.
	ErrValidation = errors.New("invalid request")
)
