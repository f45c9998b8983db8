package model

import "errors"

// Error taxonomy surfaced to event replies as {success:false, error:<string>}
// and, for GameNotFound on the REST surface, as HTTP 404. Stable, short,
// human-readable — callers render these strings directly.
var (
	ErrGameNotFound            = errors.New("Game not found")
	ErrGameAlreadyStarted      = errors.New("Game already started")
	ErrNoQuestions             = errors.New("No questions added")
	ErrGameNotAcceptingAnswers = errors.New("Game is not accepting answers")
	ErrWrongState              = errors.New("Invalid operation for current game state")
	ErrUnknownTeam             = errors.New("Unknown team")
	ErrUnknownQuestion         = errors.New("Unknown question")
	ErrBadRequest              = errors.New("Bad request")
	ErrPinExhausted            = errors.New("Unable to allocate a game PIN")
)
