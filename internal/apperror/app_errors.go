package apperror

import "errors"

var (
	ErrGameFinished      = errors.New("game is already finished")
	ErrGameIsNotStarted  = errors.New("game is not started")
	ErrNotYourTurn       = errors.New("it's not your turn")
	ErrSessionFull       = errors.New("game already has two players")
	ErrNoLegalMoves      = errors.New("no legal moves left")
	ErrEngineUnavailable = errors.New("move engine is unavailable")
	ErrGameNotFound      = errors.New("game not found")
	ErrUserNotFound      = errors.New("user not found")
)
