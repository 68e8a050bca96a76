package apperror

import "errors"

var (
	ErrGameNotActive   = errors.New("game not active")
	ErrNotYourTurn     = errors.New("it's not your turn")
	ErrInvalidPosition = errors.New("invalid position")
	ErrPositionTaken   = errors.New("position already taken")
	ErrNotInGame       = errors.New("you are not in an active game")
	ErrGameNotFound    = errors.New("game not found")
	ErrNoVotePending   = errors.New("no response needed at this time")
)
