package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a specific error type
type ErrorCode string

const (
	// Intent errors: the requested transition is refused and state is unchanged
	ErrInvalidBet       ErrorCode = "INVALID_BET"
	ErrNotPlayerTurn    ErrorCode = "NOT_PLAYER_TURN"
	ErrSpinInProgress   ErrorCode = "SPIN_IN_PROGRESS"
	ErrGameAlreadyEnded ErrorCode = "GAME_ALREADY_ENDED"
	ErrInvalidState     ErrorCode = "INVALID_STATE"

	// Lobby errors
	ErrGameInProgress   ErrorCode = "GAME_IN_PROGRESS"
	ErrNameTaken        ErrorCode = "NAME_TAKEN"
	ErrTooManyPlayers   ErrorCode = "TOO_MANY_PLAYERS"
	ErrNotEnoughPlayers ErrorCode = "NOT_ENOUGH_PLAYERS"
	ErrNotHost          ErrorCode = "NOT_HOST"
	ErrNotJoined        ErrorCode = "NOT_JOINED"
	ErrInvalidArgument  ErrorCode = "INVALID_ARGUMENT"

	// Remote errors
	ErrRemoteUnavailable ErrorCode = "REMOTE_UNAVAILABLE"
	ErrConnectionLost    ErrorCode = "CONNECTION_LOST"
	ErrVersionConflict   ErrorCode = "VERSION_CONFLICT"

	// System errors
	ErrInternalError ErrorCode = "INTERNAL_ERROR"
)

// GameError represents a game-related error
type GameError struct {
	Code    ErrorCode
	Message string
	Err     error // Underlying error, if any
}

// Error implements the error interface
func (e *GameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *GameError) Unwrap() error {
	return e.Err
}

// NewGameError creates a new GameError
func NewGameError(code ErrorCode, message string) *GameError {
	return &GameError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error in a GameError
func WrapError(code ErrorCode, message string, err error) *GameError {
	return &GameError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsGameError checks if an error is a GameError and has a specific code
func IsGameError(err error, code ErrorCode) bool {
	var gameErr *GameError
	if err == nil {
		return false
	}
	if ok := As(err, &gameErr); !ok {
		return false
	}
	return gameErr.Code == code
}

// As finds the first GameError in err's chain
func As(err error, target **GameError) bool {
	if target == nil || err == nil {
		return false
	}
	return errors.As(err, target)
}

// CodeOf returns the code of the first GameError in err's chain, or ErrInternalError
func CodeOf(err error) ErrorCode {
	var gameErr *GameError
	if As(err, &gameErr) {
		return gameErr.Code
	}
	return ErrInternalError
}

// IsIntentError reports whether err is a refused local intent, which the
// presentation layer treats as an inert button rather than a notice.
func IsIntentError(err error) bool {
	switch CodeOf(err) {
	case ErrInvalidBet, ErrNotPlayerTurn, ErrSpinInProgress, ErrGameAlreadyEnded, ErrInvalidState:
		return err != nil
	}
	return false
}
