package engine

import (
	"errors"
	"fmt"
)

// Kind classifies an Error for reporting
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindState      Kind = "state"
	KindInternal   Kind = "internal"
)

// Error is the structured failure returned by engines, rooms and the dispatcher
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors by code so customized copies still match their sentinel
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy of e with a more specific message
func (e *Error) WithMessage(msg string) *Error {
	c := *e
	c.Message = msg
	return &c
}

// Wrap returns a copy of e carrying err as its cause
func (e *Error) Wrap(err error) *Error {
	c := *e
	c.Err = err
	return &c
}

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	ErrNotYourTurn    = newError(KindValidation, "not_your_turn", "not your turn")
	ErrOutOfBounds    = newError(KindValidation, "out_of_bounds", "position out of bounds")
	ErrCellOccupied   = newError(KindValidation, "cell_occupied", "cell already occupied")
	ErrIllegalMove    = newError(KindValidation, "illegal_move", "illegal move")
	ErrInvalidAction  = newError(KindValidation, "invalid_action", "unsupported action")
	ErrInvalidPayload = newError(KindValidation, "invalid_payload", "invalid payload")
	ErrNoItem         = newError(KindValidation, "no_item", "no item held")

	ErrRoomNotFound    = newError(KindNotFound, "room_not_found", "game not found")
	ErrPlayerNotFound  = newError(KindNotFound, "player_not_found", "player not found")
	ErrUnknownGameType = newError(KindNotFound, "unknown_game_type", "unsupported game type")

	ErrRoomFull         = newError(KindState, "room_full", "game is full")
	ErrAlreadyJoined    = newError(KindState, "already_joined", "already joined this game")
	ErrNotMember        = newError(KindState, "not_member", "not a member of this game")
	ErrWrongPhase       = newError(KindState, "wrong_phase", "action not allowed in current phase")
	ErrNotEnoughPlayers = newError(KindState, "not_enough_players", "waiting for more players")
	ErrGameOver         = newError(KindState, "game_over", "game is over")
	ErrAlreadyInRoom    = newError(KindState, "already_in_room", "already in another game")

	ErrInternal = newError(KindInternal, "internal", "internal error")
)

// Internal wraps an unexpected failure as an internal error
func Internal(err error) *Error {
	return ErrInternal.Wrap(err)
}

// KindOf reports the kind of err; unknown errors are internal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf reports the code of err; unknown errors map to the internal code
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrInternal.Code
}

// IsValidation reports whether err is a validation failure
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsNotFound reports whether err is a not-found failure
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsState reports whether err is a state failure
func IsState(err error) bool { return KindOf(err) == KindState }
