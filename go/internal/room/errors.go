package room

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the client-facing ERROR message and metrics.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindState          Kind = "state"
	KindAuthorization  Kind = "authorization"
	KindNotFound       Kind = "not_found"
	KindClosed         Kind = "closed"
	KindCapacity       Kind = "capacity"
	KindPersistence    Kind = "persistence"
	KindCodeGeneration Kind = "code_generation"
	KindInternal       Kind = "internal"
)

// Error is a classified room error. Msg is safe to show to players.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinel errors by kind and message so wrapped copies still compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Msg == t.Msg
}

var (
	ErrMissingRoomCode = &Error{Kind: KindValidation, Msg: "room code is required"}
	ErrInvalidMove     = &Error{Kind: KindValidation, Msg: "invalid move"}
	ErrUnknownMessage  = &Error{Kind: KindValidation, Msg: "unknown message type"}
	ErrMalformed       = &Error{Kind: KindValidation, Msg: "malformed message"}

	ErrWrongState      = &Error{Kind: KindState, Msg: "game is not in progress"}
	ErrDuplicateChoice = &Error{Kind: KindState, Msg: "choice already made this round"}
	ErrAlreadySeated   = &Error{Kind: KindState, Msg: "already in this room"}
	ErrNotSeated       = &Error{Kind: KindState, Msg: "not seated in this room"}

	ErrForbidden = &Error{Kind: KindAuthorization, Msg: "only the room owner can close the room"}
	ErrNotFound  = &Error{Kind: KindNotFound, Msg: "room not found"}
	ErrClosed    = &Error{Kind: KindClosed, Msg: "room is closed"}
	ErrRoomFull  = &Error{Kind: KindCapacity, Msg: "room is full"}

	ErrCodeGenerationFailed = &Error{Kind: KindCodeGeneration, Msg: "could not allocate a room code"}

	// ErrCodeTaken is returned by a Store when a room code already exists.
	ErrCodeTaken = errors.New("room code already taken")
)

// persistenceError wraps a failed durable-store call.
func persistenceError(op string, err error) error {
	return &Error{Kind: KindPersistence, Msg: "storage unavailable, try again", Err: fmt.Errorf("%s: %w", op, err)}
}

// KindOf returns the classification of err, KindInternal if unclassified.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindInternal
}

// PublicMessage returns the text sent to the client in an ERROR message.
func PublicMessage(err error) string {
	var re *Error
	if errors.As(err, &re) {
		return re.Msg
	}
	return "internal error"
}
