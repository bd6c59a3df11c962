package scheduling

import (
	"errors"
	"fmt"
)

// Kind classifies engine failures. Every kind except KindPersistence is a terminal,
// user facing outcome.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindConflict
	KindCapacity
	KindNotFound
	KindDependentState
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindConflict:
		return "ConflictError"
	case KindCapacity:
		return "CapacityError"
	case KindNotFound:
		return "NotFoundError"
	case KindDependentState:
		return "DependentStateError"
	case KindPersistence:
		return "PersistenceError"
	default:
		return "UnknownError"
	}
}

// Reason is the machine readable rejection code returned to callers.
type Reason string

const (
	ReasonMissingFields       Reason = "MissingFields"
	ReasonInvalidMobile       Reason = "InvalidMobile"
	ReasonInvalidEmail        Reason = "InvalidEmail"
	ReasonInvalidTime         Reason = "InvalidTime"
	ReasonInvalidDate         Reason = "InvalidDate"
	ReasonInvalidSession      Reason = "InvalidSession"
	ReasonInvalidRange        Reason = "InvalidRange"
	ReasonInvalidField        Reason = "InvalidField"
	ReasonOverlap             Reason = "Overlap"
	ReasonSlotFull            Reason = "SlotFull"
	ReasonUnknownDoctor       Reason = "UnknownDoctor"
	ReasonWindowNotFound      Reason = "WindowNotFound"
	ReasonSlotUnavailable     Reason = "SlotUnavailable"
	ReasonHasAppointments     Reason = "HasAppointments"
	ReasonIdempotencyMismatch Reason = "IdempotencyMismatch"
	ReasonStorageUnavailable  Reason = "StorageUnavailable"
)

// Error is returned by every Engine operation that fails.
type Error struct {
	Kind    Kind
	Reason  Reason
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind == KindPersistence {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the kind sentinels below, so errors.Is(err, ErrCapacity) works for any
// capacity rejection regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Reason != "" && t.Reason != e.Reason {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrValidation     = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrConflict       = &Error{Kind: KindConflict, Message: "conflict"}
	ErrCapacity       = &Error{Kind: KindCapacity, Message: "slot full"}
	ErrNotFound       = &Error{Kind: KindNotFound, Message: "not found"}
	ErrDependentState = &Error{Kind: KindDependentState, Message: "blocked by dependent records"}
	ErrPersistence    = &Error{Kind: KindPersistence, Message: "storage unavailable"}
)

// Storage sentinels. Store implementations return these (possibly wrapped) and the
// engine turns them into *Error values.
var (
	ErrNoRecord        = errors.New("record not found")
	ErrOverlappingRows = errors.New("overlapping availability window")
	ErrDuplicateKey    = errors.New("duplicate idempotency key")
)

func reject(kind Kind, reason Reason, format string, args ...any) *Error {
	return &Error{Kind: kind, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

func persistence(op string, err error) *Error {
	return &Error{Kind: KindPersistence, Reason: ReasonStorageUnavailable, Message: op, Err: err}
}

// ReasonOf returns the rejection reason carried by err, or "".
func ReasonOf(err error) Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

// KindOf returns the kind carried by err; unknown errors count as persistence failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistence
}
