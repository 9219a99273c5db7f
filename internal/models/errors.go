package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error kinds shared by every store and service. Handlers translate them into
// HTTP status codes, everything else is reported as an internal error.
var (
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrInvalidRequest = errors.New("invalid request")
	ErrAlreadyDone    = errors.New("already done")
	ErrUpstream       = errors.New("upstream failure")
)

var (
	ErrReservationNotFound = fmt.Errorf("reservation %w", ErrNotFound)
	ErrRoomNotFound        = fmt.Errorf("room %w", ErrNotFound)
	ErrShareNotFound       = fmt.Errorf("shared reservation %w", ErrNotFound)
	ErrConnectionNotFound  = fmt.Errorf("connection %w", ErrNotFound)
	ErrProfileNotFound     = fmt.Errorf("profile %w", ErrNotFound)

	ErrAlreadyPaid      = fmt.Errorf("%w: payment already recorded", ErrAlreadyDone)
	ErrAlreadyCancelled = fmt.Errorf("%w: reservation already cancelled", ErrAlreadyDone)
	ErrAlreadyShared    = fmt.Errorf("%w: reservation is already shared", ErrConflict)

	ErrInvalidTransition = fmt.Errorf("%w: status transition not allowed", ErrInvalidRequest)
	ErrShareClosed       = fmt.Errorf("%w: shared reservation is no longer open for payment", ErrInvalidRequest)
	ErrReservationShared = fmt.Errorf("%w: reservation is paid through its shared reservation", ErrInvalidRequest)
	ErrStaleWrite        = fmt.Errorf("%w: document changed concurrently", ErrConflict)
)

// ConflictError reports the days that already block a room number.
type ConflictError struct {
	RoomID string
	Dates  []time.Time
}

func (e *ConflictError) Error() string {
	days := make([]string, 0, len(e.Dates))
	for _, d := range e.Dates {
		days = append(days, d.Format(DayLayout))
	}
	return fmt.Sprintf("room %s is unavailable on %s", e.RoomID, strings.Join(days, ", "))
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// ErrorKind names the taxonomy bucket err belongs to, or "internal".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrAlreadyDone):
		return "already_done"
	case errors.Is(err, ErrUpstream):
		return "upstream_failure"
	default:
		return "internal"
	}
}
