package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a referenced booking or comment does not exist.
var ErrNotFound = errors.New("not found")

// ConflictSummary carries enough of the existing booking for a caller to show
// "you already have an active request" without a second lookup.
type ConflictSummary struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Outcome   string    `json:"outcome,omitempty"`
	Urgency   string    `json:"urgency,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ConflictError rejects a creation because an active booking already exists
// for the same MRN and kind.
type ConflictError struct {
	Message  string
	Existing ConflictSummary
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s (existing booking %s, status %s)", e.Message, e.Existing.ID, e.Existing.Status)
}

// ValidationError rejects an operation before any write happens. Allowed, when
// set, lists the legal values for the offending field.
type ValidationError struct {
	Field   string
	Value   string
	Allowed []string
	Message string
}

func (e *ValidationError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("invalid value %q for %s", e.Value, e.Field)
	}
	if len(e.Allowed) > 0 {
		msg += ": allowed values are " + strings.Join(e.Allowed, ", ")
	}
	return msg
}

// IsConflict reports whether err is an admission-control rejection.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsValidation reports whether err is a domain validation rejection.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
