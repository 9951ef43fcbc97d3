// Package services defines the business logic for lead intake and reply
// processing. This file centralizes common service-level error values so
// they can be consistently returned by service methods and checked by
// callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyBatch is returned when a batch event carries no items.
	ErrEmptyBatch = errors.New("batch event contains no items")

	// ErrUnsupportedEvent is returned when the webhook envelope names an
	// event type outside the recognized set (created, updated, batch).
	ErrUnsupportedEvent = errors.New("unsupported event type")
)

// ValidationError reports the mandatory intake fields missing from a lead
// payload. It is a client error: the webhook handler maps it to HTTP 400
// with the field names in the message.
type ValidationError struct {
	// Missing holds the JSON field names absent from the payload.
	Missing []string
}

// Error implements the error interface, naming every missing field.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
}

// IsValidationError reports whether err is (or wraps) a *ValidationError,
// returning it when so.
func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
