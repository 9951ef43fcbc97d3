// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// These symbolic constants are mapped to HTTP responses via the `fail()`
// helper in this package and give webhook callers a stable, machine-readable
// error taxonomy that supplements human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic unless explicitly noted.
//   - Generic codes (e.g., bad_request, unauthorized) mirror common HTTP
//     status semantics to aid interoperability.
//   - Domain-specific codes (e.g., invalid_signature, unsupported_event) are
//     reserved for pipeline errors a status alone cannot convey.
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeInvalidSignature  = "invalid_signature"
	ErrCodeUnsupportedEvent  = "unsupported_event"
	ErrCodeValidationFailed  = "validation_failed"
	ErrCodeIntakeFailed      = "intake_failed"
	ErrCodeMalformedEnvelope = "malformed_envelope"
	ErrCodeMethodNotAllowed  = "method_not_allowed"
)
