// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency support for the lead webhook. It
// validates an Idempotency-Key request header, optionally performs a
// user-defined lookup to detect previously completed deliveries, and
// annotates the request context so downstream handlers can:
//   - read the normalized key (GetIdempotencyKey)
//   - detect replayed deliveries and the lead they produced (GetReplay)
//   - bypass rate limiting when a replay is served (internal flag)
//
// Persistence stays decoupled behind the narrow IdempotencyLookup function
// type; the middleware itself never touches a database.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the canonical request header that senders use to
// convey an idempotency key for webhook deliveries. The value is expected to
// be stable for a given logical event so that retries (network, client, or
// provider initiated) can be safely deduplicated.
const HeaderIdempotencyKey = "Idempotency-Key"

// Context keys used internally to stash idempotency state.
const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemLead   = "idem.lead"   // string: lead id of the prior delivery
	ctxKeyIdemReplay = "idem.replay" // bool: true when a stored replay exists
	ctxKeyRateBypass = "rate.bypass" // bool: true to skip rate limiting
)

// GetIdempotencyKey returns the validated idempotency key stored in the Gin
// context by IdempotencyValidator. The second return value indicates
// presence. Handlers should prefer this over reading the header directly.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// GetReplay reports whether this request replays a previously completed
// delivery and, if so, the lead id that delivery produced.
func GetReplay(c *gin.Context) (leadID string, replay bool) {
	if v, ok := c.Get(ctxKeyIdemReplay); ok {
		replay, _ = v.(bool)
	}
	if !replay {
		return "", false
	}
	if v, ok := c.Get(ctxKeyIdemLead); ok {
		leadID, _ = v.(string)
	}
	return leadID, true
}

// IdempotencyOptions configures header validation behavior for
// IdempotencyValidator.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. If nil, a conservative
	// RFC7230-like token pattern is used: ^[A-Za-z0-9._~\-:]+$
	Pattern *regexp.Regexp
	// NOTE: TTL is not enforced here; enforce it within the lookup.
}

// IdempotencyLookup answers whether a still-valid record exists for key at
// the given time, returning the lead id the original delivery produced.
// Return found=false for unknown keys; return an error only for lookup
// failures (which do not block normal processing).
type IdempotencyLookup func(ctx context.Context, key string, now time.Time) (leadID string, found bool, err error)

// IdempotencyValidator validates the Idempotency-Key header (if present),
// stashes it in the request context, and optionally checks for a prior
// completed delivery via the supplied lookup. On a replay it marks the
// context so the handler can short-circuit to the stored lead and the rate
// limiter skips the request.
//
// Behavior:
//   - Header absent: no-op.
//   - Header fails validation: 400 with a compact error body.
//   - Lookup hit: replay + rate-bypass flags set; processing continues so
//     the handler decides how to serve the replay.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"code":    "bad_idempotency_key",
				"message": "invalid Idempotency-Key",
			})
			return
		}

		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			if leadID, found, _ := lookup(c.Request.Context(), key, time.Now().UTC()); found {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyIdemLead, leadID)
				c.Set(ctxKeyRateBypass, true)
			}
		}

		c.Next()
	}
}
