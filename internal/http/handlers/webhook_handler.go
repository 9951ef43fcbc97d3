// Package handlers – lead webhook endpoint.
//
// This file implements the inbound lead webhook. The signature and
// idempotency middlewares run before it, so by the time the handler
// executes the raw body is authenticated and stashed in the context and
// any replayed Idempotency-Key has been resolved.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/avell/go-leads-backend/internal/http/middleware"
	"github.com/avell/go-leads-backend/internal/services"
)

// LeadIntake is the service surface the webhook handler depends on.
// *services.IntakeService satisfies it; tests substitute fakes.
type LeadIntake interface {
	Intake(ctx context.Context, ev *services.LeadEvent, idemKey string, raw []byte) (*services.IntakeResult, error)
}

// WebhookHandler serves the lead intake endpoint.
type WebhookHandler struct {
	Intake          LeadIntake
	CallbackBaseURL string
}

// NewWebhookHandler wires the handler to an intake service.
func NewWebhookHandler(svc LeadIntake, callbackBaseURL string) *WebhookHandler {
	return &WebhookHandler{Intake: svc, CallbackBaseURL: callbackBaseURL}
}

// leadResponse is the envelope for single-lead deliveries.
type leadResponse struct {
	Success     bool   `json:"success"`
	LeadID      string `json:"lead_id"`
	Message     string `json:"message"`
	Duplicate   bool   `json:"duplicate"`
	CallbackURL string `json:"callback_url,omitempty"`
}

// batchResponse is the envelope for batch deliveries. Results are reported
// positionally so the sender can retry exactly the failed items. The
// callback URL is where the external enrichment workflow reports back once
// it has processed the batch.
type batchResponse struct {
	Success     bool                  `json:"success"`
	LeadIDs     []string              `json:"lead_ids"`
	Message     string                `json:"message"`
	Results     []services.ItemResult `json:"results"`
	Created     int                   `json:"created"`
	Duplicates  int                   `json:"duplicates"`
	Failed      int                   `json:"failed"`
	CallbackURL string                `json:"callback_url,omitempty"`
}

// PostLeadWebhook handles POST /webhooks/leads.
//
// Accepted payload shapes:
//   - bare lead object: {"first_name": ..., ...}
//   - inline discriminator: {"event": "created"|"updated", "first_name": ..., ...}
//   - batch: {"event": "batch", "data": [{...}, ...]}
//
// A replayed Idempotency-Key short-circuits to 200 with the original lead
// id. New single leads return 201; duplicates (by email) and batches
// return 200.
func (h *WebhookHandler) PostLeadWebhook(c *gin.Context) {
	// The idempotency middleware resolved the key before the body was
	// parsed; a replay answers without touching the pipeline again.
	if leadID, replay := middleware.GetReplay(c); replay {
		ok(c, http.StatusOK, leadResponse{
			Success:   true,
			LeadID:    leadID,
			Message:   "duplicate delivery, original result returned",
			Duplicate: true,
		})
		return
	}

	raw, found := middleware.RawBody(c)
	if !found {
		// Signature middleware not in the chain (no secret configured);
		// read the body directly.
		b, err := c.GetRawData()
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unreadable request body")
			return
		}
		raw = b
	}

	ev, err := services.ParseLeadEvent(raw)
	if err != nil {
		switch err {
		case services.ErrUnsupportedEvent:
			fail(c, http.StatusBadRequest, ErrCodeUnsupportedEvent, "unsupported event type")
		case services.ErrEmptyBatch:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "batch event carries no items")
		default:
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "malformed JSON payload")
		}
		return
	}

	idemKey, _ := middleware.GetIdempotencyKey(c)
	res, err := h.Intake.Intake(c.Request.Context(), ev, idemKey, raw)
	if err != nil {
		if verr, isVal := services.IsValidationError(err); isVal {
			fail(c, http.StatusBadRequest, ErrCodeValidationFailed, verr.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeIntakeFailed, "lead intake failed")
		return
	}

	if ev.IsBatch() {
		ok(c, http.StatusOK, batchResponse{
			Success: true,
			LeadIDs: res.LeadIDs,
			Message: fmt.Sprintf("processed %d items: %d created, %d duplicates, %d failed",
				len(res.Items), res.Created, res.Duplicates, res.Failed),
			Results:     res.Items,
			Created:     res.Created,
			Duplicates:  res.Duplicates,
			Failed:      res.Failed,
			CallbackURL: h.enrichmentCallbackURL(),
		})
		return
	}

	body := leadResponse{Success: true, LeadID: res.LeadIDs[0], Duplicate: res.Duplicate}
	status := http.StatusCreated
	if res.Duplicate {
		status = http.StatusOK
		body.Message = "lead already exists"
	} else {
		body.Message = "lead created"
		body.CallbackURL = h.leadURL(res.LeadIDs[0])
	}
	ok(c, status, body)
}

// callbackBase returns the configured callback base, normalized, or "".
func (h *WebhookHandler) callbackBase() string {
	return strings.TrimRight(strings.TrimSpace(h.CallbackBaseURL), "/")
}

// leadURL builds the canonical URL of a created lead when a base is
// configured.
func (h *WebhookHandler) leadURL(leadID string) string {
	base := h.callbackBase()
	if base == "" {
		return ""
	}
	return base + "/leads/" + leadID
}

// enrichmentCallbackURL builds the endpoint the external enrichment
// workflow posts batch results back to.
func (h *WebhookHandler) enrichmentCallbackURL() string {
	base := h.callbackBase()
	if base == "" {
		return ""
	}
	return base + "/webhooks/enrichment"
}
