// Package handlers – mailbox push endpoint.
//
// This file implements the Pub/Sub push receiver that drives reply
// detection. The push body is an envelope whose data field is a base64
// (standard alphabet) JSON document naming the mailbox and its history
// cursor.
package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/avell/go-leads-backend/internal/http/middleware"
)

// ReplyProcessor is the service surface the push handler depends on.
// *services.ReplyService satisfies it.
type ReplyProcessor interface {
	ProcessPush(ctx context.Context, mailboxAddr string, historyCursor uint64) error
}

// MailboxHandler serves the mailbox push endpoint.
type MailboxHandler struct {
	Replies ReplyProcessor
}

// NewMailboxHandler wires the handler to a reply processor.
func NewMailboxHandler(replies ReplyProcessor) *MailboxHandler {
	return &MailboxHandler{Replies: replies}
}

// pushEnvelope mirrors the Pub/Sub push delivery format.
type pushEnvelope struct {
	Message struct {
		Data      string `json:"data"`
		MessageID string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// pushPayload is the decoded inner document.
type pushPayload struct {
	EmailAddress string      `json:"emailAddress"`
	HistoryID    json.Number `json:"historyId"`
}

// PostMailboxPush handles POST /webhooks/mailbox.
//
// Malformed envelopes get 400 so the origin drops them instead of
// redelivering forever. Processing failures get 500, which triggers a
// retry. Everything the pipeline intentionally ignores (unknown mailbox,
// missing credential) is acknowledged with 204.
func (h *MailboxHandler) PostMailboxPush(c *gin.Context) {
	var env pushEnvelope
	if err := c.ShouldBindJSON(&env); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeMalformedEnvelope, "malformed push envelope")
		return
	}

	decoded, err := base64.StdEncoding.DecodeString(env.Message.Data)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeMalformedEnvelope, "push data is not valid base64")
		return
	}

	var payload pushPayload
	if err := json.Unmarshal(decoded, &payload); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeMalformedEnvelope, "push data is not valid JSON")
		return
	}

	mailboxAddr := strings.TrimSpace(payload.EmailAddress)
	if mailboxAddr == "" {
		fail(c, http.StatusBadRequest, ErrCodeMalformedEnvelope, "push data names no mailbox")
		return
	}

	// historyId arrives as a number or a quoted string depending on the
	// publisher; json.Number absorbs both.
	var cursor uint64
	if s := payload.HistoryID.String(); s != "" {
		cursor, err = strconv.ParseUint(s, 10, 64)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeMalformedEnvelope, "push data carries a non-numeric history cursor")
			return
		}
	}

	if err := h.Replies.ProcessPush(c.Request.Context(), mailboxAddr, cursor); err != nil {
		lg := middleware.LoggerFrom(c)
		lg.Error().Err(err).Str("mailbox", mailboxAddr).Msg("mailbox push processing failed")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "push processing failed")
		return
	}
	noContent(c)
}
