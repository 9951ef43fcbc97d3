package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

// recordingProcessor captures the arguments of the last push.
type recordingProcessor struct {
	mailbox string
	cursor  uint64
	calls   int
	err     error
}

func (r *recordingProcessor) ProcessPush(ctx context.Context, mailboxAddr string, cursor uint64) error {
	r.calls++
	r.mailbox = mailboxAddr
	r.cursor = cursor
	return r.err
}

func mailboxEngine(p *recordingProcessor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewMailboxHandler(p)
	r.POST("/webhooks/mailbox", h.PostMailboxPush)
	return r
}

func pushBody(inner string) string {
	data := base64.StdEncoding.EncodeToString([]byte(inner))
	return fmt.Sprintf(`{"message":{"data":"%s","messageId":"m1"},"subscription":"sub"}`, data)
}

func postPush(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/mailbox", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPostMailboxPush_OK(t *testing.T) {
	p := &recordingProcessor{}
	r := mailboxEngine(p)

	w := postPush(r, pushBody(`{"emailAddress":"sales@ours.test","historyId":12345}`))
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if p.mailbox != "sales@ours.test" || p.cursor != 12345 {
		t.Fatalf("processor got (%q, %d)", p.mailbox, p.cursor)
	}
}

func TestPostMailboxPush_QuotedHistoryID(t *testing.T) {
	p := &recordingProcessor{}
	r := mailboxEngine(p)

	w := postPush(r, pushBody(`{"emailAddress":"sales@ours.test","historyId":"67890"}`))
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	if p.cursor != 67890 {
		t.Fatalf("cursor = %d, want 67890", p.cursor)
	}
}

func TestPostMailboxPush_BadBase64(t *testing.T) {
	p := &recordingProcessor{}
	r := mailboxEngine(p)

	w := postPush(r, `{"message":{"data":"%%%not-base64%%%"},"subscription":"sub"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if p.calls != 0 {
		t.Fatalf("processor invoked on malformed envelope")
	}
}

func TestPostMailboxPush_BadInnerJSON(t *testing.T) {
	p := &recordingProcessor{}
	r := mailboxEngine(p)

	w := postPush(r, pushBody(`this is not json`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestPostMailboxPush_MissingMailbox(t *testing.T) {
	p := &recordingProcessor{}
	r := mailboxEngine(p)

	w := postPush(r, pushBody(`{"historyId":5}`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestPostMailboxPush_NonNumericCursor(t *testing.T) {
	p := &recordingProcessor{}
	r := mailboxEngine(p)

	w := postPush(r, pushBody(`{"emailAddress":"a@b.test","historyId":"abc"}`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestPostMailboxPush_ProcessingErrorIs500(t *testing.T) {
	p := &recordingProcessor{err: errors.New("db down")}
	r := mailboxEngine(p)

	w := postPush(r, pushBody(`{"emailAddress":"sales@ours.test","historyId":1}`))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 so the origin retries", w.Code)
	}
	if !strings.Contains(w.Body.String(), "internal_error") {
		t.Fatalf("missing error code: %s", w.Body.String())
	}
}
