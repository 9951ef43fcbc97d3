package repo

import (
	"context"
	"testing"
	"time"

	"github.com/avell/go-leads-backend/internal/domain"
)

func newReply(leadID, externalID string) *domain.EmailReply {
	return &domain.EmailReply{
		LeadID:            leadID,
		ExternalMessageID: externalID,
		FromEmail:         "ada@ae.test",
		Sentiment:         domain.SentimentPositive,
		ReceivedAt:        time.Now().UTC(),
		DetectedAt:        time.Now().UTC(),
		AnalyzedAt:        time.Now().UTC(),
	}
}

func TestCreateReply_DuplicateExternalID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	lead := seedLead(t, db, "ada@ae.test")

	if _, err := CreateReply(ctx, db, newReply(lead.ID, "msg-1")); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if _, err := CreateReply(ctx, db, newReply(lead.ID, "msg-1")); err != ErrDuplicate {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	total, err := CountRepliesForLead(ctx, db, lead.ID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 1 {
		t.Fatalf("replies = %d, want 1", total)
	}
}

func TestFindReplyByExternalID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	lead := seedLead(t, db, "ada@ae.test")

	created, err := CreateReply(ctx, db, newReply(lead.ID, "msg-2"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := FindReplyByExternalID(ctx, db, "msg-2")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("found %q, want %q", got.ID, created.ID)
	}

	if _, err := FindReplyByExternalID(ctx, db, "msg-missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
