package repo

import (
	"context"
	"testing"
	"time"
)

func TestIdempotency_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := CreateIdempotency(ctx, db, "k1", "lead-1", 201, time.Hour); err != nil {
		t.Fatalf("create: %v", err)
	}

	rec, err := GetIdempotency(ctx, db, "k1", now)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.LeadID != "lead-1" || rec.Status != 201 {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestIdempotency_DuplicateKey(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := CreateIdempotency(ctx, db, "k1", "lead-1", 201, time.Hour); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := CreateIdempotency(ctx, db, "k1", "lead-2", 201, time.Hour); err != ErrDuplicate {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestIdempotency_ExpiryAndPurge(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := CreateIdempotency(ctx, db, "short", "lead-1", 201, time.Minute); err != nil {
		t.Fatalf("create: %v", err)
	}

	future := time.Now().UTC().Add(2 * time.Minute)
	if _, err := GetIdempotency(ctx, db, "short", future); err != ErrNotFound {
		t.Fatalf("expired record must be invisible, got %v", err)
	}

	purged, err := PurgeExpiredIdempotency(ctx, db, future)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if purged != 1 {
		t.Fatalf("purged = %d, want 1", purged)
	}
}

func TestIdempotency_BlankKeyIsNotFound(t *testing.T) {
	db := newTestDB(t)
	if _, err := GetIdempotency(context.Background(), db, "  ", time.Now()); err != ErrNotFound {
		t.Fatalf("blank key must be ErrNotFound, got %v", err)
	}
}
