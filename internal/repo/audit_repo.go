// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the append-only
// WebhookAudit model.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avell/go-leads-backend/internal/domain"
)

// CreateAudit appends one audit record. Callers on the webhook path wrap
// this in error containment: an audit write failure is logged and dropped,
// never surfaced to the webhook caller.
func CreateAudit(ctx context.Context, db *gorm.DB, eventType, payload string, success bool, errMsg string, leadID *string) (*domain.WebhookAudit, error) {
	rec := &domain.WebhookAudit{
		ID:        uuid.NewString(),
		EventType: eventType,
		Payload:   payload,
		Success:   success,
		Error:     errMsg,
		LeadID:    leadID,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

// ListAuditsSince returns audit records created at or after the cutoff,
// newest first, capped at limit. Used by operational tooling to inspect
// recent webhook traffic.
func ListAuditsSince(ctx context.Context, db *gorm.DB, since time.Time, limit int) ([]domain.WebhookAudit, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []domain.WebhookAudit
	err := db.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at desc").
		Limit(limit).
		Find(&out).Error
	return out, err
}
