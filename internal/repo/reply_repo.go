// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the EmailReply
// model, including the external-message-id dedupe lookup that makes reply
// processing idempotent.
package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avell/go-leads-backend/internal/domain"
)

// FindReplyByExternalID returns the reply recorded for the provider's
// message identifier, or ErrNotFound. The reply service consults this with a
// consistent read immediately before inserting, so a message id delivered
// twice is processed at most once.
func FindReplyByExternalID(ctx context.Context, db *gorm.DB, externalMessageID string) (*domain.EmailReply, error) {
	var reply domain.EmailReply
	err := db.WithContext(ctx).
		Where("external_message_id = ?", externalMessageID).
		First(&reply).Error
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

// CreateReply inserts a reply row, generating the UUID primary key. The
// unique index on external_message_id backs up the pre-insert lookup; a
// violation is reported as ErrDuplicate so callers can treat the race as a
// no-op rather than a failure.
func CreateReply(ctx context.Context, db *gorm.DB, reply *domain.EmailReply) (*domain.EmailReply, error) {
	if reply.ID == "" {
		reply.ID = uuid.NewString()
	}
	if err := db.WithContext(ctx).Create(reply).Error; err != nil {
		// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
		low := strings.ToLower(err.Error())
		if errors.Is(err, gorm.ErrDuplicatedKey) ||
			strings.Contains(low, "unique constraint failed") ||
			strings.Contains(low, "constraint failed: unique") {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return reply, nil
}

// CountRepliesForLead returns how many replies have been recorded for a lead.
func CountRepliesForLead(ctx context.Context, db *gorm.DB, leadID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.EmailReply{}).
		Where("lead_id = ?", leadID).
		Count(&total).Error
	return total, err
}
