// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for user-facing
// notifications raised by the reply path.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avell/go-leads-backend/internal/domain"
)

// CreateNotification inserts a notification row. The reply service treats a
// failure here as best-effort: logged, never propagated.
func CreateNotification(ctx context.Context, db *gorm.DB, userID, ntype, title, body string, leadID *string) (*domain.Notification, error) {
	rec := &domain.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      ntype,
		Title:     title,
		Body:      body,
		LeadID:    leadID,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

// ListUnreadNotifications returns unread notifications for a user, newest
// first.
func ListUnreadNotifications(ctx context.Context, db *gorm.DB, userID string) ([]domain.Notification, error) {
	var out []domain.Notification
	err := db.WithContext(ctx).
		Where("user_id = ? AND read_at IS NULL", userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}
