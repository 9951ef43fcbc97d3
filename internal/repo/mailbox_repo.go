// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// MailboxAccount credential store consulted by the reply path.
package repo

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/avell/go-leads-backend/internal/domain"
)

// FindMailboxAccount returns the account connected for a mailbox identity
// (case-insensitive), or ErrNotFound when the mailbox was never connected.
func FindMailboxAccount(ctx context.Context, db *gorm.DB, emailAddress string) (*domain.MailboxAccount, error) {
	emailAddress = strings.ToLower(strings.TrimSpace(emailAddress))
	if emailAddress == "" {
		return nil, ErrNotFound
	}
	var acct domain.MailboxAccount
	err := db.WithContext(ctx).
		Where("lower(email_address) = ?", emailAddress).
		First(&acct).Error
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

// UpdateMailboxHistoryID persists the latest processed history cursor so a
// redelivered push resumes from a known position. Returns ErrNotFound when
// the account row vanished.
func UpdateMailboxHistoryID(ctx context.Context, db *gorm.DB, id string, historyID uint64) error {
	res := db.WithContext(ctx).
		Model(&domain.MailboxAccount{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_history_id": historyID,
			"updated_at":      time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
