// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Lead model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a lead is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avell/go-leads-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateLead inserts a new Lead row. The lead ID is a randomly generated
// UUID, CreatedAt is set to UTC, and EnrichmentStatus defaults to "pending"
// unless the caller set it explicitly.
func CreateLead(ctx context.Context, db *gorm.DB, lead *domain.Lead) (*domain.Lead, error) {
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	if lead.EnrichmentStatus == "" {
		lead.EnrichmentStatus = domain.EnrichmentPending
	}
	if lead.PipelineStage == "" {
		lead.PipelineStage = domain.StageNew
	}
	lead.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(lead).Error; err != nil {
		return nil, err
	}
	return lead, nil
}

// FindLeadByEmail looks up a lead by exact (case-insensitive) email match.
// An empty or blank email never matches: NULL natural keys must not produce
// false positives. Returns ErrNotFound when no lead carries the address.
func FindLeadByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Lead, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrNotFound
	}
	var lead domain.Lead
	err := db.WithContext(ctx).
		Where("email IS NOT NULL AND lower(email) = ?", email).
		First(&lead).Error
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// GetLead fetches a single lead by ID, or ErrNotFound if missing.
func GetLead(ctx context.Context, db *gorm.DB, id string) (*domain.Lead, error) {
	var lead domain.Lead
	if err := db.WithContext(ctx).Where("id = ?", id).First(&lead).Error; err != nil {
		return nil, err
	}
	return &lead, nil
}

// UpdateLeadStage applies a reply-driven transition to a lead: pipeline
// stage, reply type, and last-reply timestamp in a single update. Returns
// ErrNotFound when the lead does not exist.
func UpdateLeadStage(ctx context.Context, db *gorm.DB, id, stage, replyType string, repliedAt time.Time) error {
	res := db.WithContext(ctx).
		Model(&domain.Lead{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"pipeline_stage": stage,
			"reply_type":     replyType,
			"last_reply_at":  repliedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
