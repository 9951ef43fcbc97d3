// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Company
// model.
package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avell/go-leads-backend/internal/domain"
)

// GetCompany fetches a company by ID, or ErrNotFound if missing.
func GetCompany(ctx context.Context, db *gorm.DB, id string) (*domain.Company, error) {
	var co domain.Company
	if err := db.WithContext(ctx).Where("id = ?", id).First(&co).Error; err != nil {
		return nil, err
	}
	return &co, nil
}

// FindOrCreateCompany returns the company with the given (trimmed,
// case-insensitive) name, creating it at the "prospect" stage when no row
// exists yet. The webhook path uses this to attach leads to organizations
// without a separate company-management surface.
func FindOrCreateCompany(ctx context.Context, db *gorm.DB, name string) (*domain.Company, error) {
	name = strings.TrimSpace(name)
	var co domain.Company
	err := db.WithContext(ctx).
		Where("lower(name) = ?", strings.ToLower(name)).
		First(&co).Error
	if err == nil {
		return &co, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	co = domain.Company{
		ID:            uuid.NewString(),
		Name:          name,
		PipelineStage: domain.CompanyStageProspect,
		CreatedAt:     time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(&co).Error; err != nil {
		return nil, err
	}
	return &co, nil
}

// UpdateCompanyStage applies a reply-driven transition to a company. When
// stage is empty only the last-reply timestamp is stamped; the stage is left
// untouched (the state machine's no-op branch). Returns ErrNotFound when the
// company does not exist.
func UpdateCompanyStage(ctx context.Context, db *gorm.DB, id, stage string, repliedAt time.Time) error {
	fields := map[string]any{"last_reply_at": repliedAt}
	if stage != "" {
		fields["pipeline_stage"] = stage
	}
	res := db.WithContext(ctx).
		Model(&domain.Company{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
