// Package domain defines the core persistence models for the application.
// These types are used by GORM for database schema mapping and are shared
// across the repository and service layers.
package domain

import "time"

// Idempotency represents a recorded outcome of a previously processed
// webhook delivery, keyed by the caller-supplied Idempotency-Key header.
// It lets retried deliveries of the same logical event short-circuit to the
// originally produced lead instead of re-executing side effects.
//
// Records carry a TTL; an expired record no longer matches and the key may
// be reused. Insertion is insert-if-absent (unique index on Key), performed
// before the response is written so a concurrent duplicate delivery cannot
// slip through.
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_idem_key"`
	LeadID    string    `gorm:"type:TEXT NOT NULL"`
	Status    int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
