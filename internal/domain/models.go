// Package domain defines the persistence models for leads, companies, email
// replies, webhook audit records, mailbox accounts, and notifications. These
// types are mapped with GORM and form the core data layer of the lead
// pipeline backend.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// EnrichmentStatus values for Lead.EnrichmentStatus. The intake path only
// ever sets "pending"; the enrichment workflow that consumes the flag lives
// outside this service and moves it onward.
const (
	EnrichmentPending   = "pending"
	EnrichmentRunning   = "running"
	EnrichmentCompleted = "completed"
	EnrichmentFailed    = "failed"
)

// Lead represents an individual contact in the pipeline. Leads arrive through
// the inbound webhook (badge scans, landing pages) and are advanced through
// pipeline stages when replies from them are detected.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - FirstName / LastName / Company: mandatory intake fields.
//   - Email: nullable soft-unique natural key used for duplicate detection;
//     rows with NULL email never participate in duplicate matching.
//   - CompanyID: optional link to the lead's Company row.
//   - JobTitle / Phone / QualityRank / ShowName / ShowDate / Notes /
//     ScanImageURL: optional payload fields captured verbatim at intake.
//   - Source: origin of the lead (e.g. "webhook", "badge_scan").
//   - UserID: identifier of the owning user, when the source supplies one.
//   - EnrichmentStatus: "pending" on creation; advanced externally.
//   - PipelineStage: current person-stage (see stages.go).
//   - ReplyType: coarse summary of the latest reply (interested /
//     not_interested / maybe), kept in sync with PipelineStage for filtering.
//   - LastReplyAt: timestamp of the most recent detected reply.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker (rows are never hard-deleted here).
type Lead struct {
	ID           string  `json:"id"            gorm:"type:char(36);primaryKey"`
	FirstName    string  `json:"first_name"    gorm:"type:varchar(128);not null"`
	LastName     string  `json:"last_name"     gorm:"type:varchar(128);not null"`
	Company      string  `json:"company"       gorm:"type:varchar(255);not null"`
	Email        *string `json:"email,omitempty" gorm:"type:varchar(320);index:idx_leads_email"`
	CompanyID    *string `json:"company_id,omitempty" gorm:"type:char(36);index"`
	JobTitle     string  `json:"job_title,omitempty"  gorm:"type:varchar(255)"`
	Phone        string  `json:"phone,omitempty"      gorm:"type:varchar(64)"`
	QualityRank  string  `json:"quality_rank,omitempty" gorm:"type:varchar(32)"`
	ShowName     string  `json:"show_name,omitempty"    gorm:"type:varchar(255)"`
	ShowDate     string  `json:"show_date,omitempty"    gorm:"type:varchar(64)"`
	Notes        string  `json:"notes,omitempty"        gorm:"type:text"`
	ScanImageURL string  `json:"scan_image_url,omitempty" gorm:"type:varchar(2048)"`
	Source       string  `json:"source"        gorm:"type:varchar(64);not null;default:'webhook'"`
	UserID       string  `json:"user_id,omitempty" gorm:"type:varchar(64);index"`

	EnrichmentStatus string     `json:"enrichment_status" gorm:"type:varchar(32);not null;default:'pending'"`
	PipelineStage    string     `json:"pipeline_stage"    gorm:"type:varchar(32);not null;default:'new'"`
	ReplyType        string     `json:"reply_type,omitempty" gorm:"type:varchar(32)"`
	LastReplyAt      *time.Time `json:"last_reply_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for Lead.
func (Lead) TableName() string { return "leads" }

// Company represents an organization one or more leads belong to. Companies
// carry their own pipeline stage, which moves independently of the stages of
// the individual contacts (the vocabularies are distinct, see stages.go).
type Company struct {
	ID            string         `json:"id"   gorm:"type:char(36);primaryKey"`
	Name          string         `json:"name" gorm:"type:varchar(255);not null;index:idx_companies_name"`
	PipelineStage string         `json:"pipeline_stage" gorm:"type:varchar(32);not null;default:'prospect'"`
	LastReplyAt   *time.Time     `json:"last_reply_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for Company.
func (Company) TableName() string { return "companies" }

// EmailReply records a single detected inbound reply from a tracked lead.
// The provider's message identifier is the natural idempotency key: the
// unique index on ExternalMessageID guarantees at most one row per message,
// no matter how many times the provider redelivers the push notification.
//
// Timestamps:
//   - ReceivedAt: when the provider says the message arrived.
//   - DetectedAt: when this service saw it in a history delta.
//   - AnalyzedAt: when sentiment classification finished.
//   - ProcessedAt: when the stage transitions were committed.
type EmailReply struct {
	ID                  string  `json:"id" gorm:"type:char(36);primaryKey"`
	LeadID              string  `json:"lead_id" gorm:"type:char(36);not null;index"`
	CompanyID           *string `json:"company_id,omitempty" gorm:"type:char(36);index"`
	ExternalMessageID   string  `json:"external_message_id" gorm:"type:varchar(128);not null;uniqueIndex:ux_replies_external_msg"`
	ExternalThreadID    string  `json:"external_thread_id,omitempty" gorm:"type:varchar(128);index"`
	FromEmail           string  `json:"from_email" gorm:"type:varchar(320);not null;index"`
	Subject             string  `json:"subject,omitempty" gorm:"type:varchar(1024)"`
	BodyPlain           *string `json:"body_plain,omitempty" gorm:"type:text"`
	BodyHTML            *string `json:"body_html,omitempty" gorm:"type:text"`
	Sentiment           string  `json:"sentiment" gorm:"type:varchar(32);not null"`
	SentimentConfidence float64 `json:"sentiment_confidence" gorm:"not null"`
	SentimentReasoning  string  `json:"sentiment_reasoning,omitempty" gorm:"type:text"`

	ReceivedAt  time.Time `json:"received_at"`
	DetectedAt  time.Time `json:"detected_at"`
	AnalyzedAt  time.Time `json:"analyzed_at"`
	ProcessedAt time.Time `json:"processed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for EmailReply.
func (EmailReply) TableName() string { return "email_replies" }

// WebhookAudit is an append-only record of every inbound webhook call,
// success or failure. One row is written per top-level request (not per
// batch item); LeadID holds a representative lead when one is available.
// Writing this row must never fail the request that produced it.
type WebhookAudit struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	EventType string    `json:"event_type" gorm:"type:varchar(64);not null;index"`
	Payload   string    `json:"payload"    gorm:"type:text"`
	Success   bool      `json:"success"    gorm:"not null"`
	Error     string    `json:"error,omitempty" gorm:"type:text"`
	LeadID    *string   `json:"lead_id,omitempty" gorm:"type:char(36)"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// TableName returns the database table name for WebhookAudit.
func (WebhookAudit) TableName() string { return "webhook_audits" }

// MailboxAccount stores the connection between a user's mailbox identity and
// the access credential used to read it. A push notification whose mailbox
// has no account row is silently ignored: the user never connected the
// integration, which is not an error.
//
// LastHistoryID persists the most recent processed history cursor so a
// redelivered or delayed push resumes from a known position.
type MailboxAccount struct {
	ID            string    `json:"id" gorm:"type:char(36);primaryKey"`
	EmailAddress  string    `json:"email_address" gorm:"type:varchar(320);not null;uniqueIndex:ux_mailbox_email"`
	UserID        string    `json:"user_id" gorm:"type:varchar(64);not null;index"`
	AccessToken   string    `json:"-" gorm:"type:text;not null"`
	RefreshToken  string    `json:"-" gorm:"type:text"`
	LastHistoryID uint64    `json:"last_history_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName returns the database table name for MailboxAccount.
func (MailboxAccount) TableName() string { return "mailbox_accounts" }

// Notification is a user-facing alert raised when a reply is detected.
// Emission is best effort: a failed insert is logged and dropped, never
// propagated into the reply processing flow.
type Notification struct {
	ID        string     `json:"id" gorm:"type:char(36);primaryKey"`
	UserID    string     `json:"user_id" gorm:"type:varchar(64);not null;index"`
	Type      string     `json:"type" gorm:"type:varchar(32);not null"`
	Title     string     `json:"title" gorm:"type:varchar(255);not null"`
	Body      string     `json:"body,omitempty" gorm:"type:text"`
	LeadID    *string    `json:"lead_id,omitempty" gorm:"type:char(36);index"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// TableName returns the database table name for Notification.
func (Notification) TableName() string { return "notifications" }
