// Package services – IntakeService
//
// This file implements the lead intake orchestrator. It consumes a
// normalized LeadEvent (see lead_event.go), applies the idempotency and
// duplicate checks, creates leads flagged for downstream enrichment, and
// records exactly one audit row per top-level request.
//
// Partial failure is a first-class outcome for batch events: one item's
// failure never aborts the rest, and the result reports per-item status in
// input order.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// event type and item counts.
package services

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/avell/go-leads-backend/internal/domain"
	"github.com/avell/go-leads-backend/internal/observability"
	"github.com/avell/go-leads-backend/internal/repo"
)

// Per-item outcomes reported for batch events.
const (
	ItemCreated   = "created"
	ItemDuplicate = "duplicate"
	ItemFailed    = "failed"
)

// ItemResult describes the outcome of one batch item, positionally.
type ItemResult struct {
	Index  int    `json:"index"`
	Status string `json:"status"`
	LeadID string `json:"lead_id,omitempty"`
	Error  string `json:"error,omitempty"`
}

// IntakeResult summarizes one processed webhook delivery.
//
// LeadIDs holds one id per successfully processed item (created or
// duplicate) in input order; failed items are omitted from LeadIDs but
// present in Items with their error. For single-lead events Duplicate
// mirrors the only item's status.
type IntakeResult struct {
	EventType  string
	LeadIDs    []string
	Items      []ItemResult
	Created    int
	Duplicates int
	Failed     int
	Duplicate  bool
	Replayed   bool
}

// IntakeService orchestrates lead creation from webhook events.
type IntakeService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// IdempotencyTTL bounds how long a caller-supplied key stays valid.
	IdempotencyTTL time.Duration
}

// NewIntakeService constructs an IntakeService with the given TTL for
// idempotency records.
func NewIntakeService(db *gorm.DB, idempotencyTTL time.Duration) *IntakeService {
	return &IntakeService{DB: db, IdempotencyTTL: idempotencyTTL}
}

// Intake processes a normalized lead event. idemKey may be empty; rawPayload
// is the original request body, captured verbatim into the audit record.
//
// Errors returned to the caller are either a *ValidationError (single-lead
// event with missing fields — client error) or a persistence failure. Both
// are still audited before returning. Batch item errors are absorbed into
// the result instead.
func (s *IntakeService) Intake(ctx context.Context, ev *LeadEvent, idemKey string, rawPayload []byte) (*IntakeResult, error) {
	tr := otel.Tracer("services/IntakeService")
	ctx, span := tr.Start(ctx, "Intake",
		trace.WithAttributes(
			attribute.String("event.type", ev.Type),
			attribute.Int("event.items", len(ev.Items)),
		),
	)
	defer span.End()

	// Key-based replay check before any side effect. The middleware
	// usually short-circuits earlier; this read keeps the guarantee even
	// when the handler is reached (e.g. the middleware lookup failed).
	if idemKey != "" {
		if rec, err := repo.GetIdempotency(ctx, s.DB, idemKey, time.Now().UTC()); err == nil && rec != nil {
			return &IntakeResult{
				EventType: ev.Type,
				LeadIDs:   []string{rec.LeadID},
				Duplicate: true,
				Replayed:  true,
			}, nil
		}
	}

	if ev.IsBatch() {
		res := s.intakeBatch(ctx, ev)
		s.audit(ctx, ev.Type, rawPayload, res.Failed == 0, "", firstLeadID(res))
		return res, nil
	}

	res, err := s.intakeSingle(ctx, ev, idemKey)
	if err != nil {
		s.audit(ctx, ev.Type, rawPayload, false, err.Error(), nil)
		return nil, err
	}
	s.audit(ctx, ev.Type, rawPayload, true, "", firstLeadID(res))
	return res, nil
}

// intakeSingle processes the one item of a non-batch event and writes the
// idempotency record on success when a key was supplied.
func (s *IntakeService) intakeSingle(ctx context.Context, ev *LeadEvent, idemKey string) (*IntakeResult, error) {
	leadID, dup, err := s.intakeOne(ctx, ev.Items[0])
	if err != nil {
		observability.LeadsIngested.WithLabelValues(ItemFailed).Inc()
		return nil, err
	}

	if idemKey != "" {
		status := 201
		if dup {
			status = 200
		}
		// Losing the insert race to a concurrent retry is fine: both
		// requests resolved to the same lead.
		if _, ierr := repo.CreateIdempotency(ctx, s.DB, idemKey, leadID, status, s.IdempotencyTTL); ierr != nil && ierr != repo.ErrDuplicate {
			log.Warn().Err(ierr).Str("lead_id", leadID).Msg("idempotency record write failed")
		}
	}

	res := &IntakeResult{
		EventType: ev.Type,
		LeadIDs:   []string{leadID},
		Duplicate: dup,
	}
	if dup {
		res.Duplicates = 1
		observability.LeadsIngested.WithLabelValues(ItemDuplicate).Inc()
	} else {
		res.Created = 1
		observability.LeadsIngested.WithLabelValues(ItemCreated).Inc()
	}
	return res, nil
}

// intakeBatch processes items sequentially so positional accounting stays
// simple. Item failures are logged and reported, never propagated.
func (s *IntakeService) intakeBatch(ctx context.Context, ev *LeadEvent) *IntakeResult {
	res := &IntakeResult{EventType: ev.Type}
	for i, item := range ev.Items {
		leadID, dup, err := s.intakeOne(ctx, item)
		if err != nil {
			res.Failed++
			res.Items = append(res.Items, ItemResult{Index: i, Status: ItemFailed, Error: err.Error()})
			observability.LeadsIngested.WithLabelValues(ItemFailed).Inc()
			log.Warn().Err(err).Int("item", i).Msg("batch lead item skipped")
			continue
		}
		res.LeadIDs = append(res.LeadIDs, leadID)
		status := ItemCreated
		if dup {
			status = ItemDuplicate
			res.Duplicates++
		} else {
			res.Created++
		}
		res.Items = append(res.Items, ItemResult{Index: i, Status: status, LeadID: leadID})
		observability.LeadsIngested.WithLabelValues(status).Inc()
	}
	return res
}

// intakeOne validates and persists a single lead payload. A non-empty email
// that matches an existing lead short-circuits to the existing id with
// dup=true; lookup failures propagate, since creating a row without a
// completed duplicate check risks double-creation.
func (s *IntakeService) intakeOne(ctx context.Context, f LeadFields) (leadID string, dup bool, err error) {
	if err := ValidateLeadFields(f); err != nil {
		return "", false, err
	}

	email := strings.ToLower(strings.TrimSpace(f.Email))
	if email != "" {
		existing, lerr := repo.FindLeadByEmail(ctx, s.DB, email)
		if lerr == nil {
			return existing.ID, true, nil
		}
		if lerr != repo.ErrNotFound {
			return "", false, lerr
		}
	}

	company, err := repo.FindOrCreateCompany(ctx, s.DB, f.Company)
	if err != nil {
		return "", false, err
	}

	lead := &domain.Lead{
		FirstName:    normalizeName(f.FirstName),
		LastName:     normalizeName(f.LastName),
		Company:      company.Name,
		CompanyID:    &company.ID,
		JobTitle:     strings.TrimSpace(f.JobTitle),
		Phone:        strings.TrimSpace(f.Phone),
		QualityRank:  strings.TrimSpace(f.QualityRank),
		ShowName:     strings.TrimSpace(f.ShowName),
		ShowDate:     strings.TrimSpace(f.ShowDate),
		Notes:        f.Notes,
		ScanImageURL: strings.TrimSpace(f.ScanImageURL),
		Source:       defaultSource(f.Source),
		UserID:       strings.TrimSpace(f.UserID),

		EnrichmentStatus: domain.EnrichmentPending,
		PipelineStage:    domain.StageNew,
	}
	if email != "" {
		lead.Email = &email
	}

	created, err := repo.CreateLead(ctx, s.DB, lead)
	if err != nil {
		return "", false, err
	}
	return created.ID, false, nil
}

// audit appends the per-request audit record. Its own failure is contained:
// logged and dropped, never surfaced to the webhook caller.
func (s *IntakeService) audit(ctx context.Context, eventType string, payload []byte, success bool, errMsg string, leadID *string) {
	if _, err := repo.CreateAudit(ctx, s.DB, eventType, string(payload), success, errMsg, leadID); err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("webhook audit write failed")
	}
}

// firstLeadID returns a pointer to the first successful lead id of a
// result, as the representative id for the audit row.
func firstLeadID(res *IntakeResult) *string {
	if res == nil || len(res.LeadIDs) == 0 {
		return nil
	}
	return &res.LeadIDs[0]
}

// defaultSource falls back to "webhook" when the payload names no source.
func defaultSource(s string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return "webhook"
}

// cases.Caser is not safe for concurrent use, so normalizeName constructs
// one per call from this tag.
var titleTag = language.English

// normalizeName trims a name and, when the sender shouted it in all caps
// (badge scanners commonly do), converts it to title case. Mixed-case input
// is preserved untouched so "McDonald" survives.
func normalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return name
	}
	hasLetter := false
	for _, r := range name {
		if unicode.IsLetter(r) {
			hasLetter = true
			if unicode.IsLower(r) {
				return name
			}
		}
	}
	if !hasLetter {
		return name
	}
	return cases.Title(titleTag).String(strings.ToLower(name))
}
