package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/avell/go-leads-backend/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:intakesvc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(
		&domain.Lead{}, &domain.Company{}, &domain.EmailReply{},
		&domain.WebhookAudit{}, &domain.MailboxAccount{},
		&domain.Notification{}, &domain.Idempotency{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func singleEvent(first, last, company, email string) *LeadEvent {
	return &LeadEvent{Type: EventCreated, Items: []LeadFields{{
		FirstName: first, LastName: last, Company: company, Email: email,
	}}}
}

func TestIntake_SingleCreate(t *testing.T) {
	db := newTestDB(t)
	svc := NewIntakeService(db, 24*time.Hour)

	res, err := svc.Intake(context.Background(), singleEvent("Ada", "Lovelace", "Analytical Engines", "ada@ae.test"), "", []byte(`{}`))
	if err != nil {
		t.Fatalf("intake: %v", err)
	}
	if res.Duplicate || res.Created != 1 || len(res.LeadIDs) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}

	var lead domain.Lead
	if err := db.First(&lead, "id = ?", res.LeadIDs[0]).Error; err != nil {
		t.Fatalf("load lead: %v", err)
	}
	if lead.EnrichmentStatus != domain.EnrichmentPending {
		t.Fatalf("enrichment status = %q, want pending", lead.EnrichmentStatus)
	}
	if lead.PipelineStage != domain.StageNew {
		t.Fatalf("pipeline stage = %q, want new", lead.PipelineStage)
	}
	if lead.CompanyID == nil {
		t.Fatalf("lead not linked to a company")
	}

	var company domain.Company
	if err := db.First(&company, "id = ?", *lead.CompanyID).Error; err != nil {
		t.Fatalf("load company: %v", err)
	}
	if company.PipelineStage != domain.CompanyStageProspect {
		t.Fatalf("company stage = %q, want prospect", company.PipelineStage)
	}

	var audits int64
	if err := db.Model(&domain.WebhookAudit{}).Count(&audits).Error; err != nil {
		t.Fatalf("count audits: %v", err)
	}
	if audits != 1 {
		t.Fatalf("audit rows = %d, want exactly 1 per request", audits)
	}
}

func TestIntake_DuplicateEmailIsCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	svc := NewIntakeService(db, 24*time.Hour)
	ctx := context.Background()

	first, err := svc.Intake(ctx, singleEvent("Ada", "Lovelace", "AE", "Ada@AE.test"), "", nil)
	if err != nil {
		t.Fatalf("first intake: %v", err)
	}
	second, err := svc.Intake(ctx, singleEvent("Ada", "Lovelace", "AE", "ada@ae.TEST"), "", nil)
	if err != nil {
		t.Fatalf("second intake: %v", err)
	}
	if !second.Duplicate {
		t.Fatalf("expected duplicate detection")
	}
	if second.LeadIDs[0] != first.LeadIDs[0] {
		t.Fatalf("duplicate resolved to %q, want original %q", second.LeadIDs[0], first.LeadIDs[0])
	}

	var leads int64
	db.Model(&domain.Lead{}).Count(&leads)
	if leads != 1 {
		t.Fatalf("lead rows = %d, want 1", leads)
	}
}

func TestIntake_MissingEmailNeverMatches(t *testing.T) {
	db := newTestDB(t)
	svc := NewIntakeService(db, 24*time.Hour)
	ctx := context.Background()

	a, err := svc.Intake(ctx, singleEvent("Ada", "Lovelace", "AE", ""), "", nil)
	if err != nil {
		t.Fatalf("first intake: %v", err)
	}
	b, err := svc.Intake(ctx, singleEvent("Ada", "Lovelace", "AE", ""), "", nil)
	if err != nil {
		t.Fatalf("second intake: %v", err)
	}
	if b.Duplicate || b.LeadIDs[0] == a.LeadIDs[0] {
		t.Fatalf("leads without email must never dedupe against each other")
	}
}

func TestIntake_SingleValidationError(t *testing.T) {
	db := newTestDB(t)
	svc := NewIntakeService(db, 24*time.Hour)

	_, err := svc.Intake(context.Background(), singleEvent("Ada", "", "AE", ""), "", []byte(`{}`))
	if _, isVal := IsValidationError(err); !isVal {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	// The failed request is still audited.
	var audit domain.WebhookAudit
	if err := db.First(&audit).Error; err != nil {
		t.Fatalf("load audit: %v", err)
	}
	if audit.Success {
		t.Fatalf("failed intake audited as success")
	}
}

func TestIntake_BatchPartialFailure(t *testing.T) {
	db := newTestDB(t)
	svc := NewIntakeService(db, 24*time.Hour)

	ev := &LeadEvent{Type: EventBatch, Items: []LeadFields{
		{FirstName: "Ada", LastName: "Lovelace", Company: "AE", Email: "ada@ae.test"},
		{FirstName: "Broken"}, // missing last_name and company
		{FirstName: "Alan", LastName: "Turing", Company: "Bletchley"},
	}}
	res, err := svc.Intake(context.Background(), ev, "", []byte(`{}`))
	if err != nil {
		t.Fatalf("batch intake must absorb item failures, got %v", err)
	}
	if res.Created != 2 || res.Failed != 1 || res.Duplicates != 0 {
		t.Fatalf("counts = created %d / dup %d / failed %d", res.Created, res.Duplicates, res.Failed)
	}
	if len(res.Items) != 3 {
		t.Fatalf("items = %d, want positional result per input", len(res.Items))
	}
	if res.Items[1].Index != 1 || res.Items[1].Status != ItemFailed || res.Items[1].Error == "" {
		t.Fatalf("failed item not reported positionally: %+v", res.Items[1])
	}
	if res.Items[0].Status != ItemCreated || res.Items[2].Status != ItemCreated {
		t.Fatalf("valid items not created: %+v", res.Items)
	}
	if len(res.LeadIDs) != 2 {
		t.Fatalf("lead ids = %d, want the 2 successes", len(res.LeadIDs))
	}
}

func TestIntake_IdempotencyReplay(t *testing.T) {
	db := newTestDB(t)
	svc := NewIntakeService(db, 24*time.Hour)
	ctx := context.Background()

	key := "delivery-0001"
	first, err := svc.Intake(ctx, singleEvent("Ada", "Lovelace", "AE", "ada@ae.test"), key, nil)
	if err != nil {
		t.Fatalf("first intake: %v", err)
	}

	// Different payload, same key: the stored outcome wins.
	second, err := svc.Intake(ctx, singleEvent("Alan", "Turing", "Bletchley", "alan@b.test"), key, nil)
	if err != nil {
		t.Fatalf("replay intake: %v", err)
	}
	if !second.Replayed || !second.Duplicate {
		t.Fatalf("expected replay, got %+v", second)
	}
	if second.LeadIDs[0] != first.LeadIDs[0] {
		t.Fatalf("replay returned %q, want original %q", second.LeadIDs[0], first.LeadIDs[0])
	}

	var leads int64
	db.Model(&domain.Lead{}).Count(&leads)
	if leads != 1 {
		t.Fatalf("lead rows = %d, want 1", leads)
	}
}

func TestIntake_CompanyReuseIsCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	svc := NewIntakeService(db, 24*time.Hour)
	ctx := context.Background()

	if _, err := svc.Intake(ctx, singleEvent("Ada", "Lovelace", "Analytical Engines", "a@x.test"), "", nil); err != nil {
		t.Fatalf("first intake: %v", err)
	}
	if _, err := svc.Intake(ctx, singleEvent("Alan", "Turing", "ANALYTICAL ENGINES", "b@x.test"), "", nil); err != nil {
		t.Fatalf("second intake: %v", err)
	}

	var companies int64
	db.Model(&domain.Company{}).Count(&companies)
	if companies != 1 {
		t.Fatalf("company rows = %d, want 1 shared row", companies)
	}
}

func TestNormalizeName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"JANE", "Jane"},
		{"JANE-MARIE", "Jane-Marie"},
		{"McDonald", "McDonald"},
		{"ada", "ada"},
		{"  Ada  ", "Ada"},
		{"", ""},
		{"123", "123"},
	}
	for _, tc := range cases {
		if got := normalizeName(tc.in); got != tc.want {
			t.Fatalf("normalizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
