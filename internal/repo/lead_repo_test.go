package repo

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
	dsn := fmt.Sprintf("file:repo_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedLead(t *testing.T, db *gorm.DB, email string) *domain.Lead {
	t.Helper()
	lead := &domain.Lead{FirstName: "Ada", LastName: "Lovelace", Company: "AE"}
	if email != "" {
		lead.Email = &email
	}
	created, err := CreateLead(context.Background(), db, lead)
	if err != nil {
		t.Fatalf("create lead: %v", err)
	}
	return created
}

func TestCreateLead_FillsDefaults(t *testing.T) {
	db := newTestDB(t)
	lead := seedLead(t, db, "ada@ae.test")

	if lead.ID == "" {
		t.Fatalf("id not generated")
	}
	if lead.EnrichmentStatus != domain.EnrichmentPending {
		t.Fatalf("enrichment status = %q", lead.EnrichmentStatus)
	}
	if lead.PipelineStage != domain.StageNew {
		t.Fatalf("pipeline stage = %q", lead.PipelineStage)
	}
	if lead.CreatedAt.IsZero() {
		t.Fatalf("created_at not stamped")
	}
}

func TestFindLeadByEmail_CaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	lead := seedLead(t, db, "Ada@AE.test")

	got, err := FindLeadByEmail(context.Background(), db, "ada@ae.TEST")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ID != lead.ID {
		t.Fatalf("found %q, want %q", got.ID, lead.ID)
	}
}

func TestFindLeadByEmail_BlankIsNotFound(t *testing.T) {
	db := newTestDB(t)
	seedLead(t, db, "") // NULL email on record

	if _, err := FindLeadByEmail(context.Background(), db, ""); err != ErrNotFound {
		t.Fatalf("blank email lookup must be ErrNotFound, got %v", err)
	}
	if _, err := FindLeadByEmail(context.Background(), db, "   "); err != ErrNotFound {
		t.Fatalf("whitespace email lookup must be ErrNotFound, got %v", err)
	}
}

func TestFindLeadByEmail_Missing(t *testing.T) {
	db := newTestDB(t)
	if _, err := FindLeadByEmail(context.Background(), db, "nobody@x.test"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateLeadStage(t *testing.T) {
	db := newTestDB(t)
	lead := seedLead(t, db, "ada@ae.test")
	when := time.Now().UTC().Truncate(time.Second)

	if err := UpdateLeadStage(context.Background(), db, lead.ID, domain.StageInterested, domain.ReplyInterested, when); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := GetLead(context.Background(), db, lead.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.PipelineStage != domain.StageInterested || got.ReplyType != domain.ReplyInterested {
		t.Fatalf("stage = %q/%q", got.PipelineStage, got.ReplyType)
	}
	if got.LastReplyAt == nil || !got.LastReplyAt.Equal(when) {
		t.Fatalf("last_reply_at = %v, want %v", got.LastReplyAt, when)
	}
}

func TestUpdateLeadStage_MissingLead(t *testing.T) {
	db := newTestDB(t)
	err := UpdateLeadStage(context.Background(), db, uuid.NewString(), domain.StageReplied, domain.ReplyMaybe, time.Now())
	if err != gorm.ErrRecordNotFound {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestFindOrCreateCompany_Reuses(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a, err := FindOrCreateCompany(ctx, db, "Analytical Engines")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.PipelineStage != domain.CompanyStageProspect {
		t.Fatalf("new company stage = %q", a.PipelineStage)
	}

	b, err := FindOrCreateCompany(ctx, db, "  analytical engines ")
	if err != nil {
		t.Fatalf("reuse: %v", err)
	}
	if b.ID != a.ID {
		t.Fatalf("company not reused: %q vs %q", b.ID, a.ID)
	}
}

func TestUpdateCompanyStage_EmptyStageStampsOnly(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	c, err := FindOrCreateCompany(ctx, db, "AE")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	when := time.Now().UTC().Truncate(time.Second)
	if err := UpdateCompanyStage(ctx, db, c.ID, "", when); err != nil {
		t.Fatalf("stamp: %v", err)
	}

	got, err := GetCompany(ctx, db, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.PipelineStage != domain.CompanyStageProspect {
		t.Fatalf("stage changed to %q on empty update", got.PipelineStage)
	}
	if got.LastReplyAt == nil || !got.LastReplyAt.Equal(when) {
		t.Fatalf("last_reply_at = %v, want %v", got.LastReplyAt, when)
	}
}
