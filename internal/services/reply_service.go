// Package services – ReplyService
//
// This file implements the inbound reply pipeline: a mailbox push
// notification names an account and a history cursor; the service fetches
// the new messages, classifies each reply's sentiment, records it, and
// advances the lead's and company's pipeline stages.
//
// The pipeline is deliberately tolerant: unknown mailboxes, expired
// credentials, and unmatched senders are quiet no-ops, and notification or
// cursor persistence failures never fail the push. Only genuine processing
// errors surface, so the push origin retries delivery.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/avell/go-leads-backend/internal/classify"
	"github.com/avell/go-leads-backend/internal/domain"
	"github.com/avell/go-leads-backend/internal/mailbox"
	"github.com/avell/go-leads-backend/internal/observability"
	"github.com/avell/go-leads-backend/internal/repo"
)

// MailProvider abstracts the mailbox API surface the pipeline needs.
// *mailbox.Client satisfies it; tests substitute fakes.
type MailProvider interface {
	// HistoryDelta lists references to messages added to the inbox after
	// startCursor and returns the cursor to persist for the next push.
	HistoryDelta(ctx context.Context, startCursor uint64) ([]mailbox.Ref, uint64, error)
	// FetchMessage retrieves one full message by provider id.
	FetchMessage(ctx context.Context, id string) (*mailbox.Message, error)
}

// ProviderFactory builds a MailProvider bound to an account's credential.
type ProviderFactory func(ctx context.Context, accessToken string) (MailProvider, error)

// Classifier scores a reply's sentiment. *classify.Client satisfies it.
type Classifier interface {
	Classify(ctx context.Context, subject, body string) classify.Verdict
}

// ReplyService drives reply detection and stage advancement.
type ReplyService struct {
	DB          *gorm.DB
	NewProvider ProviderFactory
	Classifier  Classifier
}

// NewReplyService wires a ReplyService.
func NewReplyService(db *gorm.DB, factory ProviderFactory, classifier Classifier) *ReplyService {
	return &ReplyService{DB: db, NewProvider: factory, Classifier: classifier}
}

// ProcessPush handles one push notification for the given mailbox address.
// pushedCursor is the history cursor carried by the notification; a stored
// cursor from a previous run takes precedence when present, so no messages
// are skipped across missed pushes.
func (s *ReplyService) ProcessPush(ctx context.Context, mailboxAddr string, pushedCursor uint64) error {
	tr := otel.Tracer("services/ReplyService")
	ctx, span := tr.Start(ctx, "ProcessPush",
		trace.WithAttributes(attribute.String("mailbox", mailboxAddr)),
	)
	defer span.End()

	account, err := repo.FindMailboxAccount(ctx, s.DB, mailboxAddr)
	if err == repo.ErrNotFound {
		log.Debug().Str("mailbox", mailboxAddr).Msg("push for unknown mailbox ignored")
		return nil
	}
	if err != nil {
		return fmt.Errorf("mailbox lookup: %w", err)
	}
	if strings.TrimSpace(account.AccessToken) == "" {
		log.Debug().Str("mailbox", mailboxAddr).Msg("mailbox has no credential, push ignored")
		return nil
	}

	provider, err := s.NewProvider(ctx, account.AccessToken)
	if err != nil {
		return fmt.Errorf("mail provider: %w", err)
	}

	start := pushedCursor
	if account.LastHistoryID > 0 {
		start = account.LastHistoryID
	}

	refs, nextCursor, err := provider.HistoryDelta(ctx, start)
	if err != nil {
		if errors.Is(err, mailbox.ErrAuthExpired) {
			log.Warn().Str("mailbox", mailboxAddr).Msg("mailbox credential expired, push ignored")
			return nil
		}
		return fmt.Errorf("history delta: %w", err)
	}

	var firstErr error
	for _, ref := range refs {
		if err := s.processMessage(ctx, provider, account, ref); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			log.Error().Err(err).Str("message_id", ref.ID).Msg("reply processing failed")
		}
	}

	if firstErr == nil && nextCursor > account.LastHistoryID {
		if err := repo.UpdateMailboxHistoryID(ctx, s.DB, account.ID, nextCursor); err != nil {
			log.Error().Err(err).Str("mailbox", mailboxAddr).Msg("cursor persist failed")
		}
	}
	return firstErr
}

// processMessage handles one newly arrived message end to end.
func (s *ReplyService) processMessage(ctx context.Context, provider MailProvider, account *domain.MailboxAccount, ref mailbox.Ref) error {
	// Idempotence: each provider message id is processed at most once.
	if existing, err := repo.FindReplyByExternalID(ctx, s.DB, ref.ID); err == nil && existing != nil {
		return nil
	} else if err != nil && err != repo.ErrNotFound {
		return fmt.Errorf("reply lookup: %w", err)
	}

	msg, err := provider.FetchMessage(ctx, ref.ID)
	if err != nil {
		return fmt.Errorf("fetch message %s: %w", ref.ID, err)
	}

	fromEmail := strings.ToLower(strings.TrimSpace(msg.FromEmail))
	if fromEmail == "" {
		return nil
	}
	lead, err := repo.FindLeadByEmail(ctx, s.DB, fromEmail)
	if err == repo.ErrNotFound {
		// Not from a tracked lead; newsletters and bounces land here.
		return nil
	}
	if err != nil {
		return fmt.Errorf("lead lookup: %w", err)
	}

	body := msg.BodyPlain
	if strings.TrimSpace(body) == "" {
		body = msg.BodyHTML
	}

	detectedAt := time.Now().UTC()
	verdict := s.Classifier.Classify(ctx, msg.Subject, body)
	analyzedAt := time.Now().UTC()
	observability.RepliesProcessed.WithLabelValues(verdict.Sentiment).Inc()

	reply := &domain.EmailReply{
		LeadID:              lead.ID,
		CompanyID:           lead.CompanyID,
		ExternalMessageID:   ref.ID,
		ExternalThreadID:    msg.ThreadID,
		FromEmail:           fromEmail,
		Subject:             msg.Subject,
		Sentiment:           verdict.Sentiment,
		SentimentConfidence: verdict.Confidence,
		SentimentReasoning:  verdict.Reasoning,
		ReceivedAt:          msg.ReceivedAt,
		DetectedAt:          detectedAt,
		AnalyzedAt:          analyzedAt,
	}
	if msg.BodyPlain != "" {
		reply.BodyPlain = &msg.BodyPlain
	}
	if msg.BodyHTML != "" {
		reply.BodyHTML = &msg.BodyHTML
	}

	if _, err := repo.CreateReply(ctx, s.DB, reply); err != nil {
		if err == repo.ErrDuplicate {
			// Concurrent push already recorded it.
			return nil
		}
		return fmt.Errorf("persist reply: %w", err)
	}

	repliedAt := msg.ReceivedAt
	if repliedAt.IsZero() {
		repliedAt = detectedAt
	}

	stage, replyType := StageForSentiment(verdict.Sentiment)
	if err := repo.UpdateLeadStage(ctx, s.DB, lead.ID, stage, replyType, repliedAt); err != nil {
		return fmt.Errorf("lead stage update: %w", err)
	}
	if lead.CompanyID != nil {
		companyStage := CompanyStageForSentiment(verdict.Sentiment)
		if err := repo.UpdateCompanyStage(ctx, s.DB, *lead.CompanyID, companyStage, repliedAt); err != nil {
			return fmt.Errorf("company stage update: %w", err)
		}
	}

	now := time.Now().UTC()
	if err := s.DB.WithContext(ctx).Model(&domain.EmailReply{}).
		Where("id = ?", reply.ID).
		Update("processed_at", now).Error; err != nil {
		log.Warn().Err(err).Str("reply_id", reply.ID).Msg("processed_at stamp failed")
	}

	s.notify(ctx, lead, verdict, fromEmail)
	return nil
}

// notify records an in-app notification for the lead's owner. Best effort:
// a failure here is logged, never returned.
func (s *ReplyService) notify(ctx context.Context, lead *domain.Lead, verdict classify.Verdict, fromEmail string) {
	if strings.TrimSpace(lead.UserID) == "" {
		return
	}
	title := fmt.Sprintf("%s %s replied", lead.FirstName, lead.LastName)
	body := fmt.Sprintf("Reply from %s classified as %s", fromEmail, verdict.Sentiment)
	if _, err := repo.CreateNotification(ctx, s.DB, lead.UserID, "email_reply", title, body, &lead.ID); err != nil {
		log.Warn().Err(err).Str("lead_id", lead.ID).Msg("reply notification failed")
	}
}
