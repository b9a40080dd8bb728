// Package queue is the durable, retryable work queue of individual send
// jobs. Items live in the email_queue table; a batch pass claims ready items
// with a conditional update, delivers them, and applies the retry rules.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coldpilot/coldpilot-backend/internal/limiter"
	"github.com/coldpilot/coldpilot-backend/internal/model"
	"github.com/coldpilot/coldpilot-backend/internal/repository"
	"github.com/coldpilot/coldpilot-backend/internal/sender"
)

// DefaultBatchSize bounds one processing pass when the caller does not say
// otherwise.
const DefaultBatchSize = 50

// RetentionPeriod is how long finished (sent or failed) items are kept
// before Cleanup deletes them.
const RetentionPeriod = 7 * 24 * time.Hour

// AccountLimiter is the slice of the rate limiter the queue needs.
type AccountLimiter interface {
	CheckAccountRateLimit(ctx context.Context, accountID, requested int) (*limiter.AccountDecision, error)
}

// DeliveryExecutor performs one classified delivery attempt.
type DeliveryExecutor interface {
	Send(ctx context.Context, msg sender.Message, creds sender.Credentials) (*sender.Result, error)
}

// Notifier is an optional wakeup channel; a publish failure never fails the
// enqueue, since batch passes pick pending items up on their own cadence.
type Notifier interface {
	Publish(payload any) error
}

// ItemError records a terminal failure in a batch result.
type ItemError struct {
	ItemID  string `json:"item_id"`
	Message string `json:"message"`
}

// ProcessResult aggregates one batch pass.
type ProcessResult struct {
	Processed int         `json:"processed"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Errors    []ItemError `json:"errors,omitempty"`
}

type EmailQueue struct {
	Items    repository.QueueRepositoryInterface
	Logs     repository.DeliveryLogRepositoryInterface
	Accounts repository.AccountRepositoryInterface
	Limiter  AccountLimiter
	Executor DeliveryExecutor
	Notifier Notifier
	Logger   *zap.SugaredLogger

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

// Enqueue inserts a pending item and returns its id. Append-only and
// non-blocking; safe to call concurrently with batch processing.
func (q *EmailQueue) Enqueue(ctx context.Context, item *model.QueueItem) (string, error) {
	now := q.now()
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.MaxAttempts < 1 {
		item.MaxAttempts = model.DefaultMaxAttempts
	}
	if item.ScheduledFor.IsZero() {
		item.ScheduledFor = now
	}
	item.Status = model.QueueItemStatusPending
	item.Attempts = 0
	item.CreatedAt = now
	item.UpdatedAt = now

	if err := q.Items.Insert(ctx, item); err != nil {
		return "", err
	}

	if q.Notifier != nil {
		if err := q.Notifier.Publish(map[string]string{"queue_item_id": item.ID}); err != nil {
			q.Logger.Warnw("wakeup publish failed", "item_id", item.ID, "err", err)
		}
	}
	return item.ID, nil
}

// ProcessBatch claims and delivers up to batchSize ready items. The
// selection is grouped by sending account so the account-level rate limit is
// enforced per group and a busy account cannot starve the others.
func (q *EmailQueue) ProcessBatch(ctx context.Context, batchSize int) (*ProcessResult, error) {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	now := q.now()

	items, err := q.Items.DuePending(ctx, now, batchSize)
	if err != nil {
		return nil, fmt.Errorf("fetch due items: %w", err)
	}

	result := &ProcessResult{Errors: []ItemError{}}
	if len(items) == 0 {
		return result, nil
	}

	accountOrder := []int{}
	groups := map[int][]*model.QueueItem{}
	for _, item := range items {
		if _, seen := groups[item.SendingAccountID]; !seen {
			accountOrder = append(accountOrder, item.SendingAccountID)
		}
		groups[item.SendingAccountID] = append(groups[item.SendingAccountID], item)
	}

	for _, accountID := range accountOrder {
		group := groups[accountID]

		decision, err := q.Limiter.CheckAccountRateLimit(ctx, accountID, len(group))
		if err != nil {
			q.Logger.Errorw("account rate-limit check failed", "account_id", accountID, "err", err)
			continue
		}
		allowed := len(group)
		if decision.Remaining < allowed {
			allowed = decision.Remaining
		}
		if allowed == 0 {
			q.Logger.Infow("account at daily rate limit, leaving items pending",
				"account_id", accountID, "pending", len(group))
			continue
		}

		account, err := q.Accounts.GetByID(ctx, accountID)
		if err != nil {
			q.Logger.Errorw("load sending account failed", "account_id", accountID, "err", err)
			continue
		}
		if account.Status != model.AccountStatusActive {
			q.Logger.Warnw("sending account not active, leaving items pending",
				"account_id", accountID, "status", account.Status)
			continue
		}

		// Only the prefix that fits under the remaining capacity is
		// processed; the rest stays pending for a later cycle.
		for _, item := range group[:allowed] {
			q.processItem(ctx, item, account, now, result)
		}
	}

	return result, nil
}

func (q *EmailQueue) processItem(ctx context.Context, item *model.QueueItem, account *model.SendingAccount, now time.Time, result *ProcessResult) {
	claimed, err := q.Items.Claim(ctx, item.ID)
	if err != nil {
		q.Logger.Errorw("claim failed", "item_id", item.ID, "err", err)
		return
	}
	if !claimed {
		// Another batch pass got there first.
		return
	}
	result.Processed++

	msg := sender.Message{
		From:     account.EmailAddress,
		FromName: account.DisplayName,
		To:       item.Recipient,
		Subject:  item.Subject,
		Body:     item.Body,
		HTMLBody: item.HTMLBody,
	}
	creds := sender.Credentials{
		Host:     account.SMTPHost,
		Port:     account.SMTPPort,
		Username: account.SMTPUsername,
		Password: account.SMTPPassword,
	}

	res, err := q.Executor.Send(ctx, msg, creds)
	if err != nil {
		q.applyFailure(ctx, item, err, now, result)
		return
	}

	if err := q.Items.MarkSent(ctx, item.ID); err != nil {
		q.Logger.Errorw("mark sent failed", "item_id", item.ID, "err", err)
		result.Errors = append(result.Errors, ItemError{ItemID: item.ID, Message: err.Error()})
		return
	}
	entry := &model.DeliveryLogEntry{
		CampaignID:       item.CampaignID,
		SendingAccountID: item.SendingAccountID,
		Recipient:        item.Recipient,
		MessageID:        res.MessageID,
		Subject:          item.Subject,
		SentAt:           q.now(),
	}
	if err := q.Logs.Insert(ctx, entry); err != nil {
		q.Logger.Errorw("delivery log write failed", "item_id", item.ID, "err", err)
		result.Errors = append(result.Errors, ItemError{ItemID: item.ID, Message: err.Error()})
	}
	result.Succeeded++
}

// applyFailure implements the retry rule: recoverable errors reschedule with
// backoff until attempts run out, unrecoverable ones fail immediately.
func (q *EmailQueue) applyFailure(ctx context.Context, item *model.QueueItem, sendErr error, now time.Time, result *ProcessResult) {
	classified := sender.Classify(sendErr)

	if classified.Temporary && item.Attempts < item.MaxAttempts {
		at := now.Add(backoffFor(item.Attempts))
		if err := q.Items.Reschedule(ctx, item.ID, item.Attempts+1, at, classified.Message); err != nil {
			q.Logger.Errorw("reschedule failed", "item_id", item.ID, "err", err)
			result.Errors = append(result.Errors, ItemError{ItemID: item.ID, Message: err.Error()})
		}
		return
	}

	if err := q.Items.MarkFailed(ctx, item.ID, classified.Message); err != nil {
		q.Logger.Errorw("mark failed failed", "item_id", item.ID, "err", err)
	}
	result.Failed++
	result.Errors = append(result.Errors, ItemError{ItemID: item.ID, Message: classified.Message})
}

// RetryFailed resets failed items with attempts left back to pending.
func (q *EmailQueue) RetryFailed(ctx context.Context) (int64, error) {
	return q.Items.ResetFailed(ctx, q.now())
}

// GetStats returns queue item counts by status.
func (q *EmailQueue) GetStats(ctx context.Context) (map[string]int, error) {
	return q.Items.CountByStatus(ctx)
}

// Cleanup deletes sent and failed items past the retention period.
func (q *EmailQueue) Cleanup(ctx context.Context) (int64, error) {
	return q.Items.DeleteFinishedBefore(ctx, q.now().Add(-RetentionPeriod))
}

func (q *EmailQueue) now() time.Time {
	if q.Now != nil {
		return q.Now()
	}
	return time.Now()
}
