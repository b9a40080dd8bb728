// Package campaign holds the per-campaign dispatch logic: decide how much
// may be sent, pick recipients, and either enqueue the work (warmup) or send
// directly (automated outreach).
package campaign

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/coldpilot/coldpilot-backend/internal/content"
	"github.com/coldpilot/coldpilot-backend/internal/limiter"
	"github.com/coldpilot/coldpilot-backend/internal/model"
	"github.com/coldpilot/coldpilot-backend/internal/repository"
	"github.com/coldpilot/coldpilot-backend/internal/selector"
	"github.com/coldpilot/coldpilot-backend/internal/sender"
)

// VolumeLimiter is the slice of the rate limiter the processor needs.
type VolumeLimiter interface {
	CanSendToday(ctx context.Context, campaignID, dailyVolume int) (*limiter.VolumeDecision, error)
}

// Enqueuer is the email queue's intake side.
type Enqueuer interface {
	Enqueue(ctx context.Context, item *model.QueueItem) (string, error)
}

// DeliveryExecutor performs one classified delivery attempt (outreach path).
type DeliveryExecutor interface {
	Send(ctx context.Context, msg sender.Message, creds sender.Credentials) (*sender.Result, error)
}

// ProcessResult reports one campaign's processing cycle. Skips are
// legitimate outcomes (capacity reached, nothing to send), never errors.
type ProcessResult struct {
	CampaignID   int                `json:"campaign_id"`
	Name         string             `json:"name"`
	Type         model.CampaignType `json:"type"`
	EmailsQueued int                `json:"emails_queued"`
	Errors       []string           `json:"errors,omitempty"`
	Skipped      bool               `json:"skipped"`
	SkipReason   string             `json:"skip_reason,omitempty"`
}

type Processor struct {
	Campaigns repository.CampaignRepositoryInterface
	Accounts  repository.AccountRepositoryInterface
	Pool      repository.PoolRepositoryInterface
	Prospects repository.ProspectRepositoryInterface
	Logs      repository.DeliveryLogRepositoryInterface

	Selector *selector.Selector
	Limiter  VolumeLimiter
	Queue    Enqueuer
	Executor DeliveryExecutor
	Content  content.Generator
	Logger   *zap.SugaredLogger

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

// Process runs one dispatch cycle for a campaign. A returned error means the
// cycle could not run at all (configuration or storage failure); partial
// per-recipient failures land in the result's Errors instead.
func (p *Processor) Process(ctx context.Context, campaignID int) (*ProcessResult, error) {
	c, err := p.Campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	result := &ProcessResult{
		CampaignID: c.ID,
		Name:       c.Name,
		Type:       c.Type,
		Errors:     []string{},
	}

	account, err := p.Accounts.GetByID(ctx, c.SendingAccountID)
	if err != nil {
		return nil, fmt.Errorf("load sending account: %w", err)
	}
	if account.Status != model.AccountStatusActive {
		return p.skip(result, "account inactive"), nil
	}

	d, err := p.dispatcherFor(c)
	if err != nil {
		return nil, err
	}
	if c.Type == model.CampaignTypeOutreach && c.OutreachMode != model.OutreachModeAutomated {
		// Manual campaigns are driven by an explicit user-triggered batch
		// send (SendBatch), not the scheduler.
		return p.skip(result, "manual outreach mode"), nil
	}

	decision, err := p.Limiter.CanSendToday(ctx, c.ID, c.DailyVolume)
	if err != nil {
		return nil, fmt.Errorf("daily volume check: %w", err)
	}
	if !decision.Allowed {
		return p.skip(result, fmt.Sprintf("Daily volume limit reached (%d/%d)", decision.SentToday, c.DailyVolume)), nil
	}

	targets, err := d.selectRecipients(ctx, c, decision.Remaining)
	if err != nil {
		return nil, fmt.Errorf("select recipients: %w", err)
	}
	if len(targets) == 0 {
		return p.skip(result, "no recipients available"), nil
	}

	queued, errs := d.dispatch(ctx, c, account, targets)
	result.EmailsQueued = queued
	result.Errors = append(result.Errors, errs...)

	if queued > 0 {
		if err := p.Campaigns.RecordSends(ctx, c.ID, limiter.StartOfDayUTC(p.now()), queued); err != nil {
			p.Logger.Errorw("record sends failed", "campaign_id", c.ID, "err", err)
			result.Errors = append(result.Errors, fmt.Sprintf("record sends: %v", err))
		}
	}

	return result, nil
}

// SendBatch is the user-triggered send path for manual outreach campaigns.
// It reuses the same recipient selection and rate limiting as the scheduled
// path; limit further caps the batch below the remaining daily capacity.
func (p *Processor) SendBatch(ctx context.Context, campaignID, limit int) (*ProcessResult, error) {
	c, err := p.Campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if c.Type != model.CampaignTypeOutreach {
		return nil, fmt.Errorf("campaign %d is not an outreach campaign", campaignID)
	}

	result := &ProcessResult{
		CampaignID: c.ID,
		Name:       c.Name,
		Type:       c.Type,
		Errors:     []string{},
	}

	account, err := p.Accounts.GetByID(ctx, c.SendingAccountID)
	if err != nil {
		return nil, fmt.Errorf("load sending account: %w", err)
	}
	if account.Status != model.AccountStatusActive {
		return p.skip(result, "account inactive"), nil
	}

	decision, err := p.Limiter.CanSendToday(ctx, c.ID, c.DailyVolume)
	if err != nil {
		return nil, fmt.Errorf("daily volume check: %w", err)
	}
	if !decision.Allowed {
		return p.skip(result, fmt.Sprintf("Daily volume limit reached (%d/%d)", decision.SentToday, c.DailyVolume)), nil
	}

	n := decision.Remaining
	if limit > 0 && limit < n {
		n = limit
	}

	d := &outreachDispatcher{p: p}
	targets, err := d.selectRecipients(ctx, c, n)
	if err != nil {
		return nil, fmt.Errorf("select recipients: %w", err)
	}
	if len(targets) == 0 {
		return p.skip(result, "no recipients available"), nil
	}

	queued, errs := d.dispatch(ctx, c, account, targets)
	result.EmailsQueued = queued
	result.Errors = append(result.Errors, errs...)

	if queued > 0 {
		if err := p.Campaigns.RecordSends(ctx, c.ID, limiter.StartOfDayUTC(p.now()), queued); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("record sends: %v", err))
		}
	}

	return result, nil
}

func (p *Processor) skip(result *ProcessResult, reason string) *ProcessResult {
	result.Skipped = true
	result.SkipReason = reason
	p.Logger.Infow("campaign skipped", "campaign_id", result.CampaignID, "reason", reason)
	return result
}

func (p *Processor) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}
