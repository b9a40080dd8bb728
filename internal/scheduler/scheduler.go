// Package scheduler is the orchestration loop: one invocation is a finite
// batch pass over every eligible active campaign. There is no persistent
// scheduling thread; an external trigger (cron, amqp tick, HTTP) calls
// ProcessActiveCampaigns periodically.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/coldpilot/coldpilot-backend/internal/campaign"
	"github.com/coldpilot/coldpilot-backend/internal/repository"
)

// CampaignProcessor runs one campaign's dispatch cycle.
type CampaignProcessor interface {
	Process(ctx context.Context, campaignID int) (*campaign.ProcessResult, error)
}

// Result aggregates one scheduler pass.
type Result struct {
	TotalCampaigns     int                       `json:"total_campaigns"`
	Processed          int                       `json:"processed"`
	Skipped            int                       `json:"skipped"`
	TotalEmailsQueued  int                       `json:"total_emails_queued"`
	Results            []*campaign.ProcessResult `json:"results"`
	Errors             []string                  `json:"errors,omitempty"`
	CampaignsCompleted int64                     `json:"campaigns_completed"`
}

type Scheduler struct {
	Campaigns repository.CampaignRepositoryInterface
	Processor CampaignProcessor

	// Workers bounds per-campaign concurrency within one pass. Campaigns
	// are independent apart from shared account rate limits, which are
	// checked per account, never assumed exclusive to one campaign.
	Workers int
	Logger  *zap.SugaredLogger

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

// ProcessActiveCampaigns fetches every active campaign inside its date
// window, processes each, aggregates the results, and finally runs
// completion detection. One campaign's failure never aborts the pass.
func (s *Scheduler) ProcessActiveCampaigns(ctx context.Context) (*Result, error) {
	now := s.now()

	campaigns, err := s.Campaigns.ListEligible(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list eligible campaigns: %w", err)
	}

	result := &Result{
		TotalCampaigns: len(campaigns),
		Results:        make([]*campaign.ProcessResult, 0, len(campaigns)),
		Errors:         []string{},
	}

	workers := s.Workers
	if workers < 1 {
		workers = 1
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, c := range campaigns {
		c := c
		g.Go(func() error {
			res := s.processOne(gctx, c.ID, c.Name)
			mu.Lock()
			defer mu.Unlock()
			result.Results = append(result.Results, res)
			if res.Skipped {
				result.Skipped++
			} else {
				result.Processed++
			}
			result.TotalEmailsQueued += res.EmailsQueued
			for _, msg := range res.Errors {
				result.Errors = append(result.Errors, fmt.Sprintf("campaign %d: %s", res.CampaignID, msg))
			}
			return nil
		})
	}
	g.Wait()

	completed, err := s.DetectCompletedCampaigns(ctx)
	if err != nil {
		s.Logger.Errorw("completion detection failed", "err", err)
		result.Errors = append(result.Errors, fmt.Sprintf("completion detection: %v", err))
	}
	result.CampaignsCompleted = completed

	s.Logger.Infow("scheduler pass finished",
		"total", result.TotalCampaigns,
		"processed", result.Processed,
		"skipped", result.Skipped,
		"queued", result.TotalEmailsQueued,
		"completed", result.CampaignsCompleted,
	)
	return result, nil
}

// processOne isolates a single campaign: errors and panics become a skipped
// result carrying the failure message.
func (s *Scheduler) processOne(ctx context.Context, campaignID int, name string) (res *campaign.ProcessResult) {
	defer func() {
		if r := recover(); r != nil {
			s.Logger.Errorw("campaign processing panicked", "campaign_id", campaignID, "panic", r)
			res = &campaign.ProcessResult{
				CampaignID: campaignID,
				Name:       name,
				Skipped:    true,
				SkipReason: "processing error",
				Errors:     []string{fmt.Sprintf("panic: %v", r)},
			}
		}
	}()

	res, err := s.Processor.Process(ctx, campaignID)
	if err != nil {
		s.Logger.Errorw("campaign processing failed", "campaign_id", campaignID, "err", err)
		return &campaign.ProcessResult{
			CampaignID: campaignID,
			Name:       name,
			Skipped:    true,
			SkipReason: "processing error",
			Errors:     []string{err.Error()},
		}
	}
	return res
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
