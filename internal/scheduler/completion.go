package scheduler

import "context"

// DetectCompletedCampaigns transitions every active campaign past its end
// date to completed. The status+date predicate lives in the batch UPDATE
// itself, so concurrent status changes elsewhere cannot be clobbered and a
// campaign is never re-completed.
func (s *Scheduler) DetectCompletedCampaigns(ctx context.Context) (int64, error) {
	return s.Campaigns.CompleteExpired(ctx, s.now())
}
