// Package selector chooses the next recipients for a campaign: rotating
// warmup pool entries for warmup traffic, next-uncontacted prospects for
// outreach. An empty result is never an error; callers treat it as "nothing
// to do" for this cycle.
package selector

import (
	"context"

	"github.com/coldpilot/coldpilot-backend/internal/model"
	"github.com/coldpilot/coldpilot-backend/internal/repository"
)

type Selector struct {
	Pool      repository.PoolRepositoryInterface
	Prospects repository.ProspectRepositoryInterface
}

func New(pool repository.PoolRepositoryInterface, prospects repository.ProspectRepositoryInterface) *Selector {
	return &Selector{Pool: pool, Prospects: prospects}
}

// WarmupRecipients returns up to limit eligible pool entries, least-used
// first. Fewer than limit entries is not an error; the pool is what it is.
func (s *Selector) WarmupRecipients(ctx context.Context, limit int) ([]*model.WarmupPoolEntry, error) {
	if limit < 1 {
		return []*model.WarmupPoolEntry{}, nil
	}
	return s.Pool.EligibleEntries(ctx, limit)
}

// OutreachProspects returns up to limit never-contacted active prospects
// from the campaign's list, in insertion order.
func (s *Selector) OutreachProspects(ctx context.Context, listID, limit int) ([]*model.Prospect, error) {
	if limit < 1 {
		return []*model.Prospect{}, nil
	}
	return s.Prospects.NextUncontacted(ctx, listID, limit)
}
