// Package limiter computes how many more sends a campaign or sending account
// is permitted in the current UTC day. Both checks are advisory counters
// re-derived from durable delivery-log rows, not reserved tokens; see
// DESIGN.md for the concurrency consequences.
package limiter

import (
	"context"
	"time"

	"github.com/coldpilot/coldpilot-backend/internal/repository"
)

// VolumeDecision is the answer to "may this campaign send again today?".
type VolumeDecision struct {
	Allowed   bool `json:"allowed"`
	Remaining int  `json:"remaining"`
	SentToday int  `json:"sent_today"`
}

// AccountDecision is the answer to "does this account have provider
// capacity left today?".
type AccountDecision struct {
	Allowed   bool `json:"allowed"`
	Remaining int  `json:"remaining"`
}

type Limiter struct {
	Logs     repository.DeliveryLogRepositoryInterface
	Accounts repository.AccountRepositoryInterface
	Limits   *ProviderLimits

	// Now is swappable for tests; defaults to time.Now.
	Now func() time.Time
}

func New(logs repository.DeliveryLogRepositoryInterface, accounts repository.AccountRepositoryInterface, limits *ProviderLimits) *Limiter {
	return &Limiter{Logs: logs, Accounts: accounts, Limits: limits, Now: time.Now}
}

// CanSendToday counts the campaign's delivery-log entries since midnight UTC
// and compares against its daily volume.
func (l *Limiter) CanSendToday(ctx context.Context, campaignID, dailyVolume int) (*VolumeDecision, error) {
	sentToday, err := l.Logs.CountForCampaignSince(ctx, campaignID, StartOfDayUTC(l.now()))
	if err != nil {
		return nil, err
	}
	remaining := dailyVolume - sentToday
	if remaining < 0 {
		remaining = 0
	}
	return &VolumeDecision{
		Allowed:   remaining > 0,
		Remaining: remaining,
		SentToday: sentToday,
	}, nil
}

// CheckAccountRateLimit applies the provider-specific daily ceiling, counted
// across every campaign that uses the account.
func (l *Limiter) CheckAccountRateLimit(ctx context.Context, accountID, requested int) (*AccountDecision, error) {
	account, err := l.Accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	ceiling := l.Limits.LimitFor(account.Provider)

	sentToday, err := l.Logs.CountForAccountSince(ctx, accountID, StartOfDayUTC(l.now()))
	if err != nil {
		return nil, err
	}
	remaining := ceiling - sentToday
	if remaining < 0 {
		remaining = 0
	}
	return &AccountDecision{
		Allowed:   remaining >= requested && remaining > 0,
		Remaining: remaining,
	}, nil
}

func (l *Limiter) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

// StartOfDayUTC returns midnight UTC of the given instant. All daily caps
// are counted against calendar days in UTC.
func StartOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
