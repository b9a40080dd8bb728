package campaign_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coldpilot/coldpilot-backend/internal/campaign"
	"github.com/coldpilot/coldpilot-backend/internal/content"
	"github.com/coldpilot/coldpilot-backend/internal/limiter"
	"github.com/coldpilot/coldpilot-backend/internal/model"
	"github.com/coldpilot/coldpilot-backend/internal/selector"
	"github.com/coldpilot/coldpilot-backend/internal/sender"
)

type MockCampaignRepo struct {
	campaigns map[int]*model.Campaign

	recordedID    int
	recordedDay   time.Time
	recordedCount int
	recordCalls   int
}

func (m *MockCampaignRepo) GetByID(ctx context.Context, id int) (*model.Campaign, error) {
	c, ok := m.campaigns[id]
	if !ok {
		return nil, fmt.Errorf("campaign %d not found", id)
	}
	return c, nil
}

func (m *MockCampaignRepo) ListEligible(ctx context.Context, now time.Time) ([]*model.Campaign, error) {
	out := []*model.Campaign{}
	for _, c := range m.campaigns {
		if c.Eligible(now) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MockCampaignRepo) UpdateStatus(ctx context.Context, campaignID int, status model.CampaignStatus) error {
	m.campaigns[campaignID].Status = status
	return nil
}

func (m *MockCampaignRepo) RecordSends(ctx context.Context, campaignID int, day time.Time, count int) error {
	m.recordedID = campaignID
	m.recordedDay = day
	m.recordedCount = count
	m.recordCalls++
	return nil
}

func (m *MockCampaignRepo) CompleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type MockAccountRepo struct {
	accounts map[int]*model.SendingAccount
}

func (m *MockAccountRepo) GetByID(ctx context.Context, id int) (*model.SendingAccount, error) {
	a, ok := m.accounts[id]
	if !ok {
		return nil, fmt.Errorf("account %d not found", id)
	}
	return a, nil
}

type MockPoolRepo struct {
	entries []*model.WarmupPoolEntry
	usage   map[int]int
}

func (m *MockPoolRepo) EligibleEntries(ctx context.Context, limit int) ([]*model.WarmupPoolEntry, error) {
	if limit > len(m.entries) {
		limit = len(m.entries)
	}
	return m.entries[:limit], nil
}

func (m *MockPoolRepo) RecordUsage(ctx context.Context, entryID int, usedAt time.Time) error {
	if m.usage == nil {
		m.usage = map[int]int{}
	}
	m.usage[entryID]++
	return nil
}

// MockProspectRepo is stateful: MarkContacted takes effect, so repeated
// selection rounds advance through the list the way the real table does.
type MockProspectRepo struct {
	mu        sync.Mutex
	prospects []*model.Prospect
}

func (m *MockProspectRepo) NextUncontacted(ctx context.Context, listID, limit int) ([]*model.Prospect, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*model.Prospect{}
	for _, p := range m.prospects {
		if len(out) == limit {
			break
		}
		if p.ListID == listID && p.Status == model.ProspectStatusActive && p.LastContactedAt == nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MockProspectRepo) MarkContacted(ctx context.Context, prospectID int, contactedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.prospects {
		if p.ID == prospectID {
			t := contactedAt
			p.LastContactedAt = &t
			p.Status = model.ProspectStatusContacted
		}
	}
	return nil
}

// MockLogRepo counts its own inserts, so a processor wired with the real
// limiter sees its sends reflected in the next capacity check.
type MockLogRepo struct {
	mu      sync.Mutex
	entries []*model.DeliveryLogEntry
}

func (m *MockLogRepo) Insert(ctx context.Context, entry *model.DeliveryLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockLogRepo) CountForCampaignSince(ctx context.Context, campaignID int, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.CampaignID == campaignID && !e.SentAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *MockLogRepo) CountForAccountSince(ctx context.Context, accountID int, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.SendingAccountID == accountID && !e.SentAt.Before(since) {
			n++
		}
	}
	return n, nil
}

type MockVolumeLimiter struct {
	decision *limiter.VolumeDecision
}

func (m *MockVolumeLimiter) CanSendToday(ctx context.Context, campaignID, dailyVolume int) (*limiter.VolumeDecision, error) {
	return m.decision, nil
}

type MockEnqueuer struct {
	items []*model.QueueItem
	err   error
}

func (m *MockEnqueuer) Enqueue(ctx context.Context, item *model.QueueItem) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.items = append(m.items, item)
	return fmt.Sprintf("item-%d", len(m.items)), nil
}

type MockExecutor struct {
	fail map[string]error
	sent []sender.Message
}

func (m *MockExecutor) Send(ctx context.Context, msg sender.Message, creds sender.Credentials) (*sender.Result, error) {
	if err, ok := m.fail[msg.To]; ok {
		return nil, err
	}
	m.sent = append(m.sent, msg)
	return &sender.Result{MessageID: "mid-" + msg.To}, nil
}

type fixture struct {
	campaigns *MockCampaignRepo
	accounts  *MockAccountRepo
	pool      *MockPoolRepo
	prospects *MockProspectRepo
	logs      *MockLogRepo
	queue     *MockEnqueuer
	executor  *MockExecutor
	processor *campaign.Processor
}

func newFixture(limits campaign.VolumeLimiter) *fixture {
	f := &fixture{
		campaigns: &MockCampaignRepo{campaigns: map[int]*model.Campaign{}},
		accounts: &MockAccountRepo{accounts: map[int]*model.SendingAccount{
			1: {ID: 1, EmailAddress: "sender@coldpilot.test", DisplayName: "Sender", Provider: "gmail", Status: model.AccountStatusActive},
			2: {ID: 2, EmailAddress: "off@coldpilot.test", Status: model.AccountStatusInactive},
		}},
		pool:      &MockPoolRepo{},
		prospects: &MockProspectRepo{},
		logs:      &MockLogRepo{},
		queue:     &MockEnqueuer{},
		executor:  &MockExecutor{},
	}
	f.processor = &campaign.Processor{
		Campaigns: f.campaigns,
		Accounts:  f.accounts,
		Pool:      f.pool,
		Prospects: f.prospects,
		Logs:      f.logs,
		Selector:  selector.New(f.pool, f.prospects),
		Limiter:   limits,
		Queue:     f.queue,
		Executor:  f.executor,
		Content: &content.TemplateGenerator{
			SubjectTemplate: "Checking in from {campaign_name}",
			BodyTemplate:    "Hello {first_name}, quick note from {campaign_name}.",
		},
		Logger: zap.NewNop().Sugar(),
		Now:    func() time.Time { return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC) },
	}
	return f
}

func warmupCampaign() *model.Campaign {
	return &model.Campaign{
		ID:               1,
		Name:             "warmup-q2",
		Type:             model.CampaignTypeWarmup,
		Status:           model.CampaignStatusActive,
		DailyVolume:      5,
		SendingAccountID: 1,
	}
}

func outreachCampaign(mode model.OutreachMode) *model.Campaign {
	listID := 1
	return &model.Campaign{
		ID:               2,
		Name:             "spring-outreach",
		Type:             model.CampaignTypeOutreach,
		Status:           model.CampaignStatusActive,
		DailyVolume:      5,
		SendingAccountID: 1,
		ProspectListID:   &listID,
		OutreachMode:     mode,
	}
}

func TestProcessWarmupEnqueuesUpToRemaining(t *testing.T) {
	f := newFixture(&MockVolumeLimiter{decision: &limiter.VolumeDecision{Allowed: true, Remaining: 3, SentToday: 2}})
	f.campaigns.campaigns[1] = warmupCampaign()
	for i := 1; i <= 5; i++ {
		f.pool.entries = append(f.pool.entries, &model.WarmupPoolEntry{
			ID: i, EmailAddress: fmt.Sprintf("pool%d@warm.test", i), UsageCount: i,
		})
	}

	result, err := f.processor.Process(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, 3, result.EmailsQueued)
	assert.Empty(t, result.Errors)

	// Three queue items, nothing sent directly.
	require.Len(t, f.queue.items, 3)
	assert.Empty(t, f.executor.sent)
	item := f.queue.items[0]
	assert.Equal(t, 1, item.CampaignID)
	assert.Equal(t, 1, item.SendingAccountID)
	assert.Equal(t, "pool1@warm.test", item.Recipient)
	assert.Equal(t, "Checking in from warmup-q2", item.Subject)
	assert.Equal(t, "1", item.Metadata["pool_entry_id"])

	// Pool rotation recorded for exactly the entries used.
	assert.Equal(t, map[int]int{1: 1, 2: 1, 3: 1}, f.pool.usage)

	// Tracking counters folded in once, against the UTC day.
	assert.Equal(t, 1, f.campaigns.recordCalls)
	assert.Equal(t, 3, f.campaigns.recordedCount)
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), f.campaigns.recordedDay)
}

func TestProcessSkipsWhenDailyLimitReached(t *testing.T) {
	f := newFixture(&MockVolumeLimiter{decision: &limiter.VolumeDecision{Allowed: false, Remaining: 0, SentToday: 5}})
	f.campaigns.campaigns[1] = warmupCampaign()

	result, err := f.processor.Process(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Equal(t, "Daily volume limit reached (5/5)", result.SkipReason)
	assert.Empty(t, f.queue.items)
	assert.Equal(t, 0, f.campaigns.recordCalls)
}

func TestProcessSkipsInactiveAccount(t *testing.T) {
	f := newFixture(&MockVolumeLimiter{decision: &limiter.VolumeDecision{Allowed: true, Remaining: 5}})
	c := warmupCampaign()
	c.SendingAccountID = 2
	f.campaigns.campaigns[1] = c

	result, err := f.processor.Process(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Equal(t, "account inactive", result.SkipReason)
}

func TestProcessSkipsManualOutreach(t *testing.T) {
	f := newFixture(&MockVolumeLimiter{decision: &limiter.VolumeDecision{Allowed: true, Remaining: 5}})
	f.campaigns.campaigns[2] = outreachCampaign(model.OutreachModeManual)

	result, err := f.processor.Process(context.Background(), 2)
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Equal(t, "manual outreach mode", result.SkipReason)
	assert.Empty(t, f.executor.sent)
}

func TestProcessAutomatedOutreachSendsDirectly(t *testing.T) {
	f := newFixture(&MockVolumeLimiter{decision: &limiter.VolumeDecision{Allowed: true, Remaining: 5}})
	f.campaigns.campaigns[2] = outreachCampaign(model.OutreachModeAutomated)
	f.prospects.prospects = []*model.Prospect{
		{ID: 1, ListID: 1, EmailAddress: "jane@acme.test", FirstName: "Jane", Status: model.ProspectStatusActive},
		{ID: 2, ListID: 1, EmailAddress: "bob@acme.test", FirstName: "Bob", Status: model.ProspectStatusActive},
	}

	result, err := f.processor.Process(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, 2, result.EmailsQueued)

	// Direct sends, no durable queue involvement.
	require.Len(t, f.executor.sent, 2)
	assert.Empty(t, f.queue.items)
	assert.Equal(t, "Hello Jane, quick note from spring-outreach.", f.executor.sent[0].Body)

	// Each send logged and the prospect advanced.
	assert.Len(t, f.logs.entries, 2)
	for _, p := range f.prospects.prospects {
		assert.NotNil(t, p.LastContactedAt)
		assert.Equal(t, model.ProspectStatusContacted, p.Status)
	}
}

func TestProcessSkipsWhenNoRecipients(t *testing.T) {
	f := newFixture(&MockVolumeLimiter{decision: &limiter.VolumeDecision{Allowed: true, Remaining: 5}})
	f.campaigns.campaigns[1] = warmupCampaign()

	result, err := f.processor.Process(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	assert.Equal(t, "no recipients available", result.SkipReason)
}

func TestProcessOutreachPartialFailureContinues(t *testing.T) {
	f := newFixture(&MockVolumeLimiter{decision: &limiter.VolumeDecision{Allowed: true, Remaining: 5}})
	f.campaigns.campaigns[2] = outreachCampaign(model.OutreachModeAutomated)
	f.prospects.prospects = []*model.Prospect{
		{ID: 1, ListID: 1, EmailAddress: "ok1@acme.test", Status: model.ProspectStatusActive},
		{ID: 2, ListID: 1, EmailAddress: "bad@acme.test", Status: model.ProspectStatusActive},
		{ID: 3, ListID: 1, EmailAddress: "ok2@acme.test", Status: model.ProspectStatusActive},
	}
	f.executor.fail = map[string]error{"bad@acme.test": errors.New("550 invalid recipient")}

	result, err := f.processor.Process(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, 2, result.EmailsQueued)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "bad@acme.test")

	// The failed prospect is not marked contacted; the others are.
	assert.Nil(t, f.prospects.prospects[1].LastContactedAt)
	assert.NotNil(t, f.prospects.prospects[0].LastContactedAt)
	assert.NotNil(t, f.prospects.prospects[2].LastContactedAt)

	// Only actual sends count against the campaign.
	assert.Equal(t, 2, f.campaigns.recordedCount)
}

func TestSendBatchCapsBelowRemaining(t *testing.T) {
	f := newFixture(&MockVolumeLimiter{decision: &limiter.VolumeDecision{Allowed: true, Remaining: 5}})
	f.campaigns.campaigns[2] = outreachCampaign(model.OutreachModeManual)
	for i := 1; i <= 10; i++ {
		f.prospects.prospects = append(f.prospects.prospects, &model.Prospect{
			ID: i, ListID: 1, EmailAddress: fmt.Sprintf("p%d@acme.test", i), Status: model.ProspectStatusActive,
		})
	}

	result, err := f.processor.SendBatch(context.Background(), 2, 2)
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, 2, result.EmailsQueued)
	assert.Len(t, f.executor.sent, 2)
}

func TestSendBatchRejectsWarmupCampaign(t *testing.T) {
	f := newFixture(&MockVolumeLimiter{decision: &limiter.VolumeDecision{Allowed: true, Remaining: 5}})
	f.campaigns.campaigns[1] = warmupCampaign()

	_, err := f.processor.SendBatch(context.Background(), 1, 5)
	require.Error(t, err)
}

func TestDailyVolumeBoundAcrossRepeatedRuns(t *testing.T) {
	// Wire the real limiter over the counting log store: every send lands a
	// log row, every cycle recounts. However many cycles run, total sends
	// stay bounded by the daily volume.
	f := newFixture(nil)
	lim := limiter.New(f.logs, f.accounts, limiter.DefaultProviderLimits())
	lim.Now = f.processor.Now
	f.processor.Limiter = lim

	c := outreachCampaign(model.OutreachModeAutomated)
	c.DailyVolume = 5
	f.campaigns.campaigns[2] = c
	for i := 1; i <= 20; i++ {
		f.prospects.prospects = append(f.prospects.prospects, &model.Prospect{
			ID: i, ListID: 1, EmailAddress: fmt.Sprintf("p%d@acme.test", i), Status: model.ProspectStatusActive,
		})
	}

	total := 0
	for i := 0; i < 4; i++ {
		result, err := f.processor.Process(context.Background(), 2)
		require.NoError(t, err)
		total += result.EmailsQueued
		if result.Skipped {
			assert.Equal(t, "Daily volume limit reached (5/5)", result.SkipReason)
		}
	}

	assert.Equal(t, 5, total)
	assert.Len(t, f.logs.entries, 5)
}
