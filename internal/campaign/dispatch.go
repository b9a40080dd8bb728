package campaign

import (
	"context"
	"fmt"
	"strconv"

	"github.com/coldpilot/coldpilot-backend/internal/content"
	"github.com/coldpilot/coldpilot-backend/internal/model"
	"github.com/coldpilot/coldpilot-backend/internal/sender"
)

// recipientTarget is a recipient plus the linkage needed to record the send.
type recipientTarget struct {
	email     string
	firstName string
	lastName  string
	company   string

	poolEntryID int // warmup
	prospectID  int // outreach
}

// dispatcher is the per-campaign-type strategy: how to pick recipients and
// how to get messages to them. Adding a campaign type means adding a variant
// here, not touching the processor.
type dispatcher interface {
	selectRecipients(ctx context.Context, c *model.Campaign, limit int) ([]recipientTarget, error)
	dispatch(ctx context.Context, c *model.Campaign, account *model.SendingAccount, targets []recipientTarget) (sent int, errs []string)
}

func (p *Processor) dispatcherFor(c *model.Campaign) (dispatcher, error) {
	switch c.Type {
	case model.CampaignTypeWarmup:
		return &warmupDispatcher{p: p}, nil
	case model.CampaignTypeOutreach:
		return &outreachDispatcher{p: p}, nil
	default:
		return nil, fmt.Errorf("unknown campaign type %q", c.Type)
	}
}

// warmupDispatcher rotates the warmup pool and enqueues durable queue items;
// delivery happens later on the queue's own cadence.
type warmupDispatcher struct {
	p *Processor
}

func (d *warmupDispatcher) selectRecipients(ctx context.Context, _ *model.Campaign, limit int) ([]recipientTarget, error) {
	entries, err := d.p.Selector.WarmupRecipients(ctx, limit)
	if err != nil {
		return nil, err
	}
	targets := make([]recipientTarget, 0, len(entries))
	for _, e := range entries {
		targets = append(targets, recipientTarget{email: e.EmailAddress, poolEntryID: e.ID})
	}
	return targets, nil
}

func (d *warmupDispatcher) dispatch(ctx context.Context, c *model.Campaign, account *model.SendingAccount, targets []recipientTarget) (int, []string) {
	queued := 0
	errs := []string{}

	for _, t := range targets {
		generated, err := d.p.Content.Generate(ctx, content.Request{
			CampaignID:     c.ID,
			CampaignName:   c.Name,
			CampaignType:   c.Type,
			RecipientEmail: t.email,
		})
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: generate content: %v", t.email, err))
			continue
		}

		item := &model.QueueItem{
			CampaignID:       c.ID,
			SendingAccountID: account.ID,
			Recipient:        t.email,
			Subject:          generated.Subject,
			Body:             generated.Body,
			HTMLBody:         generated.HTMLBody,
			Priority:         0,
			Metadata:         map[string]string{"pool_entry_id": strconv.Itoa(t.poolEntryID)},
		}
		if _, err := d.p.Queue.Enqueue(ctx, item); err != nil {
			errs = append(errs, fmt.Sprintf("%s: enqueue: %v", t.email, err))
			continue
		}

		if err := d.p.Pool.RecordUsage(ctx, t.poolEntryID, d.p.now()); err != nil {
			d.p.Logger.Warnw("pool usage update failed", "entry_id", t.poolEntryID, "err", err)
			errs = append(errs, fmt.Sprintf("%s: record usage: %v", t.email, err))
		}
		queued++
	}

	return queued, errs
}

// outreachDispatcher sends directly through the delivery executor, bypassing
// the durable queue: outreach content needs synchronous personalization
// context that would go stale sitting in a queue row.
type outreachDispatcher struct {
	p *Processor
}

func (d *outreachDispatcher) selectRecipients(ctx context.Context, c *model.Campaign, limit int) ([]recipientTarget, error) {
	if c.ProspectListID == nil {
		return nil, fmt.Errorf("outreach campaign %d has no prospect list", c.ID)
	}
	prospects, err := d.p.Selector.OutreachProspects(ctx, *c.ProspectListID, limit)
	if err != nil {
		return nil, err
	}
	targets := make([]recipientTarget, 0, len(prospects))
	for _, pr := range prospects {
		targets = append(targets, recipientTarget{
			email:      pr.EmailAddress,
			firstName:  pr.FirstName,
			lastName:   pr.LastName,
			company:    pr.Company,
			prospectID: pr.ID,
		})
	}
	return targets, nil
}

func (d *outreachDispatcher) dispatch(ctx context.Context, c *model.Campaign, account *model.SendingAccount, targets []recipientTarget) (int, []string) {
	sent := 0
	errs := []string{}

	creds := sender.Credentials{
		Host:     account.SMTPHost,
		Port:     account.SMTPPort,
		Username: account.SMTPUsername,
		Password: account.SMTPPassword,
	}

	for _, t := range targets {
		generated, err := d.p.Content.Generate(ctx, content.Request{
			CampaignID:     c.ID,
			CampaignName:   c.Name,
			CampaignType:   c.Type,
			RecipientEmail: t.email,
			FirstName:      t.firstName,
			LastName:       t.lastName,
			Company:        t.company,
		})
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: generate content: %v", t.email, err))
			continue
		}

		msg := sender.Message{
			From:     account.EmailAddress,
			FromName: account.DisplayName,
			To:       t.email,
			Subject:  generated.Subject,
			Body:     generated.Body,
			HTMLBody: generated.HTMLBody,
		}
		res, err := d.p.Executor.Send(ctx, msg, creds)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", t.email, err))
			continue
		}

		now := d.p.now()
		entry := &model.DeliveryLogEntry{
			CampaignID:       c.ID,
			SendingAccountID: account.ID,
			Recipient:        t.email,
			MessageID:        res.MessageID,
			Subject:          generated.Subject,
			SentAt:           now,
		}
		if err := d.p.Logs.Insert(ctx, entry); err != nil {
			d.p.Logger.Errorw("delivery log write failed", "recipient", t.email, "err", err)
			errs = append(errs, fmt.Sprintf("%s: delivery log: %v", t.email, err))
		}
		if err := d.p.Prospects.MarkContacted(ctx, t.prospectID, now); err != nil {
			d.p.Logger.Errorw("mark contacted failed", "prospect_id", t.prospectID, "err", err)
			errs = append(errs, fmt.Sprintf("%s: mark contacted: %v", t.email, err))
		}
		sent++
	}

	return sent, errs
}
