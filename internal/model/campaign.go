// internal/model/campaign.go
package model

import "time"

type CampaignType string

const (
	CampaignTypeWarmup   CampaignType = "warmup"
	CampaignTypeOutreach CampaignType = "outreach"
)

type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusCompleted CampaignStatus = "completed"
)

type OutreachMode string

const (
	OutreachModeManual    OutreachMode = "manual"
	OutreachModeAutomated OutreachMode = "automated"
)

type Campaign struct {
	ID               int            `db:"id" json:"id"`
	Name             string         `db:"name" json:"name"`
	Type             CampaignType   `db:"type" json:"type"`
	Status           CampaignStatus `db:"status" json:"status"`
	DailyVolume      int            `db:"daily_volume" json:"daily_volume"`
	StartDate        time.Time      `db:"start_date" json:"start_date"`
	EndDate          time.Time      `db:"end_date" json:"end_date"`
	SendingAccountID int            `db:"sending_account_id" json:"sending_account_id"`

	// Outreach-only fields; zero values for warmup campaigns.
	ProspectListID *int         `db:"prospect_list_id" json:"prospect_list_id,omitempty"`
	OutreachMode   OutreachMode `db:"outreach_mode" json:"outreach_mode,omitempty"`

	// Send tracking. Counters are updated with atomic SQL increments, never
	// read-modify-write (see CampaignRepository.RecordSends).
	EmailsSentToday int        `db:"emails_sent_today" json:"emails_sent_today"`
	LastSendDate    *time.Time `db:"last_send_date" json:"last_send_date,omitempty"`
	TotalEmailsSent int        `db:"total_emails_sent" json:"total_emails_sent"`

	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// Eligible reports whether the campaign may be processed at the given time.
func (c *Campaign) Eligible(now time.Time) bool {
	return c.Status == CampaignStatusActive &&
		!now.Before(c.StartDate) && !now.After(c.EndDate)
}
