// internal/model/delivery_log.go
package model

import "time"

// DeliveryLogEntry is an append-only record written once per successful send.
// Engagement timestamps and counters are filled in later by inbound signal
// handlers outside the dispatch core.
type DeliveryLogEntry struct {
	ID               int        `db:"id" json:"id"`
	CampaignID       int        `db:"campaign_id" json:"campaign_id"`
	SendingAccountID int        `db:"sending_account_id" json:"sending_account_id"`
	Recipient        string     `db:"recipient" json:"recipient"`
	MessageID        string     `db:"message_id" json:"message_id"`
	Subject          string     `db:"subject" json:"subject"`
	SentAt           time.Time  `db:"sent_at" json:"sent_at"`
	OpenedAt         *time.Time `db:"opened_at" json:"opened_at,omitempty"`
	RepliedAt        *time.Time `db:"replied_at" json:"replied_at,omitempty"`
	BouncedAt        *time.Time `db:"bounced_at" json:"bounced_at,omitempty"`
	OpenCount        int        `db:"open_count" json:"open_count"`
	ReplyCount       int        `db:"reply_count" json:"reply_count"`
	ClickCount       int        `db:"click_count" json:"click_count"`
}
