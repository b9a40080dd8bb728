// internal/model/queue_item.go
package model

import "time"

type QueueItemStatus string

const (
	QueueItemStatusPending    QueueItemStatus = "pending"
	QueueItemStatusProcessing QueueItemStatus = "processing"
	QueueItemStatusSent       QueueItemStatus = "sent"
	QueueItemStatusFailed     QueueItemStatus = "failed"
)

// DefaultMaxAttempts is applied when a queue item is enqueued with no
// explicit attempt ceiling.
const DefaultMaxAttempts = 3

type QueueItem struct {
	ID               string          `db:"id" json:"id"`
	CampaignID       int             `db:"campaign_id" json:"campaign_id"`
	SendingAccountID int             `db:"sending_account_id" json:"sending_account_id"`
	Recipient        string          `db:"recipient" json:"recipient"`
	Subject          string          `db:"subject" json:"subject"`
	Body             string          `db:"body" json:"body"`
	HTMLBody         string          `db:"html_body" json:"html_body,omitempty"`
	Priority         int             `db:"priority" json:"priority"`
	Attempts         int             `db:"attempts" json:"attempts"`
	MaxAttempts      int             `db:"max_attempts" json:"max_attempts"`
	ScheduledFor     time.Time       `db:"scheduled_for" json:"scheduled_for"`
	Status           QueueItemStatus `db:"status" json:"status"`
	ErrorMessage     string          `db:"error_message" json:"error_message,omitempty"`

	// Metadata carries linkage such as the warmup pool entry id or prospect
	// id; stored as JSONB.
	Metadata map[string]string `db:"metadata" json:"metadata,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
