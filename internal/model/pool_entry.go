// internal/model/pool_entry.go
package model

import "time"

type PoolEntryStatus string

const (
	PoolEntryStatusActive   PoolEntryStatus = "active"
	PoolEntryStatusInactive PoolEntryStatus = "inactive"
)

// MaxPoolBounceRate is the bounce-rate ceiling above which a pool entry is
// no longer an eligible warmup recipient.
const MaxPoolBounceRate = 0.05

type WarmupPoolEntry struct {
	ID           int             `db:"id" json:"id"`
	EmailAddress string          `db:"email_address" json:"email_address"`
	Status       PoolEntryStatus `db:"status" json:"status"`
	MXVerified   bool            `db:"mx_verified" json:"mx_verified"`
	UsageCount   int             `db:"usage_count" json:"usage_count"`
	BounceRate   float64         `db:"bounce_rate" json:"bounce_rate"`
	LastUsedAt   *time.Time      `db:"last_used_at" json:"last_used_at,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}
