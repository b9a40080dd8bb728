package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/coldpilot/coldpilot-backend/internal/model"
)

type DeliveryLogRepositoryInterface interface {
	Insert(ctx context.Context, entry *model.DeliveryLogEntry) error
	CountForCampaignSince(ctx context.Context, campaignID int, since time.Time) (int, error)
	CountForAccountSince(ctx context.Context, accountID int, since time.Time) (int, error)
}

type DeliveryLogRepository struct {
	DB *sql.DB
}

func (r *DeliveryLogRepository) Insert(ctx context.Context, entry *model.DeliveryLogEntry) error {
	query := `
        INSERT INTO delivery_logs
        (campaign_id, sending_account_id, recipient, message_id, subject, sent_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `
	return r.DB.QueryRowContext(ctx, query,
		entry.CampaignID, entry.SendingAccountID, entry.Recipient,
		entry.MessageID, entry.Subject, entry.SentAt,
	).Scan(&entry.ID)
}

func (r *DeliveryLogRepository) CountForCampaignSince(ctx context.Context, campaignID int, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM delivery_logs WHERE campaign_id=$1 AND sent_at >= $2`
	err := r.DB.QueryRowContext(ctx, query, campaignID, since).Scan(&count)
	return count, err
}

// CountForAccountSince counts across every campaign using the account, which
// is what the provider-level rate limit is scoped to.
func (r *DeliveryLogRepository) CountForAccountSince(ctx context.Context, accountID int, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM delivery_logs WHERE sending_account_id=$1 AND sent_at >= $2`
	err := r.DB.QueryRowContext(ctx, query, accountID, since).Scan(&count)
	return count, err
}

var _ DeliveryLogRepositoryInterface = (*DeliveryLogRepository)(nil)
