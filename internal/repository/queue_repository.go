package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/coldpilot/coldpilot-backend/internal/model"
)

type QueueRepositoryInterface interface {
	Insert(ctx context.Context, item *model.QueueItem) error
	DuePending(ctx context.Context, now time.Time, limit int) ([]*model.QueueItem, error)
	Claim(ctx context.Context, itemID string) (bool, error)
	MarkSent(ctx context.Context, itemID string) error
	Reschedule(ctx context.Context, itemID string, attempts int, at time.Time, errMsg string) error
	MarkFailed(ctx context.Context, itemID string, errMsg string) error
	CountByStatus(ctx context.Context) (map[string]int, error)
	ResetFailed(ctx context.Context, now time.Time) (int64, error)
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type QueueRepository struct {
	DB *sql.DB
}

func (r *QueueRepository) Insert(ctx context.Context, item *model.QueueItem) error {
	meta, err := json.Marshal(item.Metadata)
	if err != nil {
		return err
	}
	query := `
        INSERT INTO email_queue
        (id, campaign_id, sending_account_id, recipient, subject, body, html_body,
         priority, attempts, max_attempts, scheduled_for, status, error_message, metadata,
         created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $15)
    `
	_, err = r.DB.ExecContext(ctx, query,
		item.ID, item.CampaignID, item.SendingAccountID, item.Recipient,
		item.Subject, item.Body, item.HTMLBody,
		item.Priority, item.Attempts, item.MaxAttempts, item.ScheduledFor,
		item.Status, item.ErrorMessage, meta, item.CreatedAt,
	)
	return err
}

// DuePending returns up to limit ready items, highest priority first, then
// oldest scheduled time within a priority tier.
func (r *QueueRepository) DuePending(ctx context.Context, now time.Time, limit int) ([]*model.QueueItem, error) {
	query := `
        SELECT id, campaign_id, sending_account_id, recipient, subject, body, html_body,
               priority, attempts, max_attempts, scheduled_for, status, error_message,
               COALESCE(metadata, '{}'::jsonb), created_at, updated_at
        FROM email_queue
        WHERE status=$1 AND scheduled_for <= $2
        ORDER BY priority DESC, scheduled_for ASC
        LIMIT $3
    `
	rows, err := r.DB.QueryContext(ctx, query, model.QueueItemStatusPending, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []*model.QueueItem{}
	for rows.Next() {
		item := &model.QueueItem{}
		var meta []byte
		if err := rows.Scan(&item.ID, &item.CampaignID, &item.SendingAccountID,
			&item.Recipient, &item.Subject, &item.Body, &item.HTMLBody,
			&item.Priority, &item.Attempts, &item.MaxAttempts, &item.ScheduledFor,
			&item.Status, &item.ErrorMessage, &meta, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(meta, &item.Metadata); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Claim atomically flips a pending item to processing. The status guard in
// the WHERE clause is what keeps two concurrent batch passes from both
// claiming the same item; the caller must skip the item when Claim reports
// false.
func (r *QueueRepository) Claim(ctx context.Context, itemID string) (bool, error) {
	query := `UPDATE email_queue SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`
	res, err := r.DB.ExecContext(ctx, query, model.QueueItemStatusProcessing, itemID, model.QueueItemStatusPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *QueueRepository) MarkSent(ctx context.Context, itemID string) error {
	query := `UPDATE email_queue SET status=$1, error_message='', updated_at=NOW() WHERE id=$2`
	_, err := r.DB.ExecContext(ctx, query, model.QueueItemStatusSent, itemID)
	return err
}

// Reschedule puts an item back in the pending state with a future scheduled
// time after a recoverable delivery failure.
func (r *QueueRepository) Reschedule(ctx context.Context, itemID string, attempts int, at time.Time, errMsg string) error {
	query := `UPDATE email_queue
              SET status=$1, attempts=$2, scheduled_for=$3, error_message=$4, updated_at=NOW()
              WHERE id=$5`
	_, err := r.DB.ExecContext(ctx, query, model.QueueItemStatusPending, attempts, at, errMsg, itemID)
	return err
}

func (r *QueueRepository) MarkFailed(ctx context.Context, itemID string, errMsg string) error {
	query := `UPDATE email_queue SET status=$1, error_message=$2, updated_at=NOW() WHERE id=$3`
	_, err := r.DB.ExecContext(ctx, query, model.QueueItemStatusFailed, errMsg, itemID)
	return err
}

func (r *QueueRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM email_queue GROUP BY status`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{"pending": 0, "processing": 0, "sent": 0, "failed": 0}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// ResetFailed is the manual recovery path: failed items that still have
// attempts left go back to pending for immediate reconsideration.
func (r *QueueRepository) ResetFailed(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE email_queue
              SET status=$1, scheduled_for=$2, updated_at=NOW()
              WHERE status=$3 AND attempts < max_attempts`
	res, err := r.DB.ExecContext(ctx, query, model.QueueItemStatusPending, now, model.QueueItemStatusFailed)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *QueueRepository) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM email_queue WHERE status IN ($1, $2) AND updated_at < $3`
	res, err := r.DB.ExecContext(ctx, query, model.QueueItemStatusSent, model.QueueItemStatusFailed, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

var _ QueueRepositoryInterface = (*QueueRepository)(nil)
