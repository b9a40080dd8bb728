package repository

import (
	"context"
	"database/sql"
	"time"

	appErrors "github.com/coldpilot/coldpilot-backend/internal/errors"
	"github.com/coldpilot/coldpilot-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	GetByID(ctx context.Context, id int) (*model.Campaign, error)
	ListEligible(ctx context.Context, now time.Time) ([]*model.Campaign, error)
	UpdateStatus(ctx context.Context, campaignID int, status model.CampaignStatus) error
	RecordSends(ctx context.Context, campaignID int, day time.Time, count int) error
	CompleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, name, type, status, daily_volume, start_date, end_date,
       sending_account_id, prospect_list_id, outreach_mode,
       emails_sent_today, last_send_date, total_emails_sent, created_at, updated_at`

func scanCampaign(row interface{ Scan(...any) error }) (*model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(
		&c.ID, &c.Name, &c.Type, &c.Status, &c.DailyVolume, &c.StartDate, &c.EndDate,
		&c.SendingAccountID, &c.ProspectListID, &c.OutreachMode,
		&c.EmailsSentToday, &c.LastSendDate, &c.TotalEmailsSent, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) GetByID(ctx context.Context, id int) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id=$1`
	c, err := scanCampaign(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

// ListEligible returns every campaign the scheduler should look at:
// active and inside its start/end window.
func (r *CampaignRepository) ListEligible(ctx context.Context, now time.Time) ([]*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + `
              FROM campaigns
              WHERE status=$1 AND start_date <= $2 AND end_date >= $2
              ORDER BY id ASC`
	rows, err := r.DB.QueryContext(ctx, query, model.CampaignStatusActive, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

func (r *CampaignRepository) UpdateStatus(ctx context.Context, campaignID int, status model.CampaignStatus) error {
	query := `UPDATE campaigns SET status=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.DB.ExecContext(ctx, query, status, campaignID)
	return err
}

// RecordSends folds one processing run's send count into the campaign's
// tracking counters. The day rollover and both increments happen in a single
// statement so concurrent runs never lose updates.
func (r *CampaignRepository) RecordSends(ctx context.Context, campaignID int, day time.Time, count int) error {
	query := `
        UPDATE campaigns SET
            emails_sent_today = CASE WHEN last_send_date = $2 THEN emails_sent_today + $3 ELSE $3 END,
            last_send_date    = $2,
            total_emails_sent = total_emails_sent + $3,
            updated_at        = NOW()
        WHERE id=$1
    `
	_, err := r.DB.ExecContext(ctx, query, campaignID, day, count)
	return err
}

// CompleteExpired transitions every active campaign past its end date to
// completed. The filter predicate is part of the UPDATE itself, so a campaign
// paused or completed concurrently is left alone.
func (r *CampaignRepository) CompleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE campaigns SET status=$1, updated_at=NOW()
              WHERE status=$2 AND end_date < $3`
	res, err := r.DB.ExecContext(ctx, query, model.CampaignStatusCompleted, model.CampaignStatusActive, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
