package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/coldpilot/coldpilot-backend/internal/model"
)

type PoolRepositoryInterface interface {
	EligibleEntries(ctx context.Context, limit int) ([]*model.WarmupPoolEntry, error)
	RecordUsage(ctx context.Context, entryID int, usedAt time.Time) error
}

type PoolRepository struct {
	DB *sql.DB
}

// EligibleEntries returns up to limit warmup recipients, least-used first so
// load spreads evenly across the pool.
func (r *PoolRepository) EligibleEntries(ctx context.Context, limit int) ([]*model.WarmupPoolEntry, error) {
	query := `
        SELECT id, email_address, status, mx_verified, usage_count, bounce_rate, last_used_at, created_at
        FROM warmup_pool_entries
        WHERE status=$1 AND mx_verified=TRUE AND bounce_rate < $2
        ORDER BY usage_count ASC, id ASC
        LIMIT $3
    `
	rows, err := r.DB.QueryContext(ctx, query, model.PoolEntryStatusActive, model.MaxPoolBounceRate, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*model.WarmupPoolEntry{}
	for rows.Next() {
		e := &model.WarmupPoolEntry{}
		if err := rows.Scan(&e.ID, &e.EmailAddress, &e.Status, &e.MXVerified,
			&e.UsageCount, &e.BounceRate, &e.LastUsedAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *PoolRepository) RecordUsage(ctx context.Context, entryID int, usedAt time.Time) error {
	query := `UPDATE warmup_pool_entries SET usage_count = usage_count + 1, last_used_at=$1 WHERE id=$2`
	_, err := r.DB.ExecContext(ctx, query, usedAt, entryID)
	return err
}

var _ PoolRepositoryInterface = (*PoolRepository)(nil)
