package repository

import (
	"context"
	"database/sql"
	"strings"
)

type SuppressionRepositoryInterface interface {
	IsSuppressed(ctx context.Context, email string) (bool, error)
}

// SuppressionRepository looks up the global do-not-contact registry. The
// dispatch core only reads it; entries are written by bounce and unsubscribe
// handlers elsewhere.
type SuppressionRepository struct {
	DB *sql.DB
}

func (r *SuppressionRepository) IsSuppressed(ctx context.Context, email string) (bool, error) {
	query := `SELECT 1 FROM suppressions WHERE email=$1 LIMIT 1`
	var tmp int
	err := r.DB.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email))).Scan(&tmp)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

var _ SuppressionRepositoryInterface = (*SuppressionRepository)(nil)
