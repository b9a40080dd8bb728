package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/coldpilot/coldpilot-backend/internal/model"
)

type ProspectRepositoryInterface interface {
	NextUncontacted(ctx context.Context, listID, limit int) ([]*model.Prospect, error)
	MarkContacted(ctx context.Context, prospectID int, contactedAt time.Time) error
}

type ProspectRepository struct {
	DB *sql.DB
}

// NextUncontacted returns up to limit prospects that have never been
// contacted, in insertion order so repeated passes neither skip nor
// duplicate anyone.
func (r *ProspectRepository) NextUncontacted(ctx context.Context, listID, limit int) ([]*model.Prospect, error) {
	query := `
        SELECT id, list_id, email_address, first_name, last_name, company, status, last_contacted_at, created_at
        FROM prospects
        WHERE list_id=$1 AND status=$2 AND last_contacted_at IS NULL
        ORDER BY id ASC
        LIMIT $3
    `
	rows, err := r.DB.QueryContext(ctx, query, listID, model.ProspectStatusActive, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prospects := []*model.Prospect{}
	for rows.Next() {
		p := &model.Prospect{}
		if err := rows.Scan(&p.ID, &p.ListID, &p.EmailAddress, &p.FirstName, &p.LastName,
			&p.Company, &p.Status, &p.LastContactedAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		prospects = append(prospects, p)
	}
	return prospects, rows.Err()
}

func (r *ProspectRepository) MarkContacted(ctx context.Context, prospectID int, contactedAt time.Time) error {
	query := `UPDATE prospects SET status=$1, last_contacted_at=$2 WHERE id=$3`
	_, err := r.DB.ExecContext(ctx, query, model.ProspectStatusContacted, contactedAt, prospectID)
	return err
}

var _ ProspectRepositoryInterface = (*ProspectRepository)(nil)
