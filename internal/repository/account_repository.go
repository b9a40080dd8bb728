package repository

import (
	"context"
	"database/sql"

	appErrors "github.com/coldpilot/coldpilot-backend/internal/errors"
	"github.com/coldpilot/coldpilot-backend/internal/model"
)

type AccountRepositoryInterface interface {
	GetByID(ctx context.Context, id int) (*model.SendingAccount, error)
}

type AccountRepository struct {
	DB *sql.DB
}

func (r *AccountRepository) GetByID(ctx context.Context, id int) (*model.SendingAccount, error) {
	query := `
        SELECT id, email_address, display_name, provider, status,
               smtp_host, smtp_port, smtp_username, smtp_password, created_at
        FROM sending_accounts
        WHERE id=$1
    `
	var a model.SendingAccount
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.EmailAddress, &a.DisplayName, &a.Provider, &a.Status,
		&a.SMTPHost, &a.SMTPPort, &a.SMTPUsername, &a.SMTPPassword, &a.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewAccountNotFound(id)
		}
		return nil, err
	}
	return &a, nil
}

var _ AccountRepositoryInterface = (*AccountRepository)(nil)
