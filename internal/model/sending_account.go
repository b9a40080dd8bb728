// internal/model/sending_account.go
package model

import "time"

type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "active"
	AccountStatusInactive AccountStatus = "inactive"
	AccountStatusError    AccountStatus = "error"
)

type SendingAccount struct {
	ID           int           `db:"id" json:"id"`
	EmailAddress string        `db:"email_address" json:"email_address"`
	DisplayName  string        `db:"display_name" json:"display_name"`
	Provider     string        `db:"provider" json:"provider"`
	Status       AccountStatus `db:"status" json:"status"`

	// SMTP transport credentials.
	SMTPHost     string `db:"smtp_host" json:"smtp_host"`
	SMTPPort     int    `db:"smtp_port" json:"smtp_port"`
	SMTPUsername string `db:"smtp_username" json:"smtp_username"`
	SMTPPassword string `db:"smtp_password" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
