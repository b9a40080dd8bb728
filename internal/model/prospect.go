// internal/model/prospect.go
package model

import "time"

type ProspectStatus string

const (
	ProspectStatusActive       ProspectStatus = "active"
	ProspectStatusContacted    ProspectStatus = "contacted"
	ProspectStatusEngaged      ProspectStatus = "engaged"
	ProspectStatusReplied      ProspectStatus = "replied"
	ProspectStatusBounced      ProspectStatus = "bounced"
	ProspectStatusUnsubscribed ProspectStatus = "unsubscribed"
)

type Prospect struct {
	ID              int            `db:"id" json:"id"`
	ListID          int            `db:"list_id" json:"list_id"`
	EmailAddress    string         `db:"email_address" json:"email_address"`
	FirstName       string         `db:"first_name" json:"first_name"`
	LastName        string         `db:"last_name" json:"last_name"`
	Company         string         `db:"company" json:"company"`
	Status          ProspectStatus `db:"status" json:"status"`
	LastContactedAt *time.Time     `db:"last_contacted_at" json:"last_contacted_at,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
}
