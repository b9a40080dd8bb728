// internal/errors/errors.go
package appErrors

import "fmt"

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID int
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id int) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// ErrAccountNotFound signals a missing sending account.
type ErrAccountNotFound struct {
	AccountID int
}

func (e *ErrAccountNotFound) Error() string {
	return fmt.Sprintf("sending account with ID %d not found", e.AccountID)
}

func NewAccountNotFound(id int) error {
	return &ErrAccountNotFound{AccountID: id}
}

// ErrQueueItemNotFound signals a missing queue item.
type ErrQueueItemNotFound struct {
	ItemID string
}

func (e *ErrQueueItemNotFound) Error() string {
	return fmt.Sprintf("queue item %s not found", e.ItemID)
}

func NewQueueItemNotFound(id string) error {
	return &ErrQueueItemNotFound{ItemID: id}
}
