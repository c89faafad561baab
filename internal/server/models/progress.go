package models

import (
	"time"

	"github.com/google/uuid"
)

// ProgressRecord tracks a tenant's progress. There is exactly one per account,
// created when the account is first provisioned.
type ProgressRecord struct {
	ID        string
	Username  string
	CreatedAt time.Time
}

func NewProgressRecord(username string) *ProgressRecord {
	return &ProgressRecord{ID: uuid.NewString(), Username: username}
}
