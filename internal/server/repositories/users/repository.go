// Package users is the identity store: the durable username -> account mapping.
package users

import (
	"context"

	"github.com/dmitrijs2005/tenantkeeper/internal/server/models"
)

// Repository persists accounts. Keys are arbitrary strings, including empty
// and non-ASCII usernames.
type Repository interface {
	Exists(ctx context.Context, username string) (bool, error)
	// FindByUsername returns common.ErrorNotFound when no account matches.
	FindByUsername(ctx context.Context, username string) (*models.Account, error)
	// Save inserts the account or updates the existing row with the same
	// username; it never creates a duplicate.
	Save(ctx context.Context, account *models.Account) (*models.Account, error)
	FindAll(ctx context.Context) ([]*models.Account, error)
}
