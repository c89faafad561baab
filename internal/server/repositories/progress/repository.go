// Package progress stores per-tenant progress records.
package progress

import (
	"context"

	"github.com/dmitrijs2005/tenantkeeper/internal/server/models"
)

type Repository interface {
	Save(ctx context.Context, record *models.ProgressRecord) (*models.ProgressRecord, error)
}
