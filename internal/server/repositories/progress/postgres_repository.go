package progress

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/tenantkeeper/internal/dbx"
	"github.com/dmitrijs2005/tenantkeeper/internal/server/models"
)

// PostgresRepository writes progress_records. The username column is unique,
// so a second record for the same account fails instead of duplicating.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Save(ctx context.Context, record *models.ProgressRecord) (*models.ProgressRecord, error) {
	query := `
		INSERT INTO progress_records (id, username)
		VALUES ($1, $2)
		RETURNING created_at
	`
	if err := r.db.QueryRowContext(ctx, query, record.ID, record.Username).Scan(&record.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return record, nil
}
