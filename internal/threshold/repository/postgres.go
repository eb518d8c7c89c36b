package repository

import (
	"context"

	"github.com/fekuna/stockwatch-sync-service/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) GetByUser(ctx context.Context, tenantID, userID string) ([]model.Threshold, error) {
	var thresholds []model.Threshold
	query := `
        SELECT * FROM thresholds
        WHERE tenant_id = $1 AND user_id = $2
        ORDER BY created_at, id
    `
	if err := r.DB.SelectContext(ctx, &thresholds, query, tenantID, userID); err != nil {
		return nil, errors.Wrap(err, "get thresholds by user")
	}
	return thresholds, nil
}

func (r *PGRepository) CountByUser(ctx context.Context, tenantID, userID string) (int, error) {
	var count int
	query := `SELECT count(*) FROM thresholds WHERE tenant_id = $1 AND user_id = $2`
	if err := r.DB.GetContext(ctx, &count, query, tenantID, userID); err != nil {
		return 0, errors.Wrap(err, "count thresholds by user")
	}
	return count, nil
}

func (r *PGRepository) ListIDsByUserOrdered(ctx context.Context, tenantID, userID string) ([]string, error) {
	var ids []string
	query := `
        SELECT id FROM thresholds
        WHERE tenant_id = $1 AND user_id = $2
        ORDER BY created_at, id
    `
	if err := r.DB.SelectContext(ctx, &ids, query, tenantID, userID); err != nil {
		return nil, errors.Wrap(err, "list threshold ids by user")
	}
	return ids, nil
}

func (r *PGRepository) ListUserIDs(ctx context.Context, tenantID string) ([]string, error) {
	var ids []string
	query := `SELECT DISTINCT user_id FROM thresholds WHERE tenant_id = $1 ORDER BY user_id`
	if err := r.DB.SelectContext(ctx, &ids, query, tenantID); err != nil {
		return nil, errors.Wrap(err, "list threshold user ids")
	}
	return ids, nil
}
