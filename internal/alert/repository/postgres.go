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

func (r *PGRepository) HasPendingAlert(ctx context.Context, userID string, variantID int64, officeID *int64, alertType model.AlertType) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1 FROM alerts
            WHERE user_id = $1 AND variant_id = $2 AND alert_type = $3
              AND status = 'pending'
    `
	args := []interface{}{userID, variantID, alertType}

	if officeID != nil {
		query += ` AND office_id = $4`
		args = append(args, *officeID)
	} else {
		query += ` AND office_id IS NULL`
	}
	query += `)`

	var exists bool
	if err := r.DB.GetContext(ctx, &exists, query, args...); err != nil {
		return false, errors.Wrap(err, "check pending alert")
	}
	return exists, nil
}

func (r *PGRepository) CreateBatch(ctx context.Context, alerts []model.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	query := `
        INSERT INTO alerts (
            id, tenant_id, user_id, variant_id, office_id,
            alert_type, current_quantity, threshold_quantity, days_to_stockout,
            status, created_at, updated_at
        )
        VALUES (
            :id, :tenant_id, :user_id, :variant_id, :office_id,
            :alert_type, :current_quantity, :threshold_quantity, :days_to_stockout,
            :status, :created_at, :updated_at
        )
    `

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin alert batch")
	}
	defer tx.Rollback()

	for _, a := range alerts {
		if _, err := tx.NamedExecContext(ctx, query, a); err != nil {
			return errors.Wrapf(err, "insert alert for variant %d", a.VariantID)
		}
	}

	return tx.Commit()
}
