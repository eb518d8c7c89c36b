package repository

import (
	"context"
	"database/sql"

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

func (r *PGRepository) UpsertBatchAdditive(ctx context.Context, rows []model.DailyConsumption) error {
	if len(rows) == 0 {
		return nil
	}

	// Addition semantics on conflict: re-syncing the same day window adds to
	// the stored sums. Double-processing the same source documents therefore
	// doubles consumption; the caller owns window bookkeeping.
	// office_id is nullable: the unique index on (tenant_id, variant_id,
	// office_id, date) must be declared NULLS NOT DISTINCT so tenant-wide
	// (office NULL) rows accumulate instead of duplicating.
	query := `
        INSERT INTO daily_consumption (
            id, tenant_id, variant_id, office_id, date,
            quantity_sold, document_count, created_at, updated_at
        )
        VALUES (
            :id, :tenant_id, :variant_id, :office_id, :date,
            :quantity_sold, :document_count, :created_at, :updated_at
        )
        ON CONFLICT (tenant_id, variant_id, office_id, date)
        DO UPDATE SET
            quantity_sold = daily_consumption.quantity_sold + EXCLUDED.quantity_sold,
            document_count = daily_consumption.document_count + EXCLUDED.document_count,
            updated_at = EXCLUDED.updated_at
    `

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin consumption upsert")
	}
	defer tx.Rollback()

	for _, row := range rows {
		if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
			return errors.Wrapf(err, "upsert consumption variant %d day %s",
				row.VariantID, row.Date.Format("2006-01-02"))
		}
	}

	return tx.Commit()
}

func (r *PGRepository) Get7DayAverage(ctx context.Context, tenantID string, variantID int64, officeID *int64) (float64, error) {
	query := `
        SELECT COALESCE(SUM(quantity_sold), 0) / 7.0
        FROM daily_consumption
        WHERE tenant_id = $1 AND variant_id = $2
          AND date >= (CURRENT_DATE - INTERVAL '7 days')
    `
	args := []interface{}{tenantID, variantID}

	if officeID != nil {
		query += ` AND office_id = $3`
		args = append(args, *officeID)
	} else {
		query += ` AND office_id IS NULL`
	}

	var avg float64
	err := r.DB.GetContext(ctx, &avg, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "get 7 day average")
	}
	return avg, nil
}
