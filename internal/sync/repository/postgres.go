package repository

import (
	"context"
	"time"

	"github.com/fekuna/stockwatch-sync-service/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type PGTenantRepository struct {
	DB *sqlx.DB
}

func NewPGTenantRepository(db *sqlx.DB) *PGTenantRepository {
	return &PGTenantRepository{DB: db}
}

func (r *PGTenantRepository) ListActive(ctx context.Context) ([]model.Tenant, error) {
	var tenants []model.Tenant
	query := `
        SELECT * FROM tenants
        WHERE is_active = true AND sync_status != 'not_connected'
        ORDER BY created_at
    `
	if err := r.DB.SelectContext(ctx, &tenants, query); err != nil {
		return nil, errors.Wrap(err, "list active tenants")
	}
	return tenants, nil
}

func (r *PGTenantRepository) UpdateSyncStatus(ctx context.Context, tenantID string, status model.SyncStatus) error {
	query := `UPDATE tenants SET sync_status = $1, updated_at = $2 WHERE id = $3`
	_, err := r.DB.ExecContext(ctx, query, status, time.Now(), tenantID)
	return errors.Wrapf(err, "update sync status for tenant %s", tenantID)
}

func (r *PGTenantRepository) MarkSynced(ctx context.Context, tenantID string, at time.Time) error {
	query := `
        UPDATE tenants
        SET sync_status = 'success', last_sync_at = $1, updated_at = $1
        WHERE id = $2
    `
	_, err := r.DB.ExecContext(ctx, query, at, tenantID)
	return errors.Wrapf(err, "mark tenant %s synced", tenantID)
}

type PGSnapshotRepository struct {
	DB *sqlx.DB
}

func NewPGSnapshotRepository(db *sqlx.DB) *PGSnapshotRepository {
	return &PGSnapshotRepository{DB: db}
}

func (r *PGSnapshotRepository) UpsertBatch(ctx context.Context, snapshots []model.StockSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	// COALESCE keeps previously known enrichment when the provider stops
	// returning it for a variant.
	// office_id is nullable: the unique index on (tenant_id, variant_id,
	// office_id, snapshot_date) must be declared NULLS NOT DISTINCT, or
	// re-syncing a tenant-wide (office NULL) row the same day inserts a
	// duplicate instead of updating.
	query := `
        INSERT INTO stock_snapshots (
            id, tenant_id, variant_id, office_id,
            quantity, reserved, available,
            sku, barcode, product_name,
            snapshot_date, created_at, updated_at
        )
        VALUES (
            :id, :tenant_id, :variant_id, :office_id,
            :quantity, :reserved, :available,
            :sku, :barcode, :product_name,
            :snapshot_date, :created_at, :updated_at
        )
        ON CONFLICT (tenant_id, variant_id, office_id, snapshot_date)
        DO UPDATE SET
            quantity = EXCLUDED.quantity,
            reserved = EXCLUDED.reserved,
            available = EXCLUDED.available,
            sku = COALESCE(EXCLUDED.sku, stock_snapshots.sku),
            barcode = COALESCE(EXCLUDED.barcode, stock_snapshots.barcode),
            product_name = COALESCE(EXCLUDED.product_name, stock_snapshots.product_name),
            updated_at = EXCLUDED.updated_at
    `

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin snapshot upsert")
	}
	defer tx.Rollback()

	for _, snap := range snapshots {
		if _, err := tx.NamedExecContext(ctx, query, snap); err != nil {
			return errors.Wrapf(err, "upsert snapshot variant %d", snap.VariantID)
		}
	}

	return tx.Commit()
}

func (r *PGSnapshotRepository) GetLatestForTenant(ctx context.Context, tenantID string) ([]model.StockSnapshot, error) {
	var snapshots []model.StockSnapshot
	query := `
        SELECT DISTINCT ON (variant_id, office_id) *
        FROM stock_snapshots
        WHERE tenant_id = $1
        ORDER BY variant_id, office_id, snapshot_date DESC
    `
	if err := r.DB.SelectContext(ctx, &snapshots, query, tenantID); err != nil {
		return nil, errors.Wrap(err, "get latest snapshots")
	}
	return snapshots, nil
}

func (r *PGSnapshotRepository) GetHistory(ctx context.Context, tenantID string, variantID int64, officeID *int64, days int) ([]model.StockSnapshot, error) {
	query := `
        SELECT * FROM stock_snapshots
        WHERE tenant_id = $1 AND variant_id = $2
          AND snapshot_date >= CURRENT_DATE - make_interval(days => $3)
    `
	args := []interface{}{tenantID, variantID, days}

	if officeID != nil {
		query += ` AND office_id = $4`
		args = append(args, *officeID)
	} else {
		query += ` AND office_id IS NULL`
	}
	query += ` ORDER BY snapshot_date ASC`

	var snapshots []model.StockSnapshot
	if err := r.DB.SelectContext(ctx, &snapshots, query, args...); err != nil {
		return nil, errors.Wrapf(err, "get snapshot history for variant %d", variantID)
	}
	return snapshots, nil
}

func (r *PGSnapshotRepository) PruneOlderThan(ctx context.Context, days int) (int64, error) {
	query := `DELETE FROM stock_snapshots WHERE snapshot_date < CURRENT_DATE - make_interval(days => $1)`
	res, err := r.DB.ExecContext(ctx, query, days)
	if err != nil {
		return 0, errors.Wrap(err, "prune snapshots")
	}
	return res.RowsAffected()
}
