package sync

import (
	"context"
	"time"

	"github.com/fekuna/stockwatch-sync-service/internal/model"
)

type TenantRepository interface {
	ListActive(ctx context.Context) ([]model.Tenant, error)
	UpdateSyncStatus(ctx context.Context, tenantID string, status model.SyncStatus) error
	// MarkSynced sets sync_status to success and stamps last_sync_at.
	MarkSynced(ctx context.Context, tenantID string, at time.Time) error
}

type SnapshotRepository interface {
	// UpsertBatch writes snapshots idempotently under the composite key
	// (tenant_id, variant_id, office_id, snapshot_date). Enrichment fields
	// never overwrite a populated value with an absent one.
	UpsertBatch(ctx context.Context, snapshots []model.StockSnapshot) error
	GetLatestForTenant(ctx context.Context, tenantID string) ([]model.StockSnapshot, error)
	GetHistory(ctx context.Context, tenantID string, variantID int64, officeID *int64, days int) ([]model.StockSnapshot, error)
	PruneOlderThan(ctx context.Context, days int) (int64, error)
}
