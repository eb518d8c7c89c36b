package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/stockwatch-sync-service/internal/bsale"
	"github.com/fekuna/stockwatch-sync-service/internal/model"
	syncdomain "github.com/fekuna/stockwatch-sync-service/internal/sync"
	"github.com/fekuna/stockwatch-sync-service/internal/sync/dto"
	"github.com/fekuna/stockwatch-sync-service/pkg/logger"
	"github.com/fekuna/stockwatch-sync-service/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const variantIndexName = "variants"

// Locker serializes sync runs per tenant across processes.
type Locker interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}

// VariantIndexer mirrors enriched variant metadata into the search backend.
type VariantIndexer interface {
	CreateIndex(ctx context.Context, index, mapping string) error
	Index(ctx context.Context, index, id string, doc interface{}) error
}

type Config struct {
	SnapshotBatchSize int
	TenantDelay       time.Duration
	LockTTL           time.Duration
	RetentionDays     int
}

type syncUseCase struct {
	tenantRepo   syncdomain.TenantRepository
	snapshotRepo syncdomain.SnapshotRepository
	api          bsale.API
	cache        Locker
	es           VariantIndexer
	cfg          Config
	logger       logger.ZapLogger
}

func NewSyncUseCase(
	tenantRepo syncdomain.TenantRepository,
	snapshotRepo syncdomain.SnapshotRepository,
	api bsale.API,
	locker Locker,
	es VariantIndexer,
	cfg Config,
	log logger.ZapLogger,
) syncdomain.UseCase {
	if cfg.SnapshotBatchSize <= 0 {
		cfg.SnapshotBatchSize = 50
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 15 * time.Minute
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 90
	}
	return &syncUseCase{
		tenantRepo:   tenantRepo,
		snapshotRepo: snapshotRepo,
		api:          api,
		cache:        locker,
		es:           es,
		cfg:          cfg,
		logger:       log,
	}
}

func (uc *syncUseCase) SyncTenant(ctx context.Context, tenant *model.Tenant) *dto.SyncResult {
	result := &dto.SyncResult{
		TenantID:  tenant.ID,
		StartedAt: time.Now(),
	}
	defer func() {
		result.CompletedAt = time.Now()
		metrics.RecordSyncRun(string(result.Status))
		metrics.ObserveSyncDuration(result.CompletedAt.Sub(result.StartedAt).Seconds())
	}()

	// Per-tenant lock: no two concurrent writers to one tenant's sync_status.
	lockKey := "lock:sync:" + tenant.ID
	lockValue := uuid.New().String()
	if uc.cache != nil {
		acquired, err := uc.cache.AcquireLock(ctx, lockKey, lockValue, uc.cfg.LockTTL)
		if err != nil {
			uc.logger.Error("sync lock error", zap.String("tenant_id", tenant.ID), zap.Error(err))
		}
		if err == nil && !acquired {
			result.Skipped = true
			result.Status = tenant.SyncStatus
			result.Error = "sync already in progress"
			return result
		}
		defer uc.cache.ReleaseLock(ctx, lockKey, lockValue)
	}

	// Mark syncing before any provider call so observers see in-flight syncs.
	if err := uc.tenantRepo.UpdateSyncStatus(ctx, tenant.ID, model.SyncStatusSyncing); err != nil {
		result.Status = model.SyncStatusFailed
		result.Error = fmt.Sprintf("update sync status: %v", err)
		return result
	}

	itemsSynced, err := uc.runSnapshotSync(ctx, tenant)
	result.ItemsSynced = itemsSynced
	metrics.RecordSyncItems(itemsSynced)

	if err != nil {
		result.Status = uc.classify(err)
		result.Error = err.Error()
		if statusErr := uc.tenantRepo.UpdateSyncStatus(ctx, tenant.ID, result.Status); statusErr != nil {
			uc.logger.Error("failed to record terminal sync status",
				zap.String("tenant_id", tenant.ID), zap.Error(statusErr))
		}
		uc.logger.Warn("tenant sync ended with error",
			zap.String("tenant_id", tenant.ID),
			zap.String("status", string(result.Status)),
			zap.Int("items_synced", itemsSynced),
			zap.Error(err),
		)
		return result
	}

	if err := uc.tenantRepo.MarkSynced(ctx, tenant.ID, time.Now()); err != nil {
		result.Status = model.SyncStatusFailed
		result.Error = fmt.Sprintf("mark synced: %v", err)
		return result
	}

	result.Success = true
	result.Status = model.SyncStatusSuccess
	uc.logger.Info("tenant sync completed",
		zap.String("tenant_id", tenant.ID),
		zap.Int("items_synced", itemsSynced),
	)
	return result
}

// runSnapshotSync consumes the stock stream, enriches batches with variant
// metadata and upserts them. Batches written before a mid-stream failure are
// kept; the error only decides the terminal status.
func (uc *syncUseCase) runSnapshotSync(ctx context.Context, tenant *model.Tenant) (int, error) {
	// The producer blocks on its channel send; cancel it on any early return
	// (a failed upsert) so it cannot outlive this sync.
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream := uc.api.StreamStocks(streamCtx, tenant.BsaleToken)

	snapshotDate := utcDay(time.Now())
	batch := make([]model.StockSnapshot, 0, uc.cfg.SnapshotBatchSize)
	// Variant metadata is fetched at most once per sync run.
	variants := make(map[int64]bsale.Variant)
	itemsSynced := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		uc.enrichBatch(ctx, tenant, batch, variants)
		if err := uc.snapshotRepo.UpsertBatch(ctx, batch); err != nil {
			return fmt.Errorf("upsert snapshot batch: %w", err)
		}
		itemsSynced += len(batch)
		batch = batch[:0]
		return nil
	}

	for item := range stream.C {
		if item.Variant == nil {
			// Malformed item: skip it, never the tenant.
			uc.logger.Warn("stock item without variant, skipping",
				zap.String("tenant_id", tenant.ID),
				zap.Int64("stock_id", item.ID.Int64()),
			)
			continue
		}

		snap := model.StockSnapshot{
			BaseModel: model.BaseModel{
				ID:        uuid.New().String(),
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			},
			TenantID:     tenant.ID,
			VariantID:    item.Variant.ID.Int64(),
			Quantity:     item.Quantity,
			Reserved:     item.QuantityReserved,
			Available:    item.QuantityAvailable,
			SnapshotDate: snapshotDate,
		}
		if item.Office != nil {
			officeID := item.Office.ID.Int64()
			snap.OfficeID = &officeID
		}

		batch = append(batch, snap)
		if len(batch) >= uc.cfg.SnapshotBatchSize {
			if err := flush(); err != nil {
				return itemsSynced, err
			}
		}
	}

	// Items received before a mid-stream failure are still valid readings.
	if err := flush(); err != nil {
		return itemsSynced, err
	}

	if err := stream.Err(); err != nil {
		return itemsSynced, err
	}

	uc.indexVariants(ctx, tenant.ID, variants)
	return itemsSynced, nil
}

// enrichBatch fills sku/barcode/product name from variant metadata. Missing
// enrichment leaves the fields nil; the upsert preserves previously known
// values instead of nulling them.
func (uc *syncUseCase) enrichBatch(ctx context.Context, tenant *model.Tenant, batch []model.StockSnapshot, variants map[int64]bsale.Variant) {
	var missing []int64
	for _, snap := range batch {
		if _, ok := variants[snap.VariantID]; !ok {
			missing = append(missing, snap.VariantID)
		}
	}

	if len(missing) > 0 {
		fetched := uc.api.GetVariantsBatch(ctx, tenant.BsaleToken, missing)
		for id, v := range fetched {
			variants[id] = v
		}
	}

	for i := range batch {
		v, ok := variants[batch[i].VariantID]
		if !ok {
			continue
		}
		if v.Code != "" {
			sku := v.Code
			batch[i].SKU = &sku
		}
		if v.BarCode != "" {
			barcode := v.BarCode
			batch[i].Barcode = &barcode
		}
		if v.Product != nil && v.Product.Name != "" {
			name := v.Product.Name
			batch[i].ProductName = &name
		} else if v.Description != "" {
			name := v.Description
			batch[i].ProductName = &name
		}
	}
}

// indexVariants mirrors enriched variant metadata into the search backend for
// the dashboard. Runs synchronously so a run-to-completion process cannot exit
// with writes in flight; failures are logged, never fatal for the sync.
func (uc *syncUseCase) indexVariants(ctx context.Context, tenantID string, variants map[int64]bsale.Variant) {
	if uc.es == nil || len(variants) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	mapping := `{
		"mappings": {
			"properties": {
				"tenant_id": { "type": "keyword" },
				"variant_id": { "type": "long" },
				"sku": { "type": "keyword" },
				"barcode": { "type": "keyword" },
				"product_name": { "type": "text" }
			}
		}
	}`
	_ = uc.es.CreateIndex(ctx, variantIndexName, mapping)

	for id, v := range variants {
		doc := map[string]interface{}{
			"tenant_id":  tenantID,
			"variant_id": id,
			"sku":        v.Code,
			"barcode":    v.BarCode,
		}
		if v.Product != nil {
			doc["product_name"] = v.Product.Name
		} else {
			doc["product_name"] = v.Description
		}

		docID := fmt.Sprintf("%s:%d", tenantID, id)
		if err := uc.es.Index(ctx, variantIndexName, docID, doc); err != nil {
			uc.logger.Warn("failed to index variant", zap.String("doc_id", docID), zap.Error(err))
		}
	}
}

// classify maps a sync failure to its terminal status. Auth means the tenant
// must reconnect; rate-limit and network failures resolve themselves, so the
// tenant goes back to pending for the next scheduled run.
func (uc *syncUseCase) classify(err error) model.SyncStatus {
	switch {
	case bsale.IsAuth(err):
		return model.SyncStatusFailed
	case bsale.IsDeferrable(err):
		return model.SyncStatusPending
	default:
		return model.SyncStatusFailed
	}
}

func (uc *syncUseCase) SyncAllTenants(ctx context.Context) (*dto.RunSummary, error) {
	tenants, err := uc.tenantRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active tenants: %w", err)
	}

	summary := &dto.RunSummary{Total: len(tenants)}

	for i, tenant := range tenants {
		t := tenant
		result := uc.SyncTenant(ctx, &t)
		summary.Results = append(summary.Results, *result)
		switch {
		case result.Skipped:
			// Another run holds the tenant's lock; not a failure.
			summary.Skipped++
		case result.Success:
			summary.Succeeded++
		default:
			summary.Failed++
		}

		// Shared provider rate limit: tenants run strictly sequentially with
		// a fixed gap.
		if i < len(tenants)-1 && uc.cfg.TenantDelay > 0 {
			select {
			case <-time.After(uc.cfg.TenantDelay):
			case <-ctx.Done():
				return summary, ctx.Err()
			}
		}
	}

	pruned, err := uc.PruneSnapshots(ctx)
	if err != nil {
		uc.logger.Error("snapshot retention prune failed", zap.Error(err))
	} else {
		summary.SnapshotsPruned = pruned
	}

	uc.logger.Info("sync run completed",
		zap.Int("total", summary.Total),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Int64("snapshots_pruned", summary.SnapshotsPruned),
	)
	return summary, nil
}

func (uc *syncUseCase) PruneSnapshots(ctx context.Context) (int64, error) {
	return uc.snapshotRepo.PruneOlderThan(ctx, uc.cfg.RetentionDays)
}

func utcDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
