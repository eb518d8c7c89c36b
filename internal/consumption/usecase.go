package consumption

import (
	"context"
	"time"

	"github.com/fekuna/stockwatch-sync-service/internal/bsale"
	"github.com/fekuna/stockwatch-sync-service/internal/consumption/dto"
	"github.com/fekuna/stockwatch-sync-service/internal/model"
)

type UseCase interface {
	// AggregateDocuments groups sales documents into per-variant/office/day
	// rows and upserts them additively.
	AggregateDocuments(ctx context.Context, tenantID string, docs []bsale.Document) (*dto.AggregationResult, error)

	// SyncRange fetches the tenant's sales documents for a date range and
	// aggregates them. Callers own window bookkeeping: feeding overlapping
	// ranges double-counts, because the upsert adds rather than overwrites.
	SyncRange(ctx context.Context, tenant *model.Tenant, from, to time.Time) (*dto.AggregationResult, error)
}
