package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/stockwatch-sync-service/internal/bsale"
	"github.com/fekuna/stockwatch-sync-service/internal/consumption"
	"github.com/fekuna/stockwatch-sync-service/internal/consumption/dto"
	"github.com/fekuna/stockwatch-sync-service/internal/model"
	"github.com/fekuna/stockwatch-sync-service/pkg/logger"
	"github.com/fekuna/stockwatch-sync-service/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type consumptionUseCase struct {
	repo   consumption.Repository
	api    bsale.API
	logger logger.ZapLogger
}

func NewConsumptionUseCase(repo consumption.Repository, api bsale.API, log logger.ZapLogger) consumption.UseCase {
	return &consumptionUseCase{
		repo:   repo,
		api:    api,
		logger: log,
	}
}

// groupKey identifies one variant/office/calendar-day bucket. Office 0 with
// hasOffice=false stands in for the tenant-wide (NULL office) dimension.
type groupKey struct {
	variantID int64
	officeID  int64
	hasOffice bool
	day       string // 2006-01-02, UTC
}

type group struct {
	quantity float64
	docIDs   map[int64]struct{}
}

func (uc *consumptionUseCase) AggregateDocuments(ctx context.Context, tenantID string, docs []bsale.Document) (*dto.AggregationResult, error) {
	rows, processed := aggregate(tenantID, docs)

	if len(rows) > 0 {
		if err := uc.repo.UpsertBatchAdditive(ctx, rows); err != nil {
			return nil, fmt.Errorf("upsert consumption rows: %w", err)
		}
	}

	metrics.RecordConsumption(processed, len(rows))
	uc.logger.Info("aggregated sales documents",
		zap.String("tenant_id", tenantID),
		zap.Int("documents", processed),
		zap.Int("variant_days", len(rows)),
	)

	return &dto.AggregationResult{
		DocumentsProcessed: processed,
		VariantDaysUpdated: len(rows),
	}, nil
}

func (uc *consumptionUseCase) SyncRange(ctx context.Context, tenant *model.Tenant, from, to time.Time) (*dto.AggregationResult, error) {
	docs, err := uc.api.GetDocuments(ctx, tenant.BsaleToken, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch documents: %w", err)
	}
	return uc.AggregateDocuments(ctx, tenant.ID, docs)
}

// aggregate buckets line items by (variant, office, UTC emission day), summing
// quantities and counting distinct parent documents per bucket. Documents
// without line items count as processed but produce no rows.
func aggregate(tenantID string, docs []bsale.Document) ([]model.DailyConsumption, int) {
	groups := make(map[groupKey]*group)

	for _, doc := range docs {
		day := time.Unix(doc.EmissionDate, 0).UTC().Format("2006-01-02")

		for _, detail := range doc.Details.Items {
			if detail.Variant == nil {
				continue
			}

			key := groupKey{
				variantID: detail.Variant.ID.Int64(),
				day:       day,
			}
			if doc.Office != nil {
				key.officeID = doc.Office.ID.Int64()
				key.hasOffice = true
			}

			g, ok := groups[key]
			if !ok {
				g = &group{docIDs: make(map[int64]struct{})}
				groups[key] = g
			}
			g.quantity += detail.Quantity
			g.docIDs[doc.ID.Int64()] = struct{}{}
		}
	}

	now := time.Now()
	rows := make([]model.DailyConsumption, 0, len(groups))
	for key, g := range groups {
		date, _ := time.ParseInLocation("2006-01-02", key.day, time.UTC)

		row := model.DailyConsumption{
			BaseModel: model.BaseModel{
				ID:        uuid.New().String(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			TenantID:      tenantID,
			VariantID:     key.variantID,
			Date:          date,
			QuantitySold:  g.quantity,
			DocumentCount: len(g.docIDs),
		}
		if key.hasOffice {
			officeID := key.officeID
			row.OfficeID = &officeID
		}
		rows = append(rows, row)
	}

	return rows, len(docs)
}
