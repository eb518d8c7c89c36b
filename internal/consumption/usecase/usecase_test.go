package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/fekuna/stockwatch-sync-service/internal/bsale"
	"github.com/fekuna/stockwatch-sync-service/internal/model"
	"github.com/fekuna/stockwatch-sync-service/pkg/logger"
)

type fakeRepo struct {
	rows []model.DailyConsumption
	err  error
}

func (r *fakeRepo) UpsertBatchAdditive(ctx context.Context, rows []model.DailyConsumption) error {
	if r.err != nil {
		return r.err
	}
	r.rows = append(r.rows, rows...)
	return nil
}

func (r *fakeRepo) Get7DayAverage(ctx context.Context, tenantID string, variantID int64, officeID *int64) (float64, error) {
	return 0, nil
}

func doc(id int64, emission time.Time, officeID int64, details ...bsale.DocumentDetail) bsale.Document {
	d := bsale.Document{
		ID:           bsale.FlexID(id),
		EmissionDate: emission.Unix(),
		Details:      bsale.DetailList{Items: details},
	}
	if officeID > 0 {
		d.Office = &bsale.Ref{ID: bsale.FlexID(officeID)}
	}
	return d
}

func detail(variantID int64, qty float64) bsale.DocumentDetail {
	return bsale.DocumentDetail{
		Variant:  &bsale.Ref{ID: bsale.FlexID(variantID)},
		Quantity: qty,
	}
}

func TestAggregateDocumentsGroupsByVariantDay(t *testing.T) {
	repo := &fakeRepo{}
	uc := NewConsumptionUseCase(repo, nil, logger.NewNop())

	day := time.Date(2026, 8, 29, 14, 30, 0, 0, time.UTC)

	// Two documents, same day, same variant and office.
	docs := []bsale.Document{
		doc(1, day, 7, detail(101, 5)),
		doc(2, day.Add(2*time.Hour), 7, detail(101, 3)),
	}

	result, err := uc.AggregateDocuments(context.Background(), "tenant-1", docs)
	if err != nil {
		t.Fatalf("AggregateDocuments: %v", err)
	}

	if result.DocumentsProcessed != 2 {
		t.Errorf("DocumentsProcessed = %d, want 2", result.DocumentsProcessed)
	}
	if result.VariantDaysUpdated != 1 {
		t.Errorf("VariantDaysUpdated = %d, want 1", result.VariantDaysUpdated)
	}
	if len(repo.rows) != 1 {
		t.Fatalf("rows upserted = %d, want 1", len(repo.rows))
	}

	row := repo.rows[0]
	if row.QuantitySold != 8 {
		t.Errorf("QuantitySold = %v, want 8", row.QuantitySold)
	}
	if row.DocumentCount != 2 {
		t.Errorf("DocumentCount = %d, want 2", row.DocumentCount)
	}
	if row.VariantID != 101 {
		t.Errorf("VariantID = %d, want 101", row.VariantID)
	}
	if row.OfficeID == nil || *row.OfficeID != 7 {
		t.Errorf("OfficeID = %v, want 7", row.OfficeID)
	}
	wantDate := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	if !row.Date.Equal(wantDate) {
		t.Errorf("Date = %v, want %v", row.Date, wantDate)
	}
	if row.TenantID != "tenant-1" {
		t.Errorf("TenantID = %q, want tenant-1", row.TenantID)
	}
}

func TestAggregateDocumentsSplitsDaysAndOffices(t *testing.T) {
	repo := &fakeRepo{}
	uc := NewConsumptionUseCase(repo, nil, logger.NewNop())

	day1 := time.Date(2026, 8, 28, 23, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 8, 29, 1, 0, 0, 0, time.UTC)

	docs := []bsale.Document{
		doc(1, day1, 7, detail(101, 2)),
		doc(2, day2, 7, detail(101, 4)),
		// Same day as doc 2 but no office: separate tenant-wide bucket.
		doc(3, day2, 0, detail(101, 1)),
	}

	result, err := uc.AggregateDocuments(context.Background(), "tenant-1", docs)
	if err != nil {
		t.Fatalf("AggregateDocuments: %v", err)
	}
	if result.VariantDaysUpdated != 3 {
		t.Errorf("VariantDaysUpdated = %d, want 3", result.VariantDaysUpdated)
	}

	var nilOfficeRows int
	for _, row := range repo.rows {
		if row.OfficeID == nil {
			nilOfficeRows++
			if row.QuantitySold != 1 {
				t.Errorf("tenant-wide QuantitySold = %v, want 1", row.QuantitySold)
			}
		}
	}
	if nilOfficeRows != 1 {
		t.Errorf("rows with nil office = %d, want 1", nilOfficeRows)
	}
}

func TestAggregateDocumentsSkipsEmptyAndDetailless(t *testing.T) {
	repo := &fakeRepo{}
	uc := NewConsumptionUseCase(repo, nil, logger.NewNop())

	day := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	docs := []bsale.Document{
		doc(1, day, 7), // no line items
		doc(2, day, 7, bsale.DocumentDetail{Quantity: 3}), // nil variant
	}

	result, err := uc.AggregateDocuments(context.Background(), "tenant-1", docs)
	if err != nil {
		t.Fatalf("AggregateDocuments: %v", err)
	}
	if result.DocumentsProcessed != 2 {
		t.Errorf("DocumentsProcessed = %d, want 2", result.DocumentsProcessed)
	}
	if result.VariantDaysUpdated != 0 {
		t.Errorf("VariantDaysUpdated = %d, want 0", result.VariantDaysUpdated)
	}
	if len(repo.rows) != 0 {
		t.Errorf("rows upserted = %d, want 0", len(repo.rows))
	}
}
