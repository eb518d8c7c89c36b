package consumption

import (
	"context"

	"github.com/fekuna/stockwatch-sync-service/internal/model"
)

type Repository interface {
	// UpsertBatchAdditive writes aggregation rows. On key conflict the new
	// sums are ADDED to the stored sums, not overwritten.
	UpsertBatchAdditive(ctx context.Context, rows []model.DailyConsumption) error

	// Get7DayAverage returns the mean daily quantity sold over the trailing
	// seven days for one variant/office.
	Get7DayAverage(ctx context.Context, tenantID string, variantID int64, officeID *int64) (float64, error)
}
