package threshold

import (
	"context"

	"github.com/fekuna/stockwatch-sync-service/internal/model"
)

type Repository interface {
	GetByUser(ctx context.Context, tenantID, userID string) ([]model.Threshold, error)
	CountByUser(ctx context.Context, tenantID, userID string) (int, error)
	// ListIDsByUserOrdered returns threshold IDs in creation order; the plan
	// limiter caps free-tier users by taking a stable prefix of this list.
	ListIDsByUserOrdered(ctx context.Context, tenantID, userID string) ([]string, error)
	// ListUserIDs returns the distinct users holding thresholds for a tenant.
	ListUserIDs(ctx context.Context, tenantID string) ([]string, error)
}
