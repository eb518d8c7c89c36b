package alert

import (
	"context"

	"github.com/fekuna/stockwatch-sync-service/internal/alert/dto"
)

type UseCase interface {
	// GenerateForUser evaluates one user's active thresholds against current
	// stock and velocity, creating deduplicated alerts.
	GenerateForUser(ctx context.Context, tenantID, userID string) (*dto.UserResult, error)

	// GenerateForTenant runs GenerateForUser for every user holding
	// thresholds. Per-user failures are collected, never fatal.
	GenerateForTenant(ctx context.Context, tenantID string) (*dto.Summary, error)
}
