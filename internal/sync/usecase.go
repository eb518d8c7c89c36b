package sync

import (
	"context"

	"github.com/fekuna/stockwatch-sync-service/internal/model"
	"github.com/fekuna/stockwatch-sync-service/internal/sync/dto"
)

type UseCase interface {
	// SyncTenant refreshes one tenant's stock snapshots and drives its
	// sync_status state machine. It never returns an error: failures are
	// classified into the result's terminal status.
	SyncTenant(ctx context.Context, tenant *model.Tenant) *dto.SyncResult

	// SyncAllTenants runs every active tenant strictly sequentially with a
	// fixed delay in between. One tenant's failure does not abort the rest.
	SyncAllTenants(ctx context.Context) (*dto.RunSummary, error)

	// PruneSnapshots deletes snapshots older than the retention window.
	PruneSnapshots(ctx context.Context) (int64, error)
}
