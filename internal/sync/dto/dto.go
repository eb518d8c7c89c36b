package dto

import (
	"time"

	"github.com/fekuna/stockwatch-sync-service/internal/model"
)

type SyncResult struct {
	TenantID string
	Success  bool
	// Skipped is set when another run already holds the tenant's sync lock;
	// neither a success nor a failure.
	Skipped     bool
	ItemsSynced int
	Status      model.SyncStatus
	StartedAt   time.Time
	CompletedAt time.Time
	Error       string
}

type RunSummary struct {
	Total           int
	Succeeded       int
	Failed          int
	Skipped         int
	Results         []SyncResult
	SnapshotsPruned int64
}
