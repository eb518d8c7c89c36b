package model

import "time"

type SyncStatus string

const (
	SyncStatusNotConnected SyncStatus = "not_connected"
	SyncStatusPending      SyncStatus = "pending"
	SyncStatusSyncing      SyncStatus = "syncing"
	SyncStatusSuccess      SyncStatus = "success"
	SyncStatusFailed       SyncStatus = "failed"
)

type Tenant struct {
	BaseModel
	Name       string     `db:"name" json:"name"`
	BsaleToken string     `db:"bsale_token" json:"-"` // per-tenant provider access token
	IsActive   bool       `db:"is_active" json:"is_active"`
	SyncStatus SyncStatus `db:"sync_status" json:"sync_status"`
	LastSyncAt *time.Time `db:"last_sync_at" json:"last_sync_at"`
}
